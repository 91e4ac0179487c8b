package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/Hupka/fuzzy-supplier-finder/internal/app/pipeline"
	"github.com/Hupka/fuzzy-supplier-finder/internal/core/domain"
	"github.com/Hupka/fuzzy-supplier-finder/internal/core/ports"
)

// SupplierStore is the part of the dataset the batch matcher mutates.
type SupplierStore interface {
	IDs() []string
	Get(id string) (domain.SupplierRecord, bool)
	Update(id string, fn func(*domain.SupplierRecord)) (domain.SupplierRecord, error)
}

type BatchOptions struct {
	Cap      int           // names queried per batch, <= 0 queries every row
	Delay    time.Duration // wait after every request
	Rand     *rand.Rand    // sample source, seeded from the clock when nil
	Progress func(done, total int)
}

type BatchResult struct {
	Total        int           `json:"total"`
	Attempted    int           `json:"attempted"`
	Matched      int           `json:"matched"`
	NoMatch      int           `json:"noMatch"`
	NotAttempted int           `json:"notAttempted"`
	Canceled     bool          `json:"canceled"`
	Elapsed      time.Duration `json:"elapsedNs"`
}

type NameMatcher struct {
	registry ports.Registry
	fuzzy    ports.FuzzySearcher
	swg      *metrics.SmithWatermanGotoh
	log      *slog.Logger
}

func NewNameMatcher(reg ports.Registry, log *slog.Logger) *NameMatcher {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	swg := metrics.NewSmithWatermanGotoh()
	swg.CaseSensitive = false
	swg.GapPenalty = -0.1
	swg.Substitution = metrics.MatchMismatch{
		Match:    1,
		Mismatch: -0.5,
	}

	return &NameMatcher{
		registry: reg,
		swg:      swg,
		log:      log.With("component", "matcher"),
	}
}

// WithFuzzy enables the completion fallback for names the exact filter
// does not find.
func (m *NameMatcher) WithFuzzy(f ports.FuzzySearcher) *NameMatcher {
	m.fuzzy = f
	return m
}

// MatchByName queries the name search for exactly one result and parses
// it. Zero results yield (nil, nil); transport and parse failures are
// returned so callers can log them.
func (m *NameMatcher) MatchByName(ctx context.Context, name string) (*domain.CompanyRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	doc, err := m.registry.SearchByName(ctx, name, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to search %q: %w", name, err)
	}
	items, err := doc.Many()
	if err != nil {
		return nil, fmt.Errorf("failed to decode search for %q: %w", name, err)
	}
	if len(items) == 0 {
		if m.fuzzy != nil {
			return m.matchFuzzy(ctx, name)
		}
		return nil, nil
	}

	rec := pipeline.ParseCompany(items[0])
	if rec == nil {
		return nil, fmt.Errorf("%w: search result for %q", ErrUnexpectedResource, name)
	}
	return rec, nil
}

func (m *NameMatcher) matchFuzzy(ctx context.Context, name string) (*domain.CompanyRecord, error) {
	completions, err := m.fuzzy.FuzzyCompletions(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch completions for %q: %w", name, err)
	}

	var best *domain.CompanyRecord
	bestScore := 0.0
	for _, c := range completions {
		if c.LEI == "" {
			continue
		}
		if score := m.Confidence(name, c.Value); best == nil || score > bestScore {
			doc, err := m.registry.LEIRecord(ctx, c.LEI)
			if err != nil {
				m.log.Debug("completion lookup failed", "lei", c.LEI, "error", err)
				continue
			}
			res, err := doc.One()
			if err != nil {
				continue
			}
			if rec := pipeline.CompanyFromResource(res); rec != nil {
				best, bestScore = rec, score
			}
		}
	}
	return best, nil
}

// Match runs MatchByName and folds the outcome into a match state.
func (m *NameMatcher) Match(ctx context.Context, name string) domain.MatchState {
	rec, err := m.MatchByName(ctx, name)
	switch {
	case err != nil:
		m.log.Warn("name match failed", "name", name, "error", err)
		return domain.NoMatchState(domain.FailureTransport)
	case rec == nil:
		m.log.Debug("no registry match", "name", name)
		return domain.NoMatchState(domain.FailureNoResults)
	}
	return domain.MatchedState(rec, m.Confidence(name, rec.LegalName))
}

// Confidence scores the similarity of the supplier name and a legal name
// in [0, 1], rounded to two decimals.
func (m *NameMatcher) Confidence(name, legalName string) float64 {
	a, b := normalizeName(name), normalizeName(legalName)
	if a == "" || b == "" {
		return 0
	}
	return math.Round(strutil.Similarity(a, b, m.swg)*100) / 100
}

// MatchBatch matches the store's rows one at a time in input order. When
// there are more rows than opts.Cap a uniform random sample is queried and
// the rest keep their state. A failure marks its row NoMatch and the batch
// moves on; cancellation stops it and leaves unprocessed rows untouched.
func (m *NameMatcher) MatchBatch(ctx context.Context, store SupplierStore, opts BatchOptions) BatchResult {
	start := time.Now()
	ids := store.IDs()
	selected := sample(ids, opts.Cap, opts.Rand)

	result := BatchResult{Total: len(ids)}
	m.log.Info("starting batch", "rows", len(ids), "selected", len(selected), "delay", opts.Delay)

	for i, id := range selected {
		if ctx.Err() != nil {
			result.Canceled = true
			break
		}
		report := func() {
			if opts.Progress != nil {
				opts.Progress(i+1, len(selected))
			}
		}

		// rows dropped by a reload are skipped without a request
		rec, ok := store.Get(id)
		if !ok {
			report()
			continue
		}
		state := m.Match(ctx, rec.OriginalName)
		if ctx.Err() != nil {
			result.Canceled = true
			break
		}
		if _, err := store.Update(id, func(r *domain.SupplierRecord) { r.Match = state }); err != nil {
			m.log.Warn("failed to store match", "id", id, "error", err)
		} else {
			result.Attempted++
			if state.Status == domain.Matched {
				result.Matched++
			} else {
				result.NoMatch++
			}
		}
		report()

		if !wait(ctx, opts.Delay) {
			result.Canceled = true
			break
		}
	}

	for _, id := range ids {
		if rec, ok := store.Get(id); ok && rec.Match.Status == domain.NotAttempted {
			result.NotAttempted++
		}
	}
	result.Elapsed = time.Since(start)

	m.log.Info("batch finished", "attempted", result.Attempted, "matched", result.Matched,
		"no_match", result.NoMatch, "not_attempted", result.NotAttempted, "elapsed", result.Elapsed)
	return result
}

// sample picks n ids uniformly at random and returns them in input order.
func sample(ids []string, n int, rng *rand.Rand) []string {
	if n <= 0 || len(ids) <= n {
		return ids
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	idx := rng.Perm(len(ids))[:n]
	sort.Ints(idx)

	out := make([]string, n)
	for i, j := range idx {
		out[i] = ids[j]
	}
	return out
}

func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
