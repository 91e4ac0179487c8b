package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Hupka/fuzzy-supplier-finder/internal/app/dataset"
	"github.com/Hupka/fuzzy-supplier-finder/internal/app/pipeline"
	"github.com/Hupka/fuzzy-supplier-finder/internal/app/services"
	"github.com/Hupka/fuzzy-supplier-finder/internal/config"
	"github.com/Hupka/fuzzy-supplier-finder/internal/core/domain"
)

var (
	ErrBatchRunning    = errors.New("a match batch is already running")
	ErrRetryPending    = errors.New("a retry for this supplier is already pending")
	ErrUnknownSupplier = errors.New("unknown supplier")
	ErrNotRetryable    = errors.New("supplier is already matched")
	ErrNotInView       = errors.New("entity is not part of the current hierarchy")
)

// Session is the in-memory state of one user's work: the supplier dataset
// and the hierarchy view currently on screen. Nothing is persisted.
type Session struct {
	store    *dataset.Store
	matcher  *services.NameMatcher
	builder  *services.HierarchyBuilder
	resolver *services.LinkResolver
	log      *slog.Logger

	batchCap      int
	batchDelay    time.Duration
	prefetchLimit int

	batchMu   sync.Mutex
	pendingMu sync.Mutex
	pending   map[string]struct{}

	generation atomic.Uint64
	viewMu     sync.RWMutex
	view       *domain.HierarchyView
}

func New(cfg *config.Config, matcher *services.NameMatcher, builder *services.HierarchyBuilder, resolver *services.LinkResolver, log *slog.Logger) *Session {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{
		store:         dataset.New(),
		matcher:       matcher,
		builder:       builder,
		resolver:      resolver,
		log:           log.With("component", "session"),
		batchCap:      cfg.MatchBatchCap,
		batchDelay:    cfg.MatchDelay,
		prefetchLimit: cfg.PrefetchLimit,
		pending:       make(map[string]struct{}),
	}
}

// Load replaces the dataset with a freshly parsed upload. Every row starts
// NotAttempted and the current hierarchy view is dropped.
func (s *Session) Load(file *pipeline.SupplierFile) []domain.SupplierRecord {
	records := make([]domain.SupplierRecord, len(file.Records))
	for i, rec := range file.Records {
		rec.Match = domain.MatchState{}
		records[i] = rec
	}
	s.store.Reset(file.Schema, records)

	s.generation.Add(1)
	s.viewMu.Lock()
	s.view = nil
	s.viewMu.Unlock()

	s.log.Info("dataset loaded", "rows", len(records))
	return s.store.Snapshot()
}

// Suppliers returns a read-only snapshot of the dataset.
func (s *Session) Suppliers() []domain.SupplierRecord {
	return s.store.Snapshot()
}

func (s *Session) Schema() domain.SupplierSchema {
	return s.store.Schema()
}

func (s *Session) Supplier(id string) (domain.SupplierRecord, error) {
	rec, ok := s.store.Get(id)
	if !ok {
		return domain.SupplierRecord{}, ErrUnknownSupplier
	}
	return rec, nil
}

// BatchOptions returns the configured cap and delay.
func (s *Session) BatchOptions() services.BatchOptions {
	return services.BatchOptions{Cap: s.batchCap, Delay: s.batchDelay}
}

// MatchAll runs the batch matcher over the dataset. Only one batch runs at
// a time.
func (s *Session) MatchAll(ctx context.Context, opts services.BatchOptions) (services.BatchResult, error) {
	if !s.batchMu.TryLock() {
		return services.BatchResult{}, ErrBatchRunning
	}
	defer s.batchMu.Unlock()
	return s.matcher.MatchBatch(ctx, s.store, opts), nil
}

// Retry matches a single row again. Only NotAttempted and NoMatch rows can
// be retried. Concurrent retries of the same row are refused; different
// rows may be retried in parallel. A successful match
// also prefetches exception reasons for the first matched rows.
func (s *Session) Retry(ctx context.Context, id string) (domain.SupplierRecord, error) {
	rec, ok := s.store.Get(id)
	if !ok {
		return domain.SupplierRecord{}, ErrUnknownSupplier
	}
	if !rec.Match.CanRetry() {
		return rec, ErrNotRetryable
	}
	if !s.markPending(id) {
		return domain.SupplierRecord{}, ErrRetryPending
	}
	defer s.clearPending(id)

	state := s.matcher.Match(ctx, rec.OriginalName)
	var superseded bool
	updated, err := s.store.Update(id, func(r *domain.SupplierRecord) {
		// a batch may have matched the row meanwhile
		if !r.Match.CanRetry() {
			superseded = true
			return
		}
		r.Match = state
	})
	if err != nil {
		return domain.SupplierRecord{}, ErrUnknownSupplier
	}
	if superseded {
		return updated, ErrNotRetryable
	}
	s.log.Info("retry finished", "id", id, "status", state.Status, "failure", state.Failure)

	if state.Status == domain.Matched {
		s.prefetch(ctx)
		if r, ok := s.store.Get(id); ok {
			updated = r
		}
	}
	return updated, nil
}

// IsPending reports whether a retry of id is in flight.
func (s *Session) IsPending(id string) bool {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	_, ok := s.pending[id]
	return ok
}

func (s *Session) markPending(id string) bool {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	if _, ok := s.pending[id]; ok {
		return false
	}
	s.pending[id] = struct{}{}
	return true
}

func (s *Session) clearPending(id string) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	delete(s.pending, id)
}

// prefetch attaches reporting exception reasons to the first matched rows.
func (s *Session) prefetch(ctx context.Context) {
	if s.prefetchLimit <= 0 {
		return
	}

	var (
		ids  []string
		recs []*domain.CompanyRecord
	)
	for _, row := range s.store.Snapshot() {
		if row.Match.Status != domain.Matched || row.Match.Record == nil {
			continue
		}
		ids = append(ids, row.ID)
		recs = append(recs, row.Match.Record)
		if len(recs) == s.prefetchLimit {
			break
		}
	}

	out := s.resolver.PrefetchExceptions(ctx, recs, s.prefetchLimit)
	for i, rec := range out {
		if rec == recs[i] {
			continue
		}
		_, _ = s.store.Update(ids[i], func(r *domain.SupplierRecord) {
			if r.Match.Record != nil && r.Match.Record.LEI == rec.LEI {
				r.Match.Record = rec
			}
		})
	}
}

// Focus builds the hierarchy around root and makes it the current view,
// unless a newer Focus started meanwhile. The returned flag reports whether
// the view was applied.
func (s *Session) Focus(ctx context.Context, root domain.CompanyRecord) (*domain.HierarchyView, bool) {
	gen := s.generation.Add(1)
	view := s.builder.Build(ctx, root)
	view.Generation = gen
	return view, s.apply(view)
}

// FocusLEI is Focus for an entity that still has to be looked up.
func (s *Session) FocusLEI(ctx context.Context, lei string) (*domain.HierarchyView, bool, error) {
	gen := s.generation.Add(1)
	view, err := s.builder.BuildForLEI(ctx, lei)
	if err != nil {
		return nil, false, err
	}
	view.Generation = gen
	return view, s.apply(view), nil
}

// Navigate re-roots the hierarchy on a parent or child of the current view.
// The new root is rebuilt from scratch.
func (s *Session) Navigate(ctx context.Context, lei string) (*domain.HierarchyView, bool, error) {
	cur := s.Current()
	if cur == nil {
		return nil, false, ErrNotInView
	}
	root, ok := cur.Find(lei)
	if !ok {
		return nil, false, ErrNotInView
	}
	view, applied := s.Focus(ctx, *root)
	return view, applied, nil
}

func (s *Session) apply(view *domain.HierarchyView) bool {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	if s.generation.Load() != view.Generation {
		s.log.Debug("discarding superseded hierarchy", "lei", view.Current.LEI, "generation", view.Generation)
		return false
	}
	s.view = view
	return true
}

// Current returns the hierarchy view on screen, or nil.
func (s *Session) Current() *domain.HierarchyView {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return s.view
}
