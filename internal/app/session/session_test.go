package session

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gt "github.com/Hupka/fuzzy-supplier-finder/internal/adapters/gleif/gleiftest"
	"github.com/Hupka/fuzzy-supplier-finder/internal/app/pipeline"
	"github.com/Hupka/fuzzy-supplier-finder/internal/app/services"
	"github.com/Hupka/fuzzy-supplier-finder/internal/core/domain"
)

const (
	acmeLEI   = "5493001KJTIIGC8Y1R12"
	globexLEI = "529900T8BM49AURSDO55"
)

func newSession(t *testing.T, srv *gt.Server) *Session {
	client := srv.Client(t)
	cfg := srv.Config()
	resolver := services.NewLinkResolver(client, nil)
	return New(cfg,
		services.NewNameMatcher(client, nil),
		services.NewHierarchyBuilder(cfg, client, resolver, nil),
		resolver, nil)
}

func load(t *testing.T, s *Session, csv string) []domain.SupplierRecord {
	file, err := pipeline.NewSupplierParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	return s.Load(file)
}

func TestEndToEndExceptionParent(t *testing.T) {
	srv := gt.NewServer(t)
	srv.Search(func(name string) (int, string) {
		if name == "Acme AG" {
			return http.StatusOK, `{"data":[` + gt.LEIRecord(acmeLEI, "Acme AG", gt.DirectParentException(acmeLEI)) + `]}`
		}
		return http.StatusOK, gt.Empty
	})
	srv.JSON("/lei-records/"+acmeLEI+"/direct-parent-reporting-exception", http.StatusOK,
		gt.Doc(gt.Exception(acmeLEI, "DIRECT_ACCOUNTING_CONSOLIDATION_PARENT", "NO_LEI")))
	s := newSession(t, srv)

	rows := load(t, s, "Name\nAcme AG\n")
	require.Len(t, rows, 1)
	assert.Equal(t, domain.NotAttempted, rows[0].Match.Status)

	res, err := s.MatchAll(context.Background(), s.BatchOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Matched)

	rec, err := s.Supplier(rows[0].ID)
	require.NoError(t, err)
	require.Equal(t, domain.Matched, rec.Match.Status)

	view, applied := s.Focus(context.Background(), *rec.Match.Record)
	assert.True(t, applied)
	assert.Nil(t, view.DirectParent)
	require.NotNil(t, view.DirectParentException)
	assert.Equal(t, domain.ReasonNoLEI, view.DirectParentException.ReasonCode)
	assert.Same(t, view, s.Current())
}

func TestMatchAllSingleBatch(t *testing.T) {
	srv := gt.NewServer(t)
	release := make(chan struct{})
	srv.Search(func(name string) (int, string) {
		<-release
		return http.StatusOK, gt.Empty
	})
	s := newSession(t, srv)
	load(t, s, "Name\nA\n")

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.MatchAll(context.Background(), s.BatchOptions())
	}()

	require.Eventually(t, func() bool { return len(srv.Searches()) == 1 }, time.Second, 5*time.Millisecond)
	_, err := s.MatchAll(context.Background(), s.BatchOptions())
	assert.ErrorIs(t, err, ErrBatchRunning)

	close(release)
	<-done
	_, err = s.MatchAll(context.Background(), s.BatchOptions())
	assert.NoError(t, err)
}

func TestRetry(t *testing.T) {
	srv := gt.NewServer(t)
	var mu sync.Mutex
	available := false
	srv.Search(func(name string) (int, string) {
		mu.Lock()
		defer mu.Unlock()
		if available {
			return http.StatusOK, `{"data":[` + gt.LEIRecord(acmeLEI, name, gt.DirectParentException(acmeLEI)) + `]}`
		}
		return http.StatusOK, gt.Empty
	})
	srv.JSON("/lei-records/"+acmeLEI+"/direct-parent-reporting-exception", http.StatusOK,
		gt.Doc(gt.Exception(acmeLEI, "DIRECT_ACCOUNTING_CONSOLIDATION_PARENT", "NON_CONSOLIDATING")))
	s := newSession(t, srv)
	rows := load(t, s, "Name\nAcme AG\n")

	rec, err := s.Retry(context.Background(), rows[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.NoMatch, rec.Match.Status)
	assert.Equal(t, domain.FailureNoResults, rec.Match.Failure)

	mu.Lock()
	available = true
	mu.Unlock()

	rec, err = s.Retry(context.Background(), rows[0].ID)
	require.NoError(t, err)
	require.Equal(t, domain.Matched, rec.Match.Status)
	require.NotNil(t, rec.Match.Record.DirectParentException, "exception reason is prefetched")
	assert.Equal(t, domain.ReasonNonConsolidating, rec.Match.Record.DirectParentException.ReasonCode)

	_, err = s.Retry(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownSupplier)
}

func TestRetryKeepsExistingMatch(t *testing.T) {
	srv := gt.NewServer(t)
	var mu sync.Mutex
	down := false
	srv.Search(func(name string) (int, string) {
		mu.Lock()
		defer mu.Unlock()
		if down {
			return http.StatusServiceUnavailable, `{}`
		}
		return http.StatusOK, `{"data":[` + gt.LEIRecord(acmeLEI, name) + `]}`
	})
	s := newSession(t, srv)
	rows := load(t, s, "Name\nAcme AG\n")

	_, err := s.MatchAll(context.Background(), s.BatchOptions())
	require.NoError(t, err)
	before, err := s.Supplier(rows[0].ID)
	require.NoError(t, err)
	require.Equal(t, domain.Matched, before.Match.Status)
	assert.False(t, before.Match.CanRetry())

	mu.Lock()
	down = true
	mu.Unlock()

	rec, err := s.Retry(context.Background(), rows[0].ID)
	assert.ErrorIs(t, err, ErrNotRetryable)
	assert.Equal(t, domain.Matched, rec.Match.Status)

	after, err := s.Supplier(rows[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Matched, after.Match.Status)
	require.NotNil(t, after.Match.Record)
	assert.Equal(t, acmeLEI, after.Match.Record.LEI)
	assert.Len(t, srv.Searches(), 1, "no registry call for a matched row")
	assert.False(t, s.IsPending(rows[0].ID))
}

func TestRetryPending(t *testing.T) {
	srv := gt.NewServer(t)
	release := make(chan struct{})
	srv.Search(func(name string) (int, string) {
		if name == "Slow" {
			<-release
		}
		return http.StatusOK, gt.Empty
	})
	s := newSession(t, srv)
	rows := load(t, s, "Name\nSlow\nFast\n")

	done := make(chan error, 1)
	go func() {
		_, err := s.Retry(context.Background(), rows[0].ID)
		done <- err
	}()
	require.Eventually(t, func() bool { return s.IsPending(rows[0].ID) }, time.Second, 5*time.Millisecond)

	_, err := s.Retry(context.Background(), rows[0].ID)
	assert.ErrorIs(t, err, ErrRetryPending)

	// a different row is not blocked
	rec, err := s.Retry(context.Background(), rows[1].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.NoMatch, rec.Match.Status)

	close(release)
	assert.NoError(t, <-done)
	assert.False(t, s.IsPending(rows[0].ID))
}

func TestFocusDiscardsSupersededView(t *testing.T) {
	srv := gt.NewServer(t)
	release := make(chan struct{})
	srv.Handle("/lei-records/"+acmeLEI+"/direct-parent", func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(gt.Doc(gt.LEIRecord(globexLEI, "Globex Holding"))))
	})
	srv.JSON("/lei-records/"+acmeLEI, http.StatusOK, gt.Doc(gt.LEIRecord(acmeLEI, "Acme AG", gt.DirectParentEntity(acmeLEI))))
	srv.JSON("/lei-records/"+globexLEI, http.StatusOK, gt.Doc(gt.LEIRecord(globexLEI, "Globex Holding")))
	s := newSession(t, srv)

	type result struct {
		view    *domain.HierarchyView
		applied bool
	}
	slow := make(chan result, 1)
	go func() {
		view, applied, err := s.FocusLEI(context.Background(), acmeLEI)
		assert.NoError(t, err)
		slow <- result{view, applied}
	}()
	require.Eventually(t, func() bool { return srv.Hits("/lei-records/"+acmeLEI+"/direct-parent") == 1 },
		time.Second, 5*time.Millisecond)

	fast, applied, err := s.FocusLEI(context.Background(), globexLEI)
	require.NoError(t, err)
	assert.True(t, applied)

	close(release)
	old := <-slow
	assert.False(t, old.applied)
	assert.Less(t, old.view.Generation, fast.Generation)
	assert.Same(t, fast, s.Current())
	assert.Equal(t, globexLEI, s.Current().Current.LEI)
}

func TestLoadResetsState(t *testing.T) {
	srv := gt.NewServer(t)
	srv.JSON("/lei-records/"+acmeLEI, http.StatusOK, gt.Doc(gt.LEIRecord(acmeLEI, "Acme AG")))
	s := newSession(t, srv)

	_, applied, err := s.FocusLEI(context.Background(), acmeLEI)
	require.NoError(t, err)
	require.True(t, applied)

	rows := load(t, s, "Name;Region\nAcme AG;EU\n")
	assert.Nil(t, s.Current())
	assert.Equal(t, "EU", rows[0].Columns["Region"])
	assert.Equal(t, []string{"Name", "Region"}, s.Schema().Headers)
	assert.Len(t, s.Suppliers(), 1)

	_, err = s.Supplier("missing")
	assert.ErrorIs(t, err, ErrUnknownSupplier)
}

func TestNavigate(t *testing.T) {
	srv := gt.NewServer(t)
	srv.JSON("/lei-records/"+acmeLEI, http.StatusOK, gt.Doc(gt.LEIRecord(acmeLEI, "Acme AG", gt.DirectParentEntity(acmeLEI))))
	srv.JSON("/lei-records/"+acmeLEI+"/direct-parent", http.StatusOK, gt.Doc(gt.LEIRecord(globexLEI, "Globex Holding")))
	s := newSession(t, srv)

	_, _, err := s.Navigate(context.Background(), globexLEI)
	assert.ErrorIs(t, err, ErrNotInView, "nothing focused yet")

	first, applied, err := s.FocusLEI(context.Background(), acmeLEI)
	require.NoError(t, err)
	require.True(t, applied)

	_, _, err = s.Navigate(context.Background(), "UNRELATED")
	assert.ErrorIs(t, err, ErrNotInView)

	view, applied, err := s.Navigate(context.Background(), globexLEI)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, "Globex Holding", view.Current.LegalName)
	assert.Nil(t, view.DirectParent)
	assert.Greater(t, view.Generation, first.Generation)
	assert.Same(t, view, s.Current())
}
