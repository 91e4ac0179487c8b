package gleif_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hupka/fuzzy-supplier-finder/internal/adapters/gleif"
	gt "github.com/Hupka/fuzzy-supplier-finder/internal/adapters/gleif/gleiftest"
	"github.com/Hupka/fuzzy-supplier-finder/internal/config"
	"github.com/Hupka/fuzzy-supplier-finder/internal/core/registry"
)

const lei = "5493001KJTIIGC8Y1R12"

func TestLEIRecord(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		_, _ = w.Write([]byte(gt.Doc(gt.LEIRecord(lei, "Acme AG"))))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.GLEIFBaseURL = srv.URL + "/api/v1/"
	cfg.GLEIFRateLimit = 0
	c, err := gleif.New(cfg, nil)
	require.NoError(t, err)

	doc, err := c.LEIRecord(context.Background(), lei)
	require.NoError(t, err)
	res, err := doc.One()
	require.NoError(t, err)

	assert.Equal(t, registry.TypeLEIRecord, res.Type)
	assert.Equal(t, lei, res.ID)
	assert.Equal(t, "/api/v1/lei-records/"+lei, got.URL.Path)
	assert.Equal(t, "application/vnd.api+json", got.Header.Get("Accept"))
	assert.Equal(t, cfg.UserAgent, got.Header.Get("User-Agent"))
}

func TestSearchByNameQuery(t *testing.T) {
	srv := gt.NewServer(t)
	srv.Search(func(name string) (int, string) { return http.StatusOK, gt.Empty })
	c := srv.Client(t)

	doc, err := c.SearchByName(context.Background(), "Müller & Söhne GmbH", 1)
	require.NoError(t, err)
	assert.True(t, doc.IsEmpty())
	assert.Equal(t, []string{"Müller & Söhne GmbH"}, srv.Searches())
}

func TestChildrenPaging(t *testing.T) {
	var query string
	srv := gt.NewServer(t)
	srv.Handle("/lei-records/"+lei+"/direct-children", func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(gt.Empty))
	})
	c := srv.Client(t)

	_, err := c.Children(context.Background(), srv.BaseURL()+"/lei-records/"+lei+"/direct-children", 10)
	require.NoError(t, err)
	assert.Equal(t, "page%5Bnumber%5D=1&page%5Bsize%5D=10", query)
}

func TestFollowRelativeLinks(t *testing.T) {
	srv := gt.NewServer(t)
	srv.JSON("/lei-records/"+lei, http.StatusOK, gt.Doc(gt.LEIRecord(lei, "Acme AG")))
	c := srv.Client(t)

	tests := []struct {
		name string
		link string
	}{
		{"absolute", srv.BaseURL() + "/lei-records/" + lei},
		{"relative", "lei-records/" + lei},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := c.Follow(context.Background(), tt.link)
			require.NoError(t, err)
			res, err := doc.One()
			require.NoError(t, err)
			assert.Equal(t, lei, res.ID)
		})
	}
}

func TestStatusErrors(t *testing.T) {
	srv := gt.NewServer(t)
	srv.JSON("/lei-records/BROKEN", http.StatusServiceUnavailable, `{"errors":[]}`)
	c := srv.Client(t)

	_, err := c.LEIRecord(context.Background(), "MISSING")
	assert.ErrorIs(t, err, registry.ErrNotFound)

	_, err = c.LEIRecord(context.Background(), "BROKEN")
	require.Error(t, err)
	assert.NotErrorIs(t, err, registry.ErrNotFound)
	var se *gleif.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
}

func TestFuzzyCompletions(t *testing.T) {
	srv := gt.NewServer(t)
	srv.JSON("/fuzzycompletions", http.StatusOK, `{"data":[`+
		`{"type":"fuzzycompletions","attributes":{"value":"ACME AG"},"relationships":{"lei-records":{"data":{"type":"lei-records","id":"`+lei+`"}}}},`+
		`{"type":"fuzzycompletions","attributes":{"value":"ACME (no record)"}}]}`)
	c := srv.Client(t)

	got, err := c.FuzzyCompletions(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, []registry.Completion{{Value: "ACME AG", LEI: lei}}, got)
}

func TestRateLimit(t *testing.T) {
	srv := gt.NewServer(t)
	srv.JSON("/lei-records/"+lei, http.StatusOK, gt.Doc(gt.LEIRecord(lei, "Acme AG")))

	cfg := srv.Config()
	cfg.GLEIFRateLimit = 20
	c, err := gleif.New(cfg, nil)
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.LEIRecord(context.Background(), lei)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestContextCanceled(t *testing.T) {
	srv := gt.NewServer(t)
	c := srv.Client(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.LEIRecord(ctx, lei)
	assert.ErrorIs(t, err, context.Canceled)
}
