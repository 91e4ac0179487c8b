package app

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gt "github.com/Hupka/fuzzy-supplier-finder/internal/adapters/gleif/gleiftest"
)

func TestNewFuzzyFallback(t *testing.T) {
	srv := gt.NewServer(t)
	srv.Search(func(string) (int, string) { return http.StatusOK, gt.Empty })
	srv.JSON("/fuzzycompletions", http.StatusOK, `{"data":[{"type":"fuzzycompletions","attributes":{"value":"ACME AG"},`+
		`"relationships":{"lei-records":{"data":{"type":"lei-records","id":"5493001KJTIIGC8Y1R12"}}}}]}`)
	srv.JSON("/lei-records/5493001KJTIIGC8Y1R12", http.StatusOK, gt.Doc(gt.LEIRecord("5493001KJTIIGC8Y1R12", "ACME AG")))

	tests := []struct {
		name  string
		fuzzy bool
		want  bool
	}{
		{"exact only", false, false},
		{"with fallback", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := srv.Config()
			cfg.FuzzyFallback = tt.fuzzy

			a, err := New(cfg, nil)
			require.NoError(t, err)

			rec, err := a.Matcher.MatchByName(context.Background(), "Acme")
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec != nil)
		})
	}
}
