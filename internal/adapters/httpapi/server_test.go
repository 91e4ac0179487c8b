package httpapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gt "github.com/Hupka/fuzzy-supplier-finder/internal/adapters/gleif/gleiftest"
	"github.com/Hupka/fuzzy-supplier-finder/internal/app/services"
	"github.com/Hupka/fuzzy-supplier-finder/internal/app/session"
	"github.com/Hupka/fuzzy-supplier-finder/internal/core/domain"
)

const acmeLEI = "5493001KJTIIGC8Y1R12"

func newTestAPI(t *testing.T) (*gt.Server, http.Handler) {
	registry := gt.NewServer(t)
	registry.Search(func(name string) (int, string) {
		if name == "Acme AG" {
			return http.StatusOK, `{"data":[` + gt.LEIRecord(acmeLEI, "Acme AG", gt.DirectParentException(acmeLEI)) + `]}`
		}
		return http.StatusOK, gt.Empty
	})
	registry.JSON("/lei-records/"+acmeLEI, http.StatusOK, gt.Doc(gt.LEIRecord(acmeLEI, "Acme AG", gt.DirectParentException(acmeLEI))))
	registry.JSON("/lei-records/"+acmeLEI+"/direct-parent-reporting-exception", http.StatusOK,
		gt.Doc(gt.Exception(acmeLEI, "DIRECT_ACCOUNTING_CONSOLIDATION_PARENT", "NO_LEI")))

	cfg := registry.Config()
	client := registry.Client(t)
	resolver := services.NewLinkResolver(client, nil)
	matcher := services.NewNameMatcher(client, nil)
	sess := session.New(cfg, matcher, services.NewHierarchyBuilder(cfg, client, resolver, nil), resolver, nil)

	return registry, New(sess, resolver, matcher, services.NewExportService(nil), nil).Routes()
}

func do(t *testing.T, h http.Handler, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	_, h := newTestAPI(t)
	rec := do(t, h, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSupplierWorkflow(t *testing.T) {
	_, h := newTestAPI(t)

	rec := do(t, h, http.MethodPost, "/suppliers", bytes.NewBufferString("Name;Region\nAcme AG;EU\nNobody Ltd;US\n"), "text/csv")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	loaded := decode[suppliersResponse](t, rec)
	require.Equal(t, 2, loaded.Count)
	assert.Equal(t, domain.NotAttempted, loaded.Suppliers[0].Match.Status)

	rec = do(t, h, http.MethodPost, "/suppliers/match", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[map[string]any](t, rec)
	assert.EqualValues(t, 2, res["attempted"])
	assert.EqualValues(t, 1, res["matched"])

	rec = do(t, h, http.MethodGet, "/suppliers", nil, "")
	listed := decode[map[string]any](t, rec)
	rows := listed["suppliers"].([]any)
	first := rows[0].(map[string]any)
	assert.Equal(t, "matched", first["match"].(map[string]any)["status"])
	assert.Equal(t, false, first["match"].(map[string]any)["canRetry"])
	second := rows[1].(map[string]any)
	assert.Equal(t, "no_match", second["match"].(map[string]any)["status"])
	assert.Equal(t, "no_results", second["match"].(map[string]any)["failure"])
	assert.Equal(t, true, second["match"].(map[string]any)["canRetry"])

	rec = do(t, h, http.MethodPost, "/suppliers/"+loaded.Suppliers[1].ID+"/retry", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/suppliers/"+loaded.Suppliers[0].ID+"/retry", nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "not_retryable", decode[ErrorResponse](t, rec).Error)

	rec = do(t, h, http.MethodPost, "/suppliers/unknown/retry", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/suppliers/export?format=csv", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Name,Region,match_status,lei"))
	assert.True(t, strings.HasPrefix(lines[1], "Acme AG,EU,matched,"+acmeLEI))

	rec = do(t, h, http.MethodGet, "/suppliers/export?format=xml", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoadSuppliersMultipart(t *testing.T) {
	_, h := newTestAPI(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "suppliers.csv")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("Lieferantenname\nAcme AG\n"))
	require.NoError(t, mw.Close())

	rec := do(t, h, http.MethodPost, "/suppliers", &body, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[suppliersResponse](t, rec).Count)
}

func TestLoadSuppliersInvalid(t *testing.T) {
	_, h := newTestAPI(t)
	rec := do(t, h, http.MethodPost, "/suppliers", bytes.NewBufferString("Foo,Bar\n1,2\n"), "text/csv")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_csv", decode[ErrorResponse](t, rec).Error)
}

func TestCompanyAndHierarchy(t *testing.T) {
	_, h := newTestAPI(t)

	rec := do(t, h, http.MethodGet, "/companies/"+acmeLEI, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	company := decode[domain.CompanyRecord](t, rec)
	assert.Equal(t, "Acme AG", company.LegalName)

	rec = do(t, h, http.MethodGet, "/companies/UNKNOWN", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/companies/"+acmeLEI+"/hierarchy", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[domain.HierarchyView](t, rec)
	assert.Nil(t, view.DirectParent)
	require.NotNil(t, view.DirectParentException)
	assert.Equal(t, domain.ReasonNoLEI, view.DirectParentException.ReasonCode)
	assert.False(t, view.IsPartial)

	rec = do(t, h, http.MethodGet, "/hierarchy", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, view.Generation, decode[domain.HierarchyView](t, rec).Generation)

	rec = do(t, h, http.MethodPost, "/hierarchy/navigate/UNRELATED", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCurrentHierarchyEmpty(t *testing.T) {
	_, h := newTestAPI(t)
	rec := do(t, h, http.MethodGet, "/hierarchy", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearch(t *testing.T) {
	_, h := newTestAPI(t)

	rec := do(t, h, http.MethodGet, "/search?name=Acme+AG", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[map[string]any](t, rec)
	match := res["match"].(map[string]any)
	assert.Equal(t, "matched", match["status"])
	assert.Equal(t, acmeLEI, match["record"].(map[string]any)["lei"])

	rec = do(t, h, http.MethodGet, "/search", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
