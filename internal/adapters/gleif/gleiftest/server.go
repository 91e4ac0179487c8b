// Package gleiftest serves JSON:API fixtures that look like the GLEIF
// registry, for tests.
package gleiftest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Hupka/fuzzy-supplier-finder/internal/adapters/gleif"
	"github.com/Hupka/fuzzy-supplier-finder/internal/config"
	"github.com/Hupka/fuzzy-supplier-finder/internal/core/registry"
)

const apiPrefix = "/api/v1"

// Base is replaced by the server's base URL in every fixture body.
const Base = "{{base}}"

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	search   func(name string) (int, string)
	hits     map[string]int
	searches []string
}

func NewServer(t testing.TB) *Server {
	s := &Server{
		routes: make(map[string]http.HandlerFunc),
		hits:   make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *Server) BaseURL() string {
	return s.URL + apiPrefix
}

// Config returns a configuration pointed at the server with the rate
// limiter and batch delay disabled.
func (s *Server) Config() *config.Config {
	cfg := config.Default()
	cfg.GLEIFBaseURL = s.BaseURL()
	cfg.GLEIFRateLimit = 0
	cfg.MatchDelay = 0
	return cfg
}

func (s *Server) Client(t testing.TB) *gleif.Client {
	c, err := gleif.New(s.Config(), nil)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

// Handle registers h for a path below the API prefix, e.g. "/lei-records/X".
func (s *Server) Handle(path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[path] = h
}

// JSON registers a fixed response for path.
func (s *Server) JSON(path string, status int, body string) {
	s.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		s.write(w, status, body)
	})
}

// Search answers name searches on /lei-records. fn receives the filter
// value and returns status and body.
func (s *Server) Search(fn func(name string) (int, string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = fn
}

func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// Searches returns the searched names in request order.
func (s *Server) Searches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.searches...)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, apiPrefix)

	s.mu.Lock()
	s.hits[path]++
	h, ok := s.routes[path]
	search := s.search
	name, isSearch := r.URL.Query()["filter[entity.legalName]"]
	if isSearch && path == "/lei-records" {
		s.searches = append(s.searches, name[0])
	}
	s.mu.Unlock()

	switch {
	case isSearch && path == "/lei-records" && search != nil:
		status, body := search(name[0])
		s.write(w, status, body)
	case ok:
		h(w, r)
	default:
		s.write(w, http.StatusNotFound, `{"errors":[{"status":"404","title":"Not Found"}]}`)
	}
}

func (s *Server) write(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/vnd.api+json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(strings.ReplaceAll(body, Base, s.BaseURL())))
}

// Doc wraps resources in a data envelope; one resource gives an object,
// otherwise an array.
func Doc(resources ...string) string {
	if len(resources) == 1 {
		return `{"data":` + resources[0] + `}`
	}
	return `{"data":[` + strings.Join(resources, ",") + `]}`
}

// Empty is a search response without results.
const Empty = `{"data":[]}`

// Rel is one named relationship link bundle.
type Rel struct {
	Name  string
	Links map[string]string
}

// LEIRecord builds a lei-records resource.
func LEIRecord(lei, name string, rels ...Rel) string {
	return fmt.Sprintf(`{"type":"lei-records","id":%q,"attributes":{"lei":%q,`+
		`"entity":{"legalName":{"name":%q},"jurisdiction":"DE","status":"ACTIVE",`+
		`"legalAddress":{"addressLines":["Hauptstrasse 1"],"city":"Berlin","country":"DE","postalCode":"10115"}},`+
		`"registration":{"status":"ISSUED"}},"relationships":%s}`, lei, lei, name, relationships(rels))
}

// Exception builds a reporting-exceptions resource.
func Exception(lei, category, reason string) string {
	return fmt.Sprintf(`{"type":"reporting-exceptions","id":%q,"attributes":{"lei":%q,"category":%q,"reason":%q}}`,
		lei, lei, category, reason)
}

// RelationshipRecord builds a relationship-records resource. An empty
// endLink leaves only the end node id.
func RelationshipRecord(start, end, endLink string) string {
	rels := "{}"
	if endLink != "" {
		rels = fmt.Sprintf(`{"end-node":{"links":{"related":%q}}}`, endLink)
	}
	return fmt.Sprintf(`{"type":"relationship-records","id":"%s-%s","attributes":{"relationship":{`+
		`"startNode":{"id":%q,"type":"LEI"},"endNode":{"id":%q,"type":"LEI"},`+
		`"type":"IS_DIRECTLY_CONSOLIDATED_BY","status":"ACTIVE"}},"relationships":%s}`,
		start, end, start, end, rels)
}

func relationships(rels []Rel) string {
	if len(rels) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(rels))
	for _, r := range rels {
		links := make([]string, 0, len(r.Links))
		for k, v := range r.Links {
			links = append(links, fmt.Sprintf("%q:%q", k, v))
		}
		parts = append(parts, fmt.Sprintf(`%q:{"links":{%s}}`, r.Name, strings.Join(links, ",")))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// DirectParentEntity links the direct parent of lei as a lei-record.
func DirectParentEntity(lei string) Rel {
	return Rel{Name: registry.RelDirectParent, Links: map[string]string{
		"lei-record":          Base + "/lei-records/" + lei + "/direct-parent",
		"relationship-record": Base + "/lei-records/" + lei + "/direct-parent-relationship",
	}}
}

// DirectParentException links the direct parent reporting exception of lei.
func DirectParentException(lei string) Rel {
	return Rel{Name: registry.RelDirectParent, Links: map[string]string{
		"reporting-exception": Base + "/lei-records/" + lei + "/direct-parent-reporting-exception",
	}}
}

// UltimateParentEntity links the ultimate parent of lei as a lei-record.
func UltimateParentEntity(lei string) Rel {
	return Rel{Name: registry.RelUltimateParent, Links: map[string]string{
		"lei-record": Base + "/lei-records/" + lei + "/ultimate-parent",
	}}
}

// UltimateParentException links the ultimate parent reporting exception of lei.
func UltimateParentException(lei string) Rel {
	return Rel{Name: registry.RelUltimateParent, Links: map[string]string{
		"reporting-exception": Base + "/lei-records/" + lei + "/ultimate-parent-reporting-exception",
	}}
}

// Children links the direct children listing of lei.
func Children(lei string) Rel {
	return Rel{Name: registry.RelDirectChildren, Links: map[string]string{
		"related": Base + "/lei-records/" + lei + "/direct-children",
	}}
}
