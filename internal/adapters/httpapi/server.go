package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Hupka/fuzzy-supplier-finder/internal/adapters/exporters"
	"github.com/Hupka/fuzzy-supplier-finder/internal/app/pipeline"
	"github.com/Hupka/fuzzy-supplier-finder/internal/app/services"
	"github.com/Hupka/fuzzy-supplier-finder/internal/app/session"
	"github.com/Hupka/fuzzy-supplier-finder/internal/core/domain"
	"github.com/Hupka/fuzzy-supplier-finder/internal/core/ports"
	"github.com/Hupka/fuzzy-supplier-finder/internal/core/registry"
)

const maxUpload = 10 << 20

// Server exposes one session over HTTP.
type Server struct {
	session  *session.Session
	resolver *services.LinkResolver
	matcher  *services.NameMatcher
	exporter *services.ExportService
	parser   *pipeline.SupplierParser
	log      *slog.Logger
}

func New(sess *session.Session, resolver *services.LinkResolver, matcher *services.NameMatcher, exporter *services.ExportService, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		session:  sess,
		resolver: resolver,
		matcher:  matcher,
		exporter: exporter,
		parser:   pipeline.NewSupplierParser(),
		log:      log.With("component", "http"),
	}
}

// Routes returns the API router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.healthz)

	r.Route("/suppliers", func(r chi.Router) {
		r.Post("/", s.loadSuppliers)
		r.Get("/", s.listSuppliers)
		r.Post("/match", s.matchSuppliers)
		r.Get("/export", s.exportSuppliers)
		r.Post("/{id}/retry", s.retrySupplier)
	})

	r.Get("/companies/{lei}", s.getCompany)
	r.Get("/companies/{lei}/hierarchy", s.getHierarchy)
	r.Get("/hierarchy", s.currentHierarchy)
	r.Post("/hierarchy/navigate/{lei}", s.navigateHierarchy)
	r.Get("/search", s.search)
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(),
			"duration", time.Since(start), "request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type suppliersResponse struct {
	Count     int                     `json:"count"`
	Suppliers []domain.SupplierRecord `json:"suppliers"`
}

func (s *Server) loadSuppliers(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)

	var body io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		f, _, err := r.FormFile("file")
		if err != nil {
			JSONError(w, http.StatusBadRequest, "missing_file", err.Error())
			return
		}
		defer f.Close()
		body = f
	}

	file, err := s.parser.Parse(body)
	if err != nil {
		JSONError(w, http.StatusBadRequest, "invalid_csv", err.Error())
		return
	}
	rows := s.session.Load(file)
	JSON(w, http.StatusCreated, suppliersResponse{Count: len(rows), Suppliers: rows})
}

func (s *Server) listSuppliers(w http.ResponseWriter, _ *http.Request) {
	rows := s.session.Suppliers()
	JSON(w, http.StatusOK, suppliersResponse{Count: len(rows), Suppliers: rows})
}

func (s *Server) matchSuppliers(w http.ResponseWriter, r *http.Request) {
	opts := s.session.BatchOptions()
	if v := r.URL.Query().Get("cap"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			JSONError(w, http.StatusBadRequest, "invalid_cap", v)
			return
		}
		opts.Cap = n
	}
	if all, _ := strconv.ParseBool(r.URL.Query().Get("all")); all {
		opts.Cap = 0
	}

	res, err := s.session.MatchAll(r.Context(), opts)
	if errors.Is(err, session.ErrBatchRunning) {
		JSONError(w, http.StatusConflict, "batch_running", nil)
		return
	}
	if err != nil {
		JSONError(w, http.StatusInternalServerError, "match_failed", err.Error())
		return
	}
	JSON(w, http.StatusOK, res)
}

func (s *Server) retrySupplier(w http.ResponseWriter, r *http.Request) {
	rec, err := s.session.Retry(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, session.ErrUnknownSupplier):
		JSONError(w, http.StatusNotFound, "unknown_supplier", nil)
	case errors.Is(err, session.ErrRetryPending):
		JSONError(w, http.StatusConflict, "retry_pending", nil)
	case errors.Is(err, session.ErrNotRetryable):
		JSONError(w, http.StatusConflict, "not_retryable", rec)
	case err != nil:
		JSONError(w, http.StatusInternalServerError, "retry_failed", err.Error())
	default:
		JSON(w, http.StatusOK, rec)
	}
}

func (s *Server) exportSuppliers(w http.ResponseWriter, r *http.Request) {
	format, err := exporters.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		JSONError(w, http.StatusBadRequest, "invalid_format", err.Error())
		return
	}

	contentType := "text/csv; charset=utf-8"
	if format == ports.FormatJSON {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="suppliers.`+string(format)+`"`)

	opts := ports.ExportOptions{Format: format, IncludeHeader: true, PrettyPrint: true}
	if err := s.exporter.Export(r.Context(), s.session.Schema(), s.session.Suppliers(), w, opts); err != nil {
		s.log.Error("export failed", "error", err)
	}
}

func (s *Server) getCompany(w http.ResponseWriter, r *http.Request) {
	rec, err := s.resolver.Lookup(r.Context(), chi.URLParam(r, "lei"))
	if err != nil {
		s.registryError(w, err)
		return
	}
	JSON(w, http.StatusOK, rec)
}

func (s *Server) getHierarchy(w http.ResponseWriter, r *http.Request) {
	view, applied, err := s.session.FocusLEI(r.Context(), chi.URLParam(r, "lei"))
	if err != nil {
		s.registryError(w, err)
		return
	}
	if !applied {
		JSONError(w, http.StatusConflict, "superseded", map[string]uint64{"generation": view.Generation})
		return
	}
	JSON(w, http.StatusOK, view)
}

func (s *Server) currentHierarchy(w http.ResponseWriter, _ *http.Request) {
	view := s.session.Current()
	if view == nil {
		JSONError(w, http.StatusNotFound, "no_hierarchy", nil)
		return
	}
	JSON(w, http.StatusOK, view)
}

func (s *Server) navigateHierarchy(w http.ResponseWriter, r *http.Request) {
	view, applied, err := s.session.Navigate(r.Context(), chi.URLParam(r, "lei"))
	if errors.Is(err, session.ErrNotInView) {
		JSONError(w, http.StatusNotFound, "not_in_view", nil)
		return
	}
	if !applied {
		JSONError(w, http.StatusConflict, "superseded", map[string]uint64{"generation": view.Generation})
		return
	}
	JSON(w, http.StatusOK, view)
}

type searchResponse struct {
	Name  string            `json:"name"`
	Match domain.MatchState `json:"match"`
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		JSONError(w, http.StatusBadRequest, "missing_name", nil)
		return
	}
	JSON(w, http.StatusOK, searchResponse{Name: name, Match: s.matcher.Match(r.Context(), name)})
}

func (s *Server) registryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, services.ErrUnexpectedResource):
		JSONError(w, http.StatusBadGateway, "unexpected_registry_response", err.Error())
	default:
		s.log.Warn("registry request failed", "error", err)
		JSONError(w, http.StatusBadGateway, "registry_unavailable", err.Error())
	}
}
