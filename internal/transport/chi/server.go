package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/audiodex/internal/domain"
	dombatch "github.com/kailas-cloud/audiodex/internal/domain/batch"
	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
	"github.com/kailas-cloud/audiodex/internal/domain/search/request"
	"github.com/kailas-cloud/audiodex/internal/domain/search/result"
	"github.com/kailas-cloud/audiodex/internal/metrics"
	"github.com/kailas-cloud/audiodex/internal/projector"
	batchuc "github.com/kailas-cloud/audiodex/internal/usecase/batch"
	collectionuc "github.com/kailas-cloud/audiodex/internal/usecase/collection"
	documentuc "github.com/kailas-cloud/audiodex/internal/usecase/document"
	healthuc "github.com/kailas-cloud/audiodex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/audiodex/internal/usecase/search"
)

// Reserved search query parameters; every other parameter names a descriptor.
const (
	paramNamespaces = "namespaces"
	paramLimit      = "limit"
	paramOffset     = "offset"
)

// DefaultMaxAudioBytes bounds a query-by-example upload.
const DefaultMaxAudioBytes = 32 << 20

// Config holds HTTP-facing limits.
type Config struct {
	Paging        request.Paging
	MaxAudioBytes int64
	APIKeys       []string
}

// Services bundles the use cases served over HTTP.
type Services struct {
	Collections *collectionuc.Service
	Documents   *documentuc.Service
	Search      *searchuc.Service
	Batch       *batchuc.Service
	Health      *healthuc.Service
}

// Server serves the audiodex HTTP API.
type Server struct {
	svc           Services
	cfg           Config
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(svc Services, cfg Config, logger *zap.Logger) *Server {
	if cfg.Paging.MaxLimit == 0 {
		cfg.Paging = request.DefaultPaging()
	}
	if cfg.MaxAudioBytes <= 0 {
		cfg.MaxAudioBytes = DefaultMaxAudioBytes
	}
	return &Server{
		svc:    svc,
		cfg:    cfg,
		logger: logger,
		errorHandlers: []errorHandler{
			validationHandler,
			sentinelHandler(domain.ErrNotFound, http.StatusNotFound,
				ErrorResponseCodeCollectionNotFound, "collection not found"),
			sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound,
				ErrorResponseCodeDocumentNotFound, "document not found"),
			upstreamHandler,
			sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests,
				ErrorResponseCodeRateLimited, "analysis rate limit exceeded"),
			executionHandler,
		},
	}
}

// Handler builds the router with the full middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(s.cfg.APIKeys))
	r.Use(metrics.Middleware(s.knownCollection))

	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/descriptors", s.ListDescriptors)
	r.Get("/collections", s.ListCollections)
	r.Get("/collections/{collection}/namespaces", s.ListNamespaces)
	r.Post("/collections/{collection}/documents/batch", s.BatchUpsert)
	r.Get("/collections/{collection}/documents/{id}", s.GetDocument)
	r.Put("/collections/{collection}/documents/{id}", s.UpsertDocument)

	for _, pattern := range []string{
		"/search/{collection}",
		"/search/{collection}/{limit}",
		"/search/{collection}/{limit}/{offset}",
	} {
		r.Get(pattern, s.Search)
		r.Post(pattern, s.Search)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorResponseCodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorResponseCodeBadRequest, "method not allowed")
	})
	return r
}

func (s *Server) knownCollection(name string) bool {
	if s.svc.Collections == nil {
		return false
	}
	_, err := s.svc.Collections.Namespaces(name)
	return err == nil
}

// Search handles GET and POST /search/{collection}[/{limit}[/{offset}]].
// A POST body is an audio sample; its query parameters act as modifiers.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagingParams(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	var audio []byte
	if r.Method == http.MethodPost {
		audio, err = io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxAudioBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, ErrorResponseCodePayloadTooLarge,
					fmt.Sprintf("audio body exceeds %d bytes", tooLarge.Limit))
				return
			}
			writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "read audio body: "+err.Error())
			return
		}
	}

	params, namespaces := searchParams(r.URL.Query())
	req, err := request.New(chi.URLParam(r, "collection"), params, namespaces, offset, limit, audio, s.cfg.Paging)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	rows, err := s.svc.Search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if rows == nil {
		rows = []result.Row{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// ListDescriptors handles GET /descriptors.
func (s *Server) ListDescriptors(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Collections.Descriptors())
}

// ListCollections handles GET /collections.
func (s *Server) ListCollections(w http.ResponseWriter, r *http.Request) {
	infos := s.svc.Collections.List(r.Context())
	items := make([]CollectionResponse, len(infos))
	for i, info := range infos {
		items[i] = collectionToResponse(info)
	}
	writeJSON(w, http.StatusOK, items)
}

// ListNamespaces handles GET /collections/{collection}/namespaces.
func (s *Server) ListNamespaces(w http.ResponseWriter, r *http.Request) {
	ns, err := s.svc.Collections.Namespaces(chi.URLParam(r, "collection"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ns)
}

// GetDocument handles GET /collections/{collection}/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.svc.Documents.Get(r.Context(), chi.URLParam(r, "collection"), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// UpsertDocument handles PUT /collections/{collection}/documents/{id}.
func (s *Server) UpsertDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var doc descriptor.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if doc.ID == "" {
		doc.ID = id
	}
	if doc.ID != id {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed,
			fmt.Sprintf("body id %q does not match path id %q", doc.ID, id))
		return
	}

	if err := s.svc.Documents.Upsert(r.Context(), chi.URLParam(r, "collection"), &doc); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projector.Display(doc))
}

// BatchUpsert handles POST /collections/{collection}/documents/batch.
func (s *Server) BatchUpsert(w http.ResponseWriter, r *http.Request) {
	var req BatchUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, "documents must not be empty")
		return
	}

	results := s.svc.Batch.Upsert(r.Context(), chi.URLParam(r, "collection"), req.Documents)

	summary := dombatch.Summarize(results)
	items := make([]BatchResultItem, len(results))
	for i, res := range results {
		items[i] = s.batchResultToResponse(res)
	}
	writeJSON(w, http.StatusOK, BatchUpsertResponse{
		Items:     items,
		Succeeded: summary.OK,
		Failed:    summary.Failed,
	})
}

// HealthCheck handles GET /health. Only an unreachable store fails the probe.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.svc.Health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: string(report.Status), Checks: checks})
}

// pagingParams binds limit and offset. Legacy path segments take precedence over query parameters.
func pagingParams(r *http.Request) (limit, offset int, err error) {
	var qLimit, qOffset *int
	query := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, paramLimit, query, &qLimit); err != nil {
		return 0, 0, domain.NewValidationError("limit must be an integer")
	}
	if err := runtime.BindQueryParameter("form", true, false, paramOffset, query, &qOffset); err != nil {
		return 0, 0, domain.NewValidationError("offset must be an integer")
	}
	if qLimit != nil {
		limit = *qLimit
	}
	if qOffset != nil {
		offset = *qOffset
	}

	if raw := chi.URLParam(r, paramLimit); raw != "" {
		if err := bindPathInt(paramLimit, raw, &limit); err != nil {
			return 0, 0, err
		}
	}
	if raw := chi.URLParam(r, paramOffset); raw != "" {
		if err := bindPathInt(paramOffset, raw, &offset); err != nil {
			return 0, 0, err
		}
	}
	return limit, offset, nil
}

func bindPathInt(name, raw string, dest *int) error {
	err := runtime.BindStyledParameterWithOptions("simple", name, raw, dest, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Required:      true,
	})
	if err != nil {
		return domain.NewValidationError("%s must be an integer, got %q", name, raw)
	}
	return nil
}

// searchParams splits the query into descriptor parameters and the namespace restriction.
// Repeated parameters keep their first value.
func searchParams(query url.Values) (map[string]string, string) {
	params := make(map[string]string, len(query))
	for name, values := range query {
		switch name {
		case paramLimit, paramOffset, paramNamespaces:
			continue
		}
		if len(values) > 0 {
			params[name] = values[0]
		}
	}
	return params, query.Get(paramNamespaces)
}

func collectionToResponse(info collectionuc.Info) CollectionResponse {
	resp := CollectionResponse{Name: info.Name, Namespaces: info.Namespaces}
	if resp.Namespaces == nil {
		resp.Namespaces = []string{}
	}
	if info.Documents >= 0 {
		n := info.Documents
		resp.DocumentCount = &n
	}
	return resp
}

func (s *Server) batchResultToResponse(r dombatch.Result) BatchResultItem {
	item := BatchResultItem{ID: r.ID(), Status: string(r.Status())}
	if r.Err() != nil {
		m := s.classify(r.Err())
		item.Error = &ErrorResponse{Code: m.code, Message: m.message}
	}
	return item
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
