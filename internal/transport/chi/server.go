// Package chi serves the /items REST contract over a chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/colladmin/internal/domain"
	"github.com/kailas-cloud/colladmin/internal/domain/collection/field"
	"github.com/kailas-cloud/colladmin/internal/usecase/health"
	"github.com/kailas-cloud/colladmin/internal/usecase/records"
)

// Error codes of the {"error":{"code","message"}} body.
const (
	CodeBadRequest    = "bad_request"
	CodeNotFound      = "not_found"
	CodeAlreadyExists = "already_exists"
	CodeUnauthorized  = "unauthorized"
	CodeInternal      = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// RecordService is the use case behind the item handlers.
type RecordService interface {
	List(ctx context.Context, collection string, q records.Query) ([]map[string]any, error)
	Get(ctx context.Context, collection, id string) (map[string]any, error)
	Create(ctx context.Context, collection string, payload map[string]any) (map[string]any, error)
	Update(ctx context.Context, collection, id string, payload map[string]any) (map[string]any, error)
	Delete(ctx context.Context, collection, id string) error
	Schema(ctx context.Context, ref records.SchemaRef) ([]field.Raw, error)
}

// HealthService reports backend health.
type HealthService interface {
	Check(ctx context.Context) health.Report
}

// Server implements the item handlers.
type Server struct {
	records       RecordService
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(svc RecordService, hc HealthService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{records: svc, health: hc, logger: logger}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, CodeAlreadyExists),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, CodeBadRequest),
		sentinelHandler(domain.ErrInvalidSchema, http.StatusBadRequest, CodeBadRequest),
	}
	return s
}

// ServerOptions configures the handler built by HandlerWithOptions.
type ServerOptions struct {
	BaseRouter       chi.Router
	Middlewares      []func(http.Handler) http.Handler
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerWithOptions mounts the item routes on the base router.
func HandlerWithOptions(s *Server, opts ServerOptions) http.Handler {
	r := opts.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if opts.ErrorHandlerFunc == nil {
		opts.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		}
	}
	h := &handlers{s: s, onBindError: opts.ErrorHandlerFunc}

	r.Group(func(r chi.Router) {
		r.Use(opts.Middlewares...)
		r.Get("/items/fields", h.getSchema)
		r.Get("/items/{collection}", h.listItems)
		r.Post("/items/{collection}", h.createItem)
		r.Get("/items/{collection}/{id}", h.getItem)
		r.Put("/items/{collection}/{id}", h.updateItem)
		r.Delete("/items/{collection}/{id}", h.deleteItem)
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	return r
}

// ListItems handles GET /items/{collection}.
func (s *Server) ListItems(w http.ResponseWriter, r *http.Request, collection string, params ListParams) {
	rows, err := s.records.List(r.Context(), collection, params.query())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, rows)
}

// GetItem handles GET /items/{collection}/{id}.
func (s *Server) GetItem(w http.ResponseWriter, r *http.Request, collection, id string) {
	row, err := s.records.Get(r.Context(), collection, id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, row)
}

// CreateItem handles POST /items/{collection}.
func (s *Server) CreateItem(w http.ResponseWriter, r *http.Request, collection string) {
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}
	row, err := s.records.Create(r.Context(), collection, payload)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusCreated, row)
}

// UpdateItem handles PUT /items/{collection}/{id}.
func (s *Server) UpdateItem(w http.ResponseWriter, r *http.Request, collection, id string) {
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}
	row, err := s.records.Update(r.Context(), collection, id, payload)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, row)
}

// DeleteItem handles DELETE /items/{collection}/{id}.
func (s *Server) DeleteItem(w http.ResponseWriter, r *http.Request, collection, id string) {
	if err := s.records.Delete(r.Context(), collection, id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GetSchema handles GET /items/fields.
func (s *Server) GetSchema(w http.ResponseWriter, r *http.Request, params SchemaParams) {
	fields, err := s.records.Schema(r.Context(), records.SchemaRef{
		ID:   deref(params.CollectionID),
		Name: deref(params.Name),
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, fields)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": string(health.Healthy)})
		return
	}
	report := s.health.Check(r.Context())
	if report.Status != health.Healthy {
		s.logger.Warn("health check failed", zap.Error(report.Err))
		writeJSON(w, http.StatusServiceUnavailable, report)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func decodePayload(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return nil, false
	}
	if payload == nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Request body must be a JSON object")
		return nil, false
	}
	return payload, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"data": data})
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrValidation,
		domain.ErrInvalidSchema,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			s.logger.Debug("domain error", zap.Error(err))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
