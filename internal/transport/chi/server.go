package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	chimux "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/iracify/iracify/internal/domain"
	healthuc "github.com/iracify/iracify/internal/usecase/health"
)

// maxRequestBytes bounds decision text uploads. Court decisions run to a
// few hundred KB of plain text at most.
const maxRequestBytes = 10 << 20

// ErrorCode identifies an error category in API responses.
type ErrorCode string

const (
	CodeBadRequest      ErrorCode = "bad_request"
	CodeEmptyDocument   ErrorCode = "empty_document"
	CodeInvalidResult   ErrorCode = "invalid_synthesis_result"
	CodeSynthesisFailed ErrorCode = "synthesis_failed"
	CodeRateLimited     ErrorCode = "rate_limited"
	CodeInternalError   ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Path    string    `json:"path,omitempty"`
}

// Summarizer is the summary pipeline as seen from the HTTP layer.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (domain.Summary, error)
	Candidates(ctx context.Context, text string) (domain.CandidateSet, error)
	Gist(ctx context.Context, text string) (domain.Gist, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the summary pipeline over HTTP.
type Server struct {
	summaries     Summarizer
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(summaries Summarizer, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		summaries: summaries,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		schemaErrorHandler,
		sentinelHandler(domain.ErrEmptyDocument, http.StatusBadRequest, CodeEmptyDocument),
		sentinelHandler(domain.ErrInvalidResult, http.StatusBadGateway, CodeInvalidResult),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrSynthesis, http.StatusBadGateway, CodeSynthesisFailed),
	}
	return s
}

// RegisterRoutes mounts the API routes on a chi router.
func (s *Server) RegisterRoutes(r chimux.Router) {
	r.Post("/v1/summaries", s.CreateSummary)
	r.Post("/v1/candidates", s.CreateCandidates)
	r.Post("/v1/gists", s.CreateGist)
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// summaryRequest is the body for all three POST endpoints.
type summaryRequest struct {
	Text string `json:"text"`
}

func (s *Server) decodeText(w http.ResponseWriter, r *http.Request) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req summaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return "", false
	}
	return req.Text, true
}

// CreateSummary handles POST /v1/summaries.
func (s *Server) CreateSummary(w http.ResponseWriter, r *http.Request) {
	text, ok := s.decodeText(w, r)
	if !ok {
		return
	}

	sum, err := s.summaries.Summarize(r.Context(), text)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sum)
}

// CreateCandidates handles POST /v1/candidates. It runs only the
// deterministic preprocessing, no synthesis call.
func (s *Server) CreateCandidates(w http.ResponseWriter, r *http.Request) {
	text, ok := s.decodeText(w, r)
	if !ok {
		return
	}

	set, err := s.summaries.Candidates(r.Context(), text)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, set)
}

// CreateGist handles POST /v1/gists.
func (s *Server) CreateGist(w http.ResponseWriter, r *http.Request) {
	text, ok := s.decodeText(w, r)
	if !ok {
		return
	}

	g, err := s.summaries.Gist(r.Context(), text)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, g)
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyDocument,
		domain.ErrInvalidResult,
		domain.ErrRateLimited,
		domain.ErrSynthesis,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// schemaErrorHandler handles SchemaError with the offending JSON path.
func schemaErrorHandler(w http.ResponseWriter, err error, msg string) bool {
	var se *domain.SchemaError
	if !errors.As(err, &se) {
		return false
	}
	writeJSON(w, http.StatusBadGateway, ErrorResponse{
		Code:    CodeInvalidResult,
		Message: msg,
		Path:    se.Path,
	})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
