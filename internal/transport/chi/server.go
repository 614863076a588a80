// Package chi exposes the question pipeline over HTTP: /chat for questions,
// /ingest for corpus loading, plus health and metrics endpoints.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/triskell-ai/answerdex/internal/domain"
	"github.com/triskell-ai/answerdex/internal/logger"
	"github.com/triskell-ai/answerdex/internal/usecase/health"
	"github.com/triskell-ai/answerdex/internal/usecase/ingest"
)

const maxIngestBatch = 500

// QuestionProcessor runs a question through the answer pipeline.
type QuestionProcessor interface {
	ProcessQuestion(ctx context.Context, question string) (domain.PipelineResult, error)
}

// Ingestor loads raw Q&A texts into the corpus.
type Ingestor interface {
	Ingest(ctx context.Context, texts []string) (ingest.Report, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}

// Server wires the usecase services to HTTP handlers.
type Server struct {
	pipeline QuestionProcessor
	ingest   Ingestor
	health   HealthChecker
	logger   *zap.Logger
}

// NewServer creates the HTTP API server.
func NewServer(p QuestionProcessor, ing Ingestor, h HealthChecker, logger *zap.Logger) *Server {
	return &Server{pipeline: p, ingest: ing, health: h, logger: logger}
}

// Routes mounts all handlers on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/chat", s.Chat)
	r.Post("/ingest", s.Ingest)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response         string            `json:"response"`
	Language         string            `json:"language"`
	OriginalQuery    string            `json:"original_query"`
	RewrittenQueries map[string]string `json:"rewritten_queries"`
	ContextsUsed     int               `json:"contexts_used"`
	Trace            chatTrace         `json:"trace"`
}

type chatTrace struct {
	ValidationStatus string           `json:"validation_status"`
	Judged           bool             `json:"judged"`
	JudgeRetried     bool             `json:"judge_retried"`
	StageDurationsMS map[string]int64 `json:"stage_durations_ms"`
}

// Chat handles POST /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "message is required")
		return
	}

	result, err := s.pipeline.ProcessQuestion(r.Context(), req.Message)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	durations := make(map[string]int64, len(result.Trace.StageDurations))
	for stage, d := range result.Trace.StageDurations {
		durations[stage] = d.Milliseconds()
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:      result.Answer,
		Language:      result.Language.String(),
		OriginalQuery: result.OriginalQuery,
		RewrittenQueries: map[string]string{
			"en": result.RewrittenEN,
			"fr": result.RewrittenFR,
		},
		ContextsUsed: len(result.ContextsUsed),
		Trace: chatTrace{
			ValidationStatus: result.Trace.ValidationStatus,
			Judged:           result.Trace.Judged,
			JudgeRetried:     result.Trace.JudgeRetried,
			StageDurationsMS: durations,
		},
	})
}

type ingestRequest struct {
	Texts []string `json:"texts"`
}

// Ingest handles POST /ingest.
func (s *Server) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if len(req.Texts) == 0 || len(req.Texts) > maxIngestBatch {
		writeError(w, http.StatusBadRequest, "validation_failed",
			"texts count must be between 1 and 500")
		return
	}

	report, err := s.ingest.Ingest(r.Context(), req.Texts)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != health.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	switch {
	case errors.Is(err, domain.ErrRetrievalUnavailable), errors.Is(err, domain.ErrCorpusUnavailable):
		log.Error("backend unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "backend_unavailable", err.Error())
	case errors.Is(err, domain.ErrEmbeddingProvider), errors.Is(err, domain.ErrCompletionProvider):
		log.Error("provider error", zap.Error(err))
		writeError(w, http.StatusBadGateway, "provider_error", "upstream provider error")
	default:
		log.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
