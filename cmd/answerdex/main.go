package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/triskell-ai/answerdex/internal/config"
	dbRedis "github.com/triskell-ai/answerdex/internal/db/redis"
	"github.com/triskell-ai/answerdex/internal/index/keyword"
	logpkg "github.com/triskell-ai/answerdex/internal/logger"
	"github.com/triskell-ai/answerdex/internal/metrics"
	"github.com/triskell-ai/answerdex/internal/repository/audit"
	"github.com/triskell-ai/answerdex/internal/repository/corpus"
	"github.com/triskell-ai/answerdex/internal/repository/embcache"
	chiTransport "github.com/triskell-ai/answerdex/internal/transport/chi"
	openaiTransport "github.com/triskell-ai/answerdex/internal/transport/openai"
	generateuc "github.com/triskell-ai/answerdex/internal/usecase/generate"
	healthuc "github.com/triskell-ai/answerdex/internal/usecase/health"
	ingestuc "github.com/triskell-ai/answerdex/internal/usecase/ingest"
	judgeuc "github.com/triskell-ai/answerdex/internal/usecase/judge"
	pipelineuc "github.com/triskell-ai/answerdex/internal/usecase/pipeline"
	retrievaluc "github.com/triskell-ai/answerdex/internal/usecase/retrieval"
	rewriteuc "github.com/triskell-ai/answerdex/internal/usecase/rewrite"
	validateuc "github.com/triskell-ai/answerdex/internal/usecase/validate"
	"github.com/triskell-ai/answerdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting answerdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	// Embedder chain: OpenAI -> Cached
	base := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	embedder := embcache.New(base, store, cfg.Database.KeyPrefix, metrics.EmbeddingCacheTotal, logger)
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	completer := openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
		APIKey:  cfg.Completion.APIKey,
		BaseURL: cfg.Completion.BaseURL,
		Model:   cfg.Completion.Model,
		Logger:  logger,
	})

	// Corpus repository and vector index
	corpusRepo := corpus.New(store, cfg.Database.KeyPrefix)
	if err := corpusRepo.EnsureIndex(ctx, cfg.Embedding.Dimensions); err != nil {
		logger.Fatal("Failed to ensure vector index", zap.Error(err))
	}

	// Keyword index: rebuild from the stored corpus at startup
	keywordIndex := keyword.New()
	docs, err := corpusRepo.ListAll(ctx)
	if err != nil {
		logger.Fatal("Failed to load corpus for keyword index", zap.Error(err))
	}
	keywordIndex.Rebuild(docs)
	logger.Info("Keyword index ready", zap.Int("documents", keywordIndex.Len()))

	auditLog := audit.New(store, cfg.Database.KeyPrefix)

	// Usecase services
	retrieval := retrievaluc.New(embedder, corpusRepo, keywordIndex, retrievaluc.Config{
		VectorWeight:   cfg.Retrieval.VectorWeight,
		KeywordCeiling: cfg.Retrieval.KeywordCeiling,
	})
	rewriter := rewriteuc.New(completer)
	validator := validateuc.New(completer)
	generator := generateuc.New(completer)
	judge := judgeuc.New(completer)

	orchestrator := pipelineuc.New(rewriter, retrieval, validator, generator, judge, cfg.Retrieval.TopK)
	ingestor := ingestuc.New(embedder, corpusRepo, keywordIndex, auditLog, cfg.Ingestion.DuplicateThreshold)
	healthSvc := healthuc.New(store, embedder, completer)

	server := chiTransport.NewServer(orchestrator, ingestor, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
