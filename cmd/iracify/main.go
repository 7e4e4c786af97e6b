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

	"github.com/iracify/iracify/internal/config"
	"github.com/iracify/iracify/internal/db"
	dbRedis "github.com/iracify/iracify/internal/db/redis"
	"github.com/iracify/iracify/internal/domain"
	logpkg "github.com/iracify/iracify/internal/logger"
	"github.com/iracify/iracify/internal/metrics"
	"github.com/iracify/iracify/internal/repository/sumcache"
	chiTransport "github.com/iracify/iracify/internal/transport/chi"
	openaiSynth "github.com/iracify/iracify/internal/transport/openai"
	healthuc "github.com/iracify/iracify/internal/usecase/health"
	summaryuc "github.com/iracify/iracify/internal/usecase/summary"
	"github.com/iracify/iracify/internal/version"
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

	logger.Info("Starting iracify API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("model", cfg.Synthesis.Model),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	// Register synthesis metrics explicitly (no init())
	metrics.RegisterSynthesisMetrics()

	// Optional summary cache store
	var store db.Store
	if cfg.Cache.Enabled {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		ctx := context.Background()
		if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		logger.Info("Connected to cache store", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	// Synthesis client
	synthClient := openaiSynth.NewClient(&openaiSynth.Config{
		APIKey:      cfg.Synthesis.APIKey,
		BaseURL:     cfg.Synthesis.BaseURL,
		Model:       cfg.Synthesis.Model,
		Temperature: cfg.Synthesis.Temperature,
		Timeout:     time.Duration(cfg.Synthesis.TimeoutSec) * time.Second,
		Retry: openaiSynth.RetryPolicy{
			MaxAttempts: cfg.Synthesis.Retry.MaxAttempts,
			BaseDelay:   time.Duration(cfg.Synthesis.Retry.BaseDelayMS) * time.Millisecond,
			MaxDelay:    time.Duration(cfg.Synthesis.Retry.MaxDelayMS) * time.Millisecond,
			MaxJitter:   time.Duration(cfg.Synthesis.Retry.MaxJitterMS) * time.Millisecond,
		},
		Logger: logger,
	})

	// Summary pipeline service
	summarySvc := summaryuc.New(synthClient, summaryuc.Options{
		TopK:             cfg.Pipeline.TopK,
		BlockMaxChars:    cfg.Pipeline.BlockMaxChars,
		MinParentChars:   cfg.Pipeline.MinParentChars,
		ExcerptMaxChars:  cfg.Pipeline.ExcerptMaxChars,
		GistMaxChars:     cfg.Pipeline.GistMaxChars,
		FallbackMaxFirst: cfg.Pipeline.FallbackMaxFirst,
		ScoringKeywords:  cfg.Pipeline.ScoringKeywords,
		RoleKeywords:     roleKeywordsFromConfig(cfg.Pipeline.RoleKeywords),
	}, logger)

	// Cache decorator, when a store is configured
	var summaries chiTransport.Summarizer = summarySvc
	if store != nil {
		summaries = sumcache.New(
			summarySvc,
			store,
			time.Duration(cfg.Cache.TTLSec)*time.Second,
			summarySvc.Options().Fingerprint(),
			metrics.SummaryCacheTotal,
			logger,
		)
	}

	// Health service. The store is optional; a nil interface skips the check.
	var cachePinger healthuc.CachePinger
	if store != nil {
		cachePinger = store
	}
	healthSvc := healthuc.New(cachePinger, synthClient)

	// Create chi server
	server := chiTransport.NewServer(summaries, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.RegisterRoutes(r)

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

func roleKeywordsFromConfig(m map[string][]string) map[domain.Role][]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[domain.Role][]string, len(m))
	for role, words := range m {
		out[domain.Role(role)] = words
	}
	return out
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
