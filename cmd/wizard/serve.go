package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/precliniverse/wizard/internal/config"
	logpkg "github.com/precliniverse/wizard/internal/logger"
	"github.com/precliniverse/wizard/internal/mapping"
	"github.com/precliniverse/wizard/internal/metrics"
	"github.com/precliniverse/wizard/internal/schema"
	chiTransport "github.com/precliniverse/wizard/internal/transport/chi"
	"github.com/precliniverse/wizard/internal/upstream"
	healthuc "github.com/precliniverse/wizard/internal/usecase/health"
	schemaupdateuc "github.com/precliniverse/wizard/internal/usecase/schemaupdate"
	searchuc "github.com/precliniverse/wizard/internal/usecase/search"
	"github.com/precliniverse/wizard/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServer(ctx, cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// runServer wires the service and serves until ctx is done.
func runServer(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	logger.Info("Starting wizard API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", envName),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("schema_path", cfg.Schema.Path),
	)

	metrics.RegisterUpstreamMetrics()

	// A missing or broken schema is not fatal: every API is simply unknown
	// until the file is fixed.
	store := schema.NewStore(cfg.Schema.Path, logger.Named("schema"))
	if err := store.Load(); err != nil {
		logger.Error("Schema loading error", zap.Error(err))
	}
	if cfg.Schema.Watch {
		go func() {
			if err := store.Watch(ctx); err != nil {
				logger.Error("Schema watcher stopped", zap.Error(err))
			}
		}()
	}

	handler := newHandler(cfg, store, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// newHandler builds the use cases and the routed, instrumented handler.
func newHandler(cfg config.Config, store *schema.Store, logger *zap.Logger) http.Handler {
	client := upstream.NewClient(&upstream.Config{
		Timeout:   cfg.Upstream.Timeout(),
		UserAgent: cfg.Upstream.UserAgent,
		Logger:    logger.Named("upstream"),
	})
	registry := mapping.DefaultRegistry()
	logger.Info("Custom mappers registered", zap.Strings("names", registry.Names()))
	engine := mapping.New(registry, logger.Named("mapping"))

	server := chiTransport.NewServer(
		store,
		searchuc.New(store, client, engine),
		schemaupdateuc.New(store, client, cfg.Schema.RemoteURL, cfg.Upstream.CheckTimeout()),
		healthuc.New(store),
		cfg.Frontend.IndexPath,
		logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.CORS(cfg.CORS.AllowedOrigins))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	return chiTransport.HandlerWithOptions(server, chiTransport.ChiServerOptions{
		BaseRouter:       r,
		ErrorHandlerFunc: chiTransport.ParamErrorHandler,
	})
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]any{
						"error":   "internal error",
						"results": []any{},
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			}
			if apiKey := chi.URLParam(r, "api_key"); apiKey != "" {
				fields = append(fields, zap.String("api", apiKey))
			}
			reqLogger.Info("http_request", fields...)
		})
	}
}
