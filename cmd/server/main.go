package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"postvault/internal/config"
	"postvault/internal/handler"
	"postvault/internal/middleware"
	"postvault/internal/secrets"
	"postvault/internal/service"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, os.Stderr)
	stop()
	if err != nil {
		log.Printf("server exited: %v", err)
		os.Exit(1)
	}
}

// run serves until ctx is cancelled or the listener fails. Deferred cleanup
// (log file, rate limiter) has finished by the time it returns.
func run(ctx context.Context, cfg *config.Config, stderr io.Writer) error {
	logger, closer, err := config.NewLogger(cfg.Log, stderr)
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"addr", cfg.Server.Addr(),
		"store", cfg.Store.Backend,
	)

	source := secrets.NewSource(cfg.Secrets.File)
	stores := service.SetupStores(cfg, logger)
	engine := service.SetupEngine(cfg, source, stores, logger)
	entryHandler := handler.NewEntryHandler(engine, cfg.Server.RequestTimeout, logger)

	protect := []middleware.Middleware{middleware.APIKey(source, logger)}
	if cfg.Limit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.Limit.RPS, cfg.Limit.Burst, time.Minute)
		defer limiter.Stop()
		protect = append(protect, limiter.Middleware)
	}

	mux := http.NewServeMux()
	handler.Routes(mux, entryHandler, middleware.Chain(protect...))

	// Order: CORS → RequestID → Logger → Recovery → Routes
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORS.Origins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", middleware.APIKeyHeader, "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         cfg.CORS.MaxAge,
	})
	root := corsHandler.Handler(middleware.Chain(
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recovery(logger),
	)(mux))

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      root,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			return fmt.Errorf("serve %s: %w", server.Addr, err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}

	logger.Info("server stopped")
	return nil
}
