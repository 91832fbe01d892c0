package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Evans-Junior/chat-bot/internal/api"
	"github.com/Evans-Junior/chat-bot/internal/config"
	"github.com/Evans-Junior/chat-bot/internal/conversation"
	"github.com/Evans-Junior/chat-bot/internal/generator"
	"github.com/Evans-Junior/chat-bot/internal/middleware"
	"github.com/Evans-Junior/chat-bot/internal/store"
	"github.com/Evans-Junior/chat-bot/internal/summit"
	"github.com/Evans-Junior/chat-bot/internal/sweeper"
	"github.com/Evans-Junior/chat-bot/internal/task"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
)

func runServer(parent context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "model", cfg.Gemini.Model)

	summitData, err := summit.Load()
	if err != nil {
		return fmt.Errorf("load summit data: %w", err)
	}

	client, err := generator.NewGeminiClient(ctx, cfg.Gemini.APIKey)
	if err != nil {
		return err
	}
	chain := generator.NewChain(client, generator.ChainConfig{
		PrimaryModel:   cfg.Gemini.Model,
		FallbackModels: cfg.Gemini.FallbackModels,
		SystemContext:  generator.BuildContext(summitData),
	}, logger)
	slog.Info("Response generator initialized", "model", chain.Model(), "fallbacks", cfg.Gemini.FallbackModels)

	// The archive is optional. Interfaces stay nil when it is off so handlers
	// and the sweeper skip it.
	var (
		recorder    task.Recorder
		taskArchive api.TaskArchive
		pinger      api.Pinger
		cleaner     sweeper.ArchiveCleaner
	)
	if cfg.Archive.Enabled {
		archive, err := store.NewSQLite(cfg.Archive.DBPath)
		if err != nil {
			return fmt.Errorf("initialize archive: %w", err)
		}
		defer func() {
			if closeErr := archive.Close(); closeErr != nil {
				slog.Error("Failed to close archive", "error", closeErr)
			}
		}()
		if err := archive.Ping(ctx); err != nil {
			return fmt.Errorf("archive health check failed: %w", err)
		}
		recorder, taskArchive, pinger, cleaner = archive, archive, archive, archive
		slog.Info("Transcript archive connected", "path", cfg.Archive.DBPath)
	}

	sessions := conversation.NewStore()
	tasks := task.NewStore()
	pipeline := task.NewPipeline(tasks, sessions, chain, task.Config{
		Workers:   cfg.Workers.Count,
		QueueSize: cfg.Workers.QueueSize,
		Timeout:   cfg.Gemini.Timeout,
	}, recorder, logger)

	sw := sweeper.New(sweeper.Config{
		Interval:         cfg.TTL.SweepInterval,
		TaskTTL:          cfg.TTL.Task,
		SessionTTL:       cfg.TTL.Session,
		ArchiveRetention: cfg.Archive.Retention,
	}, tasks, sessions, cleaner, logger)

	limiter := middleware.NewRateLimiter(cfg.Limits.MaxRequests, cfg.Limits.Window)

	botHandler := api.NewBotHandler(pipeline, sessions, taskArchive, summitData, logger)
	healthHandler := api.NewHealthHandler(pinger)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(middleware.Recover(cfg.IsDevelopment(), logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.NotFound(api.NotFound)
	r.MethodNotAllowed(api.NotFound)

	// Public routes.
	r.Get("/", api.Welcome)
	healthHandler.RegisterHealth(r)

	// Everything under /api is throttled per client IP.
	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		botHandler.RegisterRoutes(r)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: writeTimeout(cfg.Gemini.Timeout),
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// Workers outlive the HTTP server so submissions accepted while it
	// drains still run.
	workerCtx, stopWorkers := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorkers()

	g.Go(func() error {
		return pipeline.Run(workerCtx)
	})
	sw.StartTTLWorker(gctx)
	limiter.StartEviction(gctx)

	g.Go(func() error {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		// Wait for shutdown signal.
		<-gctx.Done()
		stop()

		slog.Info("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		stopWorkers()
		if err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("Server stopped successfully")
	return nil
}

// writeTimeout leaves room for /chat/sync to finish a generation. With no
// generation deadline there is no write deadline either.
func writeTimeout(generation time.Duration) time.Duration {
	if generation <= 0 {
		return 0
	}
	return generation + 30*time.Second
}
