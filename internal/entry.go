// Package internal provides the serve-mode initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/guidsync/internal/api"
	"github.com/starford/guidsync/internal/history"
	"github.com/starford/guidsync/internal/models"
	"github.com/starford/guidsync/internal/sse"
	"github.com/starford/guidsync/internal/syncservice"
	"github.com/starford/guidsync/internal/watch"
)

// Run starts serve mode: a read-only HTTP surface over the sync engine that
// rescans both trees whenever either changes on disk. It never writes to
// the project trees.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	if err := cfg.Projects.Validate(); err != nil {
		return fmt.Errorf("serve mode requires both project roots: %w", err)
	}

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("main", cfg.Projects.Main),
		slog.String("subordinate", cfg.Projects.Subordinate),
		slog.String("history_path", cfg.History.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc := syncservice.New(syncservice.Options{
		AssetDir:   cfg.Scan.AssetDir,
		MetaExt:    cfg.Scan.MetaExt,
		IgnoreDirs: cfg.Scan.IgnoreDirs,
		Workers:    cfg.Scan.Workers,
		Logger:     logger,
	})

	// Resolve asset roots up front so the watcher observes the right trees.
	mainAssets, err := svc.ResolveRoot(cfg.Projects.Main)
	if err != nil {
		return err
	}
	subAssets, err := svc.ResolveRoot(cfg.Projects.Subordinate)
	if err != nil {
		return err
	}

	// Scan history store.
	db, err := history.Open(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("init history: %w", err)
	}
	defer db.Close()

	// SSE broker.
	broker := sse.NewBroker()
	defer broker.Close()

	rescan := func() {
		broker.PublishScanStarted()
		res, scanErr := svc.Scan(ctx, mainAssets, subAssets)
		if scanErr != nil {
			logger.Error("rescan failed", slog.String("error", scanErr.Error()))
			broker.PublishScanFailed(scanErr.Error())
			return
		}
		if _, recErr := db.RecordScan(history.Scan{
			MainRoot:      res.MainRoot,
			SubRoot:       res.SubRoot,
			Differences:   res.Corr.Differences(),
			AlreadySynced: len(res.Corr.Entries) - res.Corr.Differences(),
			OnlyInSub:     res.Corr.SkippedBy(models.SkipOnlyInSubordinate),
			Ambiguous:     res.Corr.SkippedBy(models.SkipAmbiguousPath),
			DurationMS:    res.Duration.Milliseconds(),
		}); recErr != nil {
			logger.Warn("record scan failed", slog.String("error", recErr.Error()))
		}
		broker.PublishScanCompleted(res.Corr.Differences(), len(res.Corr.Skipped))
	}

	// Initial scan so the API has data before the first tree change.
	rescan()

	apiRouter := api.NewRouter(svc, db, mainAssets, subAssets, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch both asset roots and rescan on changes.
	g.Go(func() error {
		return watch.Watch(gCtx, []string{mainAssets, subAssets}, watch.DefaultDebounce, logger, rescan)
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
