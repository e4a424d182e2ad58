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

	"github.com/spf13/cobra"

	"omexcatalog/internal/cache"
	"omexcatalog/internal/category"
	"omexcatalog/internal/config"
	"omexcatalog/internal/database"
	"omexcatalog/internal/handlers"
	"omexcatalog/internal/metrics"
	"omexcatalog/internal/middleware"
	"omexcatalog/internal/router"
	"omexcatalog/internal/store"
	"omexcatalog/internal/translation"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Connects to PostgreSQL and (optionally) Valkey, applies pending migrations,
warms the category cache and serves the storefront and admin APIs until
SIGINT or SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	collector := metrics.NewCollector()
	manager := cache.NewManager(cfg.CategoryCacheTTLMinutes)
	manager.StartJanitor(ctx, cfg.CacheCleanupInterval)
	collector.RegisterCacheSize(manager.Size)

	cacheLog := store.NewCacheLogStore(db)
	opts := []category.Option{
		category.WithObserver(collector),
		category.WithListener(cacheLog),
	}

	// Valkey is optional: without it each instance relies on its own TTL.
	var (
		responses   handlers.ResponseCache
		broadcaster *cache.Broadcaster
	)
	if cfg.ValkeyEnabled {
		client, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			slog.Warn("valkey unavailable, running with process-local cache only", "error", err)
		} else {
			defer client.Close()
			rc := cache.NewResponseCache(client, cfg.ResponseCacheTTL)
			broadcaster = cache.NewBroadcaster(client, cfg.CacheChannel)
			responses = rc
			opts = append(opts, category.WithListener(rc), category.WithListener(broadcaster))
		}
	}

	svc := category.NewService(store.NewCategoryStore(db), manager, opts...)
	translations := translation.NewService(store.NewTranslationStore(db))

	if err := svc.RebuildCache(ctx); err != nil {
		// Not fatal: the cache fills lazily on first reads.
		slog.Warn("category cache warm-up failed", "error", err)
	}

	if broadcaster != nil {
		go func() {
			if err := broadcaster.Listen(ctx, svc.DropLocalCache); err != nil {
				slog.Error("category invalidation listener stopped", "error", err)
			}
		}()
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	defer limiter.Stop()

	r := router.New(router.Deps{
		Public:         handlers.NewPublic(svc, translations, responses),
		Admin:          handlers.NewAdmin(svc, translations, cacheLog),
		Metrics:        collector,
		RateLimiter:    limiter,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Ready:          db.PingContext,
	})

	return listenAndServe(ctx, cfg, r)
}

// listenAndServe runs srv until ctx is cancelled, then gives active
// requests up to 30 seconds to complete.
func listenAndServe(ctx context.Context, cfg *config.Config, h http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	slog.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
