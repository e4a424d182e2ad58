package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"omexcatalog/internal/cache"
	"omexcatalog/internal/database"
	"omexcatalog/internal/models"
	"omexcatalog/internal/store"
)

var invalidateCacheCmd = &cobra.Command{
	Use:   "invalidate-cache",
	Short: "Drop the category caches of every running instance",
	Long: `Clears the shared response cache in Valkey and broadcasts an invalidation
so every serving instance drops its process-local category cache.`,
	RunE: runInvalidateCache,
}

func runInvalidateCache(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.ValkeyEnabled {
		return fmt.Errorf("invalidate-cache needs Valkey (VALKEY_ENABLED=false)")
	}
	ctx := cmd.Context()

	client, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		return fmt.Errorf("connect to valkey: %w", err)
	}
	defer client.Close()

	cache.NewResponseCache(client, cfg.ResponseCacheTTL).InvalidateAll(ctx)

	ev := models.CategoryEvent{Action: models.CacheActionInvalidate}
	if err := cache.NewBroadcaster(client, cfg.CacheChannel).Publish(ctx, ev); err != nil {
		return err
	}

	// The log is best-effort; a missing database does not undo the broadcast.
	if db, err := database.Connect(cfg.DSN()); err == nil {
		store.NewCacheLogStore(db).CategoriesChanged(ctx, ev)
		db.Close()
	}

	fmt.Fprintln(cmd.OutOrStdout(), "category caches invalidated")
	return nil
}
