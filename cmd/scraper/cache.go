package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spiralhouse/scraper/internal/cache"
)

// NewCacheCmd creates the cache command and its maintenance subcommands.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Maintain the response cache",
		Long: `Maintain the persistent response cache used by crawl.

The store is selected with the same flags, config file keys and
environment variables as crawl.

Examples:
  # Remove entries older than the expiry
  scraper cache clear-expired --cache-expiry 12h

  # Remove every entry from a redis cache
  scraper cache clear --cache-backend redis --redis-addr cache:6379`,
	}

	cmd.AddCommand(newCacheClearCmd())
	cmd.AddCommand(newCacheClearExpiredCmd())
	return cmd
}

func newCacheClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCache(cmd, func(ctx context.Context, c *cache.Cache) error {
				if err := c.Clear(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
				return nil
			})
		},
	}
	addCacheFlags(cmd)
	return cmd
}

func newCacheClearExpiredCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear-expired",
		Short: "Remove cached responses older than the cache expiry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCache(cmd, func(ctx context.Context, c *cache.Cache) error {
				n, err := c.ClearExpired(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries.\n", n)
				return nil
			})
		},
	}
	addCacheFlags(cmd)
	return cmd
}

// withCache opens the configured persistent cache, runs fn and closes the
// cache. Unlike crawl, maintenance fails when the store cannot be opened.
func withCache(cmd *cobra.Command, fn func(context.Context, *cache.Cache) error) error {
	v, err := newViper(cmd)
	if err != nil {
		return err
	}
	cfg, err := buildConfig(cmd, v)
	if err != nil {
		return err
	}
	if err := cfg.ValidateCache(); err != nil {
		return configError(err)
	}
	logger := setupLogger(cmd, cfg)

	ctx := cmd.Context()
	store, err := cache.OpenStore(ctx, storeConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to open %s cache: %w", cfg.CacheBackend, err)
	}

	c := cache.New(
		cache.WithExpiry(cfg.CacheExpiry),
		cache.WithLogger(logger),
		cache.WithStore(func() (cache.Store, error) { return store, nil }),
	)
	defer c.Close() //nolint:errcheck

	logger.Debug("cache opened", "backend", cfg.CacheBackend, "dir", cfg.CacheDir)
	return fn(ctx, c)
}
