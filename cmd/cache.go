package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edgeline/edge-engine/internal/cache"
	"github.com/edgeline/edge-engine/internal/config"
	"github.com/edgeline/edge-engine/internal/echo"
)

// CacheCmd groups cache inspection and invalidation subcommands, useful when
// a source starts returning stale numbers and the question is "is this the
// feed or the cache".
func CacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or invalidate cached source and analysis data",
	}
	cmd.AddCommand(cacheStatsCmd())
	cmd.AddCommand(cacheClearCmd())
	return cmd
}

func cacheStatsCmd() *cobra.Command {
	var keyType string

	c := &cobra.Command{
		Use:   "stats",
		Short: "Show keys and remaining TTLs for a cache category",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newCacheClient()
			if err != nil {
				return fmt.Errorf("error: %w", err)
			}

			pattern := client.KeyPrefix(cache.KeyType(keyType), "") + "*"
			stats, err := client.GetStats(cmd.Context(), pattern)
			if err != nil {
				return fmt.Errorf("error: %w", err)
			}

			if stats.Count == 0 {
				echo.Info("no cached keys for " + keyType)
				return nil
			}
			for _, key := range stats.Keys {
				echo.Infof("%s  ttl=%s", key, stats.TTLs[key])
			}
			echo.Infof("%d key(s)", stats.Count)
			return nil
		},
	}
	c.Flags().StringVar(&keyType, "type", "odds", "Cache category: weather, injuries, odds, analysis")
	return c
}

func cacheClearCmd() *cobra.Command {
	var keyType string

	c := &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached key in a category",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newCacheClient()
			if err != nil {
				return fmt.Errorf("error: %w", err)
			}

			prefix := client.KeyPrefix(cache.KeyType(keyType), "")
			n, err := client.InvalidateByPrefix(cmd.Context(), prefix)
			if err != nil {
				return fmt.Errorf("error: %w", err)
			}
			echo.Successf("cleared %d key(s) under %s", n, prefix)
			return nil
		},
	}
	c.Flags().StringVar(&keyType, "type", "odds", "Cache category: weather, injuries, odds, analysis")
	return c
}

// newCacheClient builds a standalone cache.Client for cache subcommands,
// which don't need the rest of runtime's database-backed repositories.
func newCacheClient() (*cache.Client, error) {
	cfg := config.Get()
	redisClient := newRedisClient(cfg)
	if redisClient == nil {
		return nil, fmt.Errorf("no redis URL configured")
	}
	return cache.NewClient(redisClient, cache.Config{
		App:     "edge-engine",
		Env:     "prod",
		Version: cfg.Cache.Version,
		Enabled: cfg.Cache.Enabled,
		TTLs: cache.TTLConfig{
			Weather:  cfg.Cache.TTLs.Weather,
			Injuries: cfg.Cache.TTLs.Injuries,
			Odds:     cfg.Cache.TTLs.Odds,
			Analysis: cfg.Cache.TTLs.Analysis,
		},
	}), nil
}
