package cache

import (
	"context"
	"fmt"
	"time"
)

// KeyType represents different categories of cached data.
type KeyType string

const (
	KeyTypeWeather  KeyType = "weather"
	KeyTypeInjuries KeyType = "injuries"
	KeyTypeOdds     KeyType = "odds"
	KeyTypeAnalysis KeyType = "analysis"
)

// WeatherKey builds a cache key for a forecast lookup keyed by game.
// Format: {app}:{env}:{version}:weather:{game_id}
func (c *Client) WeatherKey(gameID string) string {
	return c.buildKey(string(KeyTypeWeather), gameID)
}

// InjuryKey builds a cache key for a team's current injury list.
// Format: {app}:{env}:{version}:injuries:{team_id}
func (c *Client) InjuryKey(teamID string) string {
	return c.buildKey(string(KeyTypeInjuries), teamID)
}

// OddsKey builds a cache key for a game's consensus odds computation.
// Format: {app}:{env}:{version}:odds:{game_id}:{hash}
func (c *Client) OddsKey(gameID string, params map[string]string) string {
	hash := HashParams(params)
	identifier := fmt.Sprintf("%s:%s", gameID, hash)
	return c.buildKey(string(KeyTypeOdds), identifier)
}

// AnalysisKey builds a cache key for a generic memoized computation (e.g.
// the power-rating table as of a given week).
// Format: {app}:{env}:{version}:analysis:{name}:{hash}
func (c *Client) AnalysisKey(name string, params map[string]string) string {
	hash := HashParams(params)
	identifier := fmt.Sprintf("%s:%s", name, hash)
	return c.buildKey(string(KeyTypeAnalysis), identifier)
}

// ParsePattern extracts keys matching a glob pattern (e.g., "edge-engine:prod:v1:odds:*")
// Returns matching keys for bulk operations. Use sparingly in production.
func (c *Client) ParsePattern(ctx context.Context, pattern string) ([]string, error) {
	if !c.config.Enabled || c.Redis == nil {
		return nil, nil
	}

	var keys []string
	iter := c.Redis.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan keys: %w", err)
	}

	return keys, nil
}

// Stats returns cache statistics for a given key pattern.
type Stats struct {
	Keys  []string
	Count int
	TTLs  map[string]time.Duration // Key -> remaining TTL
}

// GetStats retrieves statistics for keys matching a pattern.
// Useful for cache inspection and debugging via CLI.
func (c *Client) GetStats(ctx context.Context, pattern string) (*Stats, error) {
	keys, err := c.ParsePattern(ctx, pattern)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Keys:  keys,
		Count: len(keys),
		TTLs:  make(map[string]time.Duration),
	}

	for _, key := range keys {
		ttl, err := c.Redis.TTL(ctx, key).Result()
		if err == nil {
			stats.TTLs[key] = ttl
		}
	}

	return stats, nil
}

// KeyPrefix returns the full prefix for a given key type and resource.
// Useful for building scan patterns.
func (c *Client) KeyPrefix(keyType KeyType, resource string) string {
	if resource == "" {
		return fmt.Sprintf("%s:%s:%s:%s", c.config.App, c.config.Env, c.config.Version, keyType)
	}
	return fmt.Sprintf("%s:%s:%s:%s:%s", c.config.App, c.config.Env, c.config.Version, keyType, resource)
}

// InvalidateByPrefix deletes all keys matching a prefix pattern.
// Use with caution in production - prefer version bumping for bulk invalidation.
func (c *Client) InvalidateByPrefix(ctx context.Context, prefix string) (int, error) {
	if !c.config.Enabled || c.Redis == nil {
		return 0, nil
	}

	pattern := prefix + "*"
	keys, err := c.ParsePattern(ctx, pattern)
	if err != nil {
		return 0, err
	}

	if len(keys) == 0 {
		return 0, nil
	}

	deleted, err := c.Redis.Del(ctx, keys...).Result()
	return int(deleted), err
}
