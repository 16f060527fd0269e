package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keys for the public read endpoints.
const (
	cacheKeyServices   = "catalog:services"
	cacheKeyMaterials  = "catalog:materials"
	cacheKeyPortfolios = "catalog:portfolios"
	cacheKeyQuestions  = "catalog:quiz_questions"
	cacheKeySettings   = "catalog:calculator_settings"
)

// cacheTTL bounds staleness of the public catalog reads. Writes
// invalidate eagerly; the TTL is the backstop.
const cacheTTL = 5 * time.Minute

// readCache is a JSON read-through cache over redis. A nil readCache or
// a redis outage degrades to direct repository reads.
type readCache struct {
	client *redis.Client
	logger *slog.Logger
}

func newReadCache(client *redis.Client, logger *slog.Logger) *readCache {
	if client == nil {
		return nil
	}
	return &readCache{client: client, logger: logger}
}

// get loads a cached value into dest, reporting whether it was present.
func (c *readCache) get(ctx context.Context, key string, dest any) bool {
	if c == nil {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("catalog cache read", slog.String("key", key), slog.Any("error", err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("catalog cache decode", slog.String("key", key), slog.Any("error", err))
		return false
	}
	return true
}

func (c *readCache) set(ctx context.Context, key string, value any) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
		c.logger.Warn("catalog cache write", slog.String("key", key), slog.Any("error", err))
	}
}

func (c *readCache) invalidate(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("catalog cache invalidate", slog.Any("error", err))
	}
}
