// Package cache provides a thin read-through cache on Redis.
//
// Every helper degrades to a miss on Redis errors so that callers never
// fail a request because the cache is down.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// New dials a Redis client for the given address.
func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        addr,
		ReadTimeout: 2 * time.Second,
	})
}

// Cache wraps a Redis client with JSON encode/decode helpers.
// A nil Cache is valid and always misses.
type Cache struct {
	rdb *redis.Client
}

// NewCache wraps an existing Redis client. Pass nil to disable caching.
func NewCache(rdb *redis.Client) *Cache {
	if rdb == nil {
		return nil
	}
	return &Cache{rdb: rdb}
}

// GetJSON loads key and unmarshals it into dst. The boolean reports a hit.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) bool {
	if c == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zctx.From(ctx).Debug("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		zctx.From(ctx).Warn("cache entry corrupt, dropping", zap.String("key", key), zap.Error(err))
		c.Invalidate(ctx, key)
		return false
	}
	return true
}

// SetJSON marshals v and stores it under key with the given TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		zctx.From(ctx).Warn("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		zctx.From(ctx).Debug("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// GetString loads a plain string value. The boolean reports a hit.
func (c *Cache) GetString(ctx context.Context, key string) (string, bool) {
	if c == nil {
		return "", false
	}
	s, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zctx.From(ctx).Debug("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return s, true
}

// SetString stores a plain string value under key with the given TTL.
func (c *Cache) SetString(ctx context.Context, key, val string, ttl time.Duration) {
	if c == nil {
		return
	}
	if err := c.rdb.Set(ctx, key, val, ttl).Err(); err != nil {
		zctx.From(ctx).Debug("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate removes keys. Errors are logged and swallowed.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		zctx.From(ctx).Debug("cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
