// internal/adapters/redis_adapter/cache.go
package redis_a

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/ammerola/greencycle-be/internal/core/ports"
)

// CacheKeyPrefix namespaces the keys written by this service
type CacheKeyPrefix string

const (
	PrefixCatalog CacheKeyPrefix = "catalog"
	PrefixLock    CacheKeyPrefix = "lock"
)

// scanBatch is the COUNT hint for SCAN during pattern deletes
const scanBatch = 200

// ErrCacheMiss is returned when a key is not found in cache
var ErrCacheMiss = errors.New("cache miss")

// Cache stores JSON values in Redis. Concurrent GetOrSet misses on the same
// key share a single fetch.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	fills  singleflight.Group
	logger *slog.Logger
}

var _ ports.CacheRepository = (*Cache)(nil)

// NewCache creates a new cache instance
func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "cache")),
	}
}

// Set stores value with the default TTL
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores value with ttl
func (c *Cache) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.ErrorContext(ctx, "failed to set cache",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return fmt.Errorf("redis set error: %w", err)
	}
	c.logger.DebugContext(ctx, "cache set", slog.String("key", key), slog.Duration("ttl", ttl))
	return nil
}

// Get decodes the value at key into dest; a miss returns ErrCacheMiss
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		c.logger.DebugContext(ctx, "cache miss", slog.String("key", key))
		return ErrCacheMiss
	case err != nil:
		c.logger.ErrorContext(ctx, "failed to get cache",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return fmt.Errorf("redis get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal error: %w", err)
	}
	return nil
}

// Delete removes keys
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.ErrorContext(ctx, "failed to delete cache",
			slog.Any("keys", keys),
			slog.String("error", err.Error()))
		return fmt.Errorf("redis del error: %w", err)
	}
	return nil
}

// DeletePattern removes every key matching pattern, one SCAN page at a time
func (c *Cache) DeletePattern(ctx context.Context, pattern string) error {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis scan error: %w", err)
		}
		if err := c.Delete(ctx, keys...); err != nil {
			return err
		}
		removed += len(keys)
		if cursor = next; cursor == 0 {
			break
		}
	}
	c.logger.DebugContext(ctx, "cache pattern deleted",
		slog.String("pattern", pattern),
		slog.Int("keys", removed))
	return nil
}

// GetOrSet fills dest from the cache, or from fetch on a miss. When Redis is
// unreachable the fetched value is still returned.
//
// Concurrent misses on one key share a single fetch. That fetch runs detached
// from any caller's cancellation; a caller whose ctx ends stops waiting
// without failing the others.
func (c *Cache) GetOrSet(ctx context.Context, key string, dest any,
	fetch func(ctx context.Context) (any, error), ttl time.Duration) error {

	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.WarnContext(ctx, "cache unavailable, fetching directly",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}

	fillCtx := context.WithoutCancel(ctx)
	ch := c.fills.DoChan(key, func() (any, error) {
		return c.fill(fillCtx, key, fetch, ttl)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return ctx.Err()
	}
	if res.Err != nil {
		return res.Err
	}
	if res.Shared {
		c.logger.DebugContext(ctx, "shared cache fill", slog.String("key", key))
	}

	if err := json.Unmarshal(res.Val.([]byte), dest); err != nil {
		return fmt.Errorf("unmarshal error: %w", err)
	}
	return nil
}

func (c *Cache) fill(ctx context.Context, key string,
	fetch func(ctx context.Context) (any, error), ttl time.Duration) ([]byte, error) {

	value, err := fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch error: %w", err)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal error: %w", err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "failed to cache value after fetch",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
	return data, nil
}

// SetNX sets key only if it is absent
func (c *Cache) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("marshal error: %w", err)
	}
	ok, err := c.client.SetNX(ctx, key, data, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx error: %w", err)
	}
	return ok, nil
}

func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping error: %w", err)
	}
	return nil
}

// BuildKey joins prefix and parts with colons
func BuildKey(prefix CacheKeyPrefix, parts ...string) string {
	return strings.Join(append([]string{string(prefix)}, parts...), ":")
}
