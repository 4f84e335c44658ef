// internal/core/ports/cache.go
package ports

import (
	"context"
	"time"
)

// CacheRepository defines the interface for cache operations
type CacheRepository interface {
	Set(ctx context.Context, key string, value any) error
	SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string, dest any) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error

	// GetOrSet fills dest from the cache, or from fetch on a miss. fetch
	// receives a context that outlives the caller's cancellation.
	GetOrSet(ctx context.Context, key string, dest any,
		fetch func(ctx context.Context) (any, error), ttl time.Duration) error

	// SetNX sets key only when absent; used for short-lived locks.
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Ping(ctx context.Context) error
}
