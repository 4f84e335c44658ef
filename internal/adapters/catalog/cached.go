// internal/adapters/catalog/cached.go
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	redis_a "github.com/ammerola/greencycle-be/internal/adapters/redis_adapter"
	"github.com/ammerola/greencycle-be/internal/core/domain"
	"github.com/ammerola/greencycle-be/internal/core/ports"
)

// CachedSource serves catalog snapshots from Redis, falling back to the
// repository on a miss. Snapshots are keyed per kind.
type CachedSource struct {
	repo   ports.ItemRepository
	cache  ports.CacheRepository
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.CatalogSource = (*CachedSource)(nil)

// NewCachedSource creates a cached catalog source
func NewCachedSource(repo ports.ItemRepository, cache ports.CacheRepository, ttl time.Duration, logger *slog.Logger) *CachedSource {
	return &CachedSource{
		repo:   repo,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "catalog")),
	}
}

// Load returns the snapshot for kind
func (s *CachedSource) Load(ctx context.Context, kind domain.Kind) ([]domain.Item, error) {
	var items []domain.Item
	err := s.cache.GetOrSet(ctx, snapshotKey(kind), &items, func(fillCtx context.Context) (any, error) {
		s.logger.DebugContext(fillCtx, "building catalog snapshot", slog.String("kind", string(kind)))
		return s.repo.ListAll(fillCtx, kind)
	}, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if items == nil {
		items = []domain.Item{}
	}
	return items, nil
}

// Invalidate drops every cached snapshot
func (s *CachedSource) Invalidate(ctx context.Context) error {
	if err := s.cache.DeletePattern(ctx, redis_a.BuildKey(redis_a.PrefixCatalog, "*")); err != nil {
		return fmt.Errorf("failed to invalidate catalog: %w", err)
	}
	s.logger.DebugContext(ctx, "catalog snapshots invalidated")
	return nil
}

func snapshotKey(kind domain.Kind) string {
	if kind == "" {
		return redis_a.BuildKey(redis_a.PrefixCatalog, "all")
	}
	return redis_a.BuildKey(redis_a.PrefixCatalog, string(kind))
}
