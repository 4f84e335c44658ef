// internal/workers/refresh_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	redis_a "github.com/ammerola/greencycle-be/internal/adapters/redis_adapter"
	"github.com/ammerola/greencycle-be/internal/core/domain"
	"github.com/ammerola/greencycle-be/internal/core/ports"
)

// refreshKinds are warmed after every refresh; empty means all kinds.
var refreshKinds = []domain.Kind{"", domain.KindMarket, domain.KindSharing}

// RefreshProcessor rebuilds the cached catalog snapshots
type RefreshProcessor struct {
	source  ports.CatalogSource
	locks   ports.CacheRepository
	lockTTL time.Duration
	logger  *slog.Logger
}

// NewRefreshProcessor creates a new refresh processor. locks may be nil when
// only one worker runs.
func NewRefreshProcessor(source ports.CatalogSource, locks ports.CacheRepository, lockTTL time.Duration, logger *slog.Logger) *RefreshProcessor {
	if lockTTL <= 0 {
		lockTTL = time.Minute
	}
	return &RefreshProcessor{
		source:  source,
		locks:   locks,
		lockTTL: lockTTL,
		logger:  logger.With(slog.String("processor", "refresh")),
	}
}

// ProcessRefresh handles catalog:refresh
func (p *RefreshProcessor) ProcessRefresh(ctx context.Context, t *asynq.Task) error {
	if p.locks != nil {
		key := redis_a.BuildKey(redis_a.PrefixLock, TypeCatalogRefresh)
		ok, err := p.locks.SetNX(ctx, key, time.Now().Unix(), p.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to take refresh lock: %w", err)
		}
		if !ok {
			p.logger.InfoContext(ctx, "refresh already running, skipping")
			return nil
		}
		defer func() {
			if err := p.locks.Delete(context.WithoutCancel(ctx), key); err != nil {
				p.logger.WarnContext(ctx, "failed to release refresh lock", slog.String("error", err.Error()))
			}
		}()
	}

	if err := p.source.Invalidate(ctx); err != nil {
		return fmt.Errorf("failed to invalidate catalog: %w", err)
	}

	for _, kind := range refreshKinds {
		items, err := p.source.Load(ctx, kind)
		if err != nil {
			return fmt.Errorf("failed to warm %q snapshot: %w", kind, err)
		}
		p.logger.DebugContext(ctx, "snapshot warmed",
			slog.String("kind", string(kind)),
			slog.Int("items", len(items)))
	}

	p.logger.InfoContext(ctx, "catalog refreshed")
	return nil
}
