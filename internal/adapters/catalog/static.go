// internal/adapters/catalog/static.go
package catalog

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/ammerola/greencycle-be/internal/core/domain"
	"github.com/ammerola/greencycle-be/internal/core/ports"
)

// StaticSource serves a fixed catalog read from a seed file. It backs the
// demo mode where no database is configured.
type StaticSource struct {
	mu     sync.RWMutex
	path   string
	items  []domain.Item
	logger *slog.Logger
}

var _ ports.CatalogSource = (*StaticSource)(nil)

// NewStaticSource reads path once and serves it until Invalidate reloads it
func NewStaticSource(path string, logger *slog.Logger) (*StaticSource, error) {
	items, err := LoadSeedFile(path)
	if err != nil {
		return nil, err
	}
	return &StaticSource{path: path, items: items, logger: logger}, nil
}

// NewStaticSourceFromItems serves items as given
func NewStaticSourceFromItems(items []domain.Item) *StaticSource {
	return &StaticSource{items: slices.Clone(items)}
}

// Load returns the items of kind, or all items when kind is empty
func (s *StaticSource) Load(_ context.Context, kind domain.Kind) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Item, 0, len(s.items))
	for _, it := range s.items {
		if it.DeletedAt != nil {
			continue
		}
		if kind == "" || it.Kind == kind {
			out = append(out, it)
		}
	}
	return out, nil
}

// Invalidate rereads the seed file; sources built from items are left as is
func (s *StaticSource) Invalidate(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	items, err := LoadSeedFile(s.path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.InfoContext(ctx, "seed catalog reloaded", slog.Int("items", len(items)))
	}
	return nil
}
