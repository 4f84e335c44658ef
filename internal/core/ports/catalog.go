// internal/core/ports/catalog.go
package ports

import (
	"context"

	"github.com/ammerola/greencycle-be/internal/core/domain"
)

// CatalogSource supplies the catalog snapshot a listing session loads.
type CatalogSource interface {
	// Load returns every listed item of kind; an empty kind means all kinds.
	Load(ctx context.Context, kind domain.Kind) ([]domain.Item, error)
	// Invalidate drops any cached snapshot so the next Load is fresh.
	Invalidate(ctx context.Context) error
}
