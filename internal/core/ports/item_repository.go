// internal/core/ports/item_repository.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ammerola/greencycle-be/internal/core/domain"
)

// ItemRepository defines the persistence port for listings.
// This interface is implemented by the database adapter.
type ItemRepository interface {
	Save(ctx context.Context, item *domain.Item) error
	SaveBatch(ctx context.Context, items []domain.Item) error
	Update(ctx context.Context, item *domain.Item) error
	// FindByID returns nil, nil when the item does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	// ListAll returns every live item of kind, or of every kind when kind is empty.
	ListAll(ctx context.Context, kind domain.Kind) ([]domain.Item, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	IncrementLikes(ctx context.Context, id uuid.UUID) (int64, error)
	IncrementViews(ctx context.Context, id uuid.UUID) (int64, error)
	AddImage(ctx context.Context, id uuid.UUID, url string) error
	Count(ctx context.Context) (int64, error)
	Truncate(ctx context.Context) error
}
