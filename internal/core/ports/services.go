// internal/core/ports/services.go
package ports

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/ammerola/greencycle-be/internal/core/domain"
	"github.com/ammerola/greencycle-be/internal/core/listing"
)

// ListingService browses the catalog through the listing engine
type ListingService interface {
	Browse(ctx context.Context, params BrowseParams) (*BrowseResult, error)
	// Collect returns every match in display order, without paging.
	Collect(ctx context.Context, params BrowseParams) ([]domain.Item, error)
}

// ItemService manages individual listings
type ItemService interface {
	Create(ctx context.Context, item *domain.Item) error
	CreateBatch(ctx context.Context, items []domain.Item) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	Update(ctx context.Context, id uuid.UUID, item *domain.Item) error
	Delete(ctx context.Context, id uuid.UUID, permanent bool) error
	Like(ctx context.Context, id uuid.UUID) (int64, error)
	AttachImage(ctx context.Context, id uuid.UUID, filename, contentType string, body io.Reader) (string, error)
}

// CartService manages the session cart
type CartService interface {
	Get(ctx context.Context, sessionID string) (*CartView, error)
	AddItem(ctx context.Context, sessionID string, itemID uuid.UUID, quantity int) (*CartView, error)
	RemoveItem(ctx context.Context, sessionID string, itemID uuid.UUID) (*CartView, error)
	ApplyCoupon(ctx context.Context, sessionID, code string) (*CartView, error)
	Clear(ctx context.Context, sessionID string) error
}

// BrowseParams holds the listing query for one request
type BrowseParams struct {
	Criteria domain.FilterCriteria
	Sort     domain.SortKey
	Page     int
	PageSize int
}

// BrowseResult is one rendered listing page plus its pagination strip
type BrowseResult struct {
	Page        listing.Page[domain.Item] `json:"page"`
	PageNumbers []listing.Token           `json:"page_numbers"`
	Sort        domain.SortKey            `json:"sort"`
	Empty       bool                      `json:"empty"`
	Message     string                    `json:"message,omitempty"`
}

// CartView is a cart with its priced summary
type CartView struct {
	Cart    *domain.Cart       `json:"cart"`
	Summary domain.CartSummary `json:"summary"`
}
