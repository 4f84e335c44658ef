// internal/core/ports/cart.go
package ports

import (
	"context"

	"github.com/ammerola/greencycle-be/internal/core/domain"
)

// CartStore persists carts per browser session
type CartStore interface {
	// Load returns an empty cart when the session has none.
	Load(ctx context.Context, sessionID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Clear(ctx context.Context, sessionID string) error
}
