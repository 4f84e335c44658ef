// internal/adapters/redis_adapter/cart.go
package redis_a

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ammerola/greencycle-be/internal/core/domain"
	"github.com/ammerola/greencycle-be/internal/core/ports"
)

// CartStore keeps one JSON cart per session under <prefix>:<session id>.
// Every save renews the TTL, so idle carts expire on their own.
type CartStore struct {
	cache  *Cache
	prefix string
	ttl    time.Duration
}

var _ ports.CartStore = (*CartStore)(nil)

// NewCartStore creates a Redis-backed cart store
func NewCartStore(cache *Cache, prefix string, ttl time.Duration) *CartStore {
	return &CartStore{cache: cache, prefix: prefix, ttl: ttl}
}

// Load returns the session cart, or an empty one
func (s *CartStore) Load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := s.cache.Get(ctx, s.key(sessionID), &cart)
	if errors.Is(err, ErrCacheMiss) {
		return &domain.Cart{SessionID: sessionID, Lines: []domain.CartLine{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	cart.SessionID = sessionID
	if cart.Lines == nil {
		cart.Lines = []domain.CartLine{}
	}
	return &cart, nil
}

// Save stores the cart and renews its expiry
func (s *CartStore) Save(ctx context.Context, cart *domain.Cart) error {
	if err := s.cache.SetWithTTL(ctx, s.key(cart.SessionID), cart, s.ttl); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// Clear drops the session cart
func (s *CartStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.cache.Delete(ctx, s.key(sessionID)); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (s *CartStore) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}
