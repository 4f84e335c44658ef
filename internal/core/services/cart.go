// internal/core/services/cart.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ammerola/greencycle-be/internal/core/domain"
	"github.com/ammerola/greencycle-be/internal/core/ports"
)

// CartService handles cart business logic
type CartService struct {
	store  ports.CartStore
	items  ports.ItemRepository
	logger *slog.Logger
}

var _ ports.CartService = (*CartService)(nil)

func NewCartService(store ports.CartStore, items ports.ItemRepository, logger *slog.Logger) *CartService {
	return &CartService{
		store:  store,
		items:  items,
		logger: logger.With(slog.String("service", "cart")),
	}
}

func (s *CartService) Get(ctx context.Context, sessionID string) (*ports.CartView, error) {
	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return view(cart), nil
}

// AddItem puts an available item in the cart, merging repeat adds
func (s *CartService) AddItem(ctx context.Context, sessionID string, itemID uuid.UUID, quantity int) (*ports.CartView, error) {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, itemID)
	}
	if !item.Available() {
		return nil, fmt.Errorf("%w: %s is %s", domain.ErrItemUnavailable, item.Title, item.Status)
	}

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	line := domain.CartLine{ItemID: item.ID, Title: item.Title, Price: item.Price, Quantity: quantity}
	if len(item.Images) > 0 {
		line.Image = item.Images[0]
	}
	cart.Add(line)

	if err := s.store.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	s.logger.InfoContext(ctx, "added item to cart",
		slog.String("item_id", itemID.String()),
		slog.Int("cart_count", cart.Count()))

	return view(cart), nil
}

func (s *CartService) RemoveItem(ctx context.Context, sessionID string, itemID uuid.UUID) (*ports.CartView, error) {
	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !cart.Remove(itemID) {
		return nil, fmt.Errorf("%w: %s not in cart", domain.ErrNotFound, itemID)
	}
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return view(cart), nil
}

// ApplyCoupon validates code against the current subtotal and stores it
func (s *CartService) ApplyCoupon(ctx context.Context, sessionID, code string) (*ports.CartView, error) {
	coupon, err := domain.LookupCoupon(code)
	if err != nil {
		return nil, err
	}

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := coupon.Eligible(cart.Summarize().Subtotal); err != nil {
		return nil, err
	}

	cart.CouponCode = coupon.Code
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	s.logger.InfoContext(ctx, "applied coupon", slog.String("coupon", coupon.Code))
	return view(cart), nil
}

func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (s *CartService) load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrValidation)
	}
	cart, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return cart, nil
}

func view(cart *domain.Cart) *ports.CartView {
	return &ports.CartView{Cart: cart, Summary: cart.Summarize()}
}
