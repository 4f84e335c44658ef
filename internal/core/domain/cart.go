// internal/core/domain/cart.go
package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownCoupon     = errors.New("unknown coupon")
	ErrCouponNotEligible = errors.New("order does not meet coupon minimum")
)

var (
	// FreeShippingThreshold is the discounted subtotal that waives shipping
	FreeShippingThreshold = decimal.NewFromInt(50000)
	// ShippingFee is charged below FreeShippingThreshold
	ShippingFee = decimal.NewFromInt(3000)
)

// CouponKind distinguishes percentage from flat coupons
type CouponKind string

const (
	CouponPercent CouponKind = "percent"
	CouponFlat    CouponKind = "flat"
)

// Coupon is a cart-level discount
type Coupon struct {
	Code     string          `json:"code"`
	Kind     CouponKind      `json:"kind"`
	Amount   decimal.Decimal `json:"amount"`
	MaxOff   decimal.Decimal `json:"max_off,omitempty"`
	MinOrder decimal.Decimal `json:"min_order,omitempty"`
}

var coupons = map[string]Coupon{
	"WELCOME10": {Code: "WELCOME10", Kind: CouponPercent, Amount: decimal.NewFromInt(10)},
	"GREEN20":   {Code: "GREEN20", Kind: CouponPercent, Amount: decimal.NewFromInt(20), MaxOff: decimal.NewFromInt(20000)},
	"ECO5000":   {Code: "ECO5000", Kind: CouponFlat, Amount: decimal.NewFromInt(5000), MinOrder: decimal.NewFromInt(30000)},
}

// LookupCoupon finds a coupon by case-insensitive code
func LookupCoupon(code string) (Coupon, error) {
	c, ok := coupons[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Coupon{}, fmt.Errorf("%w: %s", ErrUnknownCoupon, code)
	}
	return c, nil
}

// Eligible reports ErrCouponNotEligible when subtotal is below the minimum order
func (c Coupon) Eligible(subtotal decimal.Decimal) error {
	if subtotal.LessThan(c.MinOrder) {
		return fmt.Errorf("%w: %s needs %s", ErrCouponNotEligible, c.Code, c.MinOrder.String())
	}
	return nil
}

// Discount returns the amount taken off subtotal, floored to whole won and
// never more than the subtotal.
func (c Coupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	if c.Eligible(subtotal) != nil {
		return decimal.Zero
	}

	var off decimal.Decimal
	switch c.Kind {
	case CouponPercent:
		off = subtotal.Mul(c.Amount).Div(decimal.NewFromInt(100))
	case CouponFlat:
		off = c.Amount
	}
	if c.MaxOff.IsPositive() && off.GreaterThan(c.MaxOff) {
		off = c.MaxOff
	}
	if off.GreaterThan(subtotal) {
		off = subtotal
	}
	return off.Floor()
}

// CartLine is one item in a cart
type CartLine struct {
	ItemID   uuid.UUID `json:"item_id"`
	Title    string    `json:"title"`
	Price    int64     `json:"price"`
	Image    string    `json:"image,omitempty"`
	Quantity int       `json:"quantity"`
}

// Cart is the per-session shopping cart
type Cart struct {
	SessionID  string     `json:"session_id"`
	Lines      []CartLine `json:"lines"`
	CouponCode string     `json:"coupon_code,omitempty"`
}

// Add inserts a line or increases the quantity of an existing one
func (c *Cart) Add(line CartLine) {
	if line.Quantity <= 0 {
		line.Quantity = 1
	}
	for i := range c.Lines {
		if c.Lines[i].ItemID == line.ItemID {
			c.Lines[i].Quantity += line.Quantity
			return
		}
	}
	c.Lines = append(c.Lines, line)
}

// Remove drops the line for itemID and reports whether it existed
func (c *Cart) Remove(itemID uuid.UUID) bool {
	for i := range c.Lines {
		if c.Lines[i].ItemID == itemID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return true
		}
	}
	return false
}

// Count is the total number of units in the cart
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// CartSummary is the priced breakdown shown beside the cart
type CartSummary struct {
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Discount  decimal.Decimal `json:"discount"`
	Shipping  decimal.Decimal `json:"shipping"`
	Total     decimal.Decimal `json:"total"`
	Coupon    string          `json:"coupon,omitempty"`
}

// Summarize prices the cart. Unknown coupon codes are ignored.
func (c *Cart) Summarize() CartSummary {
	s := CartSummary{
		ItemCount: c.Count(),
		Subtotal:  decimal.Zero,
		Discount:  decimal.Zero,
		Shipping:  decimal.Zero,
		Total:     decimal.Zero,
	}
	if len(c.Lines) == 0 {
		return s
	}

	for _, l := range c.Lines {
		s.Subtotal = s.Subtotal.Add(decimal.NewFromInt(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	if coupon, err := LookupCoupon(c.CouponCode); err == nil && c.CouponCode != "" {
		s.Discount = coupon.Discount(s.Subtotal)
		if s.Discount.IsPositive() {
			s.Coupon = coupon.Code
		}
	}

	discounted := s.Subtotal.Sub(s.Discount)
	if discounted.LessThan(FreeShippingThreshold) {
		s.Shipping = ShippingFee
	}
	s.Total = discounted.Add(s.Shipping)
	return s
}
