// internal/core/domain/item.go
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when an item does not exist or was deleted
	ErrNotFound = errors.New("item not found")
	// ErrItemUnavailable is returned when a sold item is added to a cart
	ErrItemUnavailable = errors.New("item is not available")
	// ErrValidation marks input rejected before any storage call
	ErrValidation = errors.New("validation failed")
)

// Category is one of the fixed marketplace categories
type Category string

// Category constants
const (
	CategoryElectronics Category = "electronics"
	CategoryFurniture   Category = "furniture"
	CategoryClothing    Category = "clothing"
	CategoryBooks       Category = "books"
	CategorySports      Category = "sports"
	CategoryBeauty      Category = "beauty"
	CategoryKids        Category = "kids"
	CategoryHousehold   Category = "household"
	CategoryPlants      Category = "plants"
	CategoryOther       Category = "other"
)

var categories = map[Category]struct{}{
	CategoryElectronics: {}, CategoryFurniture: {}, CategoryClothing: {},
	CategoryBooks: {}, CategorySports: {}, CategoryBeauty: {}, CategoryKids: {},
	CategoryHousehold: {}, CategoryPlants: {}, CategoryOther: {},
}

// Valid reports whether c belongs to the closed category set
func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

// Status represents the trade status of an item
type Status string

const (
	StatusAvailable Status = "available"
	StatusReserved  Status = "reserved"
	StatusSold      Status = "sold"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusReserved, StatusSold:
		return true
	}
	return false
}

// Kind separates paid marketplace listings from free sharing listings
type Kind string

const (
	KindMarket  Kind = "market"
	KindSharing Kind = "sharing"
)

func (k Kind) Valid() bool {
	return k == KindMarket || k == KindSharing
}

// Item is a single second-hand listing
type Item struct {
	ID            uuid.UUID  `json:"id" yaml:"id"`
	SellerID      string     `json:"seller_id,omitempty" yaml:"seller_id"`
	Title         string     `json:"title" yaml:"title"`
	Description   string     `json:"description" yaml:"description"`
	Category      Category   `json:"category" yaml:"category"`
	Kind          Kind       `json:"kind" yaml:"kind"`
	Price         int64      `json:"price" yaml:"price"`
	OriginalPrice *int64     `json:"original_price,omitempty" yaml:"original_price"`
	Status        Status     `json:"status" yaml:"status"`
	DistanceKm    float64    `json:"distance_km" yaml:"distance_km"`
	Location      string     `json:"location,omitempty" yaml:"location"`
	Views         int64      `json:"views" yaml:"views"`
	Likes         int64      `json:"likes" yaml:"likes"`
	Images        []string   `json:"images,omitempty" yaml:"images"`
	CreatedAt     time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" yaml:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty" yaml:"-"`
}

// Validate performs domain validation and fills defaults
func (i *Item) Validate() error {
	if i.Title == "" {
		return fmt.Errorf("title is required")
	}
	if i.Price < 0 {
		return fmt.Errorf("price cannot be negative")
	}
	if i.OriginalPrice != nil && *i.OriginalPrice < i.Price {
		return fmt.Errorf("original_price must not be lower than price")
	}
	if i.DistanceKm < 0 {
		return fmt.Errorf("distance cannot be negative")
	}
	if i.Views < 0 || i.Likes < 0 {
		return fmt.Errorf("views and likes cannot be negative")
	}

	if i.Category == "" {
		i.Category = CategoryOther
	}
	if !i.Category.Valid() {
		return fmt.Errorf("unknown category %q", i.Category)
	}
	if i.Status == "" {
		i.Status = StatusAvailable
	}
	if !i.Status.Valid() {
		return fmt.Errorf("unknown status %q", i.Status)
	}
	if i.Kind == "" {
		i.Kind = KindMarket
	}
	if !i.Kind.Valid() {
		return fmt.Errorf("unknown kind %q", i.Kind)
	}
	if i.Kind == KindSharing && i.Price != 0 {
		return fmt.Errorf("sharing items must be free")
	}
	return nil
}

// PrepareForStorage assigns an ID and timestamps before the first save
func (i *Item) PrepareForStorage() {
	now := time.Now().UTC()
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	i.UpdatedAt = now
}

// Available reports whether the item can still be bought
func (i *Item) Available() bool {
	return i.Status == StatusAvailable && i.DeletedAt == nil
}

// DiscountPercent is the whole-percent reduction from the original price
func (i *Item) DiscountPercent() int {
	if i.OriginalPrice == nil || *i.OriginalPrice <= 0 || *i.OriginalPrice <= i.Price {
		return 0
	}
	return int((*i.OriginalPrice - i.Price) * 100 / *i.OriginalPrice)
}

// TimeAgo renders CreatedAt as the relative label shown on listing cards
func (i *Item) TimeAgo(now time.Time) string {
	d := now.Sub(i.CreatedAt)
	switch {
	case d < time.Minute:
		return "방금 전"
	case d < time.Hour:
		return fmt.Sprintf("%d분 전", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d시간 전", int(d/time.Hour))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%d일 전", int(d/(24*time.Hour)))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%d주 전", int(d/(7*24*time.Hour)))
	default:
		return i.CreatedAt.Format("2006.01.02")
	}
}

// MetersToKm converts a distance dropdown value to the canonical kilometer unit
func MetersToKm(m int) float64 {
	return float64(m) / 1000
}
