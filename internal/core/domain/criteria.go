// internal/core/domain/criteria.go
package domain

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ammerola/greencycle-be/internal/core/listing"
)

var (
	ErrInvalidPriceRange = errors.New("invalid price range")
	ErrInvalidSortKey    = errors.New("invalid sort key")
)

// NoUpperBound is the Max of an open-ended price range
const NoUpperBound int64 = math.MaxInt64

// PriceRange is an inclusive price bound
type PriceRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// Contains reports whether price lies within the range
func (r PriceRange) Contains(price int64) bool {
	return r.Min <= price && price <= r.Max
}

// ParsePriceRange parses the price dropdown values.
// Accepted forms: "10000-50000", "50000+", "50000-", "-10000". Empty or "all"
// yields nil, meaning no price filter.
func ParsePriceRange(s string) (*PriceRange, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return nil, nil
	}

	var minStr, maxStr string
	switch {
	case strings.HasSuffix(s, "+"):
		minStr = strings.TrimSuffix(s, "+")
	case strings.Contains(s, "-"):
		var ok bool
		minStr, maxStr, ok = strings.Cut(s, "-")
		if !ok || strings.Contains(maxStr, "-") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPriceRange, s)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriceRange, s)
	}

	r := PriceRange{Max: NoUpperBound}
	var err error
	if minStr != "" {
		if r.Min, err = parseWon(minStr); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPriceRange, s)
		}
	}
	if maxStr != "" {
		if r.Max, err = parseWon(maxStr); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPriceRange, s)
		}
		if r.Max < r.Min {
			return nil, fmt.Errorf("%w: max below min in %q", ErrInvalidPriceRange, s)
		}
	}
	if minStr == "" && maxStr == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriceRange, s)
	}
	return &r, nil
}

func parseWon(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative amount")
	}
	return n, nil
}

// FilterCriteria holds the active listing filters. Zero fields are ignored.
type FilterCriteria struct {
	Kind          Kind        `json:"kind,omitempty"`
	Category      Category    `json:"category,omitempty"`
	MaxDistanceKm *float64    `json:"max_distance_km,omitempty"`
	PriceRange    *PriceRange `json:"price_range,omitempty"`
	Status        Status      `json:"status,omitempty"`
	SearchText    string      `json:"search_text,omitempty"`
}

// Validate rejects values outside the closed enum sets
func (f FilterCriteria) Validate() error {
	if f.Kind != "" && !f.Kind.Valid() {
		return fmt.Errorf("unknown kind %q", f.Kind)
	}
	if f.Category != "" && !f.Category.Valid() {
		return fmt.Errorf("unknown category %q", f.Category)
	}
	if f.Status != "" && !f.Status.Valid() {
		return fmt.Errorf("unknown status %q", f.Status)
	}
	if d := f.MaxDistanceKm; d != nil {
		if math.IsNaN(*d) || math.IsInf(*d, 0) {
			return fmt.Errorf("distance must be a finite number")
		}
		if *d < 0 {
			return fmt.Errorf("distance cannot be negative")
		}
	}
	return nil
}

// Predicates returns one predicate per set field. Unset fields yield nil
// entries, which the engine skips.
func (f FilterCriteria) Predicates() []listing.Predicate[Item] {
	return []listing.Predicate[Item]{
		f.kindPredicate(),
		f.categoryPredicate(),
		f.distancePredicate(),
		f.pricePredicate(),
		f.statusPredicate(),
		f.searchPredicate(),
	}
}

func (f FilterCriteria) kindPredicate() listing.Predicate[Item] {
	if f.Kind == "" {
		return nil
	}
	return func(i Item) bool { return i.Kind == f.Kind }
}

func (f FilterCriteria) categoryPredicate() listing.Predicate[Item] {
	if f.Category == "" {
		return nil
	}
	return func(i Item) bool { return i.Category == f.Category }
}

func (f FilterCriteria) distancePredicate() listing.Predicate[Item] {
	if f.MaxDistanceKm == nil {
		return nil
	}
	bound := *f.MaxDistanceKm
	return func(i Item) bool { return i.DistanceKm <= bound }
}

func (f FilterCriteria) pricePredicate() listing.Predicate[Item] {
	if f.PriceRange == nil {
		return nil
	}
	r := *f.PriceRange
	return func(i Item) bool { return r.Contains(i.Price) }
}

func (f FilterCriteria) statusPredicate() listing.Predicate[Item] {
	if f.Status == "" {
		return nil
	}
	return func(i Item) bool { return i.Status == f.Status }
}

func (f FilterCriteria) searchPredicate() listing.Predicate[Item] {
	q := strings.ToLower(strings.TrimSpace(f.SearchText))
	if q == "" {
		return nil
	}
	return func(i Item) bool {
		return strings.Contains(strings.ToLower(i.Title), q) ||
			strings.Contains(strings.ToLower(i.Description), q)
	}
}

// SortKey selects the listing order
type SortKey string

const (
	SortRecent    SortKey = "recent"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortDistance  SortKey = "distance"
	SortPopular   SortKey = "popular"
)

// ParseSortKey maps the sort dropdown value. Empty selects SortRecent.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortRecent, nil
	case SortRecent, SortPriceLow, SortPriceHigh, SortDistance, SortPopular:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSortKey, s)
	}
}

// Comparator returns the ordering for k
func (k SortKey) Comparator() listing.Comparator[Item] {
	switch k {
	case SortPriceLow:
		return func(a, b Item) int { return cmp.Compare(a.Price, b.Price) }
	case SortPriceHigh:
		return func(a, b Item) int { return cmp.Compare(b.Price, a.Price) }
	case SortDistance:
		return func(a, b Item) int { return cmp.Compare(a.DistanceKm, b.DistanceKm) }
	case SortPopular:
		return func(a, b Item) int { return cmp.Compare(b.Views, a.Views) }
	default:
		return func(a, b Item) int { return b.CreatedAt.Compare(a.CreatedAt) }
	}
}
