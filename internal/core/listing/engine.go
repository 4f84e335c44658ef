// internal/core/listing/engine.go
package listing

import "slices"

// DefaultPageSize is the number of cards shown per listing page
const DefaultPageSize = 12

// Predicate reports whether an item belongs in the filtered result
type Predicate[T any] func(T) bool

// Comparator orders two items; negative when a sorts before b
type Comparator[T any] func(a, b T) int

// State is the lifecycle state of a listing session
type State int

const (
	StateEmpty State = iota
	StateLoaded
	StateFiltered
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateFiltered:
		return "filtered"
	default:
		return "empty"
	}
}

// Engine owns one catalog snapshot and derives filtered, sorted pages from it.
// An Engine is not safe for concurrent use.
type Engine[T any] struct {
	items    []T
	filtered []int // indexes into items, in display order
	pageSize int
	page     int
	state    State
}

// New creates an empty engine. A non-positive pageSize uses DefaultPageSize.
func New[T any](pageSize int) *Engine[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Engine[T]{pageSize: pageSize, page: 1}
}

// Load replaces the catalog wholesale and clears any active filter or sort.
func (e *Engine[T]) Load(items []T) {
	e.items = slices.Clone(items)
	e.filtered = make([]int, len(e.items))
	for i := range e.filtered {
		e.filtered[i] = i
	}
	e.page = 1
	if len(e.items) == 0 {
		e.state = StateEmpty
		return
	}
	e.state = StateLoaded
}

// Filter re-derives the visible subset from the full catalog. An item is kept
// only when every non-nil predicate accepts it. Returns the filtered count.
func (e *Engine[T]) Filter(preds ...Predicate[T]) int {
	active := make([]Predicate[T], 0, len(preds))
	for _, p := range preds {
		if p != nil {
			active = append(active, p)
		}
	}

	e.filtered = e.filtered[:0]
	for i, item := range e.items {
		if matchAll(item, active) {
			e.filtered = append(e.filtered, i)
		}
	}
	e.page = 1
	e.settle()
	return len(e.filtered)
}

func matchAll[T any](item T, preds []Predicate[T]) bool {
	for _, p := range preds {
		if !p(item) {
			return false
		}
	}
	return true
}

// Sort orders the filtered subset with a stable sort. A nil comparator leaves
// the order untouched but still resets the page.
func (e *Engine[T]) Sort(cmp Comparator[T]) {
	if cmp != nil {
		slices.SortStableFunc(e.filtered, func(a, b int) int {
			return cmp(e.items[a], e.items[b])
		})
	}
	e.page = 1
	e.settle()
}

func (e *Engine[T]) settle() {
	if len(e.filtered) == 0 {
		e.state = StateEmpty
		return
	}
	e.state = StateFiltered
}

// Page returns the 1-based page n of the filtered subset. Out-of-range page
// numbers are clamped to the nearest valid page.
func (e *Engine[T]) Page(n int) Page[T] {
	total := e.TotalPages()
	n = clamp(n, total)
	e.page = n

	p := Page[T]{
		Items:      []T{},
		Number:     n,
		PageSize:   e.pageSize,
		TotalPages: total,
		TotalCount: len(e.filtered),
	}
	if total == 0 {
		return p
	}

	start := (n - 1) * e.pageSize
	end := min(start+e.pageSize, len(e.filtered))
	p.Items = make([]T, 0, end-start)
	for _, idx := range e.filtered[start:end] {
		p.Items = append(p.Items, e.items[idx])
	}
	return p
}

func clamp(n, total int) int {
	if total == 0 || n < 1 {
		return 1
	}
	if n > total {
		return total
	}
	return n
}

// Update applies mutate to every catalog item accepted by match and returns
// how many were changed. Changes are visible in the filtered view as well.
// A nil match or mutate changes nothing.
func (e *Engine[T]) Update(match Predicate[T], mutate func(*T)) int {
	if match == nil || mutate == nil {
		return 0
	}
	changed := 0
	for i := range e.items {
		if match(e.items[i]) {
			mutate(&e.items[i])
			changed++
		}
	}
	return changed
}

// Filtered returns a copy of the filtered subset in display order.
func (e *Engine[T]) Filtered() []T {
	out := make([]T, 0, len(e.filtered))
	for _, idx := range e.filtered {
		out = append(out, e.items[idx])
	}
	return out
}

// TotalPages is ceil(filtered / pageSize), zero when nothing matches.
func (e *Engine[T]) TotalPages() int {
	return (len(e.filtered) + e.pageSize - 1) / e.pageSize
}

func (e *Engine[T]) CurrentPage() int { return e.page }
func (e *Engine[T]) PageSize() int    { return e.pageSize }
func (e *Engine[T]) Len() int         { return len(e.items) }
func (e *Engine[T]) State() State     { return e.state }
