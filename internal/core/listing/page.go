// internal/core/listing/page.go
package listing

import (
	"encoding/json"
	"strconv"
)

// EllipsisLabel is rendered in place of skipped page numbers
const EllipsisLabel = "…"

// maxUncompressed is the largest page count rendered without ellipses
const maxUncompressed = 7

// Page is a read-only view of one slice of the filtered result
type Page[T any] struct {
	Items      []T `json:"items"`
	Number     int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
	TotalCount int `json:"total_count"`
}

func (p Page[T]) HasPrev() bool { return p.Number > 1 }
func (p Page[T]) HasNext() bool { return p.Number < p.TotalPages }
func (p Page[T]) Empty() bool   { return p.TotalCount == 0 }

// Token is one entry of the pagination strip: a page number or an ellipsis
type Token struct {
	Page     int
	Ellipsis bool
}

// PageToken returns a numbered token
func PageToken(n int) Token { return Token{Page: n} }

// EllipsisToken returns a gap marker
func EllipsisToken() Token { return Token{Ellipsis: true} }

func (t Token) String() string {
	if t.Ellipsis {
		return EllipsisLabel
	}
	return strconv.Itoa(t.Page)
}

// MarshalJSON encodes numbers as JSON numbers and gaps as "…"
func (t Token) MarshalJSON() ([]byte, error) {
	if t.Ellipsis {
		return json.Marshal(EllipsisLabel)
	}
	return json.Marshal(t.Page)
}

// UnmarshalJSON accepts either form produced by MarshalJSON
func (t *Token) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Token{Ellipsis: s == EllipsisLabel}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = Token{Page: n}
	return nil
}

// PageNumbers builds the compressed pagination strip for current of total.
//
// Up to seven pages are listed in full. Beyond that the first and last page
// are always shown; near the start (current <= 4) pages 1-5 are shown, near
// the end (current >= total-3) the last five, and otherwise current and its
// two neighbours, with an ellipsis wherever pages are skipped.
func PageNumbers(current, total int) []Token {
	if total <= 0 {
		return []Token{}
	}
	current = clamp(current, total)

	if total <= maxUncompressed {
		return span(1, total)
	}

	var out []Token
	switch {
	case current <= 4:
		out = span(1, 5)
		out = append(out, EllipsisToken(), PageToken(total))
	case current >= total-3:
		out = []Token{PageToken(1), EllipsisToken()}
		out = append(out, span(total-4, total)...)
	default:
		out = []Token{PageToken(1), EllipsisToken()}
		out = append(out, span(current-1, current+1)...)
		out = append(out, EllipsisToken(), PageToken(total))
	}
	return out
}

func span(from, to int) []Token {
	out := make([]Token, 0, to-from+1)
	for n := from; n <= to; n++ {
		out = append(out, PageToken(n))
	}
	return out
}

