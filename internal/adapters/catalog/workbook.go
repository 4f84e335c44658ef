// internal/adapters/catalog/workbook.go
package catalog

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/greencycle-be/internal/core/domain"
)

const (
	sheetName       = "Listings"
	workbookTimeFmt = "2006-01-02 15:04"
	maxHeaderCols   = 32
)

// Columns are matched by header name, so exported workbooks import back.
var workbookColumns = []string{
	"title", "description", "category", "kind", "price", "original_price",
	"status", "distance_km", "location", "images", "created_at",
}

// RowError reports a rejected spreadsheet row
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// ReadWorkbook parses the first sheet of an xlsx file. The first row holds
// the headers; rows without a title are skipped.
func ReadWorkbook(data []byte) ([]domain.Item, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	if len(file.Sheets) == 0 {
		return []domain.Item{}, nil
	}

	var (
		items  = []domain.Item{}
		index  map[string]int
		rowNum int
	)
	err = file.Sheets[0].ForEachRow(func(r *xlsx.Row) error {
		rowNum++
		if index == nil {
			index = headerIndex(r)
			if _, ok := index["title"]; !ok {
				return fmt.Errorf("missing title column")
			}
			return nil
		}

		item, err := parseRow(r, index)
		if err != nil {
			return &RowError{Row: rowNum, Err: err}
		}
		if item == nil {
			return nil
		}
		items = append(items, *item)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}
	return items, nil
}

func headerIndex(r *xlsx.Row) map[string]int {
	index := make(map[string]int)
	for i := 0; i < maxHeaderCols; i++ {
		name := strings.ToLower(strings.TrimSpace(r.GetCell(i).String()))
		name = strings.ReplaceAll(name, " ", "_")
		if name != "" {
			index[name] = i
		}
	}
	return index
}

func parseRow(r *xlsx.Row, index map[string]int) (*domain.Item, error) {
	get := func(col string) string {
		i, ok := index[col]
		if !ok {
			return ""
		}
		return strings.TrimSpace(r.GetCell(i).String())
	}

	title := get("title")
	if title == "" {
		return nil, nil
	}

	item := &domain.Item{
		Title:       title,
		Description: get("description"),
		Category:    domain.Category(strings.ToLower(get("category"))),
		Kind:        domain.Kind(strings.ToLower(get("kind"))),
		Status:      domain.Status(strings.ToLower(get("status"))),
		Location:    get("location"),
	}

	var err error
	if item.Price, err = parseWon(get("price")); err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	if s := get("original_price"); s != "" {
		original, err := parseWon(s)
		if err != nil {
			return nil, fmt.Errorf("original_price: %w", err)
		}
		item.OriginalPrice = &original
	}
	if s := get("distance_km"); s != "" {
		if item.DistanceKm, err = strconv.ParseFloat(s, 64); err != nil {
			return nil, fmt.Errorf("distance_km: invalid number %q", s)
		}
	}
	if s := get("images"); s != "" {
		for _, u := range strings.Split(s, ",") {
			if u = strings.TrimSpace(u); u != "" {
				item.Images = append(item.Images, u)
			}
		}
	}
	if s := get("created_at"); s != "" {
		if item.CreatedAt, err = time.ParseInLocation(workbookTimeFmt, s, time.UTC); err != nil {
			return nil, fmt.Errorf("created_at: expected %s", workbookTimeFmt)
		}
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}
	item.PrepareForStorage()
	return item, nil
}

// parseWon reads "12,000", "12000원" or "₩12000" as whole won
func parseWon(s string) (int64, error) {
	clean := strings.NewReplacer(",", "", "원", "", "₩", "", " ", "").Replace(s)
	if clean == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(clean, 64)
		if ferr != nil {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		n = int64(f)
	}
	return n, nil
}

// WriteWorkbook renders items as an xlsx file with a bold header row
func WriteWorkbook(items []domain.Item) ([]byte, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}

	header := sheet.AddRow()
	for _, col := range workbookColumns {
		cell := header.AddCell()
		cell.Value = col
		cell.GetStyle().Font.Bold = true
		cell.GetStyle().Fill.PatternType = "solid"
		cell.GetStyle().Fill.FgColor = "FFC8E6C9"
	}

	for _, it := range items {
		row := sheet.AddRow()
		row.AddCell().SetString(it.Title)
		row.AddCell().SetString(it.Description)
		row.AddCell().SetString(string(it.Category))
		row.AddCell().SetString(string(it.Kind))
		row.AddCell().SetInt64(it.Price)
		if it.OriginalPrice != nil {
			row.AddCell().SetInt64(*it.OriginalPrice)
		} else {
			row.AddCell().SetString("")
		}
		row.AddCell().SetString(string(it.Status))
		row.AddCell().SetFloat(it.DistanceKm)
		row.AddCell().SetString(it.Location)
		row.AddCell().SetString(strings.Join(it.Images, ","))
		row.AddCell().SetString(it.CreatedAt.UTC().Format(workbookTimeFmt))
	}

	sheet.SetColWidth(1, len(workbookColumns), 16)

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
