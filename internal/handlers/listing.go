// internal/handlers/listing.go
package handlers

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ammerola/greencycle-be/internal/adapters/catalog"
	"github.com/ammerola/greencycle-be/internal/core/domain"
	"github.com/ammerola/greencycle-be/internal/core/listing"
	"github.com/ammerola/greencycle-be/internal/core/ports"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ItemView is an item as rendered on a listing card
type ItemView struct {
	domain.Item
	TimeAgo         string `json:"time_ago"`
	DiscountPercent int    `json:"discount_percent,omitempty"`
}

func newItemView(item domain.Item, now time.Time) ItemView {
	return ItemView{
		Item:            item,
		TimeAgo:         item.TimeAgo(now),
		DiscountPercent: item.DiscountPercent(),
	}
}

// ListingResponse is one listing page with its pagination strip
type ListingResponse struct {
	Items       []ItemView      `json:"items"`
	Page        int             `json:"page"`
	PageSize    int             `json:"page_size"`
	TotalPages  int             `json:"total_pages"`
	TotalCount  int             `json:"total_count"`
	HasPrev     bool            `json:"has_prev"`
	HasNext     bool            `json:"has_next"`
	PageNumbers []listing.Token `json:"page_numbers"`
	Sort        domain.SortKey  `json:"sort"`
	Empty       bool            `json:"empty"`
	Message     string          `json:"message,omitempty"`
}

// ListingHandler serves the marketplace and sharing listings
type ListingHandler struct {
	service     ports.ListingService
	maxPageSize int
	now         func() time.Time
	logger      *slog.Logger
}

// NewListingHandler creates a new listing handler
func NewListingHandler(service ports.ListingService, maxPageSize int, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{
		service:     service,
		maxPageSize: maxPageSize,
		now:         time.Now,
		logger:      logger.With(slog.String("handler", "listing")),
	}
}

// List handles GET /api/v1/listings
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params, err := ParseBrowseParams(r.URL.Query(), h.maxPageSize)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Browse(ctx, params)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to load listings")
		return
	}

	now := h.now()
	page := result.Page
	resp := ListingResponse{
		Items:       make([]ItemView, len(page.Items)),
		Page:        page.Number,
		PageSize:    page.PageSize,
		TotalPages:  page.TotalPages,
		TotalCount:  page.TotalCount,
		HasPrev:     page.HasPrev(),
		HasNext:     page.HasNext(),
		PageNumbers: result.PageNumbers,
		Sort:        result.Sort,
		Empty:       result.Empty,
		Message:     result.Message,
	}
	for i, item := range page.Items {
		resp.Items[i] = newItemView(item, now)
	}

	respondJSON(w, h.logger, http.StatusOK, resp)
}

// Export handles GET /api/v1/listings/export. Every match is written, not
// just one page; format=json returns the same rows as JSON.
func (h *ListingHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params, err := ParseBrowseParams(r.URL.Query(), h.maxPageSize)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.service.Collect(ctx, params)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to export listings")
		return
	}

	h.logger.InfoContext(ctx, "exporting listings", slog.Int("count", len(items)))

	if r.URL.Query().Get("format") == "json" {
		respondJSON(w, h.logger, http.StatusOK, map[string]any{
			"items":       items,
			"total_count": len(items),
			"exported_at": h.now().UTC(),
		})
		return
	}

	data, err := catalog.WriteWorkbook(items)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate workbook", slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to generate export")
		return
	}

	filename := fmt.Sprintf("greencycle_listings_%s.xlsx", h.now().Format("20060102_150405"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(data); err != nil {
		h.logger.ErrorContext(ctx, "failed to write export", slog.String("error", err.Error()))
	}
}

// ParseBrowseParams reads the listing filter bar. "all" or an empty value
// leaves a filter unset. distance is in meters; max_distance_km in km.
func ParseBrowseParams(q url.Values, maxPageSize int) (ports.BrowseParams, error) {
	var params ports.BrowseParams
	c := &params.Criteria

	scope := q.Get("scope")
	if scope == "" {
		scope = q.Get("kind")
	}
	if v := unlessAll(scope); v != "" {
		c.Kind = domain.Kind(v)
	}
	if v := unlessAll(q.Get("category")); v != "" {
		c.Category = domain.Category(v)
	}
	if v := unlessAll(q.Get("status")); v != "" {
		c.Status = domain.Status(v)
	}
	c.SearchText = strings.TrimSpace(q.Get("q"))

	if v := unlessAll(q.Get("distance")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 0 {
			return params, fmt.Errorf("invalid distance %q", v)
		}
		km := domain.MetersToKm(m)
		c.MaxDistanceKm = &km
	}
	if v := q.Get("max_distance_km"); v != "" {
		km, err := strconv.ParseFloat(v, 64)
		if err != nil || km < 0 || math.IsNaN(km) || math.IsInf(km, 0) {
			return params, fmt.Errorf("invalid max_distance_km %q", v)
		}
		c.MaxDistanceKm = &km
	}

	price, err := domain.ParsePriceRange(q.Get("price"))
	if err != nil {
		return params, err
	}
	c.PriceRange = price

	if params.Sort, err = domain.ParseSortKey(q.Get("sort")); err != nil {
		return params, err
	}

	if p, err := strconv.Atoi(q.Get("page")); err == nil {
		params.Page = p
	}
	if n, err := strconv.Atoi(q.Get("page_size")); err == nil && n > 0 {
		params.PageSize = n
		if maxPageSize > 0 && n > maxPageSize {
			params.PageSize = maxPageSize
		}
	}

	if err := c.Validate(); err != nil {
		return params, err
	}
	return params, nil
}

func unlessAll(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "all") {
		return ""
	}
	return v
}
