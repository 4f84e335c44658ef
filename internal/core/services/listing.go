// internal/core/services/listing.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ammerola/greencycle-be/internal/core/domain"
	"github.com/ammerola/greencycle-be/internal/core/listing"
	"github.com/ammerola/greencycle-be/internal/core/ports"
)

// Messages shown in the listing empty state
const (
	MessageLoadFailed = "상품을 불러오지 못했습니다. 잠시 후 다시 시도해주세요."
	MessageNoMatches  = "조건에 맞는 상품이 없습니다."
)

// ListingService runs a listing engine over the catalog snapshot for each request
type ListingService struct {
	source   ports.CatalogSource
	pageSize int
	logger   *slog.Logger
}

var _ ports.ListingService = (*ListingService)(nil)

// NewListingService creates a new listing service. A non-positive pageSize
// falls back to listing.DefaultPageSize.
func NewListingService(source ports.CatalogSource, pageSize int, logger *slog.Logger) *ListingService {
	if pageSize <= 0 {
		pageSize = listing.DefaultPageSize
	}
	return &ListingService{
		source:   source,
		pageSize: pageSize,
		logger:   logger.With(slog.String("service", "listing")),
	}
}

// Browse filters, sorts and pages the catalog. A catalog that cannot be
// loaded is served as an empty listing with a message, never as an error.
func (s *ListingService) Browse(ctx context.Context, params ports.BrowseParams) (*ports.BrowseResult, error) {
	if err := params.Criteria.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = s.pageSize
	}
	engine := listing.New[domain.Item](pageSize)

	items, loadErr := s.source.Load(ctx, params.Criteria.Kind)
	if loadErr != nil {
		s.logger.WarnContext(ctx, "catalog load failed, serving empty listing",
			slog.String("kind", string(params.Criteria.Kind)),
			slog.String("error", loadErr.Error()))
		items = nil
	}
	engine.Load(items)

	engine.Filter(params.Criteria.Predicates()...)
	engine.Sort(params.Sort.Comparator())
	page := engine.Page(params.Page)

	result := &ports.BrowseResult{
		Page:        page,
		PageNumbers: listing.PageNumbers(page.Number, page.TotalPages),
		Sort:        params.Sort,
		Empty:       page.Empty(),
	}
	switch {
	case loadErr != nil:
		result.Message = MessageLoadFailed
	case result.Empty:
		result.Message = MessageNoMatches
	}

	s.logger.DebugContext(ctx, "listing page served",
		slog.String("state", engine.State().String()),
		slog.Int("page", page.Number),
		slog.Int("total_pages", page.TotalPages),
		slog.Int("total_count", page.TotalCount))

	return result, nil
}

// Collect returns every matching item in display order
func (s *ListingService) Collect(ctx context.Context, params ports.BrowseParams) ([]domain.Item, error) {
	if err := params.Criteria.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	items, err := s.source.Load(ctx, params.Criteria.Kind)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	engine := listing.New[domain.Item](s.pageSize)
	engine.Load(items)
	engine.Filter(params.Criteria.Predicates()...)
	engine.Sort(params.Sort.Comparator())
	return engine.Filtered(), nil
}
