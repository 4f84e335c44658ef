package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/greencycle-be/internal/core/domain"
	"github.com/ammerola/greencycle-be/internal/core/listing"
	"github.com/ammerola/greencycle-be/internal/core/ports"
	"github.com/ammerola/greencycle-be/internal/core/services"
	"github.com/ammerola/greencycle-be/test/helpers"
	"github.com/ammerola/greencycle-be/test/mocks"
)

func TestListingService_Browse(t *testing.T) {
	catalog := helpers.CreateTestItems(30)
	maxDist := 1.0

	tests := []struct {
		name        string
		params      ports.BrowseParams
		loadErr     error
		wantCount   int
		wantLen     int
		wantPage    int
		wantMessage string
	}{
		{
			name:      "first_page_default_size",
			params:    ports.BrowseParams{},
			wantCount: 30,
			wantLen:   12,
			wantPage:  1,
		},
		{
			name:      "last_partial_page",
			params:    ports.BrowseParams{Page: 3},
			wantCount: 30,
			wantLen:   6,
			wantPage:  3,
		},
		{
			name:      "page_clamped_to_last",
			params:    ports.BrowseParams{Page: 99},
			wantCount: 30,
			wantLen:   6,
			wantPage:  3,
		},
		{
			name:      "category_filter",
			params:    ports.BrowseParams{Criteria: domain.FilterCriteria{Category: domain.CategoryBooks}},
			wantCount: 6,
			wantLen:   6,
			wantPage:  1,
		},
		{
			name:      "distance_filter",
			params:    ports.BrowseParams{Criteria: domain.FilterCriteria{MaxDistanceKm: &maxDist}},
			wantCount: 9,
			wantLen:   9,
			wantPage:  1,
		},
		{
			name:        "no_matches",
			params:      ports.BrowseParams{Criteria: domain.FilterCriteria{SearchText: "존재하지 않는 상품"}},
			wantCount:   0,
			wantLen:     0,
			wantPage:    1,
			wantMessage: services.MessageNoMatches,
		},
		{
			name:        "load_failure_served_as_empty",
			params:      ports.BrowseParams{},
			loadErr:     errors.New("redis: connection refused"),
			wantCount:   0,
			wantLen:     0,
			wantPage:    1,
			wantMessage: services.MessageLoadFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			source := mocks.NewMockCatalogSource(ctrl)
			if tt.loadErr != nil {
				source.EXPECT().Load(gomock.Any(), tt.params.Criteria.Kind).Return(nil, tt.loadErr)
			} else {
				source.EXPECT().Load(gomock.Any(), tt.params.Criteria.Kind).Return(catalog, nil)
			}

			svc := services.NewListingService(source, 0, helpers.TestLogger())
			result, err := svc.Browse(context.Background(), tt.params)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCount, result.Page.TotalCount)
			assert.Len(t, result.Page.Items, tt.wantLen)
			assert.Equal(t, tt.wantPage, result.Page.Number)
			assert.Equal(t, tt.wantMessage, result.Message)
			assert.Equal(t, tt.wantCount == 0, result.Empty)
			assert.NotNil(t, result.Page.Items)
		})
	}
}

func TestListingService_Browse_SortAndPageNumbers(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockCatalogSource(ctrl)
	catalog := helpers.CreateTestItems(100)
	source.EXPECT().Load(gomock.Any(), domain.Kind("")).Return(catalog, nil)

	svc := services.NewListingService(source, 10, helpers.TestLogger())
	result, err := svc.Browse(context.Background(), ports.BrowseParams{Sort: domain.SortPriceHigh, Page: 5})
	require.NoError(t, err)

	assert.Equal(t, 10, result.Page.TotalPages)
	assert.Equal(t, domain.SortPriceHigh, result.Sort)
	for i := 1; i < len(result.Page.Items); i++ {
		assert.GreaterOrEqual(t, result.Page.Items[i-1].Price, result.Page.Items[i].Price)
	}
	assert.Equal(t, "1 … 4 5 6 … 10", tokensString(result.PageNumbers))
}

func tokensString(tokens []listing.Token) string {
	s := ""
	for i, tok := range tokens {
		if i > 0 {
			s += " "
		}
		s += tok.String()
	}
	return s
}

func TestListingService_Browse_InvalidCriteria(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockCatalogSource(ctrl)

	svc := services.NewListingService(source, 12, helpers.TestLogger())
	_, err := svc.Browse(context.Background(), ports.BrowseParams{
		Criteria: domain.FilterCriteria{Category: "weapons"},
	})
	assert.ErrorContains(t, err, "unknown category")
}

func TestListingService_Collect(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockCatalogSource(ctrl)

	now := time.Now()
	catalog := []domain.Item{
		{Title: "old", Kind: domain.KindSharing, CreatedAt: now.Add(-time.Hour)},
		{Title: "new", Kind: domain.KindSharing, CreatedAt: now},
		{Title: "sold", Kind: domain.KindSharing, Status: domain.StatusSold, CreatedAt: now},
	}
	source.EXPECT().Load(gomock.Any(), domain.KindSharing).Return(catalog, nil)

	svc := services.NewListingService(source, 1, helpers.TestLogger())
	items, err := svc.Collect(context.Background(), ports.BrowseParams{
		Criteria: domain.FilterCriteria{Kind: domain.KindSharing, Status: domain.StatusSold},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "sold", items[0].Title)

	source.EXPECT().Load(gomock.Any(), domain.Kind("")).Return(nil, errors.New("down"))
	_, err = svc.Collect(context.Background(), ports.BrowseParams{})
	assert.ErrorContains(t, err, "failed to load catalog")
}
