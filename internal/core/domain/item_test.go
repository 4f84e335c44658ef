package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/greencycle-be/internal/core/domain"
)

func ptr[T any](v T) *T { return &v }

func TestItem_Validate(t *testing.T) {
	tests := []struct {
		name      string
		item      *domain.Item
		wantError bool
		errorMsg  string
	}{
		{
			name: "valid_item_with_all_fields",
			item: &domain.Item{
				Title:         "아이폰 13 미니",
				Category:      domain.CategoryElectronics,
				Kind:          domain.KindMarket,
				Price:         450000,
				OriginalPrice: ptr(int64(950000)),
				Status:        domain.StatusReserved,
				DistanceKm:    1.2,
			},
		},
		{
			name:      "missing_title",
			item:      &domain.Item{Price: 1000},
			wantError: true,
			errorMsg:  "title is required",
		},
		{
			name:      "negative_price",
			item:      &domain.Item{Title: "의자", Price: -1},
			wantError: true,
			errorMsg:  "price cannot be negative",
		},
		{
			name:      "original_price_below_price",
			item:      &domain.Item{Title: "의자", Price: 20000, OriginalPrice: ptr(int64(10000))},
			wantError: true,
			errorMsg:  "original_price must not be lower than price",
		},
		{
			name:      "negative_distance",
			item:      &domain.Item{Title: "의자", DistanceKm: -0.5},
			wantError: true,
			errorMsg:  "distance cannot be negative",
		},
		{
			name:      "unknown_category",
			item:      &domain.Item{Title: "의자", Category: "antiques"},
			wantError: true,
			errorMsg:  `unknown category "antiques"`,
		},
		{
			name:      "unknown_status",
			item:      &domain.Item{Title: "의자", Status: "deleted"},
			wantError: true,
			errorMsg:  `unknown status "deleted"`,
		},
		{
			name:      "sharing_item_with_price",
			item:      &domain.Item{Title: "화분", Kind: domain.KindSharing, Price: 500},
			wantError: true,
			errorMsg:  "sharing items must be free",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestItem_Validate_Defaults(t *testing.T) {
	item := &domain.Item{Title: "책상"}

	require.NoError(t, item.Validate())

	assert.Equal(t, domain.CategoryOther, item.Category)
	assert.Equal(t, domain.StatusAvailable, item.Status)
	assert.Equal(t, domain.KindMarket, item.Kind)
}

func TestItem_PrepareForStorage(t *testing.T) {
	t.Run("new_item", func(t *testing.T) {
		item := &domain.Item{Title: "책상"}
		item.PrepareForStorage()

		assert.NotEqual(t, uuid.Nil, item.ID)
		assert.False(t, item.CreatedAt.IsZero())
		assert.Equal(t, item.CreatedAt, item.UpdatedAt)
	})

	t.Run("existing_item_keeps_identity", func(t *testing.T) {
		id := uuid.New()
		created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		item := &domain.Item{ID: id, CreatedAt: created}
		item.PrepareForStorage()

		assert.Equal(t, id, item.ID)
		assert.Equal(t, created, item.CreatedAt)
		assert.True(t, item.UpdatedAt.After(created))
	})
}

func TestItem_DiscountPercent(t *testing.T) {
	assert.Equal(t, 0, (&domain.Item{Price: 1000}).DiscountPercent())
	assert.Equal(t, 52, (&domain.Item{Price: 450000, OriginalPrice: ptr(int64(950000))}).DiscountPercent())
	assert.Equal(t, 0, (&domain.Item{Price: 1000, OriginalPrice: ptr(int64(1000))}).DiscountPercent())
}

func TestItem_Available(t *testing.T) {
	assert.True(t, (&domain.Item{Status: domain.StatusAvailable}).Available())
	assert.False(t, (&domain.Item{Status: domain.StatusSold}).Available())
	assert.False(t, (&domain.Item{Status: domain.StatusAvailable, DeletedAt: ptr(time.Now())}).Available())
}

func TestItem_TimeAgo(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ago  time.Duration
		want string
	}{
		{"just_now", 20 * time.Second, "방금 전"},
		{"minutes", 5 * time.Minute, "5분 전"},
		{"hours", 3*time.Hour + 10*time.Minute, "3시간 전"},
		{"days", 2 * 24 * time.Hour, "2일 전"},
		{"weeks", 15 * 24 * time.Hour, "2주 전"},
		{"absolute_date", 45 * 24 * time.Hour, "2024.04.05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &domain.Item{CreatedAt: now.Add(-tt.ago)}
			assert.Equal(t, tt.want, item.TimeAgo(now))
		})
	}
}

func TestMetersToKm(t *testing.T) {
	assert.InDelta(t, 0.5, domain.MetersToKm(500), 1e-9)
	assert.InDelta(t, 3.0, domain.MetersToKm(3000), 1e-9)
	assert.Zero(t, domain.MetersToKm(0))
}
