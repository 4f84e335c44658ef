package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/greencycle-be/internal/core/domain"
	"github.com/ammerola/greencycle-be/internal/core/services"
	"github.com/ammerola/greencycle-be/test/helpers"
	"github.com/ammerola/greencycle-be/test/mocks"
)

const session = "sess-123"

func newCartService(t *testing.T) (*services.CartService, *mocks.MockCartStore, *mocks.MockItemRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockCartStore(ctrl)
	repo := mocks.NewMockItemRepository(ctrl)
	return services.NewCartService(store, repo, helpers.TestLogger()), store, repo
}

func TestCartService_AddItem(t *testing.T) {
	available := helpers.CreateTestItem()
	reserved := helpers.CreateTestItem(func(i *domain.Item) { i.Status = domain.StatusReserved })

	tests := []struct {
		name          string
		itemID        uuid.UUID
		existing      *domain.Cart
		setupMocks    func(store *mocks.MockCartStore, repo *mocks.MockItemRepository)
		wantCount     int
		wantErr       error
		errorContains string
	}{
		{
			name:   "adds_to_empty_cart",
			itemID: available.ID,
			setupMocks: func(store *mocks.MockCartStore, repo *mocks.MockItemRepository) {
				repo.EXPECT().FindByID(gomock.Any(), available.ID).Return(available, nil)
				store.EXPECT().Load(gomock.Any(), session).Return(&domain.Cart{SessionID: session}, nil)
				store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantCount: 1,
		},
		{
			name:   "merges_repeat_add",
			itemID: available.ID,
			setupMocks: func(store *mocks.MockCartStore, repo *mocks.MockItemRepository) {
				repo.EXPECT().FindByID(gomock.Any(), available.ID).Return(available, nil)
				store.EXPECT().Load(gomock.Any(), session).Return(&domain.Cart{
					SessionID: session,
					Lines:     []domain.CartLine{{ItemID: available.ID, Title: available.Title, Price: available.Price, Image: available.Images[0], Quantity: 1}},
				}, nil)
				store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, cart *domain.Cart) error {
						require.Len(t, cart.Lines, 1)
						return nil
					})
			},
			wantCount: 2,
		},
		{
			name:   "reserved_item",
			itemID: reserved.ID,
			setupMocks: func(store *mocks.MockCartStore, repo *mocks.MockItemRepository) {
				repo.EXPECT().FindByID(gomock.Any(), reserved.ID).Return(reserved, nil)
			},
			wantErr: domain.ErrItemUnavailable,
		},
		{
			name:   "missing_item",
			itemID: available.ID,
			setupMocks: func(store *mocks.MockCartStore, repo *mocks.MockItemRepository) {
				repo.EXPECT().FindByID(gomock.Any(), available.ID).Return(nil, nil)
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name:   "store_error",
			itemID: available.ID,
			setupMocks: func(store *mocks.MockCartStore, repo *mocks.MockItemRepository) {
				repo.EXPECT().FindByID(gomock.Any(), available.ID).Return(available, nil)
				store.EXPECT().Load(gomock.Any(), session).Return(nil, errors.New("redis down"))
			},
			errorContains: "failed to load cart",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, repo := newCartService(t)
			tt.setupMocks(store, repo)

			view, err := svc.AddItem(context.Background(), session, tt.itemID, 1)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errorContains != "":
				assert.ErrorContains(t, err, tt.errorContains)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantCount, view.Summary.ItemCount)
				assert.Equal(t, available.Images[0], view.Cart.Lines[0].Image)
			}
		})
	}
}

func TestCartService_RemoveItem(t *testing.T) {
	id := uuid.New()

	t.Run("removes_line", func(t *testing.T) {
		svc, store, _ := newCartService(t)
		store.EXPECT().Load(gomock.Any(), session).Return(&domain.Cart{
			SessionID: session,
			Lines:     []domain.CartLine{{ItemID: id, Price: 1000, Quantity: 1}},
		}, nil)
		store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

		view, err := svc.RemoveItem(context.Background(), session, id)
		require.NoError(t, err)
		assert.Empty(t, view.Cart.Lines)
		assert.True(t, view.Summary.Total.IsZero())
	})

	t.Run("line_not_in_cart", func(t *testing.T) {
		svc, store, _ := newCartService(t)
		store.EXPECT().Load(gomock.Any(), session).Return(&domain.Cart{SessionID: session}, nil)

		_, err := svc.RemoveItem(context.Background(), session, id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestCartService_ApplyCoupon(t *testing.T) {
	cartWith := func(price int64) *domain.Cart {
		return &domain.Cart{
			SessionID: session,
			Lines:     []domain.CartLine{{ItemID: uuid.New(), Price: price, Quantity: 1}},
		}
	}

	t.Run("percent_coupon", func(t *testing.T) {
		svc, store, _ := newCartService(t)
		store.EXPECT().Load(gomock.Any(), session).Return(cartWith(60000), nil)
		store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

		view, err := svc.ApplyCoupon(context.Background(), session, "welcome10")
		require.NoError(t, err)
		assert.Equal(t, "WELCOME10", view.Cart.CouponCode)
		assert.True(t, decimal.NewFromInt(6000).Equal(view.Summary.Discount))
		assert.True(t, view.Summary.Shipping.IsZero())
		assert.True(t, decimal.NewFromInt(54000).Equal(view.Summary.Total))
	})

	t.Run("below_minimum", func(t *testing.T) {
		svc, store, _ := newCartService(t)
		store.EXPECT().Load(gomock.Any(), session).Return(cartWith(20000), nil)

		_, err := svc.ApplyCoupon(context.Background(), session, "ECO5000")
		assert.ErrorIs(t, err, domain.ErrCouponNotEligible)
	})

	t.Run("unknown_code", func(t *testing.T) {
		svc, _, _ := newCartService(t)

		_, err := svc.ApplyCoupon(context.Background(), session, "FREESTUFF")
		assert.ErrorIs(t, err, domain.ErrUnknownCoupon)
	})
}

func TestCartService_SessionRequired(t *testing.T) {
	svc, _, _ := newCartService(t)

	_, err := svc.Get(context.Background(), "")
	assert.ErrorContains(t, err, "session id is required")
}

func TestCartService_Clear(t *testing.T) {
	svc, store, _ := newCartService(t)
	store.EXPECT().Clear(gomock.Any(), session).Return(nil)

	assert.NoError(t, svc.Clear(context.Background(), session))
}
