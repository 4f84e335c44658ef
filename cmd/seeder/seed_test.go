// cmd/seeder/seed_test.go
package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/greencycle-be/internal/adapters/catalog"
	"github.com/ammerola/greencycle-be/internal/core/domain"
	"github.com/ammerola/greencycle-be/test/helpers"
	"github.com/ammerola/greencycle-be/test/mocks"
)

func TestSeeder_Seed(t *testing.T) {
	items := helpers.CreateTestItems(3)

	tests := []struct {
		name     string
		truncate bool
		setup    func(repo *mocks.MockItemRepository, svc *mocks.MockItemService)
		wantErr  string
	}{
		{
			name: "append",
			setup: func(repo *mocks.MockItemRepository, svc *mocks.MockItemService) {
				svc.EXPECT().CreateBatch(gomock.Any(), items).Return(nil)
			},
		},
		{
			name:     "truncate_first",
			truncate: true,
			setup: func(repo *mocks.MockItemRepository, svc *mocks.MockItemService) {
				gomock.InOrder(
					repo.EXPECT().Count(gomock.Any()).Return(int64(40), nil),
					repo.EXPECT().Truncate(gomock.Any()).Return(nil),
					svc.EXPECT().CreateBatch(gomock.Any(), items).Return(nil),
				)
			},
		},
		{
			name:     "truncate_failure_stops",
			truncate: true,
			setup: func(repo *mocks.MockItemRepository, svc *mocks.MockItemService) {
				repo.EXPECT().Count(gomock.Any()).Return(int64(1), nil)
				repo.EXPECT().Truncate(gomock.Any()).Return(errors.New("permission denied"))
			},
			wantErr: "failed to truncate items",
		},
		{
			name: "validation_failure",
			setup: func(repo *mocks.MockItemRepository, svc *mocks.MockItemService) {
				svc.EXPECT().CreateBatch(gomock.Any(), items).Return(domain.ErrValidation)
			},
			wantErr: "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockItemRepository(ctrl)
			svc := mocks.NewMockItemService(ctrl)
			tt.setup(repo, svc)

			s := &seeder{repo: repo, items: svc, logger: helpers.TestLogger()}
			err := s.Seed(context.Background(), items, tt.truncate)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDemoCatalog(t *testing.T) {
	items, err := catalog.LoadSeedFile("../../seed/catalog.yaml")
	require.NoError(t, err)

	var buf bytes.Buffer
	summarize(&buf, items)
	assert.Equal(t, "13 items (market 9, sharing 4)\n", buf.String())

	for _, item := range items {
		if item.Kind == domain.KindSharing {
			assert.Zero(t, item.Price, item.Title)
		}
	}
}
