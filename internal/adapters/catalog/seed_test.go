package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/greencycle-be/internal/adapters/catalog"
	"github.com/ammerola/greencycle-be/internal/core/domain"
)

const seedYAML = `
items:
  - title: 아이폰 13 미니
    description: 배터리 효율 89%
    category: electronics
    price: 450000
    original_price: 600000
    distance_km: 0.8
    location: 역삼동
    age: 3m
  - title: 아기 옷 나눔
    category: kids
    kind: sharing
    price: 0
    distance_km: 2.5
    age: 2d
  - title: 캠핑 의자
    category: sports
    price: 15000
    status: reserved
    created_at: 2025-01-05T10:00:00Z
`

func TestParseSeed(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	items, err := catalog.ParseSeed(strings.NewReader(seedYAML), now)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "아이폰 13 미니", items[0].Title)
	assert.Equal(t, domain.KindMarket, items[0].Kind)
	assert.Equal(t, domain.StatusAvailable, items[0].Status)
	assert.Equal(t, int64(600000), *items[0].OriginalPrice)
	assert.Equal(t, now.Add(-3*time.Minute), items[0].CreatedAt)
	assert.NotEqual(t, items[0].ID, items[1].ID)

	assert.Equal(t, domain.KindSharing, items[1].Kind)
	assert.Equal(t, now.Add(-48*time.Hour), items[1].CreatedAt)

	assert.Equal(t, domain.StatusReserved, items[2].Status)
	assert.Equal(t, time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC), items[2].CreatedAt.UTC())
}

func TestParseSeed_Errors(t *testing.T) {
	tests := []struct {
		name          string
		yaml          string
		errorContains string
	}{
		{name: "paid_sharing", yaml: "items:\n  - title: x\n    kind: sharing\n    price: 100\n", errorContains: "sharing items must be free"},
		{name: "bad_age", yaml: "items:\n  - title: x\n    age: yesterday\n", errorContains: "invalid age"},
		{name: "unknown_field", yaml: "items:\n  - title: x\n    colour: red\n", errorContains: "colour"},
		{name: "missing_title", yaml: "items:\n  - price: 100\n", errorContains: "title is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.ParseSeed(strings.NewReader(tt.yaml), time.Now())
			assert.ErrorContains(t, err, tt.errorContains)
		})
	}
}

func TestParseSeed_Empty(t *testing.T) {
	items, err := catalog.ParseSeed(strings.NewReader(""), time.Now())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestParseAge(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "45s", want: 45 * time.Second},
		{in: "3m", want: 3 * time.Minute},
		{in: "2h", want: 2 * time.Hour},
		{in: "5d", want: 5 * 24 * time.Hour},
		{in: "2w", want: 14 * 24 * time.Hour},
		{in: "-1d", wantErr: true},
		{in: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := catalog.ParseAge(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStaticSource(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))

	source, err := catalog.NewStaticSource(path, nil)
	require.NoError(t, err)

	market, err := source.Load(ctx, domain.KindMarket)
	require.NoError(t, err)
	assert.Len(t, market, 2)

	all, err := source.Load(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, os.WriteFile(path, []byte("items:\n  - title: 새 상품\n"), 0o600))
	require.NoError(t, source.Invalidate(ctx))

	all, err = source.Load(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "새 상품", all[0].Title)
}

func TestLoadSeedFile_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	_, err := catalog.LoadSeedFile(path)
	assert.ErrorContains(t, err, "unsupported seed format")
}
