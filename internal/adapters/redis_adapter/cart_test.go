package redis_a_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redis_a "github.com/ammerola/greencycle-be/internal/adapters/redis_adapter"
	"github.com/ammerola/greencycle-be/internal/core/domain"
)

func TestCartStore(t *testing.T) {
	ctx := context.Background()
	cache, r := newCache(t)
	store := redis_a.NewCartStore(cache, "greenCycleCart", 30*24*time.Hour)

	t.Run("empty_session", func(t *testing.T) {
		cart, err := store.Load(ctx, "fresh")
		require.NoError(t, err)
		assert.Equal(t, "fresh", cart.SessionID)
		assert.NotNil(t, cart.Lines)
		assert.Empty(t, cart.Lines)
	})

	t.Run("save_and_load", func(t *testing.T) {
		cart := &domain.Cart{SessionID: "s1", CouponCode: "WELCOME10"}
		cart.Add(domain.CartLine{Title: "원목 의자", Price: 25000, Quantity: 2})
		require.NoError(t, store.Save(ctx, cart))

		assert.True(t, r.Server.Exists("greenCycleCart:s1"))
		assert.Equal(t, 30*24*time.Hour, r.Server.TTL("greenCycleCart:s1"))

		loaded, err := store.Load(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, cart.Lines, loaded.Lines)
		assert.Equal(t, "WELCOME10", loaded.CouponCode)
	})

	t.Run("expires", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, &domain.Cart{SessionID: "s2", Lines: []domain.CartLine{{Title: "x", Price: 1, Quantity: 1}}}))
		r.Server.FastForward(31 * 24 * time.Hour)

		cart, err := store.Load(ctx, "s2")
		require.NoError(t, err)
		assert.Empty(t, cart.Lines)
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, &domain.Cart{SessionID: "s3"}))
		require.NoError(t, store.Clear(ctx, "s3"))
		assert.False(t, r.Server.Exists("greenCycleCart:s3"))
	})
}
