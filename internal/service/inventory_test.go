package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/catalog-service/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-service/internal/event"
	"github.com/tuanvumaihuynh/catalog-service/pkg/ptr"
)

func TestInventoryService(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, defaultCatalogConfig())
	p := env.createProduct(t, "INV-1", "", ptr.New(5))
	bare := env.createProduct(t, "INV-2", "", nil)

	t.Run("Should reserve available stock", func(t *testing.T) {
		inv, err := env.inventory.Reserve(ctx, p.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, 2, inv.Quantity)

		var ev event.InventoryChangedEvent
		require.NoError(t, env.store.lastPayload(event.TopicInventoryChanged, &ev))
		assert.Equal(t, -3, ev.Delta)
		assert.Equal(t, event.InventoryReasonReserve, ev.Reason)
	})

	t.Run("Should leave stock unchanged when insufficient", func(t *testing.T) {
		_, err := env.inventory.Reserve(ctx, p.ID, 3)
		assert.ErrorIs(t, err, apperr.InsufficientStockErr)

		inv, err := env.inventory.GetQuantity(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, inv.Quantity)
	})

	t.Run("Should release stock", func(t *testing.T) {
		inv, err := env.inventory.Release(ctx, p.ID, 4)
		require.NoError(t, err)
		assert.Equal(t, 6, inv.Quantity)
	})

	t.Run("Should set an absolute quantity", func(t *testing.T) {
		inv, err := env.inventory.SetQuantity(ctx, p.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, inv.Quantity)

		var ev event.InventoryChangedEvent
		require.NoError(t, env.store.lastPayload(event.TopicInventoryChanged, &ev))
		assert.Equal(t, -5, ev.Delta)
		assert.Equal(t, event.InventoryReasonSet, ev.Reason)
	})

	t.Run("Should return not found without inventory", func(t *testing.T) {
		_, err := env.inventory.Reserve(ctx, bare.ID, 1)
		assert.ErrorIs(t, err, apperr.InventoryNotFoundErr)
		_, err = env.inventory.Release(ctx, bare.ID, 1)
		assert.ErrorIs(t, err, apperr.InventoryNotFoundErr)
		_, err = env.inventory.SetQuantity(ctx, uuid.New(), 1)
		assert.ErrorIs(t, err, apperr.InventoryNotFoundErr)
	})

	t.Run("Should reject invalid quantities", func(t *testing.T) {
		_, err := env.inventory.Reserve(ctx, p.ID, 0)
		assert.True(t, apperr.IsValidation(err))
		_, err = env.inventory.Release(ctx, p.ID, -1)
		assert.True(t, apperr.IsValidation(err))
		_, err = env.inventory.SetQuantity(ctx, p.ID, -1)
		assert.True(t, apperr.IsValidation(err))

		inv, err := env.inventory.GetQuantity(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, inv.Quantity)
	})

	t.Run("Should bound quantities by the stored range", func(t *testing.T) {
		topics := len(env.store.topics())

		_, err := env.inventory.Reserve(ctx, p.ID, math.MaxInt32+1)
		assert.ErrorIs(t, err, apperr.InsufficientStockErr)
		_, err = env.inventory.Reserve(ctx, bare.ID, math.MaxInt32+1)
		assert.ErrorIs(t, err, apperr.InventoryNotFoundErr)

		_, err = env.inventory.Release(ctx, p.ID, math.MaxInt32+1)
		assert.True(t, apperr.IsValidation(err))
		_, err = env.inventory.SetQuantity(ctx, p.ID, math.MaxInt32+1)
		assert.True(t, apperr.IsValidation(err))

		_, err = env.inventory.Release(ctx, p.ID, math.MaxInt32)
		assert.True(t, apperr.IsValidation(err))

		inv, err := env.inventory.GetQuantity(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, inv.Quantity)
		assert.Len(t, env.store.topics(), topics)
	})
}

func TestInventoryService_ConcurrentReserve(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, defaultCatalogConfig())
	p := env.createProduct(t, "RACE-1", "", ptr.New(1))

	const callers = 8
	var (
		wg           sync.WaitGroup
		succeeded    atomic.Int32
		insufficient atomic.Int32
	)
	for range callers {
		wg.Go(func() {
			_, err := env.inventory.Reserve(ctx, p.ID, 1)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, apperr.InsufficientStockErr):
				insufficient.Add(1)
			}
		})
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(callers-1), insufficient.Load())

	inv, err := env.inventory.GetQuantity(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, inv.Quantity)
}
