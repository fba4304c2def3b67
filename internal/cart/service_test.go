package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-cafeteria-pos/internal/memstore"
	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
)

var key = pos.CartKey{StoreID: "store-1", UserID: "cashier-1"}

func seeded() (*Service, *memstore.Store) {
	s := memstore.New()
	s.PutProduct(pos.Product{ID: "adobo", StoreID: key.StoreID, Name: "Chicken Adobo", Price: decimal.NewFromInt(85), HasVAT: true, Stock: 3, TrackInventory: true, Active: true})
	s.PutProduct(pos.Product{ID: "water", StoreID: key.StoreID, Name: "Bottled Water", Price: decimal.NewFromInt(20), Active: true})
	return NewService(s), s
}

func TestAdd_SameProductTwiceMergesLine(t *testing.T) {
	ctx := context.Background()
	svc, s := seeded()

	_, err := svc.Add(ctx, key, "adobo", 0)
	require.NoError(t, err)
	it, err := svc.Add(ctx, key, "adobo", 1)
	require.NoError(t, err)

	assert.Equal(t, 2, it.Quantity)
	items := s.CartItems(key)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestAdd_ConcurrentAddsOfANewLineAccumulate(t *testing.T) {
	svc, s := seeded()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Add(context.Background(), key, "water", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	items := s.CartItems(key)
	require.Len(t, items, 1)
	assert.Equal(t, 20, items[0].Quantity)
}

func TestAdd_StampsLinesInUTC(t *testing.T) {
	manila := time.FixedZone("PHT", 8*60*60)
	for name, now := range map[string]func() time.Time{
		"default clock": nil,
		"custom clock":  func() time.Time { return time.Date(2026, 3, 2, 18, 0, 0, 0, manila) },
	} {
		t.Run(name, func(t *testing.T) {
			svc, _ := seeded()
			svc.Now = now

			it, err := svc.Add(context.Background(), key, "water", 1)

			require.NoError(t, err)
			assert.Equal(t, time.UTC, it.AddedAt.Location())
		})
	}
}

func TestAdd_BeyondStockFails(t *testing.T) {
	ctx := context.Background()
	svc, s := seeded()
	_, err := svc.Add(ctx, key, "adobo", 3)
	require.NoError(t, err)

	_, err = svc.Add(ctx, key, "adobo", 1)

	require.ErrorIs(t, err, pos.ErrOutOfStock)
	assert.Equal(t, "Chicken Adobo is out of stock", err.Error())
	assert.Equal(t, 3, s.CartItems(key)[0].Quantity)
}

func TestAdd_UntrackedProductIsUnlimited(t *testing.T) {
	svc, _ := seeded()

	it, err := svc.Add(context.Background(), key, "water", 500)

	require.NoError(t, err)
	assert.Equal(t, 500, it.Quantity)
}

func TestAdd_UnknownProduct(t *testing.T) {
	svc, _ := seeded()

	_, err := svc.Add(context.Background(), key, "ghost", 1)

	assert.ErrorIs(t, err, pos.ErrProductNotFound)
}

func TestIncrement(t *testing.T) {
	ctx := context.Background()
	svc, _ := seeded()

	_, err := svc.Increment(ctx, key, "adobo", 1)
	assert.ErrorIs(t, err, pos.ErrCartItemNotFound)

	_, err = svc.Add(ctx, key, "adobo", 1)
	require.NoError(t, err)
	it, err := svc.Increment(ctx, key, "adobo", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, it.Quantity)

	_, err = svc.Increment(ctx, key, "adobo", 1)
	assert.ErrorIs(t, err, pos.ErrOutOfStock)

	_, err = svc.Increment(ctx, key, "adobo", 0)
	assert.ErrorIs(t, err, pos.ErrInvalidQuantity)
}

func TestDecrement_DeletesAtZero(t *testing.T) {
	ctx := context.Background()
	svc, s := seeded()
	_, err := svc.Add(ctx, key, "adobo", 2)
	require.NoError(t, err)

	it, kept, err := svc.Decrement(ctx, key, "adobo", 1)
	require.NoError(t, err)
	assert.True(t, kept)
	assert.Equal(t, 1, it.Quantity)

	_, kept, err = svc.Decrement(ctx, key, "adobo", 5)
	require.NoError(t, err)
	assert.False(t, kept)
	assert.Empty(t, s.CartItems(key))
}

func TestRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	svc, s := seeded()
	_, err := svc.Add(ctx, key, "adobo", 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, key, "water", 2)
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, key, "adobo"))
	assert.ErrorIs(t, svc.Remove(ctx, key, "adobo"), pos.ErrCartItemNotFound)
	require.Len(t, s.CartItems(key), 1)

	require.NoError(t, svc.Clear(ctx, key))
	assert.Empty(t, s.CartItems(key))
}

func TestListAndTotal(t *testing.T) {
	ctx := context.Background()
	svc, _ := seeded()
	_, err := svc.Add(ctx, key, "adobo", 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, key, "water", 1)
	require.NoError(t, err)

	lines, err := svc.List(ctx, key)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "adobo", lines[0].Product.ID)
	assert.True(t, lines[0].Gross().Equal(decimal.NewFromInt(170)))

	total, err := svc.Total(ctx, key)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(190)))
}

func TestCartsAreScopedByStoreAndUser(t *testing.T) {
	ctx := context.Background()
	svc, s := seeded()
	_, err := svc.Add(ctx, key, "water", 1)
	require.NoError(t, err)

	other := pos.CartKey{StoreID: key.StoreID, UserID: "cashier-2"}
	assert.Empty(t, s.CartItems(other))
	_, err = svc.Add(ctx, pos.CartKey{StoreID: "store-2", UserID: key.UserID}, "water", 1)
	assert.ErrorIs(t, err, pos.ErrProductNotFound)
}
