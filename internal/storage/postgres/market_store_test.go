package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trasim/internal/domain"
	"trasim/internal/storage"
)

func testMarket(id string, seasonID int64, created time.Time) *domain.Market {
	return &domain.Market{
		MarketID:      id,
		SeasonID:      seasonID,
		CreatorWallet: "creator",
		TokenMint:     "mint",
		CurveA:        domain.DefaultCurveA,
		CurveB:        domain.DefaultCurveB,
		ReserveBps:    domain.DefaultReserveBps,
		PlatformBps:   domain.DefaultPlatformBps,
		CreatorBps:    domain.DefaultCreatorBps,
		Status:        domain.MarketStatusActive,
		CreatedAt:     created,
	}
}

func TestMarketStore_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewMarketStore(pool)
	ctx := context.Background()
	created := time.Now().UTC().Truncate(time.Millisecond)

	m := testMarket("market-1", 1, created)
	require.NoError(t, store.Upsert(ctx, m))

	got, err := store.Get(ctx, "market-1")
	require.NoError(t, err)
	assert.Equal(t, m.MarketID, got.MarketID)
	assert.Equal(t, m.CurveA, got.CurveA)
	assert.Equal(t, m.ReserveBps, got.ReserveBps)
	assert.True(t, created.Equal(got.CreatedAt))

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMarketStore_UpsertRefreshesDescriptiveFields(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewMarketStore(pool)
	ctx := context.Background()
	created := time.Now().UTC().Truncate(time.Millisecond)

	m := testMarket("market-1", 1, created)
	require.NoError(t, store.Upsert(ctx, m))

	// Replay with updated curve parameters; status and created_at stay.
	replay := testMarket("market-1", 2, created.Add(time.Hour))
	replay.CurveA = 2_000_000
	require.NoError(t, store.Upsert(ctx, replay))

	got, err := store.Get(ctx, "market-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2_000_000), got.CurveA)
	assert.Equal(t, int64(2), got.SeasonID)
	assert.Equal(t, domain.MarketStatusActive, got.Status)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestMarketStore_List(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewMarketStore(pool)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, store.Upsert(ctx, testMarket("market-old", 1, base.Add(-time.Hour))))
	require.NoError(t, store.Upsert(ctx, testMarket("market-new", 1, base)))

	markets, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, markets, 2)
	assert.Equal(t, "market-new", markets[0].MarketID)
	assert.Equal(t, "market-old", markets[1].MarketID)
}
