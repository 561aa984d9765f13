package rediscache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"trasim/internal/domain"
	"trasim/internal/storage"
	"trasim/internal/storage/memory"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: endpoint})
	require.NoError(t, rdb.Ping(ctx).Err())
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func testMarket(id string) *domain.Market {
	return &domain.Market{
		MarketID:  id,
		SeasonID:  1,
		CurveA:    domain.DefaultCurveA,
		CurveB:    domain.DefaultCurveB,
		Status:    domain.MarketStatusActive,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestMarketStoreReadThrough(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	rdb := setupRedis(t)
	ctx := context.Background()

	mem := memory.NewStore()
	cached := NewMarketStore(mem.Markets(), rdb, time.Minute)

	m := testMarket("market-1")
	require.NoError(t, cached.Upsert(ctx, m))

	got, err := cached.Get(ctx, "market-1")
	require.NoError(t, err)
	assert.Equal(t, "market-1", got.MarketID)

	// The read populated the cache; the next read must not hit the primary.
	exists, err := rdb.Exists(ctx, marketKey("market-1")).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)

	got, err = cached.Get(ctx, "market-1")
	require.NoError(t, err)
	assert.Equal(t, m.SeasonID, got.SeasonID)
}

func TestMarketStoreUpsertInvalidates(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	rdb := setupRedis(t)
	ctx := context.Background()

	mem := memory.NewStore()
	cached := NewMarketStore(mem.Markets(), rdb, time.Minute)

	m := testMarket("market-1")
	require.NoError(t, cached.Upsert(ctx, m))

	_, err := cached.Get(ctx, "market-1")
	require.NoError(t, err)

	updated := testMarket("market-1")
	updated.SeasonID = 2
	require.NoError(t, cached.Upsert(ctx, updated))

	// The upsert dropped the cached entry, so the stale season is gone.
	got, err := cached.Get(ctx, "market-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.SeasonID)
}

func TestMarketStoreMissFallsThrough(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	rdb := setupRedis(t)
	ctx := context.Background()

	mem := memory.NewStore()
	cached := NewMarketStore(mem.Markets(), rdb, time.Minute)

	_, err := cached.Get(ctx, "absent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSnapshotStoreLatestCached(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	rdb := setupRedis(t)
	ctx := context.Background()

	mem := memory.NewStore()
	cached := NewSnapshotStore(mem.Snapshots(), rdb, time.Minute)

	_, err := cached.Latest(ctx, "market-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	applied, err := mem.Trades().Apply(ctx, &domain.Trade{
		Signature:      "sig-1",
		Slot:           10,
		Ts:             time.Now().UTC(),
		MarketID:       "market-1",
		Wallet:         "wallet-1",
		Side:           domain.SideBuy,
		TokenAmount:    1_000_000_000,
		SolNetLamports: 1000,
		PostSupply:     1_000_000_000,
	})
	require.NoError(t, err)
	require.True(t, applied)

	snap, err := cached.Latest(ctx, "market-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000_000), snap.Supply)

	exists, err := rdb.Exists(ctx, snapshotKey("market-1")).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)

	// Cached read survives the primary disappearing.
	snap, err = cached.Latest(ctx, "market-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), snap.Volume24hLamports)
}
