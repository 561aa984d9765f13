package indexer

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trasim/internal/domain"
	"trasim/internal/events"
	"trasim/internal/storage/memory"
)

func newTestReducer(store *memory.Store) *Reducer {
	return NewReducer(ReducerOptions{
		Trades:   store.Trades(),
		Markets:  store.Markets(),
		Seasons:  store.Seasons(),
		AdminLog: store.AdminActions(),
		Logger:   log.New(io.Discard, "", 0),
	})
}

func tradeEvent(market, wallet string, side int16, net int64, ts time.Time) *events.Event {
	return &events.Event{
		Kind: events.KindTradeExecuted,
		Trade: &events.TradeEvent{
			Market:      market,
			Wallet:      wallet,
			Side:        side,
			TokenAmount: 1_000_000_000,
			SolGross:    net,
			SolNet:      net,
			Fee:         0,
			FeeTier:     1,
			PostSupply:  5_000_000_000,
			PostPrice:   6_000_000_000,
			Ts:          ts.Unix(),
		},
	}
}

func TestReducer_TradeIdempotent(t *testing.T) {
	store := memory.NewStore()
	r := newTestReducer(store)
	ctx := context.Background()
	ts := time.Now().UTC().Truncate(time.Second)

	ev := tradeEvent("market-1", "alice", domain.SideBuy, 1000, ts)

	require.NoError(t, r.Apply(ctx, ev, "sig-1", 100))
	// The same signature replayed, even with a different slot, must not add
	// a second trade or snapshot.
	require.NoError(t, r.Apply(ctx, ev, "sig-1", 101))

	trades, err := store.Trades().ListByMarket(ctx, "market-1", 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, int64(100), trades[0].Slot)
	assert.Equal(t, ts, trades[0].Ts)

	snaps, err := store.Snapshots().ListByMarket(ctx, "market-1", 10)
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}

func TestReducer_TradeBeforeMarketCreated(t *testing.T) {
	store := memory.NewStore()
	r := newTestReducer(store)
	ctx := context.Background()
	ts := time.Now().UTC().Truncate(time.Second)

	// Unordered delivery: the trade lands first, the market event second.
	require.NoError(t, r.Apply(ctx, tradeEvent("market-1", "alice", domain.SideBuy, 1000, ts), "sig-1", 100))

	require.NoError(t, r.Apply(ctx, &events.Event{
		Kind: events.KindMarketCreated,
		MarketCreated: &events.MarketCreatedEvent{
			Market:      "market-1",
			SeasonID:    1,
			Creator:     "creator",
			TokenMint:   "mint",
			CurveA:      domain.DefaultCurveA,
			CurveB:      domain.DefaultCurveB,
			ReserveBps:  domain.DefaultReserveBps,
			PlatformBps: domain.DefaultPlatformBps,
			CreatorBps:  domain.DefaultCreatorBps,
			Ts:          ts.Unix(),
		},
	}, "sig-2", 101))

	m, err := store.Markets().Get(ctx, "market-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.SeasonID)

	trades, err := store.Trades().ListByMarket(ctx, "market-1", 10)
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestReducer_SeasonLifecycle(t *testing.T) {
	store := memory.NewStore()
	r := newTestReducer(store)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	created := &events.Event{
		Kind: events.KindSeasonCreated,
		SeasonCreated: &events.SeasonCreatedEvent{
			SeasonID: 1,
			StartTs:  now.Add(-time.Hour).Unix(),
			EndTs:    now.Add(time.Hour).Unix(),
			Params:   json.RawMessage(`{"rewardSplit":"topTen"}`),
		},
	}
	require.NoError(t, r.Apply(ctx, created, "sig-1", 100))
	// Replay is a no-op.
	require.NoError(t, r.Apply(ctx, created, "sig-1", 100))

	require.NoError(t, r.Apply(ctx, &events.Event{
		Kind:         events.KindSeasonFunded,
		SeasonFunded: &events.SeasonFundedEvent{SeasonID: 1, Amount: 500, PoolBalance: 500},
	}, "sig-2", 101))
	// Funding replays set the same absolute balance.
	require.NoError(t, r.Apply(ctx, &events.Event{
		Kind:         events.KindSeasonFunded,
		SeasonFunded: &events.SeasonFundedEvent{SeasonID: 1, Amount: 500, PoolBalance: 500},
	}, "sig-2", 101))

	season, err := store.Seasons().Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(500), season.RewardPoolLamports)
	assert.Equal(t, domain.SeasonStatusActive, season.Status)

	require.NoError(t, r.Apply(ctx, &events.Event{
		Kind:        events.KindSeasonEnded,
		SeasonEnded: &events.SeasonEndedEvent{SeasonID: 1},
	}, "sig-3", 102))

	season, err = store.Seasons().Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.SeasonStatusEnded, season.Status)
}

func TestReducer_SeasonEndedBeforeCreated(t *testing.T) {
	store := memory.NewStore()
	r := newTestReducer(store)
	ctx := context.Background()

	// Ending an unseen season is logged, not fatal.
	require.NoError(t, r.Apply(ctx, &events.Event{
		Kind:        events.KindSeasonEnded,
		SeasonEnded: &events.SeasonEndedEvent{SeasonID: 42},
	}, "sig-1", 100))
}

func TestReducer_AdminEvents(t *testing.T) {
	store := memory.NewStore()
	r := newTestReducer(store)
	ctx := context.Background()

	raw := json.RawMessage(`{"name":"ConfigUpdated","adminWallet":"admin","actionType":"feeTiers"}`)
	require.NoError(t, r.Apply(ctx, &events.Event{
		Kind:  events.KindConfigUpdated,
		Admin: &events.AdminEvent{AdminWallet: "admin", ActionType: "feeTiers"},
		Raw:   raw,
	}, "sig-1", 100))

	// Missing fields fall back to defaults rather than failing.
	require.NoError(t, r.Apply(ctx, &events.Event{
		Kind:  events.KindConfigInitialized,
		Admin: &events.AdminEvent{},
		Raw:   json.RawMessage(`{"name":"ConfigInitialized"}`),
	}, "sig-2", 101))

	actions, err := store.AdminActions().List(ctx)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "admin", actions[0].AdminWallet)
	assert.Equal(t, "feeTiers", actions[0].ActionType)
	assert.Equal(t, "sig-1", actions[0].TxSig)
	assert.Equal(t, "unknown", actions[1].AdminWallet)
	assert.Equal(t, "ConfigInitialized", actions[1].ActionType)
}

func TestReducer_UnknownKindSkipped(t *testing.T) {
	store := memory.NewStore()
	r := newTestReducer(store)
	ctx := context.Background()

	require.NoError(t, r.Apply(ctx, &events.Event{
		Kind: events.KindUnknown,
		Raw:  json.RawMessage(`{"name":"TreasuryWithdrawn"}`),
	}, "sig-1", 100))

	require.NoError(t, r.Apply(ctx, nil, "sig-2", 101))
}
