package domain

import "time"

// SnapshotWindow is the trailing window for rolling aggregates.
const SnapshotWindow = 24 * time.Hour

// MarketSnapshot is an append-only point-in-time rollup of a market.
// Exactly one row is inserted after every newly applied trade, in the same
// transaction; rows are never updated or deleted.
type MarketSnapshot struct {
	ID                int64
	MarketID          string
	Slot              int64
	Ts                time.Time
	Supply            int64
	PriceLamports     int64
	Volume24hLamports int64 // signed sum: buys positive, sells negative
	HoldersCount      int64 // distinct wallets trading in the window
}

// SnapshotAfterTrade assembles the snapshot row that follows a just-applied
// trade. Supply and price come from the trade's post-trade fields; volume
// and holder count are the caller-computed window aggregates, which must
// already include the trade itself.
func SnapshotAfterTrade(t *Trade, volume24h, holders int64) *MarketSnapshot {
	return &MarketSnapshot{
		MarketID:          t.MarketID,
		Slot:              t.Slot,
		Ts:                t.Ts,
		Supply:            t.PostSupply,
		PriceLamports:     t.PostPriceLamports,
		Volume24hLamports: volume24h,
		HoldersCount:      holders,
	}
}
