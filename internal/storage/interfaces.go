package storage

import (
	"context"
	"time"

	"trasim/internal/domain"
)

// TradeStore owns the trades and market_snapshots tables.
type TradeStore interface {
	// Apply inserts a trade keyed by its signature and, in the same
	// transaction, inserts the post-trade market snapshot. A duplicate
	// signature is a no-op: Apply returns (false, nil) and writes nothing,
	// since the trade was fully processed on first delivery.
	Apply(ctx context.Context, t *domain.Trade) (applied bool, err error)

	// ListByMarket returns the most recent trades for a market, newest first.
	ListByMarket(ctx context.Context, marketID string, limit int) ([]*domain.Trade, error)

	// WindowProceeds sums a wallet's net sell proceeds on a market since
	// the given time, matching what the chain accrues into its rolling
	// window. Feeds the fee tier resolver's usedSoFar input.
	WindowProceeds(ctx context.Context, marketID, wallet string, since time.Time) (int64, error)

	// Leaderboard ranks wallets by signed net flow over a season's markets.
	Leaderboard(ctx context.Context, seasonID int64, limit int) ([]*domain.LeaderboardEntry, error)
}

// SnapshotStore reads the append-only market_snapshots series.
// Inserts happen only inside TradeStore.Apply.
type SnapshotStore interface {
	// Latest returns the newest snapshot for a market, or ErrNotFound.
	Latest(ctx context.Context, marketID string) (*domain.MarketSnapshot, error)

	// ListByMarket returns snapshots for a market, newest first.
	ListByMarket(ctx context.Context, marketID string, limit int) ([]*domain.MarketSnapshot, error)
}

// MarketStore owns the markets table.
type MarketStore interface {
	// Upsert inserts the market or, on conflict, updates its descriptive
	// fields (creator, mint, curve params, fee splits). Trade-derived state
	// is never stored on the market row, so replays cannot clobber it.
	Upsert(ctx context.Context, m *domain.Market) error

	// Get returns a market by id, or ErrNotFound.
	Get(ctx context.Context, marketID string) (*domain.Market, error)

	// List returns all markets, newest first.
	List(ctx context.Context) ([]*domain.Market, error)
}

// SeasonStore owns the seasons table.
type SeasonStore interface {
	// Create inserts a season; a duplicate season id is a silent no-op.
	Create(ctx context.Context, s *domain.Season) error

	// End transitions a season to ended. Returns false if the season does
	// not exist. The transition is monotonic; ending twice is harmless.
	End(ctx context.Context, seasonID int64) (bool, error)

	// Fund sets the season's reward pool to an absolute balance.
	// Returns false if the season does not exist.
	Fund(ctx context.Context, seasonID, poolLamports int64) (bool, error)

	// Get returns a season by id, or ErrNotFound.
	Get(ctx context.Context, seasonID int64) (*domain.Season, error)

	// Current returns the active season covering the given instant, or
	// ErrNotFound. When several overlap the most recently started wins.
	Current(ctx context.Context, at time.Time) (*domain.Season, error)
}

// AdminActionStore owns the append-only admin_actions audit log.
type AdminActionStore interface {
	Record(ctx context.Context, a *domain.AdminAction) error
}

// RewardClaimStore records and reads reward claims. A wallet may claim at
// most once per season.
type RewardClaimStore interface {
	// Record inserts a claim. Returns ErrDuplicateKey if the wallet has
	// already claimed for the season.
	Record(ctx context.Context, c *domain.RewardClaim) error
	ListBySeasonWallet(ctx context.Context, seasonID int64, wallet string) ([]*domain.RewardClaim, error)
}
