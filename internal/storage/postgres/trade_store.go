package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"trasim/internal/domain"
	"trasim/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// Apply inserts a trade and its derived market snapshot in one transaction.
// A trade whose signature already exists is a no-op and returns (false, nil);
// in that case no snapshot row is written either.
func (s *TradeStore) Apply(ctx context.Context, t *domain.Trade) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	insertTrade := `
		INSERT INTO trades (
			signature, slot, ts, market_id, wallet, side,
			token_amount, sol_gross_lamports, sol_net_lamports,
			fee_lamports, fee_tier, post_supply, post_price_lamports
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (signature) DO NOTHING
	`

	tag, err := tx.Exec(ctx, insertTrade,
		t.Signature,
		t.Slot,
		t.Ts,
		t.MarketID,
		t.Wallet,
		t.Side,
		t.TokenAmount,
		t.SolGrossLamports,
		t.SolNetLamports,
		t.FeeLamports,
		t.FeeTier,
		t.PostSupply,
		t.PostPriceLamports,
	)
	if err != nil {
		return false, fmt.Errorf("insert trade: %w", err)
	}

	if tag.RowsAffected() == 0 {
		if err := tx.Commit(ctx); err != nil {
			return false, fmt.Errorf("commit tx: %w", err)
		}
		return false, nil
	}

	volume24h, holders, err := rollupWindow(ctx, tx, t.MarketID, t.Ts.Add(-domain.SnapshotWindow))
	if err != nil {
		return false, err
	}

	snap := domain.SnapshotAfterTrade(t, volume24h, holders)

	insertSnapshot := `
		INSERT INTO market_snapshots (
			market_id, slot, ts, supply, price_lamports,
			volume_24h_lamports, holders_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = tx.Exec(ctx, insertSnapshot,
		snap.MarketID,
		snap.Slot,
		snap.Ts,
		snap.Supply,
		snap.PriceLamports,
		snap.Volume24hLamports,
		snap.HoldersCount,
	)
	if err != nil {
		return false, fmt.Errorf("insert market snapshot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return true, nil
}

// rollupWindow computes the signed net volume and distinct wallet count for a
// market over trades at or after since. Buys count positive, sells negative.
func rollupWindow(ctx context.Context, tx pgx.Tx, marketID string, since time.Time) (int64, int64, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN side = 0 THEN sol_net_lamports ELSE -sol_net_lamports END), 0),
			COUNT(DISTINCT wallet)
		FROM trades
		WHERE market_id = $1 AND ts >= $2
	`

	var volume, holders int64
	if err := tx.QueryRow(ctx, query, marketID, since).Scan(&volume, &holders); err != nil {
		return 0, 0, fmt.Errorf("rollup trade window: %w", err)
	}
	return volume, holders, nil
}

// ListByMarket retrieves the most recent trades for a market, newest first.
func (s *TradeStore) ListByMarket(ctx context.Context, marketID string, limit int) ([]*domain.Trade, error) {
	query := `
		SELECT signature, slot, ts, market_id, wallet, side,
			token_amount, sol_gross_lamports, sol_net_lamports,
			fee_lamports, fee_tier, post_supply, post_price_lamports
		FROM trades
		WHERE market_id = $1
		ORDER BY ts DESC, signature DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, marketID, limit)
	if err != nil {
		return nil, fmt.Errorf("list trades by market: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// WindowProceeds sums the net sell proceeds of a wallet in a market since the
// given time. Used to pick the fee tier for subsequent sells.
func (s *TradeStore) WindowProceeds(ctx context.Context, marketID, wallet string, since time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(sol_net_lamports), 0)
		FROM trades
		WHERE market_id = $1 AND wallet = $2 AND side = 1 AND ts >= $3
	`

	var proceeds int64
	if err := s.pool.QueryRow(ctx, query, marketID, wallet, since).Scan(&proceeds); err != nil {
		return 0, fmt.Errorf("sum window proceeds: %w", err)
	}
	return proceeds, nil
}

// Leaderboard ranks wallets by signed net flow across a season's markets:
// buys count positive, sells negative, both net of fees.
func (s *TradeStore) Leaderboard(ctx context.Context, seasonID int64, limit int) ([]*domain.LeaderboardEntry, error) {
	query := `
		SELECT t.wallet,
			COALESCE(SUM(CASE WHEN t.side = 0 THEN t.sol_net_lamports ELSE -t.sol_net_lamports END), 0) AS profit,
			COUNT(*) AS trades
		FROM trades t
		JOIN markets m ON m.market_id = t.market_id
		WHERE m.season_id = $1
		GROUP BY t.wallet
		ORDER BY profit DESC, t.wallet ASC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, seasonID, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.Wallet, &e.ProfitLamports, &e.Trades); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard rows: %w", err)
	}

	return entries, nil
}

// scanTrades scans multiple rows into a slice of Trade.
func scanTrades(rows pgx.Rows) ([]*domain.Trade, error) {
	var trades []*domain.Trade

	for rows.Next() {
		var t domain.Trade

		err := rows.Scan(
			&t.Signature,
			&t.Slot,
			&t.Ts,
			&t.MarketID,
			&t.Wallet,
			&t.Side,
			&t.TokenAmount,
			&t.SolGrossLamports,
			&t.SolNetLamports,
			&t.FeeLamports,
			&t.FeeTier,
			&t.PostSupply,
			&t.PostPriceLamports,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}

		trades = append(trades, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return trades, nil
}
