package postgres

import (
	"context"
	"fmt"

	"trasim/internal/domain"
	"trasim/internal/storage"
)

// MarketStore implements storage.MarketStore using PostgreSQL.
type MarketStore struct {
	pool *Pool
}

// NewMarketStore creates a new MarketStore.
func NewMarketStore(pool *Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MarketStore = (*MarketStore)(nil)

// Upsert inserts a market or refreshes its descriptive fields if it already
// exists. Replaying a creation event therefore converges on the same row.
func (s *MarketStore) Upsert(ctx context.Context, m *domain.Market) error {
	query := `
		INSERT INTO markets (
			market_id, season_id, creator_wallet, token_mint,
			curve_a, curve_b, reserve_bps, platform_bps, creator_bps,
			status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (market_id) DO UPDATE SET
			season_id = EXCLUDED.season_id,
			creator_wallet = EXCLUDED.creator_wallet,
			token_mint = EXCLUDED.token_mint,
			curve_a = EXCLUDED.curve_a,
			curve_b = EXCLUDED.curve_b,
			reserve_bps = EXCLUDED.reserve_bps,
			platform_bps = EXCLUDED.platform_bps,
			creator_bps = EXCLUDED.creator_bps
	`

	_, err := s.pool.Exec(ctx, query,
		m.MarketID,
		m.SeasonID,
		m.CreatorWallet,
		m.TokenMint,
		m.CurveA,
		m.CurveB,
		m.ReserveBps,
		m.PlatformBps,
		m.CreatorBps,
		m.Status,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert market: %w", err)
	}
	return nil
}

// Get retrieves a market by ID. Returns ErrNotFound if it does not exist.
func (s *MarketStore) Get(ctx context.Context, marketID string) (*domain.Market, error) {
	query := `
		SELECT market_id, season_id, creator_wallet, token_mint,
			curve_a, curve_b, reserve_bps, platform_bps, creator_bps,
			status, created_at
		FROM markets
		WHERE market_id = $1
	`

	var m domain.Market
	err := s.pool.QueryRow(ctx, query, marketID).Scan(
		&m.MarketID,
		&m.SeasonID,
		&m.CreatorWallet,
		&m.TokenMint,
		&m.CurveA,
		&m.CurveB,
		&m.ReserveBps,
		&m.PlatformBps,
		&m.CreatorBps,
		&m.Status,
		&m.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get market: %w", err)
	}
	return &m, nil
}

// List retrieves all markets ordered by creation time, newest first.
func (s *MarketStore) List(ctx context.Context) ([]*domain.Market, error) {
	query := `
		SELECT market_id, season_id, creator_wallet, token_mint,
			curve_a, curve_b, reserve_bps, platform_bps, creator_bps,
			status, created_at
		FROM markets
		ORDER BY created_at DESC, market_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list markets: %w", err)
	}
	defer rows.Close()

	var markets []*domain.Market
	for rows.Next() {
		var m domain.Market
		err := rows.Scan(
			&m.MarketID,
			&m.SeasonID,
			&m.CreatorWallet,
			&m.TokenMint,
			&m.CurveA,
			&m.CurveB,
			&m.ReserveBps,
			&m.PlatformBps,
			&m.CreatorBps,
			&m.Status,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan market row: %w", err)
		}
		markets = append(markets, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate market rows: %w", err)
	}

	return markets, nil
}
