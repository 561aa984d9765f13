package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"trasim/internal/domain"
	"trasim/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
// Snapshot rows are written by TradeStore.Apply; this store only reads them.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Latest retrieves the most recent snapshot for a market. Returns ErrNotFound
// if the market has no snapshots yet.
func (s *SnapshotStore) Latest(ctx context.Context, marketID string) (*domain.MarketSnapshot, error) {
	query := `
		SELECT id, market_id, slot, ts, supply, price_lamports,
			volume_24h_lamports, holders_count
		FROM market_snapshots
		WHERE market_id = $1
		ORDER BY ts DESC, id DESC
		LIMIT 1
	`

	var snap domain.MarketSnapshot
	err := s.pool.QueryRow(ctx, query, marketID).Scan(
		&snap.ID,
		&snap.MarketID,
		&snap.Slot,
		&snap.Ts,
		&snap.Supply,
		&snap.PriceLamports,
		&snap.Volume24hLamports,
		&snap.HoldersCount,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	return &snap, nil
}

// ListByMarket retrieves the most recent snapshots for a market, newest first.
func (s *SnapshotStore) ListByMarket(ctx context.Context, marketID string, limit int) ([]*domain.MarketSnapshot, error) {
	query := `
		SELECT id, market_id, slot, ts, supply, price_lamports,
			volume_24h_lamports, holders_count
		FROM market_snapshots
		WHERE market_id = $1
		ORDER BY ts DESC, id DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, marketID, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots by market: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// scanSnapshots scans multiple rows into a slice of MarketSnapshot.
func scanSnapshots(rows pgx.Rows) ([]*domain.MarketSnapshot, error) {
	var snaps []*domain.MarketSnapshot

	for rows.Next() {
		var snap domain.MarketSnapshot

		err := rows.Scan(
			&snap.ID,
			&snap.MarketID,
			&snap.Slot,
			&snap.Ts,
			&snap.Supply,
			&snap.PriceLamports,
			&snap.Volume24hLamports,
			&snap.HoldersCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		snaps = append(snaps, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return snaps, nil
}
