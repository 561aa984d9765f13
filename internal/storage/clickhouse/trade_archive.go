package clickhouse

import (
	"context"
	"fmt"

	"trasim/internal/domain"
)

// TradeArchive appends applied trades to the trade_archive table for
// analytical queries. The table is a MergeTree; duplicate signatures are
// collapsed by ReplacingMergeTree at merge time rather than rejected.
type TradeArchive struct {
	conn *Conn
}

// NewTradeArchive creates a new TradeArchive.
func NewTradeArchive(conn *Conn) *TradeArchive {
	return &TradeArchive{conn: conn}
}

// Insert appends a single trade to the archive.
func (a *TradeArchive) Insert(ctx context.Context, t *domain.Trade) error {
	return a.InsertBulk(ctx, []*domain.Trade{t})
}

// InsertBulk appends multiple trades to the archive in one batch.
func (a *TradeArchive) InsertBulk(ctx context.Context, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	batch, err := a.conn.PrepareBatch(ctx, `
		INSERT INTO trade_archive (
			signature, slot, ts, market_id, wallet, side,
			token_amount, sol_gross_lamports, sol_net_lamports,
			fee_lamports, fee_tier, post_supply, post_price_lamports
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range trades {
		err = batch.Append(
			t.Signature, uint64(t.Slot), t.Ts, t.MarketID, t.Wallet, uint8(t.Side),
			t.TokenAmount, t.SolGrossLamports, t.SolNetLamports,
			t.FeeLamports, uint8(t.FeeTier), t.PostSupply, t.PostPriceLamports,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// VolumeByMarket returns the total gross volume per market over the whole
// archive, largest first.
func (a *TradeArchive) VolumeByMarket(ctx context.Context, limit int) (map[string]int64, error) {
	rows, err := a.conn.Query(ctx, `
		SELECT market_id, sum(sol_gross_lamports) AS volume
		FROM trade_archive
		GROUP BY market_id
		ORDER BY volume DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query volume by market: %w", err)
	}
	defer rows.Close()

	volumes := make(map[string]int64)
	for rows.Next() {
		var marketID string
		var volume int64
		if err := rows.Scan(&marketID, &volume); err != nil {
			return nil, fmt.Errorf("scan volume row: %w", err)
		}
		volumes[marketID] = volume
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate volume rows: %w", err)
	}

	return volumes, nil
}
