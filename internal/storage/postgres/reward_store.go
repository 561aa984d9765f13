package postgres

import (
	"context"
	"fmt"

	"trasim/internal/domain"
	"trasim/internal/storage"
)

// RewardClaimStore implements storage.RewardClaimStore using PostgreSQL.
type RewardClaimStore struct {
	pool *Pool
}

// NewRewardClaimStore creates a new RewardClaimStore.
func NewRewardClaimStore(pool *Pool) *RewardClaimStore {
	return &RewardClaimStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RewardClaimStore = (*RewardClaimStore)(nil)

// Record inserts a reward claim. Returns ErrDuplicateKey if the wallet has
// already claimed for the season.
func (s *RewardClaimStore) Record(ctx context.Context, c *domain.RewardClaim) error {
	query := `
		INSERT INTO reward_claims (
			season_id, wallet, amount_lamports, tx_sig, claimed_at
		) VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query,
		c.SeasonID,
		c.Wallet,
		c.AmountLamports,
		c.TxSig,
		c.ClaimedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("record reward claim: %w", err)
	}
	return nil
}

// ListBySeasonWallet retrieves a wallet's claims for a season.
func (s *RewardClaimStore) ListBySeasonWallet(ctx context.Context, seasonID int64, wallet string) ([]*domain.RewardClaim, error) {
	query := `
		SELECT season_id, wallet, amount_lamports, tx_sig, claimed_at
		FROM reward_claims
		WHERE season_id = $1 AND wallet = $2
		ORDER BY claimed_at ASC
	`

	rows, err := s.pool.Query(ctx, query, seasonID, wallet)
	if err != nil {
		return nil, fmt.Errorf("list reward claims: %w", err)
	}
	defer rows.Close()

	var claims []*domain.RewardClaim
	for rows.Next() {
		var c domain.RewardClaim
		if err := rows.Scan(&c.SeasonID, &c.Wallet, &c.AmountLamports, &c.TxSig, &c.ClaimedAt); err != nil {
			return nil, fmt.Errorf("scan reward claim row: %w", err)
		}
		claims = append(claims, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reward claim rows: %w", err)
	}

	return claims, nil
}
