package postgres

import (
	"context"
	"fmt"

	"trasim/internal/domain"
	"trasim/internal/storage"
)

// AdminActionStore implements storage.AdminActionStore using PostgreSQL.
type AdminActionStore struct {
	pool *Pool
}

// NewAdminActionStore creates a new AdminActionStore.
func NewAdminActionStore(pool *Pool) *AdminActionStore {
	return &AdminActionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AdminActionStore = (*AdminActionStore)(nil)

// Record appends an admin action to the audit log.
func (s *AdminActionStore) Record(ctx context.Context, a *domain.AdminAction) error {
	query := `
		INSERT INTO admin_actions (
			admin_wallet, action_type, payload, tx_sig, created_at
		) VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query,
		a.AdminWallet,
		a.ActionType,
		a.Payload,
		a.TxSig,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record admin action: %w", err)
	}
	return nil
}
