package postgres

import (
	"context"
	"fmt"
	"time"

	"trasim/internal/domain"
	"trasim/internal/storage"
)

// SeasonStore implements storage.SeasonStore using PostgreSQL.
type SeasonStore struct {
	pool *Pool
}

// NewSeasonStore creates a new SeasonStore.
func NewSeasonStore(pool *Pool) *SeasonStore {
	return &SeasonStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SeasonStore = (*SeasonStore)(nil)

// Create inserts a season. Inserting an existing season ID is a no-op so the
// creation event can be replayed safely.
func (s *SeasonStore) Create(ctx context.Context, season *domain.Season) error {
	query := `
		INSERT INTO seasons (
			season_id, start_ts, end_ts, params, reward_pool_lamports, status
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (season_id) DO NOTHING
	`

	_, err := s.pool.Exec(ctx, query,
		season.SeasonID,
		season.StartTs,
		season.EndTs,
		season.Params,
		season.RewardPoolLamports,
		season.Status,
	)
	if err != nil {
		return fmt.Errorf("create season: %w", err)
	}
	return nil
}

// End marks a season as ended. Returns false if the season does not exist.
func (s *SeasonStore) End(ctx context.Context, seasonID int64) (bool, error) {
	query := `
		UPDATE seasons SET status = $1 WHERE season_id = $2
	`

	tag, err := s.pool.Exec(ctx, query, domain.SeasonStatusEnded, seasonID)
	if err != nil {
		return false, fmt.Errorf("end season: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Fund sets a season's reward pool to an absolute balance. Returns false if
// the season does not exist.
func (s *SeasonStore) Fund(ctx context.Context, seasonID, poolLamports int64) (bool, error) {
	query := `
		UPDATE seasons SET reward_pool_lamports = $1 WHERE season_id = $2
	`

	tag, err := s.pool.Exec(ctx, query, poolLamports, seasonID)
	if err != nil {
		return false, fmt.Errorf("fund season: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Get retrieves a season by ID. Returns ErrNotFound if it does not exist.
func (s *SeasonStore) Get(ctx context.Context, seasonID int64) (*domain.Season, error) {
	query := `
		SELECT season_id, start_ts, end_ts, params, reward_pool_lamports, status
		FROM seasons
		WHERE season_id = $1
	`

	var season domain.Season
	err := s.pool.QueryRow(ctx, query, seasonID).Scan(
		&season.SeasonID,
		&season.StartTs,
		&season.EndTs,
		&season.Params,
		&season.RewardPoolLamports,
		&season.Status,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get season: %w", err)
	}
	return &season, nil
}

// Current retrieves the active season covering the given instant. When several
// overlap the most recently started one wins. Returns ErrNotFound if no season
// is active.
func (s *SeasonStore) Current(ctx context.Context, at time.Time) (*domain.Season, error) {
	query := `
		SELECT season_id, start_ts, end_ts, params, reward_pool_lamports, status
		FROM seasons
		WHERE status = $1 AND start_ts <= $2 AND end_ts > $2
		ORDER BY start_ts DESC, season_id DESC
		LIMIT 1
	`

	var season domain.Season
	err := s.pool.QueryRow(ctx, query, domain.SeasonStatusActive, at).Scan(
		&season.SeasonID,
		&season.StartTs,
		&season.EndTs,
		&season.Params,
		&season.RewardPoolLamports,
		&season.Status,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get current season: %w", err)
	}
	return &season, nil
}
