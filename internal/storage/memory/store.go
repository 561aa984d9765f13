// Package memory provides an in-memory implementation of the storage
// interfaces. All tables live in one Store behind one mutex because Apply
// must write the trade and its snapshot atomically and the leaderboard joins
// trades against markets; the per-entity interfaces are exposed as facets.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"trasim/internal/domain"
	"trasim/internal/storage"
)

// Store holds all in-memory tables.
type Store struct {
	mu         sync.RWMutex
	trades     map[string]*domain.Trade // keyed by signature
	markets    map[string]*domain.Market
	seasons    map[int64]*domain.Season
	snapshots  []*domain.MarketSnapshot
	actions    []*domain.AdminAction
	claims     map[claimKey]*domain.RewardClaim
	nextSnapID int64
	nextActID  int64
}

type claimKey struct {
	seasonID int64
	wallet   string
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		trades:     make(map[string]*domain.Trade),
		markets:    make(map[string]*domain.Market),
		seasons:    make(map[int64]*domain.Season),
		claims:     make(map[claimKey]*domain.RewardClaim),
		nextSnapID: 1,
		nextActID:  1,
	}
}

// Trades returns the trade facet of the store.
func (s *Store) Trades() *TradeStore { return &TradeStore{s: s} }

// Snapshots returns the snapshot facet of the store.
func (s *Store) Snapshots() *SnapshotStore { return &SnapshotStore{s: s} }

// Markets returns the market facet of the store.
func (s *Store) Markets() *MarketStore { return &MarketStore{s: s} }

// Seasons returns the season facet of the store.
func (s *Store) Seasons() *SeasonStore { return &SeasonStore{s: s} }

// AdminActions returns the admin action facet of the store.
func (s *Store) AdminActions() *AdminActionStore { return &AdminActionStore{s: s} }

// RewardClaims returns the reward claim facet of the store.
func (s *Store) RewardClaims() *RewardClaimStore { return &RewardClaimStore{s: s} }

// Compile-time interface checks.
var (
	_ storage.TradeStore       = (*TradeStore)(nil)
	_ storage.SnapshotStore    = (*SnapshotStore)(nil)
	_ storage.MarketStore      = (*MarketStore)(nil)
	_ storage.SeasonStore      = (*SeasonStore)(nil)
	_ storage.AdminActionStore = (*AdminActionStore)(nil)
	_ storage.RewardClaimStore = (*RewardClaimStore)(nil)
)

// TradeStore is the in-memory implementation of storage.TradeStore.
type TradeStore struct {
	s *Store
}

// Apply inserts a trade and its derived snapshot. A trade whose signature
// already exists is a no-op and returns (false, nil).
func (t *TradeStore) Apply(_ context.Context, tr *domain.Trade) (bool, error) {
	if tr == nil || tr.Signature == "" {
		return false, storage.ErrInvalidInput
	}

	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if _, exists := t.s.trades[tr.Signature]; exists {
		return false, nil
	}

	tradeCopy := *tr
	t.s.trades[tr.Signature] = &tradeCopy

	since := tr.Ts.Add(-domain.SnapshotWindow)
	var volume int64
	wallets := make(map[string]struct{})
	for _, other := range t.s.trades {
		if other.MarketID != tr.MarketID || other.Ts.Before(since) {
			continue
		}
		volume += other.SignedNetLamports()
		wallets[other.Wallet] = struct{}{}
	}

	snap := domain.SnapshotAfterTrade(&tradeCopy, volume, int64(len(wallets)))
	snap.ID = t.s.nextSnapID
	t.s.nextSnapID++
	t.s.snapshots = append(t.s.snapshots, snap)

	return true, nil
}

// ListByMarket retrieves the most recent trades for a market, newest first.
func (t *TradeStore) ListByMarket(_ context.Context, marketID string, limit int) ([]*domain.Trade, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	var result []*domain.Trade
	for _, tr := range t.s.trades {
		if tr.MarketID == marketID {
			tradeCopy := *tr
			result = append(result, &tradeCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Ts.Equal(result[j].Ts) {
			return result[i].Ts.After(result[j].Ts)
		}
		return result[i].Signature > result[j].Signature
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// WindowProceeds sums the net sell proceeds of a wallet in a market since the
// given time.
func (t *TradeStore) WindowProceeds(_ context.Context, marketID, wallet string, since time.Time) (int64, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	var proceeds int64
	for _, tr := range t.s.trades {
		if tr.MarketID == marketID && tr.Wallet == wallet && tr.Side == domain.SideSell && !tr.Ts.Before(since) {
			proceeds += tr.SolNetLamports
		}
	}
	return proceeds, nil
}

// Leaderboard ranks wallets by signed net flow across a season's markets:
// buys count positive, sells negative, both net of fees.
func (t *TradeStore) Leaderboard(_ context.Context, seasonID int64, limit int) ([]*domain.LeaderboardEntry, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	seasonMarkets := make(map[string]struct{})
	for id, m := range t.s.markets {
		if m.SeasonID == seasonID {
			seasonMarkets[id] = struct{}{}
		}
	}

	byWallet := make(map[string]*domain.LeaderboardEntry)
	for _, tr := range t.s.trades {
		if _, ok := seasonMarkets[tr.MarketID]; !ok {
			continue
		}
		e, ok := byWallet[tr.Wallet]
		if !ok {
			e = &domain.LeaderboardEntry{Wallet: tr.Wallet}
			byWallet[tr.Wallet] = e
		}
		e.ProfitLamports += tr.SignedNetLamports()
		e.Trades++
	}

	entries := make([]*domain.LeaderboardEntry, 0, len(byWallet))
	for _, e := range byWallet {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ProfitLamports != entries[j].ProfitLamports {
			return entries[i].ProfitLamports > entries[j].ProfitLamports
		}
		return entries[i].Wallet < entries[j].Wallet
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// SnapshotStore is the in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	s *Store
}

// Latest retrieves the most recent snapshot for a market.
func (st *SnapshotStore) Latest(_ context.Context, marketID string) (*domain.MarketSnapshot, error) {
	st.s.mu.RLock()
	defer st.s.mu.RUnlock()

	var latest *domain.MarketSnapshot
	for _, snap := range st.s.snapshots {
		if snap.MarketID != marketID {
			continue
		}
		if latest == nil || snap.Ts.After(latest.Ts) || (snap.Ts.Equal(latest.Ts) && snap.ID > latest.ID) {
			latest = snap
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	snapCopy := *latest
	return &snapCopy, nil
}

// ListByMarket retrieves the most recent snapshots for a market, newest first.
func (st *SnapshotStore) ListByMarket(_ context.Context, marketID string, limit int) ([]*domain.MarketSnapshot, error) {
	st.s.mu.RLock()
	defer st.s.mu.RUnlock()

	var result []*domain.MarketSnapshot
	for _, snap := range st.s.snapshots {
		if snap.MarketID == marketID {
			snapCopy := *snap
			result = append(result, &snapCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Ts.Equal(result[j].Ts) {
			return result[i].Ts.After(result[j].Ts)
		}
		return result[i].ID > result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// MarketStore is the in-memory implementation of storage.MarketStore.
type MarketStore struct {
	s *Store
}

// Upsert inserts a market or refreshes its descriptive fields.
func (ms *MarketStore) Upsert(_ context.Context, m *domain.Market) error {
	if m == nil || m.MarketID == "" {
		return storage.ErrInvalidInput
	}

	ms.s.mu.Lock()
	defer ms.s.mu.Unlock()

	marketCopy := *m
	if existing, ok := ms.s.markets[m.MarketID]; ok {
		// Preserve status and creation time just like the SQL upsert.
		marketCopy.Status = existing.Status
		marketCopy.CreatedAt = existing.CreatedAt
	}
	ms.s.markets[m.MarketID] = &marketCopy
	return nil
}

// Get retrieves a market by ID. Returns ErrNotFound if it does not exist.
func (ms *MarketStore) Get(_ context.Context, marketID string) (*domain.Market, error) {
	ms.s.mu.RLock()
	defer ms.s.mu.RUnlock()

	m, ok := ms.s.markets[marketID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	marketCopy := *m
	return &marketCopy, nil
}

// List retrieves all markets ordered by creation time, newest first.
func (ms *MarketStore) List(_ context.Context) ([]*domain.Market, error) {
	ms.s.mu.RLock()
	defer ms.s.mu.RUnlock()

	result := make([]*domain.Market, 0, len(ms.s.markets))
	for _, m := range ms.s.markets {
		marketCopy := *m
		result = append(result, &marketCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].MarketID < result[j].MarketID
	})
	return result, nil
}

// SeasonStore is the in-memory implementation of storage.SeasonStore.
type SeasonStore struct {
	s *Store
}

// Create inserts a season. An existing season ID is a no-op.
func (ss *SeasonStore) Create(_ context.Context, season *domain.Season) error {
	if season == nil {
		return storage.ErrInvalidInput
	}

	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	if _, exists := ss.s.seasons[season.SeasonID]; exists {
		return nil
	}
	seasonCopy := *season
	ss.s.seasons[season.SeasonID] = &seasonCopy
	return nil
}

// End marks a season as ended. Returns false if it does not exist.
func (ss *SeasonStore) End(_ context.Context, seasonID int64) (bool, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	season, ok := ss.s.seasons[seasonID]
	if !ok {
		return false, nil
	}
	season.Status = domain.SeasonStatusEnded
	return true, nil
}

// Fund sets a season's reward pool balance. Returns false if it does not exist.
func (ss *SeasonStore) Fund(_ context.Context, seasonID, poolLamports int64) (bool, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	season, ok := ss.s.seasons[seasonID]
	if !ok {
		return false, nil
	}
	season.RewardPoolLamports = poolLamports
	return true, nil
}

// Get retrieves a season by ID. Returns ErrNotFound if it does not exist.
func (ss *SeasonStore) Get(_ context.Context, seasonID int64) (*domain.Season, error) {
	ss.s.mu.RLock()
	defer ss.s.mu.RUnlock()

	season, ok := ss.s.seasons[seasonID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	seasonCopy := *season
	return &seasonCopy, nil
}

// Current retrieves the active season covering the given instant. When
// several overlap the most recently started one wins.
func (ss *SeasonStore) Current(_ context.Context, at time.Time) (*domain.Season, error) {
	ss.s.mu.RLock()
	defer ss.s.mu.RUnlock()

	var current *domain.Season
	for _, season := range ss.s.seasons {
		if season.Status != domain.SeasonStatusActive {
			continue
		}
		if at.Before(season.StartTs) || !at.Before(season.EndTs) {
			continue
		}
		if current == nil || season.StartTs.After(current.StartTs) ||
			(season.StartTs.Equal(current.StartTs) && season.SeasonID > current.SeasonID) {
			current = season
		}
	}
	if current == nil {
		return nil, storage.ErrNotFound
	}
	seasonCopy := *current
	return &seasonCopy, nil
}

// AdminActionStore is the in-memory implementation of storage.AdminActionStore.
type AdminActionStore struct {
	s *Store
}

// Record appends an admin action to the audit log.
func (as *AdminActionStore) Record(_ context.Context, a *domain.AdminAction) error {
	if a == nil {
		return storage.ErrInvalidInput
	}

	as.s.mu.Lock()
	defer as.s.mu.Unlock()

	actionCopy := *a
	actionCopy.ID = as.s.nextActID
	as.s.nextActID++
	as.s.actions = append(as.s.actions, &actionCopy)
	return nil
}

// List returns all recorded admin actions in insertion order.
func (as *AdminActionStore) List(_ context.Context) ([]*domain.AdminAction, error) {
	as.s.mu.RLock()
	defer as.s.mu.RUnlock()

	result := make([]*domain.AdminAction, 0, len(as.s.actions))
	for _, a := range as.s.actions {
		actionCopy := *a
		result = append(result, &actionCopy)
	}
	return result, nil
}

// RewardClaimStore is the in-memory implementation of storage.RewardClaimStore.
type RewardClaimStore struct {
	s *Store
}

// Record inserts a reward claim. Returns ErrDuplicateKey if the wallet has
// already claimed for the season.
func (rs *RewardClaimStore) Record(_ context.Context, c *domain.RewardClaim) error {
	if c == nil || c.Wallet == "" {
		return storage.ErrInvalidInput
	}

	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	k := claimKey{seasonID: c.SeasonID, wallet: c.Wallet}
	if _, exists := rs.s.claims[k]; exists {
		return storage.ErrDuplicateKey
	}
	claimCopy := *c
	rs.s.claims[k] = &claimCopy
	return nil
}

// ListBySeasonWallet retrieves a wallet's claims for a season.
func (rs *RewardClaimStore) ListBySeasonWallet(_ context.Context, seasonID int64, wallet string) ([]*domain.RewardClaim, error) {
	rs.s.mu.RLock()
	defer rs.s.mu.RUnlock()

	var result []*domain.RewardClaim
	if c, ok := rs.s.claims[claimKey{seasonID: seasonID, wallet: wallet}]; ok {
		claimCopy := *c
		result = append(result, &claimCopy)
	}
	return result, nil
}
