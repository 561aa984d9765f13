// Package rediscache wraps the market and snapshot stores with a Redis
// read-through cache. The API server reads markets and latest snapshots on
// every quote; a short TTL keeps those reads off Postgres while the indexer
// keeps writing.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"trasim/internal/domain"
	"trasim/internal/storage"
)

// DefaultTTL bounds staleness of cached reads. Snapshots change on every
// trade, so the TTL stays short.
const DefaultTTL = 2 * time.Second

// MarketStore wraps a storage.MarketStore with a Redis read-through cache.
// Writes go to the primary store and refresh the cache; reads check Redis
// first then fall back to the primary.
type MarketStore struct {
	primary storage.MarketStore
	rdb     *redis.Client
	ttl     time.Duration
}

// NewMarketStore creates a cached wrapper around a primary market store.
func NewMarketStore(primary storage.MarketStore, rdb *redis.Client, ttl time.Duration) *MarketStore {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &MarketStore{primary: primary, rdb: rdb, ttl: ttl}
}

// Compile-time interface check.
var _ storage.MarketStore = (*MarketStore)(nil)

// Upsert writes to the primary store and refreshes the cached entry.
func (s *MarketStore) Upsert(ctx context.Context, m *domain.Market) error {
	if err := s.primary.Upsert(ctx, m); err != nil {
		return err
	}
	// The upsert preserves status and creation time, so re-read rather
	// than caching the input.
	s.rdb.Del(ctx, marketKey(m.MarketID))
	return nil
}

// Get reads through the cache.
func (s *MarketStore) Get(ctx context.Context, marketID string) (*domain.Market, error) {
	data, err := s.rdb.Get(ctx, marketKey(marketID)).Bytes()
	if err == nil {
		var m domain.Market
		if json.Unmarshal(data, &m) == nil {
			return &m, nil
		}
	}

	m, err := s.primary.Get(ctx, marketID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(m); err == nil {
		s.rdb.Set(ctx, marketKey(marketID), data, s.ttl)
	}
	return m, nil
}

// List is a passthrough; the full listing is not cached.
func (s *MarketStore) List(ctx context.Context) ([]*domain.Market, error) {
	return s.primary.List(ctx)
}

// SnapshotStore wraps a storage.SnapshotStore with a Redis read-through
// cache for the latest snapshot per market.
type SnapshotStore struct {
	primary storage.SnapshotStore
	rdb     *redis.Client
	ttl     time.Duration
}

// NewSnapshotStore creates a cached wrapper around a primary snapshot store.
func NewSnapshotStore(primary storage.SnapshotStore, rdb *redis.Client, ttl time.Duration) *SnapshotStore {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &SnapshotStore{primary: primary, rdb: rdb, ttl: ttl}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Latest reads through the cache.
func (s *SnapshotStore) Latest(ctx context.Context, marketID string) (*domain.MarketSnapshot, error) {
	data, err := s.rdb.Get(ctx, snapshotKey(marketID)).Bytes()
	if err == nil {
		var snap domain.MarketSnapshot
		if json.Unmarshal(data, &snap) == nil {
			return &snap, nil
		}
	}

	snap, err := s.primary.Latest(ctx, marketID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(snap); err == nil {
		s.rdb.Set(ctx, snapshotKey(marketID), data, s.ttl)
	}
	return snap, nil
}

// ListByMarket is a passthrough; history reads are not cached.
func (s *SnapshotStore) ListByMarket(ctx context.Context, marketID string, limit int) ([]*domain.MarketSnapshot, error) {
	return s.primary.ListByMarket(ctx, marketID, limit)
}

func marketKey(id string) string   { return fmt.Sprintf("market:%s", id) }
func snapshotKey(id string) string { return fmt.Sprintf("snapshot:latest:%s", id) }
