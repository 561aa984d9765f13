package clickhouse

import (
	"context"
	"io"
	"log"
	"time"

	"trasim/internal/domain"
	"trasim/internal/storage"
)

// ArchivingTradeStore decorates a TradeStore so every newly applied trade
// is also appended to the ClickHouse archive. The relational store stays
// authoritative: archive failures are logged and do not fail the apply.
type ArchivingTradeStore struct {
	storage.TradeStore

	archive *TradeArchive
	logger  *log.Logger
}

var _ storage.TradeStore = (*ArchivingTradeStore)(nil)

// NewArchivingTradeStore wraps primary with archive writes.
func NewArchivingTradeStore(primary storage.TradeStore, archive *TradeArchive, logger *log.Logger) *ArchivingTradeStore {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &ArchivingTradeStore{TradeStore: primary, archive: archive, logger: logger}
}

// Apply applies the trade to the primary store and, when it was newly
// inserted, appends it to the archive. Replays skip the archive so the
// ReplacingMergeTree sees each signature once per apply.
func (s *ArchivingTradeStore) Apply(ctx context.Context, t *domain.Trade) (bool, error) {
	applied, err := s.TradeStore.Apply(ctx, t)
	if err != nil || !applied {
		return applied, err
	}

	archiveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.archive.Insert(archiveCtx, t); err != nil {
		s.logger.Printf("archive trade %s: %v", t.Signature, err)
	}
	return true, nil
}
