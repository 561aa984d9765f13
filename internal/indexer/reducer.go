// Package indexer applies parsed ledger events to storage. Every reducer
// operation is idempotent, so replaying a notification stream converges on
// the same database state.
package indexer

import (
	"context"
	"fmt"
	"log"
	"time"

	"trasim/internal/domain"
	"trasim/internal/events"
	"trasim/internal/observability"
	"trasim/internal/storage"
)

// defaultOpTimeout bounds a single storage operation.
const defaultOpTimeout = 10 * time.Second

// Reducer dispatches events to the stores.
type Reducer struct {
	trades    storage.TradeStore
	markets   storage.MarketStore
	seasons   storage.SeasonStore
	admins    storage.AdminActionStore
	opTimeout time.Duration
	metrics   *observability.Metrics
	logger    *log.Logger
}

// ReducerOptions contains configuration for creating a Reducer.
type ReducerOptions struct {
	Trades    storage.TradeStore
	Markets   storage.MarketStore
	Seasons   storage.SeasonStore
	AdminLog  storage.AdminActionStore
	OpTimeout time.Duration
	Metrics   *observability.Metrics
	Logger    *log.Logger
}

// NewReducer creates a new Reducer.
func NewReducer(opts ReducerOptions) *Reducer {
	opTimeout := opts.OpTimeout
	if opTimeout == 0 {
		opTimeout = defaultOpTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.Default()
	}

	return &Reducer{
		trades:    opts.Trades,
		markets:   opts.Markets,
		seasons:   opts.Seasons,
		admins:    opts.AdminLog,
		opTimeout: opTimeout,
		metrics:   metrics,
		logger:    logger,
	}
}

// Apply routes an event to its reducer. sig and slot identify the
// transaction that carried the event. Unknown kinds are logged and skipped;
// storage failures are returned so the caller can decide whether to halt.
func (r *Reducer) Apply(ctx context.Context, ev *events.Event, sig string, slot int64) error {
	if ev == nil {
		return nil
	}

	// Shutdown must not abort a half-applied event, so the store call runs
	// under its own timeout detached from the caller's cancellation.
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.opTimeout)
	defer cancel()

	var err error
	switch ev.Kind {
	case events.KindTradeExecuted:
		err = r.applyTrade(opCtx, ev.Trade, sig, slot)
	case events.KindMarketCreated:
		err = r.applyMarketCreated(opCtx, ev.MarketCreated)
	case events.KindSeasonCreated:
		err = r.applySeasonCreated(opCtx, ev.SeasonCreated)
	case events.KindSeasonEnded:
		err = r.applySeasonEnded(opCtx, ev.SeasonEnded)
	case events.KindSeasonFunded:
		err = r.applySeasonFunded(opCtx, ev.SeasonFunded)
	case events.KindConfigInitialized, events.KindConfigUpdated:
		err = r.applyAdmin(opCtx, ev, sig)
	case events.KindUnknown:
		r.metrics.UnknownEvents.Inc()
		r.logger.Printf("skipping unknown event kind, sig=%s", sig)
		return nil
	default:
		r.metrics.UnknownEvents.Inc()
		r.logger.Printf("skipping unhandled event kind %q, sig=%s", ev.Kind, sig)
		return nil
	}

	if err != nil {
		r.metrics.ReducerErrors.WithLabelValues(string(ev.Kind)).Inc()
		return fmt.Errorf("apply %s: %w", ev.Kind, err)
	}
	r.metrics.EventsApplied.WithLabelValues(string(ev.Kind)).Inc()
	return nil
}

func (r *Reducer) applyTrade(ctx context.Context, ev *events.TradeEvent, sig string, slot int64) error {
	trade := &domain.Trade{
		Signature:         sig,
		Slot:              slot,
		Ts:                time.Unix(ev.Ts, 0).UTC(),
		MarketID:          ev.Market,
		Wallet:            ev.Wallet,
		Side:              ev.Side,
		TokenAmount:       ev.TokenAmount,
		SolGrossLamports:  ev.SolGross,
		SolNetLamports:    ev.SolNet,
		FeeLamports:       ev.Fee,
		FeeTier:           ev.FeeTier,
		PostSupply:        ev.PostSupply,
		PostPriceLamports: ev.PostPrice,
	}

	start := time.Now()
	applied, err := r.trades.Apply(ctx, trade)
	r.metrics.RecordDBQuery("trade_apply", time.Since(start).Seconds(), err)
	if err != nil {
		return err
	}
	if !applied {
		r.metrics.DuplicateTrades.Inc()
		r.logger.Printf("duplicate trade skipped, sig=%s market=%s", sig, ev.Market)
		return nil
	}
	r.metrics.SnapshotsWritten.Inc()
	return nil
}

func (r *Reducer) applyMarketCreated(ctx context.Context, ev *events.MarketCreatedEvent) error {
	market := &domain.Market{
		MarketID:      ev.Market,
		SeasonID:      ev.SeasonID,
		CreatorWallet: ev.Creator,
		TokenMint:     ev.TokenMint,
		CurveA:        ev.CurveA,
		CurveB:        ev.CurveB,
		ReserveBps:    ev.ReserveBps,
		PlatformBps:   ev.PlatformBps,
		CreatorBps:    ev.CreatorBps,
		Status:        domain.MarketStatusActive,
		CreatedAt:     time.Unix(ev.Ts, 0).UTC(),
	}
	return r.markets.Upsert(ctx, market)
}

func (r *Reducer) applySeasonCreated(ctx context.Context, ev *events.SeasonCreatedEvent) error {
	season := &domain.Season{
		SeasonID: ev.SeasonID,
		StartTs:  time.Unix(ev.StartTs, 0).UTC(),
		EndTs:    time.Unix(ev.EndTs, 0).UTC(),
		Params:   ev.Params,
		Status:   domain.SeasonStatusActive,
	}
	return r.seasons.Create(ctx, season)
}

func (r *Reducer) applySeasonEnded(ctx context.Context, ev *events.SeasonEndedEvent) error {
	ended, err := r.seasons.End(ctx, ev.SeasonID)
	if err != nil {
		return err
	}
	if !ended {
		// The creation event may simply not have arrived yet.
		r.logger.Printf("season %d ended before it was seen", ev.SeasonID)
	}
	return nil
}

func (r *Reducer) applySeasonFunded(ctx context.Context, ev *events.SeasonFundedEvent) error {
	funded, err := r.seasons.Fund(ctx, ev.SeasonID, ev.PoolBalance)
	if err != nil {
		return err
	}
	if !funded {
		r.logger.Printf("season %d funded before it was seen", ev.SeasonID)
	}
	return nil
}

func (r *Reducer) applyAdmin(ctx context.Context, ev *events.Event, sig string) error {
	wallet := "unknown"
	actionType := string(ev.Kind)
	if ev.Admin != nil {
		if ev.Admin.AdminWallet != "" {
			wallet = ev.Admin.AdminWallet
		}
		if ev.Admin.ActionType != "" {
			actionType = ev.Admin.ActionType
		}
	}

	action := &domain.AdminAction{
		AdminWallet: wallet,
		ActionType:  actionType,
		Payload:     ev.Raw,
		TxSig:       sig,
		CreatedAt:   time.Now().UTC(),
	}
	return r.admins.Record(ctx, action)
}
