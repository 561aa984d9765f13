// Package ingestion runs the live log subscription loop: subscribe to the
// tracked programs, parse event payloads out of each notification, and hand
// them to the reducer.
package ingestion

import (
	"context"
	"log"
	"sync"

	"trasim/internal/events"
	"trasim/internal/indexer"
	"trasim/internal/observability"
	"trasim/internal/solana"
)

// Runner subscribes to program logs and feeds parsed events to the reducer.
type Runner struct {
	client   solana.WSClient
	programs []string
	reducer  *indexer.Reducer
	metrics  *observability.Metrics
	logger   *log.Logger
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	// Client is the log subscription transport.
	Client solana.WSClient
	// Programs are the program IDs to subscribe to, one subscription each.
	Programs []string
	// Reducer applies parsed events to storage.
	Reducer *indexer.Reducer
	Metrics *observability.Metrics
	Logger  *log.Logger
}

// NewRunner creates a new ingestion runner.
func NewRunner(opts RunnerOptions) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.Default()
	}

	return &Runner{
		client:   opts.Client,
		programs: opts.Programs,
		reducer:  opts.Reducer,
		metrics:  metrics,
		logger:   logger,
	}
}

// Run subscribes to every configured program and processes notifications
// until the context is cancelled or all subscription channels close. A bad
// payload or a storage failure is logged and counted, never fatal: the next
// notification may be fine, and replays make skipped events recoverable.
func (r *Runner) Run(ctx context.Context) error {
	merged := make(chan solana.LogNotification)
	var wg sync.WaitGroup

	for _, program := range r.programs {
		ch, err := r.client.SubscribeLogs(ctx, solana.LogsFilter{Mentions: []string{program}})
		if err != nil {
			return err
		}
		r.logger.Printf("subscribed to program %s", program)

		wg.Add(1)
		go func() {
			defer wg.Done()
			for notif := range ch {
				select {
				case merged <- notif:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(merged)
	}()

	for {
		select {
		case <-ctx.Done():
			r.logger.Println("ingestion stopping")
			return ctx.Err()
		case notif, ok := <-merged:
			if !ok {
				r.logger.Println("all subscriptions closed")
				return nil
			}
			r.handle(ctx, &notif)
		}
	}
}

// handle processes a single log notification.
func (r *Runner) handle(ctx context.Context, notif *solana.LogNotification) {
	if notif.Slot > 0 {
		r.metrics.HighestSlotSeen.Set(float64(notif.Slot))
	}

	if notif.Failed() {
		r.metrics.FailedTxSkipped.Inc()
		return
	}

	for _, line := range notif.Logs {
		r.metrics.LogLinesSeen.Inc()

		ev, err := events.Parse(line)
		if err != nil {
			r.metrics.ParseErrors.Inc()
			r.logger.Printf("bad event payload, sig=%s: %v", notif.Signature, err)
			continue
		}
		if ev == nil {
			continue // not an event line
		}

		r.metrics.EventsParsed.WithLabelValues(string(ev.Kind)).Inc()

		if err := r.reducer.Apply(ctx, ev, notif.Signature, notif.Slot); err != nil {
			r.logger.Printf("apply failed, sig=%s: %v", notif.Signature, err)
		}
	}
}
