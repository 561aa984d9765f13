// Package solana provides the WebSocket log subscription client the indexer
// ingests program events through.
package solana

import "context"

// WSClient defines the Solana WebSocket subscription interface.
type WSClient interface {
	// SubscribeLogs subscribes to program logs matching the filter.
	SubscribeLogs(ctx context.Context, filter LogsFilter) (<-chan LogNotification, error)

	// Close closes the WebSocket connection.
	Close() error
}

// LogsFilter defines a subscription filter for logs.
type LogsFilter struct {
	// Mentions filters logs that mention any of these program IDs.
	Mentions []string
}

// LogNotification represents a logs subscription message.
type LogNotification struct {
	Signature string
	Slot      int64
	BlockTime int64 // unix seconds, zero when the node omits it
	Logs      []string
	Err       interface{}
}

// Failed reports whether the notification's transaction failed on chain.
// Events from failed transactions must not reach the reducer.
func (n *LogNotification) Failed() bool {
	return n.Err != nil
}
