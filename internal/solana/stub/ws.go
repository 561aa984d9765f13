// Package stub provides test doubles for the solana package.
package stub

import (
	"context"
	"errors"
	"sync"

	"trasim/internal/solana"
)

// WSClient implements solana.WSClient for testing. Notifications pushed via
// Publish are fanned out to every subscription whose filter mentions the
// publishing program.
type WSClient struct {
	mu     sync.Mutex
	subs   []subscription
	closed bool
}

type subscription struct {
	filter solana.LogsFilter
	ch     chan solana.LogNotification
}

// NewWSClient creates a new stub WebSocket client.
func NewWSClient() *WSClient {
	return &WSClient{}
}

// Compile-time interface check.
var _ solana.WSClient = (*WSClient)(nil)

// SubscribeLogs registers a subscription and returns its channel.
func (c *WSClient) SubscribeLogs(_ context.Context, filter solana.LogsFilter) (<-chan solana.LogNotification, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errors.New("client closed")
	}

	ch := make(chan solana.LogNotification, 100)
	c.subs = append(c.subs, subscription{filter: filter, ch: ch})
	return ch, nil
}

// Publish delivers a notification to every subscription mentioning program.
// An empty program delivers to all subscriptions.
func (c *WSClient) Publish(program string, notif solana.LogNotification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	for _, sub := range c.subs {
		if program == "" || mentions(sub.filter, program) {
			sub.ch <- notif
		}
	}
}

// Close closes all subscription channels.
func (c *WSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	for _, sub := range c.subs {
		close(sub.ch)
	}
	c.subs = nil
	return nil
}

func mentions(filter solana.LogsFilter, program string) bool {
	if len(filter.Mentions) == 0 {
		return true
	}
	for _, m := range filter.Mentions {
		if m == program {
			return true
		}
	}
	return false
}
