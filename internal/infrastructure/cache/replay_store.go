package cache

import (
	"context"
	"time"
)

// DefaultReplayTTL is how long a completed request stays replayable
const DefaultReplayTTL = 24 * time.Hour

// Reply is a captured HTTP response kept for replay
type Reply struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// ReplayStore remembers the outcome of requests sent with an idempotency key,
// so a till that retries after a timeout gets the original receipt back
// instead of ringing up the sale twice.
type ReplayStore interface {
	// Claim reserves the key for an in-flight request. It returns false when
	// the key is already claimed or completed.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Complete stores the reply for a claimed key
	Complete(ctx context.Context, key string, reply Reply, ttl time.Duration) error

	// Lookup returns the stored reply, or nil when the key is unknown or
	// still in flight
	Lookup(ctx context.Context, key string) (*Reply, error)

	// Release drops a claim so the request can be retried
	Release(ctx context.Context, key string) error

	// Close releases resources held by the store
	Close() error
}
