package cache

import (
	"context"
	"time"
)

// IdempotencyEntry is what is remembered for an Idempotency-Key.
// StatusCode 0 marks a request that is still in flight.
type IdempotencyEntry struct {
	RequestHash string `json:"request_hash"`
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Pending reports whether the original request has not finished yet
func (e *IdempotencyEntry) Pending() bool {
	return e.StatusCode == 0
}

// IdempotencyStore remembers responses to replay for repeated requests
type IdempotencyStore interface {
	// Get returns nil, nil when the key is unknown or expired
	Get(ctx context.Context, key string) (*IdempotencyEntry, error)

	// Reserve records a pending entry for key.
	// Returns false if the key is already taken.
	Reserve(ctx context.Context, key, requestHash string, ttl time.Duration) (bool, error)

	// Complete stores the final response for a reserved key
	Complete(ctx context.Context, key string, entry IdempotencyEntry, ttl time.Duration) error

	// Release forgets a key so the request can be retried
	Release(ctx context.Context, key string) error

	Close() error
}
