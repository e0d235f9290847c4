package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request keys so a retried mutation runs once
type IdempotencyStore interface {
	// MarkProcessed claims key for ttl. It returns false if the key is
	// already claimed.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Forget releases a claim so the request may be retried
	Forget(ctx context.Context, key string) error

	// Close releases the store's resources
	Close() error
}
