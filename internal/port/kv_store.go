package port

import "context"

type KeyValueStore interface {
	// Get returns the stored value and whether the key exists
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores the value, replacing any previous one
	Set(ctx context.Context, key, value string) error
}

type IdempotencyGuard interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency removes the key (for rollback on failure)
	ReleaseIdempotency(ctx context.Context, key string) error
}
