package ports

import "context"

// IdempotencyStore remembers which record a client-supplied key created.
type IdempotencyStore interface {
	// Lookup returns the remembered record id, or "" when the key is unseen.
	Lookup(ctx context.Context, scope, key string) (string, error)
	Remember(ctx context.Context, scope, key, recordID string) error
}
