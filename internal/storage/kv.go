// Package storage persists the ledger as a small set of named records.
//
// Every record is a full serialized collection; writes replace the whole
// value. A missing record reads as "not found" and callers fall back to an
// empty default.
package storage

import "context"

// KV is the durable key-value port the ledger mirrors its collections to.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	Put(ctx context.Context, key string, value []byte) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every record.
	Clear(ctx context.Context) error
}
