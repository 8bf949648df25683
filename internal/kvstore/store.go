package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound indicates that no value is stored under the requested key.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is the minimal durable key-value surface the sync engine depends on.
// Values are opaque blobs; the engine serializes its own structures.
// Implementations must survive process restarts (MemoryStore is the
// deliberate exception, used in tests and ephemeral hosts).
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the value stored under key.
	// Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
