package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("key not found")

// KeyValueStore is the thin persistence abstraction the game runs on: named
// blobs with no cross-key atomicity, no transactions and no compare-and-swap.
// Writes are last-write-wins, so callers that need create-once semantics get
// best-effort enforcement only (see services.GameService docs).
type KeyValueStore interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}
