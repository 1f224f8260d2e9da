// Package storage provides abstractions for persistent data storage.
package storage

import "context"

// Store defines the interface for the key-value persistence layer.
// The ledger is persisted as three string values (friends, expenses, owner
// email), mirroring the browser localStorage layout the app started with.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the ledger layer.
type Store interface {
	// Get retrieves the value for a key. The second return value is false
	// when the key is absent; absence is not an error.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores the value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes the given keys. Deleting an absent key is a no-op.
	Delete(ctx context.Context, keys ...string) error

	// Close releases any resources held by the store.
	Close() error
}
