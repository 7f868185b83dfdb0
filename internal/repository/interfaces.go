package repository

import "context"

// StoreError is a sentinel error type for store failures.
type StoreError string

func (e StoreError) Error() string { return string(e) }

const (
	// ErrNotFound indicates the key does not exist in the store.
	ErrNotFound StoreError = "key not found"
)

// Store defines a key -> JSON document persistence layer.
// A Set for a single key is atomic; there are no transactions across keys.
type Store interface {
	// Get retrieves the document stored under key. Returns ErrNotFound if absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores the document under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the document under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists all keys with the given prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close closes the underlying connection.
	Close() error
}
