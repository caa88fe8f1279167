// Package storage defines the pluggable backend interface for pipeline
// artifacts: source documents, mapping specs, and transformed record batches.
package storage

import "context"

// Store is a key-value backend for pipeline artifacts.
//
// Keys are hierarchical strings with "/" separators, for example
// "documents/run-42/input.json" or "records/run-42/batch-0001.json".
// Values are raw bytes; callers decide the encoding.
//
// Implementations must be safe for concurrent use. Two are provided:
//   - fsstore.Store: local filesystem, keys map to relative file paths
//   - objectstore.Store: NATS JetStream ObjectStore bucket
type Store interface {
	// Put stores data at key, overwriting any existing value.
	Put(ctx context.Context, key string, data []byte) error

	// Get retrieves the value at key. A missing key yields
	// errors.ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns all keys with the given prefix in lexicographic order.
	// The empty prefix lists every key. No matches yields an empty slice.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the value at key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error
}
