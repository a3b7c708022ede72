// Package kv provides the key-value blob storage that backs the client-side
// cart and session state, mirroring the browser's local storage semantics:
// opaque values under string keys, whole-value rewrites, no transactions.
package kv

import (
	"context"
	"errors"
)

var ErrKeyNotFound = errors.New("key not found")

// Store is the blob storage capability. Consumers define what the blobs
// mean; the store only moves bytes.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
