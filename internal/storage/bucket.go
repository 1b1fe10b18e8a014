// Package storage provides keyed object buckets used to persist chat history
// logs. A bucket maps a key such as "chat_history/<email>.json" to an opaque
// byte payload that is read and rewritten whole.
package storage

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned by Get when no object exists under the key.
var ErrObjectNotFound = errors.New("object not found")

// Bucket is a flat key/value object store.
type Bucket interface {
	// Get returns the object stored under key or ErrObjectNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put creates or replaces the object stored under key.
	Put(ctx context.Context, key string, data []byte) error
}
