package store

import (
	"context"
	"errors"
)

var ErrDocumentNotFound = errors.New("document not found")

// Repository persists opaque documents by key. Put replaces the whole
// document; there are no partial writes.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, document []byte) error
	Delete(ctx context.Context, key string) error
}
