package object

import (
	"context"
	"io"
)

// ObjectStore reads and writes rule documents by key.
type ObjectStore interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key string, contentType string, r io.Reader) (int64, error)
}
