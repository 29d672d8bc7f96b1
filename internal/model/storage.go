package model

import (
	"context"
	"io"
)

// Storage is a flat object store. Upload returns the number of bytes persisted.
// Download reports a missing object as ErrObjectNotFound. Delete of a missing
// object either succeeds or returns ErrObjectNotFound.
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader) (int64, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
