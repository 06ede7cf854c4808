package storage

import (
	"context"
	"io"
)

type FileInfo struct {
	Filename    string
	ContentType string
	Size        int64
}

// Storage is the binary object backend behind the blob store. The
// returned key identifies the object for later Open/Delete calls.
type Storage interface {
	Save(ctx context.Context, r io.Reader, info FileInfo) (string, error)
	Open(ctx context.Context, key string) (io.ReadSeekCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
