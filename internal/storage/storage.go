// Package storage persists the filtered league set between polls. Blob
// backends (local disk, memory, GCS) hold a single JSON document; a Postgres
// backend lives in the postgres subpackage.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound reports that the requested object does not exist.
var ErrNotFound = errors.New("object not found")

// BlobStore reads and writes whole objects by path.
type BlobStore interface {
	// PutObject overwrites path with the reader's content and returns a URI.
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
	// GetObject returns the content of path, or ErrNotFound.
	GetObject(ctx context.Context, path string) ([]byte, error)
}
