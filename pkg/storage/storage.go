// Package storage reads transcript files from a local directory or an
// S3-compatible bucket behind one small interface.
package storage

import (
	"context"
	"io"
)

// FileStore is a read-only view of a flat collection of named files.
//
// Names are forward-slash separated and relative to the store root.
// Implementations must be safe for concurrent use.
type FileStore interface {
	// Read opens the named file. The caller must close it.
	// A missing file yields an error wrapping os.ErrNotExist.
	Read(ctx context.Context, name string) (io.ReadCloser, error)

	// Exists reports whether the named file exists.
	Exists(ctx context.Context, name string) (bool, error)

	// List returns the names of all files whose name starts with prefix,
	// sorted lexically.
	List(ctx context.Context, prefix string) ([]string, error)
}
