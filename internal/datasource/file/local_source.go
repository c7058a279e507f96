// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"

	"steametl/internal/datasource"
)

// Local opens a catalog dump from the local disk. Paths ending in ".gz" are
// decompressed transparently.
type Local struct{ path string }

// NewLocal returns a Local source bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the configured path.
func (l *Local) Path() string { return l.path }

// Open returns the context error without touching the filesystem when ctx is
// already done. Filesystem errors are wrapped with the path and still match
// errors.Is(err, os.ErrNotExist).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	adviseSequential(f)
	if !datasource.IsGzip(l.path) {
		return f, nil
	}
	rc, err := datasource.Gunzip(f)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return rc, nil
}
