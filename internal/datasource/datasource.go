// Package datasource defines where catalog bytes come from. Implementations
// live in the file and httpds subpackages.
package datasource

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Source opens a fresh stream over the input. Callers close the returned
// reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// IsGzip reports whether name (a path or URL) refers to a gzip file.
func IsGzip(name string) bool {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return strings.HasSuffix(strings.ToLower(name), ".gz")
}

// Gunzip wraps rc in a gzip reader. Closing the result closes rc.
func Gunzip(rc io.ReadCloser) (io.ReadCloser, error) {
	zr, err := gzip.NewReader(rc)
	if err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return &gzipReadCloser{Reader: zr, under: rc}, nil
}

type gzipReadCloser struct {
	*gzip.Reader
	under io.Closer
}

func (g *gzipReadCloser) Close() error {
	zerr := g.Reader.Close()
	if err := g.under.Close(); err != nil {
		return err
	}
	return zerr
}
