// Package file implements local data sources: files on disk and stdin.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local opens one file from the local disk.
type Local struct{ path string }

func NewLocal(path string) *Local { return &Local{path: path} }

// Open returns the *os.File for the path. Errors keep os.ErrNotExist
// reachable through errors.Is.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

// Stdin serves a single reader, normally os.Stdin. Close does not close the
// underlying reader.
type Stdin struct{ r io.Reader }

func NewStdin(r io.Reader) *Stdin {
	if r == nil {
		r = os.Stdin
	}
	return &Stdin{r: r}
}

func (s *Stdin) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(s.r), nil
}
