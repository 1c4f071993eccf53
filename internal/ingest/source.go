package ingest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
)

// Source is one picked file: an openable byte stream with a declared name.
type Source interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

type fileSource struct {
	path string
}

// FileSource reads the file at path; the declared name is its base name.
func FileSource(path string) Source {
	return fileSource{path: path}
}

func (s fileSource) Name() string { return filepath.Base(s.path) }

func (s fileSource) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(s.path) //#nosec G304 -- user-picked file
}

type readerSource struct {
	name string
	r    io.Reader
	used bool
}

// ErrSourceConsumed is returned when a single-use reader source is reopened.
var ErrSourceConsumed = errors.New("source already consumed")

// ReaderSource wraps a stream that can be read once, such as an upload part.
// If r is an io.Closer it is closed after the copy.
func ReaderSource(name string, r io.Reader) Source {
	return &readerSource{name: name, r: r}
}

func (s *readerSource) Name() string { return s.name }

func (s *readerSource) Open(_ context.Context) (io.ReadCloser, error) {
	if s.used {
		return nil, ErrSourceConsumed
	}
	s.used = true
	if rc, ok := s.r.(io.ReadCloser); ok {
		return rc, nil
	}
	return io.NopCloser(s.r), nil
}

type bytesSource struct {
	name string
	data []byte
}

// BytesSource serves an in-memory buffer; it may be opened repeatedly.
func BytesSource(name string, data []byte) Source {
	return bytesSource{name: name, data: data}
}

func (s bytesSource) Name() string { return s.name }

func (s bytesSource) Open(_ context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}
