// Package source provides read-only byte source references consumed by the
// hashing, dedup and splice packages.
//
// A Ref is a capability to open a sequential reader over some bytes. Opening
// is deferred until an operation needs the content, so callers can hand over
// large sets of files without holding any of them open.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/meigma/binkit/internal/bintype"
)

// Ref is a named, re-openable byte source.
type Ref interface {
	// Name identifies the source in results, logs and errors.
	Name() string

	// Size returns the content length and whether it is known.
	Size() (int64, bool)

	// Open returns a fresh reader positioned at the start of the content.
	// The caller must close it.
	Open() (io.ReadCloser, error)
}

// fileRef refers to a file on disk.
type fileRef struct {
	path string
	size int64
}

// File returns a Ref for the file at path. The file is stat'ed immediately
// so the size is known without opening it.
func File(path string) (Ref, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, OpenError(path, err))
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", bintype.ErrInvalidInput, path)
	}
	return &fileRef{path: path, size: info.Size()}, nil
}

func (f *fileRef) Name() string        { return f.path }
func (f *fileRef) Size() (int64, bool) { return f.size, true }

func (f *fileRef) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

// Open opens ref and maps failures onto the toolkit's error kinds.
func Open(ref Ref) (io.ReadCloser, error) {
	rc, err := ref.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", ref.Name(), OpenError(ref.Name(), err))
	}
	return rc, nil
}

// OpenError classifies an open or stat failure. A missing file is
// ErrInvalidInput; anything else is a *bintype.SourceReadError at offset 0.
func OpenError(name string, err error) error {
	if errors.Is(err, bintype.ErrInvalidInput) || errors.Is(err, bintype.ErrSourceRead) {
		return err
	}
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", bintype.ErrInvalidInput, err)
	}
	return &bintype.SourceReadError{Name: name, Err: err}
}

// bytesRef refers to an in-memory buffer.
type bytesRef struct {
	name string
	data []byte
}

// Bytes returns a Ref over data. The slice is not copied and must not be
// modified while the Ref is in use.
func Bytes(name string, data []byte) Ref {
	return &bytesRef{name: name, data: data}
}

func (b *bytesRef) Name() string        { return b.name }
func (b *bytesRef) Size() (int64, bool) { return int64(len(b.data)), true }

func (b *bytesRef) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

// funcRef defers to a caller-supplied open function.
type funcRef struct {
	name string
	size int64
	open func() (io.ReadCloser, error)
}

// Reader returns a Ref that calls open for each Open. A negative size marks
// the size as unknown.
func Reader(name string, size int64, open func() (io.ReadCloser, error)) Ref {
	return &funcRef{name: name, size: size, open: open}
}

func (f *funcRef) Name() string { return f.name }

func (f *funcRef) Size() (int64, bool) {
	if f.size < 0 {
		return 0, false
	}
	return f.size, true
}

func (f *funcRef) Open() (io.ReadCloser, error) {
	return f.open()
}
