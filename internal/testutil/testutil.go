// Package testutil holds fixtures shared by the toolkit's tests.
package testutil

import (
	"errors"
	"io"
	"math/rand/v2"
	"sync/atomic"

	"github.com/meigma/binkit/source"
)

// ErrInjected is the error returned by FailingReader.
var ErrInjected = errors.New("testutil: injected read failure")

// RandomBytes returns n deterministic pseudo-random bytes for seed.
func RandomBytes(seed uint64, n int) []byte {
	rng := rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)) //nolint:gosec // reproducible fixtures
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(rng.Uint32())
	}
	return buf
}

// FailingReader serves data and then fails once FailAt bytes have been read.
type FailingReader struct {
	Data   []byte
	FailAt int
	pos    int
}

// NewFailingReader returns a reader over data that fails at failAt.
func NewFailingReader(data []byte, failAt int) *FailingReader {
	return &FailingReader{Data: data, FailAt: failAt}
}

// Read implements io.Reader.
func (r *FailingReader) Read(p []byte) (int, error) {
	if r.pos >= r.FailAt {
		return 0, ErrInjected
	}
	limit := min(r.FailAt, len(r.Data))
	if r.pos >= limit {
		return 0, io.EOF
	}
	n := copy(p, r.Data[r.pos:limit])
	r.pos += n
	return n, nil
}

// CountingRef wraps a source.Ref and counts Open calls.
type CountingRef struct {
	source.Ref
	opens atomic.Int32
}

// NewCountingRef wraps ref.
func NewCountingRef(ref source.Ref) *CountingRef {
	return &CountingRef{Ref: ref}
}

// Open counts the call and delegates.
func (c *CountingRef) Open() (io.ReadCloser, error) {
	c.opens.Add(1)
	return c.Ref.Open()
}

// Opens returns how many times Open was called.
func (c *CountingRef) Opens() int {
	return int(c.opens.Load())
}

// NopCloser adapts a reader to a ReadCloser that records Close.
type NopCloser struct {
	io.Reader
	Closed atomic.Bool
}

// Close records the call.
func (n *NopCloser) Close() error {
	n.Closed.Store(true)
	return nil
}
