// Package hashing computes content digests of byte sources in bounded memory.
//
// A source is read strictly sequentially in fixed-size chunks; each chunk is
// folded into an incremental digest and then reused for the next read. The
// chunk size only bounds memory: the digest of a source never depends on it.
package hashing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/meigma/binkit/internal/bintype"
)

// DefaultChunkSize is the read size used when no WithChunkSize option is given.
const DefaultChunkSize = 2 << 20 // 2 MiB

// Option configures a hash computation.
type Option func(*config)

type config struct {
	chunkSize int
	progress  bintype.ProgressFunc
	name      string
	sizeHint  int64
}

// WithChunkSize sets the read chunk size in bytes. Non-positive sizes are
// rejected by Hash with ErrInvalidInput.
func WithChunkSize(n int) Option {
	return func(c *config) {
		c.chunkSize = n
	}
}

// WithProgress registers a callback invoked after every folded chunk.
func WithProgress(fn bintype.ProgressFunc) Option {
	return func(c *config) {
		c.progress = fn
	}
}

// WithName labels the source in progress events and errors.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithSizeHint sets the expected total for progress events.
func WithSizeHint(n int64) Option {
	return func(c *config) {
		c.sizeHint = n
	}
}

func newConfig(opts []Option) (*config, error) {
	c := &config{chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(c)
	}
	if c.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d", bintype.ErrInvalidChunkSize, c.chunkSize)
	}
	return c, nil
}

// Hash reads r to EOF and returns its digest under alg.
//
// Cancellation is checked before every chunk read; a cancelled computation
// returns an error matching ErrAborted and no digest. A failing read returns
// a *SourceReadError carrying the number of bytes hashed before the failure.
func Hash(ctx context.Context, r io.Reader, alg Algorithm, opts ...Option) (Digest, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return Digest{}, err
	}
	h, err := alg.New()
	if err != nil {
		return Digest{}, err
	}

	buf := make([]byte, cfg.chunkSize)
	var offset int64
	for {
		if err := ctx.Err(); err != nil {
			return Digest{}, bintype.Aborted(err)
		}
		n, readErr := io.ReadFull(r, buf)
		if n > 0 {
			_, _ = h.Write(buf[:n]) //nolint:errcheck // hash writes never fail
			offset += int64(n)
			cfg.report(offset)
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			return Digest{}, &bintype.SourceReadError{Name: cfg.name, Offset: offset, Err: readErr}
		}
	}
	return newDigest(alg, h), nil
}

func (c *config) report(done int64) {
	if c.progress == nil {
		return
	}
	var total uint64
	if c.sizeHint > 0 {
		total = uint64(c.sizeHint)
	}
	c.progress(bintype.ProgressEvent{
		Stage:      bintype.StageHashing,
		Name:       c.name,
		BytesDone:  uint64(done), //nolint:gosec // offset is never negative
		BytesTotal: total,
	})
}

// HashFile hashes the file at path. The file handle is released on every
// return path, including cancellation.
func HashFile(ctx context.Context, path string, alg Algorithm, opts ...Option) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Digest{}, fmt.Errorf("%w: %w", bintype.ErrInvalidInput, err)
		}
		return Digest{}, &bintype.SourceReadError{Name: path, Err: err}
	}
	defer f.Close()

	opts = append([]Option{WithName(path)}, opts...)
	if info, err := f.Stat(); err == nil {
		opts = append([]Option{WithSizeHint(info.Size())}, opts...)
	}
	return Hash(ctx, f, alg, opts...)
}

// HashBytes returns the digest of data.
func HashBytes(alg Algorithm, data []byte) (Digest, error) {
	h, err := alg.New()
	if err != nil {
		return Digest{}, err
	}
	_, _ = h.Write(data) //nolint:errcheck // hash writes never fail
	return newDigest(alg, h), nil
}

// Verify hashes r and compares the result with want.
func Verify(ctx context.Context, r io.Reader, want Digest, opts ...Option) error {
	got, err := Hash(ctx, r, want.Algorithm, opts...)
	if err != nil {
		return err
	}
	if !got.Equal(want) {
		return fmt.Errorf("%w: got %s, want %s", bintype.ErrDigestMismatch, got, want)
	}
	return nil
}
