// Package tarball decodes TAR archives held entirely in memory.
//
// The decoder walks the buffer in 512-byte steps: a header block, then the
// entry content rounded up to the next 512-byte boundary. It understands the
// classic and ustar layouts only. Regular files are emitted with a private
// copy of their content; directories are emitted without content; every other
// type flag (links, devices, PAX and GNU extension headers, sparse files) is
// emitted as unsupported and its content skipped.
//
// A single all-zero block is treated as filler and skipped, so archives that
// end with one zero block instead of two still decode.
//
// The whole archive must be resident in memory. Callers accepting uploads
// should bound the buffer size before decoding.
package tarball

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/meigma/binkit/internal/bintype"
	"github.com/meigma/binkit/internal/sizing"
)

// copyChunk bounds how much content is copied between cancellation checks.
const copyChunk = 2 << 20

// Option configures a Decoder.
type Option func(*Decoder)

// WithVerifyChecksum rejects headers whose checksum does not match.
// By default checksums are not verified.
func WithVerifyChecksum(enabled bool) Option {
	return func(d *Decoder) {
		d.verifyChecksum = enabled
	}
}

// WithMaxEntries fails decoding with ErrInvalidInput once more than n
// entries have been read. Zero disables the limit.
func WithMaxEntries(n int) Option {
	return func(d *Decoder) {
		d.maxEntries = n
	}
}

// WithProgress registers a callback invoked after each entry.
func WithProgress(fn bintype.ProgressFunc) Option {
	return func(d *Decoder) {
		d.progress = fn
	}
}

// Decoder is a cursor over a TAR buffer.
type Decoder struct {
	buf            []byte
	off            int64
	entries        int
	done           bool
	verifyChecksum bool
	maxEntries     int
	progress       bintype.ProgressFunc
}

// NewDecoder returns a Decoder positioned at the start of buf. buf is never
// modified.
func NewDecoder(buf []byte, opts ...Option) *Decoder {
	d := &Decoder{buf: buf}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int64 {
	return d.off
}

// Next returns the next entry, or io.EOF once the buffer is exhausted.
// Zero blocks are skipped. After an error, Next keeps returning io.EOF.
func (d *Decoder) Next(ctx context.Context) (bintype.Entry, error) {
	if d.done {
		return bintype.Entry{}, io.EOF
	}
	entry, err := d.next(ctx)
	if err != nil {
		d.done = true
	}
	return entry, err
}

func (d *Decoder) next(ctx context.Context) (bintype.Entry, error) {
	total := int64(len(d.buf))
	for {
		if err := ctx.Err(); err != nil {
			return bintype.Entry{}, bintype.Aborted(err)
		}
		remaining := total - d.off
		if remaining == 0 {
			return bintype.Entry{}, io.EOF
		}
		if remaining < BlockSize {
			if isZeroBlock(d.buf[d.off:]) {
				d.off = total
				return bintype.Entry{}, io.EOF
			}
			return bintype.Entry{}, d.corrupt("truncated header: %d bytes left", remaining)
		}
		block := d.buf[d.off : d.off+BlockSize]
		if isZeroBlock(block) {
			d.off += BlockSize
			continue
		}
		return d.readEntry(ctx, header(block))
	}
}

func (d *Decoder) readEntry(ctx context.Context, h header) (bintype.Entry, error) {
	if d.maxEntries > 0 && d.entries >= d.maxEntries {
		return bintype.Entry{}, fmt.Errorf("%w: more than %d entries", bintype.ErrInvalidInput, d.maxEntries)
	}
	if d.verifyChecksum && !h.checksumOK() {
		return bintype.Entry{}, d.corrupt("header checksum mismatch")
	}
	size, ok := h.size()
	if !ok {
		return bintype.Entry{}, d.corrupt("invalid size field %q", h[sizeOffset:sizeOffset+sizeLen])
	}
	padded, ok := sizing.RoundUp(size, BlockSize)
	if !ok {
		return bintype.Entry{}, d.corrupt("size %d overflows", size)
	}
	contentStart := d.off + BlockSize
	available := uint64(int64(len(d.buf)) - contentStart) //nolint:gosec // header fit, so non-negative
	if size > available {
		return bintype.Entry{}, d.corrupt("content of %d bytes runs past end of archive (%d bytes left)", size, available)
	}

	entry := bintype.Entry{
		Name:     h.name(),
		Size:     size,
		Typeflag: h.typeflag(),
	}
	switch entry.Typeflag {
	case TypeReg, TypeRegA:
		entry.Kind = bintype.KindFile
		// size <= available, so it fits in int64.
		content, err := copyContent(ctx, d.buf[contentStart:contentStart+int64(size)]) //nolint:gosec // bounded above
		if err != nil {
			return bintype.Entry{}, err
		}
		entry.Content = content
	case TypeDir:
		entry.Kind = bintype.KindDirectory
	default:
		entry.Kind = bintype.KindUnsupported
	}

	// Padding beyond the buffer end is tolerated for the final entry.
	next := contentStart + int64(min(padded, available)) //nolint:gosec // bounded by buffer length
	d.off = next
	d.entries++
	d.report(entry)
	return entry, nil
}

func (d *Decoder) report(entry bintype.Entry) {
	if d.progress == nil {
		return
	}
	d.progress(bintype.ProgressEvent{
		Stage:      bintype.StageExtracting,
		Name:       entry.Name,
		BytesDone:  uint64(d.off),      //nolint:gosec // offset is never negative
		BytesTotal: uint64(len(d.buf)), //nolint:gosec // length is never negative
		FilesDone:  d.entries,
	})
}

func (d *Decoder) corrupt(format string, args ...any) error {
	return &bintype.CorruptArchiveError{
		Format: "TAR",
		Offset: d.off,
		Reason: fmt.Sprintf(format, args...),
	}
}

// copyContent copies src into a new slice, checking ctx between chunks.
func copyContent(ctx context.Context, src []byte) ([]byte, error) {
	dst := make([]byte, len(src))
	for off := 0; off < len(src); off += copyChunk {
		if off > 0 {
			if err := ctx.Err(); err != nil {
				return nil, bintype.Aborted(err)
			}
		}
		copy(dst[off:], src[off:min(off+copyChunk, len(src))])
	}
	return dst, nil
}

// Decode decodes every entry in buf.
//
// On a corrupt archive the returned error is a *bintype.CorruptArchiveError
// whose Partial field holds the entries decoded before the failure. A
// cancelled decode returns ErrAborted and nothing else.
func Decode(ctx context.Context, buf []byte, opts ...Option) ([]bintype.Entry, error) {
	d := NewDecoder(buf, opts...)
	var entries []bintype.Entry
	for {
		entry, err := d.Next(ctx)
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			var cae *bintype.CorruptArchiveError
			if errors.As(err, &cae) {
				cae.Partial = entries
			}
			return nil, err
		}
		entries = append(entries, entry)
	}
}

// LooksLikeTar reports whether buf starts, after any zero blocks, with a
// header carrying the ustar magic or a valid checksum.
func LooksLikeTar(buf []byte) bool {
	for off := 0; off+BlockSize <= len(buf); off += BlockSize {
		block := buf[off : off+BlockSize]
		if isZeroBlock(block) {
			continue
		}
		h := header(block)
		return h.isUstar() || h.checksumOK()
	}
	return false
}
