// Package splice concatenates and partitions raw byte streams.
//
// Merge writes its sources back to back with no separators or framing, so
// the output length is the exact sum of the input lengths. Split cuts one
// source into consecutive parts of a fixed size; only the last part may be
// shorter. Merging the parts of a split in order reproduces the source.
package splice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/meigma/binkit/internal/bintype"
	"github.com/meigma/binkit/internal/sizing"
	"github.com/meigma/binkit/sink"
	"github.com/meigma/binkit/source"
)

const (
	// MinChunkSize is the smallest accepted split size.
	MinChunkSize = 1 << 10 // 1 KiB

	// DefaultBufferSize is the copy buffer used by Merge and Split.
	DefaultBufferSize = 2 << 20 // 2 MiB
)

// Option configures Merge and Split.
type Option func(*config)

type config struct {
	bufferSize int
	namer      func(int) string
	progress   bintype.ProgressFunc
	logger     *slog.Logger
}

// WithBufferSize sets the copy buffer size (default 2 MiB).
func WithBufferSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.bufferSize = n
		}
	}
}

// WithNamer sets how Split names part i (1-based). The default is PartName.
func WithNamer(fn func(int) string) Option {
	return func(c *config) {
		if fn != nil {
			c.namer = fn
		}
	}
}

// WithProgress registers a callback invoked after every copied buffer.
func WithProgress(fn bintype.ProgressFunc) Option {
	return func(c *config) {
		c.progress = fn
	}
}

// WithLogger sets the logger for debug output.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func newConfig(opts []Option) *config {
	c := &config{
		bufferSize: DefaultBufferSize,
		namer:      PartName,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PartName returns the default name of part i: part001, part002, ...
// Names widen past part999.
func PartName(i int) string {
	return fmt.Sprintf("part%03d", i)
}

// PartCount returns the number of parts Split produces for size bytes.
func PartCount(size, chunkSize int64) int64 {
	return sizing.CeilDiv(size, chunkSize)
}

// Part describes one output of Split.
type Part struct {
	// Index is 1-based.
	Index  int
	Name   string
	Offset int64
	Size   int64
}

// copyCounted copies up to limit bytes (all of r if limit is negative) from r
// to w through buf, checking ctx before every read. It returns io.EOF when r
// ended first. Read failures come back as *bintype.SourceReadError with the
// offset relative to the start of this copy.
func copyCounted(ctx context.Context, w io.Writer, r io.Reader, buf []byte, limit int64, report func(int64)) (int64, error) {
	var copied int64
	for limit < 0 || copied < limit {
		if err := ctx.Err(); err != nil {
			return copied, bintype.Aborted(err)
		}
		chunk := buf
		if limit >= 0 && limit-copied < int64(len(chunk)) {
			chunk = chunk[:limit-copied]
		}
		n, readErr := io.ReadFull(r, chunk)
		if n > 0 {
			if _, err := w.Write(chunk[:n]); err != nil {
				return copied, fmt.Errorf("write: %w", err)
			}
			copied += int64(n)
			report(copied)
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			return copied, io.EOF
		}
		if readErr != nil {
			return copied, &bintype.SourceReadError{Offset: copied, Err: readErr}
		}
	}
	return copied, nil
}

// Merge writes every ref to w in order and returns the bytes written.
func Merge(ctx context.Context, w io.Writer, refs []source.Ref, opts ...Option) (int64, error) {
	if len(refs) == 0 {
		return 0, fmt.Errorf("%w: no sources to merge", bintype.ErrInvalidInput)
	}
	cfg := newConfig(opts)
	buf := make([]byte, cfg.bufferSize)

	var total int64
	for i, ref := range refs {
		n, err := mergeOne(ctx, w, ref, buf, cfg, i, len(refs), total)
		total += n
		if err != nil {
			return total, err
		}
		cfg.logger.Debug("merged source",
			slog.String("source", ref.Name()),
			slog.Int64("bytes", n),
			slog.Int64("total", total))
	}
	return total, nil
}

func mergeOne(ctx context.Context, w io.Writer, ref source.Ref, buf []byte, cfg *config, index, count int, base int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, bintype.Aborted(err)
	}
	rc, err := source.Open(ref)
	if err != nil {
		return 0, fmt.Errorf("merge: %w", err)
	}
	defer rc.Close()

	report := func(done int64) {
		if cfg.progress == nil {
			return
		}
		cfg.progress(bintype.ProgressEvent{
			Stage:      bintype.StageMerging,
			Name:       ref.Name(),
			BytesDone:  uint64(base + done), //nolint:gosec // never negative
			FilesDone:  index,
			FilesTotal: count,
		})
	}
	n, err := copyCounted(ctx, w, rc, buf, -1, report)
	if err == io.EOF {
		err = nil
	}
	if err != nil {
		var sre *bintype.SourceReadError
		if errors.As(err, &sre) {
			sre.Name = ref.Name()
		}
		return n, fmt.Errorf("merge %s: %w", ref.Name(), err)
	}
	if size, ok := ref.Size(); ok && size != n {
		return n, fmt.Errorf("merge %s: %w", ref.Name(), &bintype.SourceReadError{
			Name:   ref.Name(),
			Offset: n,
			Err:    fmt.Errorf("source changed size: read %d of %d bytes", n, size),
		})
	}
	return n, nil
}

// MergeBytes concatenates parts.
func MergeBytes(parts [][]byte) []byte {
	var size int
	for _, p := range parts {
		size += len(p)
	}
	out := make([]byte, 0, size)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func checkChunkSize(chunkSize int64) error {
	if chunkSize < MinChunkSize {
		return fmt.Errorf("%w: %d bytes, minimum %d", bintype.ErrInvalidChunkSize, chunkSize, MinChunkSize)
	}
	return nil
}

// Split reads r to EOF and writes consecutive parts of chunkSize bytes to
// dst, the last part holding the remainder. An empty source yields no parts.
//
// Each part is committed only after it is fully written. On error the part
// in progress is discarded, and the parts already committed to dst are
// returned alongside the error so the caller can remove them.
func Split(ctx context.Context, r io.Reader, chunkSize int64, dst sink.Sink, opts ...Option) ([]Part, error) {
	if err := checkChunkSize(chunkSize); err != nil {
		return nil, err
	}
	if dst == nil {
		return nil, fmt.Errorf("%w: nil sink", bintype.ErrInvalidInput)
	}
	cfg := newConfig(opts)
	buf := make([]byte, min(int64(cfg.bufferSize), chunkSize))

	var parts []Part
	var offset int64
	for {
		if err := ctx.Err(); err != nil {
			return parts, bintype.Aborted(err)
		}
		// Peek one byte so an exact multiple never produces an empty last part.
		var first [1]byte
		n, err := io.ReadFull(r, first[:])
		if err == io.EOF {
			return parts, nil
		}
		if err != nil {
			return parts, &bintype.SourceReadError{Offset: offset, Err: err}
		}

		part := Part{Index: len(parts) + 1, Offset: offset}
		part.Name = cfg.namer(part.Index)
		size, eof, err := writePart(ctx, dst, part.Name, io.MultiReader(bytes.NewReader(first[:n]), r), chunkSize, buf, cfg, offset)
		if err != nil {
			var sre *bintype.SourceReadError
			if errors.As(err, &sre) {
				sre.Offset += offset
			}
			return parts, fmt.Errorf("split %s: %w", part.Name, err)
		}
		part.Size = size
		offset += size
		parts = append(parts, part)
		cfg.logger.Debug("wrote part", slog.String("part", part.Name), slog.Int64("bytes", size))
		if eof {
			return parts, nil
		}
	}
}

// writePart copies up to chunkSize bytes from r into a new committer.
// eof reports that r ended inside this part.
func writePart(ctx context.Context, dst sink.Sink, name string, r io.Reader, chunkSize int64, buf []byte, cfg *config, base int64) (int64, bool, error) {
	w, err := dst.Writer(name)
	if err != nil {
		return 0, false, err
	}
	report := func(done int64) {
		if cfg.progress == nil {
			return
		}
		cfg.progress(bintype.ProgressEvent{
			Stage:     bintype.StageSplitting,
			Name:      name,
			BytesDone: uint64(base + done), //nolint:gosec // never negative
		})
	}
	n, err := copyCounted(ctx, w, r, buf, chunkSize, report)
	eof := err == io.EOF
	if eof {
		err = nil
	}
	if err != nil {
		_ = w.Discard() //nolint:errcheck // best-effort cleanup
		return n, false, err
	}
	if err := w.Commit(); err != nil {
		return n, false, fmt.Errorf("commit: %w", err)
	}
	return n, eof, nil
}

// SplitBytes partitions buf into chunkSize pieces. The pieces alias buf.
func SplitBytes(buf []byte, chunkSize int64) ([][]byte, error) {
	if err := checkChunkSize(chunkSize); err != nil {
		return nil, err
	}
	count := PartCount(int64(len(buf)), chunkSize)
	parts := make([][]byte, 0, count)
	for off := int64(0); off < int64(len(buf)); off += chunkSize {
		end := min(off+chunkSize, int64(len(buf)))
		parts = append(parts, buf[off:end])
	}
	return parts, nil
}
