// Package zipcodec adapts github.com/klauspost/compress/zip to the archive
// codec interface. It adds size limits and entry conversion only; the ZIP
// format itself is handled entirely by the library.
package zipcodec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/meigma/binkit/internal/bintype"
	"github.com/meigma/binkit/internal/sizing"
)

const (
	// DefaultMaxEntrySize is the default per-entry uncompressed limit (256MB).
	DefaultMaxEntrySize = 256 << 20

	// DefaultMaxTotalSize is the default limit on all entries combined (1GB).
	DefaultMaxTotalSize = 1 << 30
)

// ErrInvalidZip is returned when the library cannot read the archive.
var ErrInvalidZip = errors.New("zipcodec: invalid zip archive")

// Option configures a Codec.
type Option func(*Codec)

// WithMaxEntrySize limits the uncompressed size of each entry.
// Set to 0 to disable the limit.
func WithMaxEntrySize(limit uint64) Option {
	return func(c *Codec) {
		c.maxEntrySize = limit
	}
}

// WithMaxTotalSize limits the uncompressed size of all entries combined.
// Set to 0 to disable the limit.
func WithMaxTotalSize(limit uint64) Option {
	return func(c *Codec) {
		c.maxTotalSize = limit
	}
}

// WithStore writes entries uncompressed when encoding.
func WithStore(enabled bool) Option {
	return func(c *Codec) {
		c.store = enabled
	}
}

// Codec decodes and encodes ZIP archives in memory.
type Codec struct {
	maxEntrySize uint64
	maxTotalSize uint64
	store        bool
}

// New creates a Codec.
func New(opts ...Option) *Codec {
	c := &Codec{
		maxEntrySize: DefaultMaxEntrySize,
		maxTotalSize: DefaultMaxTotalSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Decode reads every entry of the archive in data.
func (c *Codec) Decode(ctx context.Context, data []byte) ([]bintype.Entry, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidZip, err)
	}

	entries := make([]bintype.Entry, 0, len(zr.File))
	var total uint64
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, bintype.Aborted(err)
		}
		entry := bintype.Entry{Name: f.Name, Size: f.UncompressedSize64}
		switch {
		case strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir():
			entry.Kind = bintype.KindDirectory
		case !f.Mode().IsRegular():
			entry.Kind = bintype.KindUnsupported
		default:
			entry.Kind = bintype.KindFile
			content, err := c.readFile(f)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", f.Name, err)
			}
			next, ok := sizing.AddUint64(total, uint64(len(content)))
			if !ok || (c.maxTotalSize > 0 && next > c.maxTotalSize) {
				return nil, fmt.Errorf("read %s: %w", f.Name, bintype.ErrSizeOverflow)
			}
			total = next
			entry.Content = content
			entry.Size = uint64(len(content))
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (c *Codec) readFile(f *zip.File) ([]byte, error) {
	if c.maxEntrySize > 0 && f.UncompressedSize64 > c.maxEntrySize {
		return nil, bintype.ErrSizeOverflow
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidZip, err)
	}
	defer rc.Close()

	limit := c.maxEntrySize
	if limit == 0 {
		limit = f.UncompressedSize64
	}
	content, err := sizing.ReadAllWithLimit(rc, limit, bintype.ErrSizeOverflow)
	if err != nil {
		if errors.Is(err, bintype.ErrSizeOverflow) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidZip, err)
	}
	return content, nil
}

// Encode writes the file and directory entries into a new archive. Other
// kinds are skipped.
func (c *Codec) Encode(ctx context.Context, entries []bintype.Entry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	method := zip.Deflate
	if c.store {
		method = zip.Store
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, bintype.Aborted(err)
		}
		switch e.Kind {
		case bintype.KindDirectory:
			name := strings.TrimSuffix(e.Name, "/") + "/"
			if _, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store}); err != nil {
				return nil, fmt.Errorf("write %s: %w", name, err)
			}
		case bintype.KindFile:
			w, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: method})
			if err != nil {
				return nil, fmt.Errorf("write %s: %w", e.Name, err)
			}
			if _, err := io.Copy(w, bytes.NewReader(e.Content)); err != nil {
				return nil, fmt.Errorf("write %s: %w", e.Name, err)
			}
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}
