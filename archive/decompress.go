package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/meigma/binkit/internal/bintype"
	"github.com/meigma/binkit/internal/sizing"
	"github.com/meigma/binkit/signature"
)

// decompress inflates a compressed TAR stream, bounded by maxSize.
func (e *Extractor) decompress(buf []byte, format signature.Format) ([]byte, error) {
	r, closeFn, err := e.newDecompressor(buf, format)
	if err != nil {
		return nil, &bintype.CorruptArchiveError{Format: format.String(), Reason: "invalid stream header", Err: err}
	}
	defer closeFn()

	limit := e.maxSize
	if limit == 0 {
		limit = ^uint64(0) >> 2
	}
	data, err := sizing.ReadAllWithLimit(r, limit, bintype.ErrSizeOverflow)
	if err != nil {
		if errors.Is(err, bintype.ErrSizeOverflow) {
			return nil, fmt.Errorf("%w: decompressed %s payload exceeds %d bytes", bintype.ErrSizeOverflow, format, limit)
		}
		return nil, &bintype.CorruptArchiveError{Format: format.String(), Reason: "decompression failed", Err: err}
	}
	return data, nil
}

func (e *Extractor) newDecompressor(buf []byte, format signature.Format) (io.Reader, func(), error) {
	src := bytes.NewReader(buf)
	switch format {
	case signature.FormatGzip:
		zr, err := gzip.NewReader(src)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { _ = zr.Close() }, nil //nolint:errcheck // read-only stream
	case signature.FormatZstd:
		opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
		if e.maxSize > 0 {
			opts = append(opts, zstd.WithDecoderMaxMemory(e.maxSize))
		}
		dec, err := zstd.NewReader(src, opts...)
		if err != nil {
			return nil, nil, err
		}
		return dec, dec.Close, nil
	case signature.FormatLZ4:
		return lz4.NewReader(src), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("no decompressor for %s", format)
	}
}
