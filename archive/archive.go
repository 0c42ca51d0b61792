// Package archive turns an uploaded archive into a flat list of entries.
//
// The Extractor inspects the leading bytes once, converts the verdict into a
// signature.Routing, and dispatches on it exactly once: ZIP goes to the codec
// collaborator, TAR (optionally gzip, zstd or LZ4 compressed) goes to the
// in-process decoder, and everything else fails with ErrUnsupportedFormat.
// A decoder failure is final; the Extractor never retries the input as a
// different format.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/meigma/binkit/archive/zipcodec"
	"github.com/meigma/binkit/internal/bintype"
	"github.com/meigma/binkit/signature"
	"github.com/meigma/binkit/tarball"
)

// DefaultMaxSize is the default input and decompressed payload limit (512MB).
const DefaultMaxSize = 512 << 20

// Codec is an external archive codec. Implementations own the format; the
// Extractor only consumes their entries or their failure.
type Codec interface {
	Decode(ctx context.Context, data []byte) ([]bintype.Entry, error)
	Encode(ctx context.Context, entries []bintype.Entry) ([]byte, error)
}

// Extractor dispatches archives to the right decoder.
type Extractor struct {
	zip     Codec
	zipSet  bool
	maxSize uint64
	tarOpts []tarball.Option
	logger  *slog.Logger
}

// New creates an Extractor. Without WithZipCodec the klauspost-backed
// zipcodec is used.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		maxSize: DefaultMaxSize,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	if !e.zipSet {
		e.zip = zipcodec.New()
	}
	return e
}

// Plan returns the routing decision for buf without decoding it.
func (e *Extractor) Plan(buf []byte, declaredName, declaredMIME string) (signature.Routing, signature.Result) {
	res := signature.Detect(buf, declaredMIME)
	route := signature.Route(res, declaredName, declaredMIME, func() bool {
		return tarball.LooksLikeTar(buf)
	})
	return route, res
}

// Extract decodes buf into entries.
//
// Errors match exactly one of ErrInvalidInput, ErrCorruptArchive,
// ErrUnsupportedFormat or ErrAborted.
func (e *Extractor) Extract(ctx context.Context, buf []byte, declaredName, declaredMIME string) ([]bintype.Entry, error) {
	if len(buf) == 0 {
		return nil, fmt.Errorf("%w: empty archive %q", bintype.ErrInvalidInput, declaredName)
	}
	if e.maxSize > 0 && uint64(len(buf)) > e.maxSize {
		return nil, fmt.Errorf("%w: archive %q is %d bytes, limit %d", bintype.ErrSizeOverflow, declaredName, len(buf), e.maxSize)
	}
	if err := ctx.Err(); err != nil {
		return nil, bintype.Aborted(err)
	}

	route, res := e.Plan(buf, declaredName, declaredMIME)
	e.logger.Debug("routing archive",
		slog.String("name", declaredName),
		slog.String("detected", res.Label),
		slog.String("route", route.Kind.String()),
		slog.String("compression", route.Compression.String()))

	var (
		entries []bintype.Entry
		err     error
	)
	switch route.Kind {
	case signature.RouteZip:
		entries, err = e.extractZip(ctx, buf)
	case signature.RouteTar:
		entries, err = e.extractTar(ctx, buf, route)
	default:
		err = &bintype.UnsupportedFormatError{Format: route.Format, Tool: route.Tool, Reason: route.Reason}
	}
	if err != nil {
		e.logger.Debug("extract failed",
			slog.String("name", declaredName),
			slog.String("kind", bintype.KindOf(err)),
			slog.Any("error", err))
		return nil, err
	}
	e.logger.Debug("extracted archive", slog.String("name", declaredName), slog.Int("entries", len(entries)))
	return entries, nil
}

func (e *Extractor) extractZip(ctx context.Context, buf []byte) ([]bintype.Entry, error) {
	if e.zip == nil {
		return nil, &bintype.UnsupportedFormatError{Format: "ZIP", Tool: "zip codec", Reason: "no ZIP codec configured"}
	}
	entries, err := e.zip.Decode(ctx, buf)
	if err != nil {
		return nil, codecError(ctx, "ZIP", err)
	}
	return entries, nil
}

func (e *Extractor) extractTar(ctx context.Context, buf []byte, route signature.Routing) ([]bintype.Entry, error) {
	payload := buf
	if route.Compression != signature.FormatNone {
		var err error
		payload, err = e.decompress(buf, route.Compression)
		if err != nil {
			return nil, err
		}
		if !route.NameSuggestsTar && !tarball.LooksLikeTar(payload) {
			return nil, &bintype.UnsupportedFormatError{
				Format: route.Format,
				Reason: "compressed payload is not a tar archive",
			}
		}
	}
	return tarball.Decode(ctx, payload, e.tarOpts...)
}

// codecError maps a collaborator failure onto the toolkit's error kinds.
func codecError(ctx context.Context, format string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return bintype.Aborted(ctxErr)
	}
	switch {
	case errors.Is(err, bintype.ErrAborted),
		errors.Is(err, bintype.ErrInvalidInput),
		errors.Is(err, bintype.ErrCorruptArchive),
		errors.Is(err, bintype.ErrUnsupportedFormat):
		return err
	default:
		return &bintype.CorruptArchiveError{Format: format, Reason: "codec rejected archive", Err: err}
	}
}

// Bundle encodes the file and directory entries as one ZIP archive so a
// caller can deliver an extracted set as a single download.
func (e *Extractor) Bundle(ctx context.Context, entries []bintype.Entry) ([]byte, error) {
	if e.zip == nil {
		return nil, &bintype.UnsupportedFormatError{Format: "ZIP", Tool: "zip codec", Reason: "no ZIP codec configured"}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: nothing to bundle", bintype.ErrInvalidInput)
	}
	data, err := e.zip.Encode(ctx, entries)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, bintype.Aborted(ctxErr)
		}
		return nil, fmt.Errorf("%w: encode bundle: %w", bintype.ErrInvalidInput, err)
	}
	return data, nil
}
