package binkit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/meigma/binkit/archive"
	"github.com/meigma/binkit/dedup"
	"github.com/meigma/binkit/hashing"
	"github.com/meigma/binkit/internal/bintype"
	"github.com/meigma/binkit/internal/sizing"
	"github.com/meigma/binkit/signature"
	"github.com/meigma/binkit/source"
	"github.com/meigma/binkit/splice"
	"github.com/meigma/binkit/tarball"
)

// Toolkit bundles the inspection and archive operations under one
// configuration.
//
// A Toolkit holds no per-call state and is safe for concurrent use.
type Toolkit struct {
	algorithm      hashing.Algorithm
	chunkSize      int
	workers        int
	maxArchiveSize uint64
	verifyTar      bool
	zipCodec       archive.Codec
	zipCodecSet    bool
	logger         *slog.Logger
	progress       ProgressFunc

	extractor *archive.Extractor
}

// New creates a Toolkit with the given options.
func New(opts ...Option) (*Toolkit, error) {
	t := &Toolkit{
		algorithm:      hashing.SHA256,
		chunkSize:      hashing.DefaultChunkSize,
		maxArchiveSize: archive.DefaultMaxSize,
		logger:         slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}

	extractOpts := []archive.Option{
		archive.WithLogger(t.logger),
		archive.WithMaxSize(t.maxArchiveSize),
		archive.WithTarOptions(
			tarball.WithVerifyChecksum(t.verifyTar),
			tarball.WithProgress(t.progress),
		),
	}
	if t.zipCodecSet {
		extractOpts = append(extractOpts, archive.WithZipCodec(t.zipCodec))
	}
	t.extractor = archive.New(extractOpts...)
	return t, nil
}

// Algorithm returns the configured hash algorithm.
func (t *Toolkit) Algorithm() Algorithm {
	return t.algorithm
}

// Detect classifies ref by its leading bytes. declaredMIME is used only
// when no signature matches.
func (t *Toolkit) Detect(ref Ref, declaredMIME string) (Signature, error) {
	rc, err := source.Open(ref)
	if err != nil {
		return Signature{}, err
	}
	defer rc.Close()

	res, _, err := signature.DetectReader(rc, declaredMIME)
	if err != nil {
		return Signature{}, nameSourceError(ref.Name(), err)
	}
	return res, nil
}

// Hash computes the digest of ref with the configured algorithm.
func (t *Toolkit) Hash(ctx context.Context, ref Ref) (Digest, error) {
	rc, err := source.Open(ref)
	if err != nil {
		return Digest{}, err
	}
	defer rc.Close()

	d, err := hashing.Hash(ctx, rc, t.algorithm, t.hashOptions(ref)...)
	if err != nil {
		return Digest{}, fmt.Errorf("hash %s: %w", ref.Name(), nameSourceError(ref.Name(), err))
	}
	return d, nil
}

// Verify checks that ref hashes to want. The algorithm is taken from want.
func (t *Toolkit) Verify(ctx context.Context, ref Ref, want Digest) error {
	rc, err := source.Open(ref)
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := hashing.Verify(ctx, rc, want, t.hashOptions(ref)...); err != nil {
		return fmt.Errorf("verify %s: %w", ref.Name(), nameSourceError(ref.Name(), err))
	}
	return nil
}

func (t *Toolkit) hashOptions(ref Ref) []hashing.Option {
	opts := []hashing.Option{
		hashing.WithChunkSize(t.chunkSize),
		hashing.WithName(ref.Name()),
		hashing.WithProgress(t.progress),
	}
	if size, ok := ref.Size(); ok {
		opts = append(opts, hashing.WithSizeHint(size))
	}
	return opts
}

func (t *Toolkit) grouper() *dedup.Grouper {
	return dedup.New(
		dedup.WithAlgorithm(t.algorithm),
		dedup.WithChunkSize(t.chunkSize),
		dedup.WithWorkers(t.workers),
		dedup.WithLogger(t.logger),
		dedup.WithProgress(t.progress),
	)
}

// Group returns the sets of byte-identical files among refs, ordered by
// the position of each set's first member.
func (t *Toolkit) Group(ctx context.Context, refs []Ref) ([]Group, error) {
	return t.grouper().Group(ctx, refs)
}

// Compare reports whether a and b have identical content.
func (t *Toolkit) Compare(ctx context.Context, a, b Ref) (Comparison, error) {
	return t.grouper().Compare(ctx, a, b)
}

// Merge concatenates refs, in order, into w.
func (t *Toolkit) Merge(ctx context.Context, w io.Writer, refs []Ref) (int64, error) {
	return splice.Merge(ctx, w, refs, t.spliceOptions()...)
}

// Split cuts ref into parts of chunkSize bytes written to dst. On error the
// parts already committed to dst are returned with the error.
func (t *Toolkit) Split(ctx context.Context, ref Ref, chunkSize int64, dst Sink) ([]Part, error) {
	rc, err := source.Open(ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	parts, err := splice.Split(ctx, rc, chunkSize, dst, t.spliceOptions()...)
	if err != nil {
		return parts, fmt.Errorf("split %s: %w", ref.Name(), nameSourceError(ref.Name(), err))
	}
	return parts, nil
}

func (t *Toolkit) spliceOptions() []splice.Option {
	return []splice.Option{
		splice.WithLogger(t.logger),
		splice.WithProgress(t.progress),
	}
}

// Extract reads ref into memory and decodes it as an archive.
func (t *Toolkit) Extract(ctx context.Context, ref Ref, declaredMIME string) ([]Entry, error) {
	buf, err := t.readArchive(ref)
	if err != nil {
		return nil, err
	}
	entries, err := t.extractor.Extract(ctx, buf, ref.Name(), declaredMIME)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", ref.Name(), err)
	}
	return entries, nil
}

// Bundle packs entries into a single ZIP archive.
func (t *Toolkit) Bundle(ctx context.Context, entries []Entry) ([]byte, error) {
	return t.extractor.Bundle(ctx, entries)
}

// Route returns the routing decision for ref without decoding it.
func (t *Toolkit) Route(ref Ref, declaredMIME string) (signature.Routing, error) {
	buf, err := t.readArchive(ref)
	if err != nil {
		return signature.Routing{}, err
	}
	route, _ := t.extractor.Plan(buf, ref.Name(), declaredMIME)
	return route, nil
}

func (t *Toolkit) readArchive(ref Ref) ([]byte, error) {
	if size, ok := ref.Size(); ok && t.maxArchiveSize > 0 && uint64(size) > t.maxArchiveSize { //nolint:gosec // size from a Ref is non-negative
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", bintype.ErrSizeOverflow, ref.Name(), size, t.maxArchiveSize)
	}
	rc, err := source.Open(ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	limit := t.maxArchiveSize
	if limit == 0 {
		limit = archive.DefaultMaxSize
	}
	buf, err := sizing.ReadAllWithLimit(rc, limit, bintype.ErrSizeOverflow)
	if err != nil {
		if errors.Is(err, bintype.ErrSizeOverflow) {
			return nil, fmt.Errorf("read %s: %w", ref.Name(), err)
		}
		return nil, &bintype.SourceReadError{Name: ref.Name(), Err: err}
	}
	return buf, nil
}

// nameSourceError fills in the source name on read errors that lack one.
func nameSourceError(name string, err error) error {
	var sre *bintype.SourceReadError
	if errors.As(err, &sre) && sre.Name == "" {
		sre.Name = name
	}
	return err
}
