package binkit

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/meigma/binkit/hashing"
	"github.com/meigma/binkit/signature"
	"github.com/meigma/binkit/source"
)

// InspectResult describes one file: what it is and what it hashes to.
type InspectResult struct {
	// Name is the source name.
	Name string

	// Size is the number of bytes read.
	Size int64

	// Signature is the detection verdict for the leading bytes.
	Signature Signature

	// Digest is the content digest under the toolkit's algorithm.
	Digest Digest
}

// IsArchive reports whether the leading bytes identify an archive or
// compressed stream.
func (r *InspectResult) IsArchive() bool {
	return r.Signature.Format != signature.FormatNone
}

// Inspect detects and hashes ref in a single read.
func (t *Toolkit) Inspect(ctx context.Context, ref Ref, declaredMIME string) (*InspectResult, error) {
	rc, err := source.Open(ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	sig, head, err := signature.DetectReader(rc, declaredMIME)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", ref.Name(), nameSourceError(ref.Name(), err))
	}

	counter := &countingReader{r: io.MultiReader(bytes.NewReader(head), rc)}
	d, err := hashing.Hash(ctx, counter, t.algorithm, t.hashOptions(ref)...)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", ref.Name(), nameSourceError(ref.Name(), err))
	}
	return &InspectResult{
		Name:      ref.Name(),
		Size:      counter.n,
		Signature: sig,
		Digest:    d,
	}, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
