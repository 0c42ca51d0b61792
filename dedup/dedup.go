// Package dedup finds byte-identical files by content digest.
//
// Files are grouped by exact digest equality under a single algorithm per
// call. Equality is trusted up to the collision probability of that
// algorithm; no secondary byte comparison is made.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/binkit/hashing"
	"github.com/meigma/binkit/internal/bintype"
	"github.com/meigma/binkit/source"
)

// Group is a set of files sharing one digest.
type Group struct {
	Digest hashing.Digest

	// Members are in input order and number at least two.
	Members []source.Ref
}

// Original returns the first member by input order.
func (g Group) Original() source.Ref {
	return g.Members[0]
}

// Duplicates returns every member after the original.
func (g Group) Duplicates() []source.Ref {
	return g.Members[1:]
}

// Comparison is the result of Compare.
type Comparison struct {
	Identical bool

	// SizeMismatch is set when the sizes differed and nothing was hashed.
	SizeMismatch bool

	// DigestA and DigestB are set when both files were hashed.
	DigestA hashing.Digest
	DigestB hashing.Digest
}

// Grouper computes duplicate groups.
type Grouper struct {
	algorithm hashing.Algorithm
	chunkSize int
	workers   int
	logger    *slog.Logger
	progress  bintype.ProgressFunc
}

// New creates a Grouper.
func New(opts ...Option) *Grouper {
	g := &Grouper{
		algorithm: hashing.SHA256,
		chunkSize: hashing.DefaultChunkSize,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Group hashes refs and returns one Group per digest shared by two or more
// of them. Groups are ordered by the input position of their original.
//
// When every size is known, files whose size is unique within refs cannot
// have a duplicate and are not hashed. The first failure cancels outstanding work and is
// returned; no partial groups are returned on error.
func (g *Grouper) Group(ctx context.Context, refs []source.Ref) ([]Group, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: no files to group", bintype.ErrInvalidInput)
	}
	for i, ref := range refs {
		if ref == nil {
			return nil, fmt.Errorf("%w: nil file at position %d", bintype.ErrInvalidInput, i)
		}
	}
	if !g.algorithm.Valid() {
		return nil, fmt.Errorf("%w: unknown hash algorithm %s", bintype.ErrInvalidInput, g.algorithm)
	}
	if err := ctx.Err(); err != nil {
		return nil, bintype.Aborted(err)
	}

	candidates := sizeCandidates(refs)
	g.logger.Debug("grouping files",
		slog.Int("files", len(refs)),
		slog.Int("candidates", len(candidates)),
		slog.String("algorithm", g.algorithm.String()))

	digests, err := g.hashAll(ctx, refs, candidates)
	if err != nil {
		return nil, err
	}
	return bucket(refs, candidates, digests), nil
}

// hashAll computes digests for refs[candidates[i]] into digests[i].
func (g *Grouper) hashAll(ctx context.Context, refs []source.Ref, candidates []int) ([]hashing.Digest, error) {
	digests := make([]hashing.Digest, len(candidates))
	if len(candidates) == 0 {
		return digests, nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workerCount(len(candidates)))

	var done atomic.Int32
	for i, idx := range candidates {
		eg.Go(func() error {
			d, err := g.hashRef(egCtx, refs[idx])
			if err != nil {
				return err
			}
			digests[i] = d
			g.reportFile(refs[idx].Name(), int(done.Add(1)), len(candidates))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, bintype.Aborted(ctxErr)
		}
		return nil, err
	}
	return digests, nil
}

func (g *Grouper) hashRef(ctx context.Context, ref source.Ref) (hashing.Digest, error) {
	rc, err := source.Open(ref)
	if err != nil {
		return hashing.Digest{}, err
	}
	defer rc.Close()

	opts := []hashing.Option{
		hashing.WithChunkSize(g.chunkSize),
		hashing.WithName(ref.Name()),
		hashing.WithProgress(g.progress),
	}
	if size, ok := ref.Size(); ok {
		opts = append(opts, hashing.WithSizeHint(size))
	}
	d, err := hashing.Hash(ctx, rc, g.algorithm, opts...)
	if err != nil {
		if !errors.Is(err, bintype.ErrAborted) {
			g.logger.Debug("hash failed", slog.String("file", ref.Name()), slog.Any("error", err))
		}
		return hashing.Digest{}, fmt.Errorf("hash %s: %w", ref.Name(), err)
	}
	g.logger.Debug("hashed file", slog.String("file", ref.Name()), slog.String("digest", d.String()))
	return d, nil
}

func (g *Grouper) reportFile(name string, done, total int) {
	if g.progress == nil {
		return
	}
	g.progress(bintype.ProgressEvent{
		Stage:      bintype.StageHashing,
		Name:       name,
		FilesDone:  done,
		FilesTotal: total,
	})
}

func (g *Grouper) workerCount(n int) int {
	if g.workers < 0 {
		return 1
	}
	workers := g.workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return max(1, min(workers, n))
}

// sizeCandidates returns the indices of refs that might have a duplicate.
// A ref of unknown size may match any other, so its presence makes every ref
// a candidate; otherwise only sizes occurring more than once qualify.
func sizeCandidates(refs []source.Ref) []int {
	counts := make(map[int64]int, len(refs))
	unknown := false
	for _, ref := range refs {
		size, ok := ref.Size()
		if !ok {
			unknown = true
			continue
		}
		counts[size]++
	}
	candidates := make([]int, 0, len(refs))
	for i, ref := range refs {
		size, ok := ref.Size()
		if unknown || !ok || counts[size] > 1 {
			candidates = append(candidates, i)
		}
	}
	return candidates
}

// bucket maps digests to input indices and keeps buckets of two or more.
// Candidates are in input order, so buckets are first seen in the order of
// their original. The map never escapes this function.
func bucket(refs []source.Ref, candidates []int, digests []hashing.Digest) []Group {
	buckets := make(map[hashing.Digest][]int)
	var order []hashing.Digest
	for i, idx := range candidates {
		d := digests[i]
		if _, seen := buckets[d]; !seen {
			order = append(order, d)
		}
		buckets[d] = append(buckets[d], idx)
	}

	var groups []Group
	for _, d := range order {
		indices := buckets[d]
		if len(indices) < 2 {
			continue
		}
		members := make([]source.Ref, len(indices))
		for j, idx := range indices {
			members[j] = refs[idx]
		}
		groups = append(groups, Group{Digest: d, Members: members})
	}
	return groups
}

// Compare reports whether a and b have identical content. When both sizes
// are known and differ, neither file is opened.
func (g *Grouper) Compare(ctx context.Context, a, b source.Ref) (Comparison, error) {
	if a == nil || b == nil {
		return Comparison{}, fmt.Errorf("%w: compare needs two files", bintype.ErrInvalidInput)
	}
	sizeA, okA := a.Size()
	sizeB, okB := b.Size()
	if okA && okB && sizeA != sizeB {
		g.logger.Debug("sizes differ, skipping hash",
			slog.String("a", a.Name()), slog.Int64("size_a", sizeA),
			slog.String("b", b.Name()), slog.Int64("size_b", sizeB))
		return Comparison{SizeMismatch: true}, nil
	}

	refs := []source.Ref{a, b}
	digests, err := g.hashAll(ctx, refs, []int{0, 1})
	if err != nil {
		return Comparison{}, err
	}
	return Comparison{
		Identical: digests[0].Equal(digests[1]),
		DigestA:   digests[0],
		DigestB:   digests[1],
	}, nil
}
