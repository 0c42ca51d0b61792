package binkit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/binkit/internal/bintype"
	"github.com/meigma/binkit/internal/pathutil"
)

// CopyOption configures ExtractTo and WriteEntries.
type CopyOption func(*copyConfig)

type copyConfig struct {
	workers int
	filter  func(name string) bool
}

// CopyWithWorkers sets the number of entries written concurrently.
// Values < 0 force serial writes. Zero uses GOMAXPROCS.
func CopyWithWorkers(n int) CopyOption {
	return func(c *copyConfig) {
		c.workers = n
	}
}

// CopyWithFilter writes only entries whose cleaned name satisfies keep.
func CopyWithFilter(keep func(name string) bool) CopyOption {
	return func(c *copyConfig) {
		c.filter = keep
	}
}

// CopyStats summarizes a copy.
type CopyStats struct {
	// Files is the number of file entries committed to the sink.
	Files int
	// Bytes is the total content size of committed files.
	Bytes uint64
	// Skipped counts directories, unsupported entries and filtered files.
	Skipped int
}

// ExtractTo decodes ref as an archive and writes its file entries to dst.
//
// Directory and unsupported entries are not written; a FileSink creates
// parent directories on demand. Entry names are cleaned, and a name that
// escapes the destination fails the copy with ErrInvalidInput.
func (t *Toolkit) ExtractTo(ctx context.Context, ref Ref, dst Sink, opts ...CopyOption) (CopyStats, error) {
	entries, err := t.Extract(ctx, ref, "")
	if err != nil {
		return CopyStats{}, err
	}
	return t.WriteEntries(ctx, entries, dst, opts...)
}

// WriteEntries commits the file entries to dst.
func (t *Toolkit) WriteEntries(ctx context.Context, entries []Entry, dst Sink, opts ...CopyOption) (CopyStats, error) {
	if dst == nil {
		return CopyStats{}, fmt.Errorf("%w: nil sink", bintype.ErrInvalidInput)
	}
	cfg := copyConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	type job struct {
		entry *Entry
		name  string
	}
	var stats CopyStats
	work := make([]job, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		if !e.IsFile() {
			stats.Skipped++
			continue
		}
		name, err := entryPath(e.Name)
		if err != nil {
			return CopyStats{}, err
		}
		if cfg.filter != nil && !cfg.filter(name) {
			stats.Skipped++
			continue
		}
		work = append(work, job{entry: e, name: name})
	}
	if len(work) == 0 {
		return stats, nil
	}

	workers := cfg.workers
	switch {
	case workers < 0:
		workers = 1
	case workers == 0:
		workers = runtime.GOMAXPROCS(0)
	}

	var (
		files atomic.Int64
		total atomic.Uint64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, w := range work {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := writeEntry(dst, w.name, w.entry.Content); err != nil {
				return err
			}
			done := files.Add(1)
			total.Add(uint64(len(w.entry.Content)))
			t.logger.Debug("wrote entry", slog.String("name", w.name), slog.Int("size", len(w.entry.Content)))
			if t.progress != nil {
				t.progress(ProgressEvent{
					Stage:      StageExtracting,
					Name:       w.name,
					FilesDone:  int(done),
					FilesTotal: len(work),
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return CopyStats{}, bintype.Aborted(ctxErr)
		}
		return CopyStats{}, err
	}
	stats.Files = int(files.Load())
	stats.Bytes = total.Load()
	return stats, nil
}

func writeEntry(dst Sink, name string, content []byte) (err error) {
	w, err := dst.Writer(name)
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	defer func() {
		if err != nil {
			_ = w.Discard() //nolint:errcheck // best-effort cleanup
		}
	}()
	if _, err = io.Copy(w, bytes.NewReader(content)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err = w.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", name, err)
	}
	return nil
}

// entryPath cleans an archive member name into a relative slash path.
func entryPath(name string) (string, error) {
	clean, ok := pathutil.Clean(name)
	if !ok {
		return "", fmt.Errorf("%w: unsafe entry name %q", bintype.ErrInvalidInput, name)
	}
	return clean, nil
}
