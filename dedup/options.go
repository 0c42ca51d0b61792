package dedup

import (
	"log/slog"

	"github.com/meigma/binkit/hashing"
	"github.com/meigma/binkit/internal/bintype"
)

// Option configures a Grouper.
type Option func(*Grouper)

// WithAlgorithm sets the digest algorithm used for every file of a call
// (default: SHA-256).
func WithAlgorithm(alg hashing.Algorithm) Option {
	return func(g *Grouper) {
		g.algorithm = alg
	}
}

// WithChunkSize sets the per-file hashing chunk size.
func WithChunkSize(n int) Option {
	return func(g *Grouper) {
		g.chunkSize = n
	}
}

// WithWorkers sets the number of files hashed concurrently.
// Values < 0 force serial processing. Zero uses GOMAXPROCS.
// Values > 0 force a specific worker count.
func WithWorkers(n int) Option {
	return func(g *Grouper) {
		g.workers = n
	}
}

// WithLogger sets the logger for debug output.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Grouper) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithProgress registers a callback for per-chunk hashing progress and
// per-file completion. It may be called concurrently.
func WithProgress(fn bintype.ProgressFunc) Option {
	return func(g *Grouper) {
		g.progress = fn
	}
}
