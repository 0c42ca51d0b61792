package binkit

import (
	"fmt"
	"log/slog"

	"github.com/meigma/binkit/archive"
	"github.com/meigma/binkit/internal/bintype"
)

// Option configures a Toolkit.
type Option func(*Toolkit) error

// WithAlgorithm sets the hash algorithm used by Hash, Group and Compare.
// The default is SHA256.
func WithAlgorithm(alg Algorithm) Option {
	return func(t *Toolkit) error {
		if !alg.Valid() {
			return fmt.Errorf("%w: unknown hash algorithm %d", bintype.ErrInvalidInput, alg)
		}
		t.algorithm = alg
		return nil
	}
}

// WithChunkSize sets the read chunk size for hashing.
func WithChunkSize(n int) Option {
	return func(t *Toolkit) error {
		if n <= 0 {
			return fmt.Errorf("%w: chunk size %d", bintype.ErrInvalidChunkSize, n)
		}
		t.chunkSize = n
		return nil
	}
}

// WithWorkers sets how many files Group hashes concurrently.
// Zero uses GOMAXPROCS; a negative value hashes serially.
func WithWorkers(n int) Option {
	return func(t *Toolkit) error {
		t.workers = n
		return nil
	}
}

// WithMaxArchiveSize limits archive input and decompressed TAR payloads.
// Zero selects the default of 512MB.
func WithMaxArchiveSize(limit uint64) Option {
	return func(t *Toolkit) error {
		if limit == 0 {
			limit = archive.DefaultMaxSize
		}
		t.maxArchiveSize = limit
		return nil
	}
}

// WithVerifyTarChecksum enables TAR header checksum verification.
func WithVerifyTarChecksum(enabled bool) Option {
	return func(t *Toolkit) error {
		t.verifyTar = enabled
		return nil
	}
}

// WithZipCodec replaces the ZIP codec used by Extract and Bundle.
func WithZipCodec(codec archive.Codec) Option {
	return func(t *Toolkit) error {
		t.zipCodec = codec
		t.zipCodecSet = true
		return nil
	}
}

// WithLogger sets the logger for debug output.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Toolkit) error {
		if logger != nil {
			t.logger = logger
		}
		return nil
	}
}

// WithProgress registers a callback for progress events.
// The callback may be invoked from multiple goroutines.
func WithProgress(fn ProgressFunc) Option {
	return func(t *Toolkit) error {
		t.progress = fn
		return nil
	}
}
