package archive

import (
	"log/slog"

	"github.com/meigma/binkit/tarball"
)

// Option configures an Extractor.
type Option func(*Extractor)

// WithZipCodec sets the ZIP collaborator. Passing nil disables ZIP support;
// ZIP input then fails with ErrUnsupportedFormat.
func WithZipCodec(codec Codec) Option {
	return func(e *Extractor) {
		e.zip = codec
		e.zipSet = true
	}
}

// WithMaxSize limits both the input buffer and any decompressed TAR payload.
// Set to 0 to disable the limit.
func WithMaxSize(limit uint64) Option {
	return func(e *Extractor) {
		e.maxSize = limit
	}
}

// WithTarOptions passes options to the TAR decoder.
func WithTarOptions(opts ...tarball.Option) Option {
	return func(e *Extractor) {
		e.tarOpts = append(e.tarOpts, opts...)
	}
}

// WithLogger sets the logger for debug output.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}
