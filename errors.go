package binkit

import "github.com/meigma/binkit/internal/bintype"

// Error kinds re-exported from internal/bintype.
var (
	// ErrInvalidInput is returned for missing or empty input and bad parameters.
	ErrInvalidInput = bintype.ErrInvalidInput

	// ErrCorruptArchive is returned when an archive cannot be parsed.
	ErrCorruptArchive = bintype.ErrCorruptArchive

	// ErrUnsupportedFormat is returned when no in-process decoder exists.
	ErrUnsupportedFormat = bintype.ErrUnsupportedFormat

	// ErrSourceRead is returned when a byte source fails mid-read.
	ErrSourceRead = bintype.ErrSourceRead

	// ErrAborted is returned when the context is cancelled.
	ErrAborted = bintype.ErrAborted
)

// Refinements of ErrInvalidInput.
var (
	ErrInvalidChunkSize = bintype.ErrInvalidChunkSize
	ErrSizeOverflow     = bintype.ErrSizeOverflow
	ErrDigestMismatch   = bintype.ErrDigestMismatch
)

// Structured error types.
type (
	// SourceReadError carries the source name and failing offset.
	SourceReadError = bintype.SourceReadError

	// CorruptArchiveError carries the format, offset and entries decoded
	// before the failure.
	CorruptArchiveError = bintype.CorruptArchiveError

	// UnsupportedFormatError names the external tool that would be needed.
	UnsupportedFormatError = bintype.UnsupportedFormatError
)

// KindOf returns the name of the error kind err belongs to.
var KindOf = bintype.KindOf
