package bintype

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for toolkit operations. Every failure returned by a
// toolkit package matches exactly one of the five kinds below.
var (
	// ErrInvalidInput is returned for missing or empty input and bad parameters.
	ErrInvalidInput = errors.New("binkit: invalid input")

	// ErrCorruptArchive is returned when an archive header or layout cannot be parsed.
	ErrCorruptArchive = errors.New("binkit: corrupt archive")

	// ErrUnsupportedFormat is returned when no in-process decoder exists for the input.
	ErrUnsupportedFormat = errors.New("binkit: unsupported format")

	// ErrSourceRead is returned when reading a byte source fails mid-stream.
	ErrSourceRead = errors.New("binkit: source read failed")

	// ErrAborted is returned when the caller cancels an operation.
	ErrAborted = errors.New("binkit: aborted")
)

// Refinements of the kinds above.
var (
	// ErrInvalidChunkSize is returned when a chunk size is below the supported minimum.
	ErrInvalidChunkSize = fmt.Errorf("%w: chunk size too small", ErrInvalidInput)

	// ErrSizeOverflow is returned when a size exceeds a configured limit or int range.
	ErrSizeOverflow = fmt.Errorf("%w: size overflow", ErrInvalidInput)

	// ErrDigestMismatch is returned when content does not hash to the expected digest.
	ErrDigestMismatch = fmt.Errorf("%w: digest mismatch", ErrInvalidInput)
)

// SourceReadError reports a read failure and the offset where it happened.
type SourceReadError struct {
	// Name identifies the source, if known.
	Name string
	// Offset is the number of bytes consumed before the failing read.
	Offset int64
	Err    error
}

func (e *SourceReadError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%v: %s at offset %d: %v", ErrSourceRead, e.Name, e.Offset, e.Err)
	}
	return fmt.Sprintf("%v: at offset %d: %v", ErrSourceRead, e.Offset, e.Err)
}

func (e *SourceReadError) Unwrap() error { return e.Err }

// Is reports ErrSourceRead as a match.
func (e *SourceReadError) Is(target error) bool { return target == ErrSourceRead }

// CorruptArchiveError reports an unparsable archive.
//
// Partial holds entries decoded before the failure. They are incomplete by
// definition and are attached for diagnostics only.
type CorruptArchiveError struct {
	Format  string
	Offset  int64
	Reason  string
	Partial []Entry
	Err     error
}

func (e *CorruptArchiveError) Error() string {
	msg := fmt.Sprintf("%v: %s at offset %d: %s", ErrCorruptArchive, e.Format, e.Offset, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CorruptArchiveError) Unwrap() error { return e.Err }

// Is reports ErrCorruptArchive as a match.
func (e *CorruptArchiveError) Is(target error) bool { return target == ErrCorruptArchive }

// UnsupportedFormatError names a detected format with no in-process decoder
// and, when one exists, the external tool that can handle it.
type UnsupportedFormatError struct {
	Format string
	Tool   string
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	msg := fmt.Sprintf("%v: %s", ErrUnsupportedFormat, e.Format)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if e.Tool != "" {
		msg += "; requires " + e.Tool
	}
	return msg
}

// Is reports ErrUnsupportedFormat as a match.
func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

// Aborted wraps a context error as ErrAborted. Non-context errors pass through.
func Aborted(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrAborted) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrAborted, err)
	}
	return err
}

// KindOf returns the name of the error kind err belongs to, or "" if err
// is nil or not a toolkit error.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAborted):
		return "Aborted"
	case errors.Is(err, ErrCorruptArchive):
		return "CorruptArchive"
	case errors.Is(err, ErrUnsupportedFormat):
		return "UnsupportedFormat"
	case errors.Is(err, ErrSourceRead):
		return "SourceReadError"
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	default:
		return ""
	}
}
