package bintype

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"invalid input", ErrInvalidInput, "InvalidInput"},
		{"chunk size refines invalid input", ErrInvalidChunkSize, "InvalidInput"},
		{"source read", &SourceReadError{Offset: 10, Err: io.ErrUnexpectedEOF}, "SourceReadError"},
		{"corrupt", &CorruptArchiveError{Format: "TAR", Reason: "bad size"}, "CorruptArchive"},
		{"unsupported", &UnsupportedFormatError{Format: "RAR", Tool: "unrar"}, "UnsupportedFormat"},
		{"aborted", Aborted(context.Canceled), "Aborted"},
		{"wrapped", fmt.Errorf("hash a.bin: %w", &SourceReadError{Err: io.EOF}), "SourceReadError"},
		{"foreign", errors.New("boom"), ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestSourceReadErrorUnwrap(t *testing.T) {
	t.Parallel()

	err := &SourceReadError{Name: "a.bin", Offset: 4096, Err: io.ErrUnexpectedEOF}
	assert.ErrorIs(t, err, ErrSourceRead)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "offset 4096")

	var sre *SourceReadError
	assert.True(t, errors.As(fmt.Errorf("wrap: %w", err), &sre))
	assert.Equal(t, int64(4096), sre.Offset)
}

func TestAborted(t *testing.T) {
	t.Parallel()

	err := Aborted(context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrAborted)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other := errors.New("boom")
	assert.Same(t, other, Aborted(other))
	assert.NoError(t, Aborted(nil))
}

func TestUnsupportedFormatMessage(t *testing.T) {
	t.Parallel()

	err := &UnsupportedFormatError{Format: "RAR", Tool: "unrar"}
	assert.Equal(t, "binkit: unsupported format: RAR; requires unrar", err.Error())
}
