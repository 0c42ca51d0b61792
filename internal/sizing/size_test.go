package sizing

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errOverflow = errors.New("overflow")

func TestRoundUp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n, block, want uint64
	}{
		{0, 512, 0},
		{1, 512, 512},
		{512, 512, 512},
		{513, 512, 1024},
		{1023, 512, 1024},
	}
	for _, tt := range tests {
		got, ok := RoundUp(tt.n, tt.block)
		require.True(t, ok)
		assert.Equal(t, tt.want, got, "RoundUp(%d, %d)", tt.n, tt.block)
	}

	_, ok := RoundUp(^uint64(0), 512)
	assert.False(t, ok)
}

func TestCeilDiv(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(0), CeilDiv(0, 1024))
	assert.Equal(t, int64(1), CeilDiv(1, 1024))
	assert.Equal(t, int64(1), CeilDiv(1024, 1024))
	assert.Equal(t, int64(2), CeilDiv(1025, 1024))
	assert.Equal(t, int64(9223372036854775807/2+1), CeilDiv(9223372036854775807, 2))
}

func TestReadAllWithLimit(t *testing.T) {
	t.Parallel()

	data, err := ReadAllWithLimit(bytes.NewReader([]byte("abcd")), 4, errOverflow)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), data)

	_, err = ReadAllWithLimit(bytes.NewReader([]byte("abcde")), 4, errOverflow)
	assert.ErrorIs(t, err, errOverflow)
}
