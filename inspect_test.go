package binkit

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/binkit/hashing"
	"github.com/meigma/binkit/internal/testutil"
	"github.com/meigma/binkit/source"
)

func TestInspect(t *testing.T) {
	t.Parallel()

	content := append([]byte("%PDF-1.7\n"), testutil.RandomBytes(11, 5000)...)
	tk, err := New(WithChunkSize(777))
	require.NoError(t, err)

	res, err := tk.Inspect(context.Background(), source.Bytes("doc.pdf", content), "text/plain")
	require.NoError(t, err)

	want, err := hashing.HashBytes(hashing.SHA256, content)
	require.NoError(t, err)

	assert.Equal(t, "doc.pdf", res.Name)
	assert.Equal(t, int64(len(content)), res.Size)
	assert.Equal(t, "PDF", res.Signature.Label)
	assert.True(t, res.Digest.Equal(want))
	assert.False(t, res.IsArchive())
}

func TestInspect_ShortFile(t *testing.T) {
	t.Parallel()

	tk, err := New()
	require.NoError(t, err)

	res, err := tk.Inspect(context.Background(), source.Bytes("tiny", []byte("hi")), "text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Size)
	assert.Equal(t, "text", res.Signature.Category)
}

func TestInspect_ReadFailure(t *testing.T) {
	t.Parallel()

	tk, err := New()
	require.NoError(t, err)

	data := testutil.RandomBytes(5, 4096)
	ref := source.Reader("flaky", int64(len(data)), func() (io.ReadCloser, error) {
		return &testutil.NopCloser{Reader: testutil.NewFailingReader(data, 2000)}, nil
	})
	_, err = tk.Inspect(context.Background(), ref, "")
	var sre *SourceReadError
	require.ErrorAs(t, err, &sre)
	assert.Equal(t, "flaky", sre.Name)
}
