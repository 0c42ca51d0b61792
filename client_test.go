package binkit

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/binkit/internal/testutil"
	"github.com/meigma/binkit/signature"
	"github.com/meigma/binkit/sink"
	"github.com/meigma/binkit/source"
)

func newToolkit(t *testing.T, opts ...Option) *Toolkit {
	t.Helper()
	tk, err := New(opts...)
	require.NoError(t, err)
	return tk
}

func TestToolkit_Detect(t *testing.T) {
	t.Parallel()

	tk := newToolkit(t)
	png := append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 32)...)

	sig, err := tk.Detect(source.Bytes("image", png), "application/octet-stream")
	require.NoError(t, err)
	assert.Equal(t, "PNG", sig.Label)
	assert.Equal(t, "image", sig.Category)

	sig, err = tk.Detect(source.Bytes("notes", []byte("plain words")), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "text", sig.Category)
}

func TestToolkit_HashAndVerify(t *testing.T) {
	t.Parallel()

	data := testutil.RandomBytes(1, 10_000)
	ref := source.Bytes("data", data)

	var small, large Digest
	for _, chunk := range []int{1, 333, 1 << 20} {
		tk := newToolkit(t, WithChunkSize(chunk))
		d, err := tk.Hash(context.Background(), ref)
		require.NoError(t, err)
		if chunk == 1 {
			small = d
		}
		large = d
	}
	assert.True(t, small.Equal(large), "digest must not depend on chunk size")

	tk := newToolkit(t)
	require.NoError(t, tk.Verify(context.Background(), ref, large))

	flipped := bytes.Clone(data)
	flipped[5000] ^= 0x01
	err := tk.Verify(context.Background(), source.Bytes("flipped", flipped), large)
	assert.ErrorIs(t, err, ErrDigestMismatch)
}

func TestToolkit_HashMissingFile(t *testing.T) {
	t.Parallel()

	tk := newToolkit(t)
	path := filepath.Join(t.TempDir(), "a.bin")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	ref, err := source.File(path)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	_, err = tk.Hash(context.Background(), ref)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "InvalidInput", KindOf(err))
}

func TestToolkit_GroupAndCompare(t *testing.T) {
	t.Parallel()

	a := testutil.RandomBytes(2, 4096)
	b := testutil.RandomBytes(3, 4096)
	refs := []Ref{
		source.Bytes("A", a),
		source.Bytes("A_copy", bytes.Clone(a)),
		source.Bytes("B", b),
	}

	tk := newToolkit(t, WithWorkers(2))
	groups, err := tk.Group(context.Background(), refs)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "A", groups[0].Original().Name())
	require.Len(t, groups[0].Duplicates(), 1)
	assert.Equal(t, "A_copy", groups[0].Duplicates()[0].Name())

	cmp, err := tk.Compare(context.Background(), refs[0], refs[2])
	require.NoError(t, err)
	assert.False(t, cmp.Identical)
}

func TestToolkit_SplitMerge(t *testing.T) {
	t.Parallel()

	data := testutil.RandomBytes(4, 5000)
	var (
		mu     sync.Mutex
		stages = map[ProgressStage]bool{}
	)
	tk := newToolkit(t, WithProgress(func(ev ProgressEvent) {
		mu.Lock()
		stages[ev.Stage] = true
		mu.Unlock()
	}))

	mem := sink.NewMemorySink()
	parts, err := tk.Split(context.Background(), source.Bytes("blob", data), 2048, mem)
	require.NoError(t, err)
	require.Len(t, parts, 3)
	assert.Equal(t, int64(904), parts[2].Size)

	refs := make([]Ref, 0, len(parts))
	for _, p := range parts {
		content, ok := mem.Get(p.Name)
		require.True(t, ok)
		refs = append(refs, source.Bytes(p.Name, content))
	}

	var out bytes.Buffer
	n, err := tk.Merge(context.Background(), &out, refs)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)
	assert.Equal(t, data, out.Bytes())

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, stages[StageSplitting])
	assert.True(t, stages[StageMerging])
}

func TestToolkit_Extract(t *testing.T) {
	t.Parallel()

	tarball := bytes.Join([][]byte{
		testutil.TarFile("dir/a.txt", []byte("alpha")),
		testutil.TarEnd(),
	}, nil)

	tk := newToolkit(t)
	entries, err := tk.Extract(context.Background(), source.Bytes("upload.tar", tarball), "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "dir/a.txt", entries[0].Name)

	route, err := tk.Route(source.Bytes("upload.tar", tarball), "")
	require.NoError(t, err)
	assert.Equal(t, signature.RouteTar, route.Kind)

	_, err = tk.Extract(context.Background(), source.Bytes("doc.rar", []byte("Rar!\x1a\x07\x01\x00rest")), "")
	var unsupported *UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "unrar", unsupported.Tool)
}

func TestToolkit_ExtractSizeLimit(t *testing.T) {
	t.Parallel()

	tk := newToolkit(t, WithMaxArchiveSize(1024))
	data := make([]byte, 4096)

	_, err := tk.Extract(context.Background(), source.Bytes("big.tar", data), "")
	assert.ErrorIs(t, err, ErrSizeOverflow)

	unknown := source.Reader("stream.tar", -1, source.Bytes("", data).Open)
	_, err = tk.Extract(context.Background(), unknown, "")
	assert.ErrorIs(t, err, ErrSizeOverflow)
}

func TestToolkit_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tk := newToolkit(t)
	ref := source.Bytes("data", testutil.RandomBytes(9, 100))

	_, err := tk.Hash(ctx, ref)
	assert.ErrorIs(t, err, ErrAborted)
	_, err = tk.Group(ctx, []Ref{ref, ref})
	assert.ErrorIs(t, err, ErrAborted)
	_, err = tk.Merge(ctx, &bytes.Buffer{}, []Ref{ref})
	assert.ErrorIs(t, err, ErrAborted)
}
