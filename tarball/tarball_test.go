package tarball

import (
	"archive/tar"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/binkit/internal/bintype"
	"github.com/meigma/binkit/internal/testutil"
)

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func TestDecode513ByteEntry(t *testing.T) {
	t.Parallel()

	content := testutil.RandomBytes(1, 513)
	buf := concat(testutil.TarFile("file.bin", content), testutil.TarEnd())
	require.Len(t, buf, 512+1024+1024)

	d := NewDecoder(buf)
	entry, err := d.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "file.bin", entry.Name)
	assert.Equal(t, uint64(513), entry.Size)
	assert.Equal(t, bintype.KindFile, entry.Kind)
	assert.Equal(t, content, entry.Content)
	assert.Equal(t, int64(512+1024), d.Offset(), "header plus content rounded to 512")

	_, err = d.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, int64(len(buf)), d.Offset(), "terminator consumed")

	entries, err := Decode(context.Background(), buf)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Len(t, entries[0].Content, 513)
}

func TestDecodeContentIsCopied(t *testing.T) {
	t.Parallel()

	buf := concat(testutil.TarFile("a", []byte("hello")), testutil.TarEnd())
	entries, err := Decode(context.Background(), buf)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	buf[512] = 'J'
	assert.Equal(t, []byte("hello"), entries[0].Content)
}

func TestDecodeCorruptSizeField(t *testing.T) {
	t.Parallel()

	hdr := testutil.TarHeader{Name: "huge", Typeflag: '0', SizeField: "99999999999"}.Block()
	buf := concat(hdr, make([]byte, 512))
	require.Len(t, buf, 1024)

	entries, err := Decode(context.Background(), buf)
	require.ErrorIs(t, err, bintype.ErrCorruptArchive)
	assert.Nil(t, entries)

	var cae *bintype.CorruptArchiveError
	require.ErrorAs(t, err, &cae)
	assert.Equal(t, "TAR", cae.Format)
	assert.Equal(t, int64(0), cae.Offset)
	assert.Empty(t, cae.Partial)
}

func TestDecodeSizePastEnd(t *testing.T) {
	t.Parallel()

	hdr := testutil.TarHeader{Name: "big", Typeflag: '0', SizeField: "77777777777"}.Block()
	buf := concat(hdr, make([]byte, 512))

	_, err := Decode(context.Background(), buf)
	require.ErrorIs(t, err, bintype.ErrCorruptArchive)
	assert.Contains(t, err.Error(), "runs past end")
}

func TestDecodeCorruptKeepsPartial(t *testing.T) {
	t.Parallel()

	good := testutil.TarFile("good.txt", []byte("fine"))
	bad := testutil.TarHeader{Name: "bad", Typeflag: '0', SizeField: "garbage!"}.Block()
	buf := concat(good, bad, testutil.TarEnd())

	entries, err := Decode(context.Background(), buf)
	require.ErrorIs(t, err, bintype.ErrCorruptArchive)
	assert.Nil(t, entries, "no partial list is returned as success")

	var cae *bintype.CorruptArchiveError
	require.ErrorAs(t, err, &cae)
	require.Len(t, cae.Partial, 1)
	assert.Equal(t, "good.txt", cae.Partial[0].Name)
	assert.Equal(t, int64(1024), cae.Offset)
}

func TestDecodeEmptySizeFieldIsCorrupt(t *testing.T) {
	t.Parallel()

	hdr := testutil.TarHeader{Name: "x", Typeflag: '0', SizeField: "\x00"}.Block()
	copy(hdr[124:136], make([]byte, 12))
	_, err := Decode(context.Background(), concat(hdr, testutil.TarEnd()))
	assert.ErrorIs(t, err, bintype.ErrCorruptArchive)
}

func TestDecodeSingleZeroBlockIsFiller(t *testing.T) {
	t.Parallel()

	buf := concat(
		testutil.TarFile("a", []byte("1")),
		make([]byte, 512),
		testutil.TarFile("b", []byte("2")),
		make([]byte, 512),
	)
	entries, err := Decode(context.Background(), buf)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Name)
	assert.Equal(t, "b", entries[1].Name)
}

func TestDecodeTrailingBytes(t *testing.T) {
	t.Parallel()

	base := testutil.TarFile("a", []byte("1"))

	entries, err := Decode(context.Background(), concat(base, make([]byte, 100)))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = Decode(context.Background(), concat(base, []byte("junk")))
	assert.ErrorIs(t, err, bintype.ErrCorruptArchive)
}

func TestDecodeTypeflags(t *testing.T) {
	t.Parallel()

	regA := testutil.TarHeader{Name: "legacy.txt", Typeflag: 0, Size: 3}.Block()
	dir := testutil.TarHeader{Name: "dir/", Typeflag: '5', Ustar: true}.Block()
	link := testutil.TarHeader{Name: "link", Typeflag: '2', Ustar: true}.Block()
	longName := testutil.TarHeader{Name: "././@LongLink", Typeflag: 'L', Size: 10}.Block()
	pax := testutil.TarHeader{Name: "PaxHeaders/x", Typeflag: 'x', Size: 600, Ustar: true}.Block()

	buf := concat(
		testutil.PadBlock(concat(regA, []byte("abc"))),
		dir,
		link,
		testutil.PadBlock(concat(longName, []byte("0123456789"))),
		testutil.PadBlock(concat(pax, bytes.Repeat([]byte{'p'}, 600))),
		testutil.TarFile("after.txt", []byte("ok")),
		testutil.TarEnd(),
	)

	entries, err := Decode(context.Background(), buf)
	require.NoError(t, err)
	require.Len(t, entries, 6)

	assert.Equal(t, bintype.KindFile, entries[0].Kind)
	assert.Equal(t, []byte("abc"), entries[0].Content)

	assert.Equal(t, bintype.KindDirectory, entries[1].Kind)
	assert.Nil(t, entries[1].Content)

	for _, e := range entries[2:5] {
		assert.Equal(t, bintype.KindUnsupported, e.Kind, e.Name)
		assert.Nil(t, e.Content, e.Name)
	}
	assert.Equal(t, byte('x'), entries[4].Typeflag)
	assert.Equal(t, uint64(600), entries[4].Size)

	assert.Equal(t, "after.txt", entries[5].Name)
	assert.Equal(t, []byte("ok"), entries[5].Content)
}

func TestDecodeUstarPrefix(t *testing.T) {
	t.Parallel()

	hdr := testutil.TarHeader{Name: "leaf.txt", Prefix: "deep/nested/path", Typeflag: '0', Size: 1, Ustar: true}.Block()
	buf := concat(testutil.PadBlock(concat(hdr, []byte("z"))), testutil.TarEnd())

	entries, err := Decode(context.Background(), buf)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "deep/nested/path/leaf.txt", entries[0].Name)

	// Without the magic the prefix field is ignored.
	hdr = testutil.TarHeader{Name: "leaf.txt", Typeflag: '0', Size: 1}.Block()
	copy(hdr[345:], "ignored")
	entries, err = Decode(context.Background(), concat(testutil.PadBlock(concat(hdr, []byte("z")))))
	require.NoError(t, err)
	assert.Equal(t, "leaf.txt", entries[0].Name)
}

func TestDecodeStdlibArchive(t *testing.T) {
	t.Parallel()

	modTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	longPath := strings.Repeat("segment/", 15) + "file.txt"
	files := map[string][]byte{
		"README.md":          []byte("# hi\n"),
		"src/main.go":        testutil.RandomBytes(2, 5000),
		"empty.txt":          {},
		longPath:             []byte("long"),
		"unicodé/naïve.txt": []byte("pax"),
	}
	order := []string{"README.md", "src/main.go", "empty.txt", longPath, "unicodé/naïve.txt"}

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "src/", Typeflag: tar.TypeDir, Mode: 0o755, ModTime: modTime}))
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "link", Linkname: "README.md", Typeflag: tar.TypeSymlink, ModTime: modTime}))
	for _, name := range order {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(files[name])),
			ModTime:  modTime,
		}))
		_, err := tw.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())

	d := NewDecoder(buf.Bytes(), WithVerifyChecksum(true))
	var got []bintype.Entry
	for {
		entry, err := d.Next(context.Background())
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, entry)
	}
	assert.Equal(t, int64(buf.Len()), d.Offset())

	fileEntries := bintype.Files(got)
	require.Len(t, fileEntries, len(order))
	for i, name := range order[:4] {
		assert.Equal(t, name, fileEntries[i].Name)
		assert.Equal(t, files[name], fileEntries[i].Content, name)
	}
	// The non-ASCII name travels in a PAX record, which is skipped; the
	// content still decodes.
	assert.Equal(t, files[order[4]], fileEntries[4].Content)

	var sawDir, sawLink, sawPAX bool
	for _, e := range got {
		switch {
		case e.Kind == bintype.KindDirectory && e.Name == "src/":
			sawDir = true
		case e.Typeflag == tar.TypeSymlink:
			sawLink = e.Kind == bintype.KindUnsupported
		case e.Typeflag == tar.TypeXHeader:
			sawPAX = e.Kind == bintype.KindUnsupported
		}
	}
	assert.True(t, sawDir)
	assert.True(t, sawLink)
	assert.True(t, sawPAX)
}

func TestDecodeChecksumVerification(t *testing.T) {
	t.Parallel()

	buf := concat(testutil.TarFile("a.txt", []byte("x")), testutil.TarEnd())
	buf[0] = 'b' // name changes, stored checksum does not

	_, err := Decode(context.Background(), buf, WithVerifyChecksum(true))
	assert.ErrorIs(t, err, bintype.ErrCorruptArchive)

	entries, err := Decode(context.Background(), buf)
	require.NoError(t, err)
	assert.Equal(t, "b.txt", entries[0].Name)
}

func TestDecodeMaxEntries(t *testing.T) {
	t.Parallel()

	buf := concat(
		testutil.TarFile("a", []byte("1")),
		testutil.TarFile("b", []byte("2")),
		testutil.TarEnd(),
	)
	_, err := Decode(context.Background(), buf, WithMaxEntries(1))
	assert.ErrorIs(t, err, bintype.ErrInvalidInput)

	entries, err := Decode(context.Background(), buf, WithMaxEntries(2))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestDecodeCancelled(t *testing.T) {
	t.Parallel()

	buf := concat(
		testutil.TarFile("a", []byte("1")),
		testutil.TarFile("b", []byte("2")),
		testutil.TarEnd(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	progress := func(ev bintype.ProgressEvent) {
		if ev.FilesDone == 1 {
			cancel()
		}
	}
	entries, err := Decode(ctx, buf, WithProgress(progress))
	require.ErrorIs(t, err, bintype.ErrAborted)
	assert.Nil(t, entries, "entries decoded before cancellation are discarded")
}

func TestDecodeEmptyBuffer(t *testing.T) {
	t.Parallel()

	entries, err := Decode(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = Decode(context.Background(), testutil.TarEnd())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNextAfterErrorIsEOF(t *testing.T) {
	t.Parallel()

	hdr := testutil.TarHeader{Name: "bad", Typeflag: '0', SizeField: "zz"}.Block()
	d := NewDecoder(hdr)
	_, err := d.Next(context.Background())
	require.ErrorIs(t, err, bintype.ErrCorruptArchive)
	_, err = d.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestLooksLikeTar(t *testing.T) {
	t.Parallel()

	assert.True(t, LooksLikeTar(testutil.TarFile("a", []byte("1"))))

	plain := testutil.TarHeader{Name: "a", Typeflag: '0', Size: 0}.Block()
	assert.True(t, LooksLikeTar(concat(make([]byte, 512), plain)), "valid checksum without magic")

	assert.False(t, LooksLikeTar(bytes.Repeat([]byte("not a tar "), 100)))
	assert.False(t, LooksLikeTar(testutil.TarEnd()))
	assert.False(t, LooksLikeTar([]byte("short")))
}
