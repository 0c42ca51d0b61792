package hashing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/binkit/internal/bintype"
)

const emptySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func TestParseAlgorithm(t *testing.T) {
	t.Parallel()

	tests := map[string]Algorithm{
		"sha256":  SHA256,
		"SHA-256": SHA256,
		"":        SHA256,
		"sha1":    SHA1,
		"SHA-1":   SHA1,
		"md5":     MD5,
		"Blake3":  BLAKE3,
	}
	for name, want := range tests {
		got, err := ParseAlgorithm(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseAlgorithm("crc32")
	assert.ErrorIs(t, err, bintype.ErrInvalidInput)
}

func TestDigestEqualityIsExact(t *testing.T) {
	t.Parallel()

	a := Digest{Algorithm: SHA256, Hex: emptySHA256}
	b := Digest{Algorithm: SHA256, Hex: emptySHA256[:63] + "6"}
	c := Digest{Algorithm: BLAKE3, Hex: emptySHA256}

	assert.True(t, a.Equal(a))
	assert.False(t, a.Equal(b), "differs only in the last hex digit")
	assert.False(t, a.Equal(c), "same hex, different algorithm")
}

func TestParseDigest(t *testing.T) {
	t.Parallel()

	d, err := Parse("sha256:" + emptySHA256)
	require.NoError(t, err)
	assert.Equal(t, Digest{Algorithm: SHA256, Hex: emptySHA256}, d)
	assert.Equal(t, "sha256:"+emptySHA256, d.String())

	d, err = Parse(emptySHA256)
	require.NoError(t, err)
	assert.Equal(t, SHA256, d.Algorithm)

	d, err = Parse("md5:D41D8CD98F00B204E9800998ECF8427E")
	require.NoError(t, err)
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", d.Hex)

	for _, bad := range []string{
		"sha256:" + strings.ToUpper(emptySHA256),
		"sha256:abcd",
		"sha1:zz",
		"md5:" + emptySHA256,
		"crc32:00000000",
	} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, bintype.ErrInvalidInput, bad)
	}
}

func TestDigestOCI(t *testing.T) {
	t.Parallel()

	dg, err := Digest{Algorithm: SHA256, Hex: emptySHA256}.OCI()
	require.NoError(t, err)
	assert.Equal(t, "sha256:"+emptySHA256, dg.String())
	assert.Equal(t, emptySHA256, dg.Encoded())

	_, err = Digest{Algorithm: MD5, Hex: "d41d8cd98f00b204e9800998ecf8427e"}.OCI()
	assert.ErrorIs(t, err, bintype.ErrInvalidInput)
}
