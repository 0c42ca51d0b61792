package hashing

import (
	"crypto/md5"  //nolint:gosec // MD5 is offered for compatibility, not security
	"crypto/sha1" //nolint:gosec // SHA-1 is offered for compatibility, not security
	_ "crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/opencontainers/go-digest"
	"github.com/zeebo/blake3"

	"github.com/meigma/binkit/internal/bintype"
)

// Algorithm selects a digest function.
type Algorithm uint8

const (
	// SHA256 is the default algorithm.
	SHA256 Algorithm = iota
	SHA1
	MD5
	BLAKE3
)

// String returns the canonical lowercase algorithm name.
func (a Algorithm) String() string {
	switch a {
	case SHA256:
		return "sha256"
	case SHA1:
		return "sha1"
	case MD5:
		return "md5"
	case BLAKE3:
		return "blake3"
	default:
		return fmt.Sprintf("algorithm(%d)", uint8(a))
	}
}

// Size returns the digest length in bytes.
func (a Algorithm) Size() int {
	switch a {
	case SHA256, BLAKE3:
		return 32
	case SHA1:
		return 20
	case MD5:
		return 16
	default:
		return 0
	}
}

// Valid reports whether a is a known algorithm.
func (a Algorithm) Valid() bool {
	return a.Size() > 0
}

// New returns a fresh incremental hash for a.
func (a Algorithm) New() (hash.Hash, error) {
	switch a {
	case SHA256:
		return digest.SHA256.Hash(), nil
	case SHA1:
		return sha1.New(), nil //nolint:gosec // see import
	case MD5:
		return md5.New(), nil //nolint:gosec // see import
	case BLAKE3:
		return blake3.New(), nil
	default:
		return nil, fmt.Errorf("%w: unknown hash algorithm %s", bintype.ErrInvalidInput, a)
	}
}

// ParseAlgorithm parses an algorithm name such as "sha256", "SHA-1" or "md5".
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "") {
	case "sha256", "":
		return SHA256, nil
	case "sha1":
		return SHA1, nil
	case "md5":
		return MD5, nil
	case "blake3":
		return BLAKE3, nil
	default:
		return 0, fmt.Errorf("%w: unknown hash algorithm %q", bintype.ErrInvalidInput, name)
	}
}

// Digest is a content digest. Two digests are equal only if both the
// algorithm and every hex character match.
type Digest struct {
	Algorithm Algorithm
	Hex       string
}

// Equal reports whether d and other are the same digest.
func (d Digest) Equal(other Digest) bool {
	return d.Algorithm == other.Algorithm && d.Hex == other.Hex
}

// IsZero reports whether d is the zero value.
func (d Digest) IsZero() bool {
	return d.Hex == ""
}

// String renders the digest as "algorithm:hex".
func (d Digest) String() string {
	return d.Algorithm.String() + ":" + d.Hex
}

// OCI converts a SHA-256 digest to its OCI form.
func (d Digest) OCI() (digest.Digest, error) {
	if d.Algorithm != SHA256 {
		return "", fmt.Errorf("%w: %s digests have no OCI form", bintype.ErrInvalidInput, d.Algorithm)
	}
	dg := digest.NewDigestFromEncoded(digest.SHA256, d.Hex)
	if err := dg.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", bintype.ErrInvalidInput, err)
	}
	return dg, nil
}

// Parse parses an "algorithm:hex" string. A bare hex string is read as SHA-256.
func Parse(s string) (Digest, error) {
	algName, encoded, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		algName, encoded = "sha256", algName
	}
	alg, err := ParseAlgorithm(algName)
	if err != nil {
		return Digest{}, err
	}
	if alg == SHA256 {
		if err := digest.NewDigestFromEncoded(digest.SHA256, encoded).Validate(); err != nil {
			return Digest{}, fmt.Errorf("%w: %v", bintype.ErrInvalidInput, err)
		}
		return Digest{Algorithm: alg, Hex: encoded}, nil
	}
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return Digest{}, fmt.Errorf("%w: parsing %s digest: %v", bintype.ErrInvalidInput, alg, err)
	}
	if len(raw) != alg.Size() {
		return Digest{}, fmt.Errorf("%w: %s digest is %d bytes, want %d", bintype.ErrInvalidInput, alg, len(raw), alg.Size())
	}
	return Digest{Algorithm: alg, Hex: strings.ToLower(encoded)}, nil
}

func newDigest(alg Algorithm, h hash.Hash) Digest {
	return Digest{Algorithm: alg, Hex: hex.EncodeToString(h.Sum(nil))}
}
