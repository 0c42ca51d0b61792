package tarball

import (
	"bytes"
	"strconv"
)

// BlockSize is the TAR header size and content alignment.
const BlockSize = 512

// Header field layout (POSIX ustar).
const (
	nameOffset     = 0
	nameLen        = 100
	sizeOffset     = 124
	sizeLen        = 12
	checksumOffset = 148
	checksumLen    = 8
	typeOffset     = 156
	magicOffset    = 257
	magicLen       = 6
	prefixOffset   = 345
	prefixLen      = 155
)

// Type flags handled specially. Everything else is skipped as unsupported.
const (
	TypeRegA = '\x00'
	TypeReg  = '0'
	TypeDir  = '5'
)

// header is a view of one 512-byte header block.
type header []byte

func isZeroBlock(block []byte) bool {
	for _, b := range block {
		if b != 0 {
			return false
		}
	}
	return true
}

// cstring returns field up to its first NUL, or all of it.
func cstring(field []byte) string {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field)
}

func (h header) isUstar() bool {
	// "ustar\x00" (POSIX) or "ustar " (old GNU).
	magic := h[magicOffset : magicOffset+magicLen]
	return bytes.HasPrefix(magic, []byte("ustar"))
}

// name returns the entry path, joining the ustar prefix when present.
func (h header) name() string {
	name := cstring(h[nameOffset : nameOffset+nameLen])
	if h.isUstar() {
		if prefix := cstring(h[prefixOffset : prefixOffset+prefixLen]); prefix != "" {
			return prefix + "/" + name
		}
	}
	return name
}

func (h header) typeflag() byte {
	return h[typeOffset]
}

// size parses the octal size field. ok is false for an empty or non-octal field.
func (h header) size() (uint64, bool) {
	return parseOctal(h[sizeOffset : sizeOffset+sizeLen])
}

// parseOctal parses a NUL/space padded octal ASCII field.
func parseOctal(field []byte) (uint64, bool) {
	s := string(bytes.Trim(field, " \x00"))
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '7' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(s, 8, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// checksumOK reports whether the stored checksum matches the header bytes,
// computed with the checksum field read as spaces. Both the unsigned sum and
// the historical signed sum are accepted.
func (h header) checksumOK() bool {
	stored, ok := parseOctal(h[checksumOffset : checksumOffset+checksumLen])
	if !ok {
		return false
	}
	var unsigned uint64
	var signed int64
	for i, b := range h[:BlockSize] {
		if i >= checksumOffset && i < checksumOffset+checksumLen {
			b = ' '
		}
		unsigned += uint64(b)
		signed += int64(int8(b))
	}
	return stored == unsigned || int64(stored) == signed //nolint:gosec // checksum fits in 8 octal digits
}
