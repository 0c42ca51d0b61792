package testutil

import (
	"fmt"
)

// TarBlockSize is the TAR header and content alignment.
const TarBlockSize = 512

// TarHeader describes a raw ustar header for hand-built fixtures.
type TarHeader struct {
	Name     string
	Prefix   string
	Typeflag byte
	// SizeField, when non-empty, is written verbatim into the size field
	// instead of the octal encoding of Size.
	SizeField string
	Size      int
	Ustar     bool
}

// Block encodes h as a 512-byte header with a valid checksum.
func (h TarHeader) Block() []byte {
	block := make([]byte, TarBlockSize)
	copy(block[0:100], h.Name)
	copy(block[100:108], "0000644\x00")
	copy(block[108:116], "0000000\x00")
	copy(block[116:124], "0000000\x00")
	if h.SizeField != "" {
		copy(block[124:136], h.SizeField)
	} else {
		copy(block[124:136], fmt.Sprintf("%011o\x00", h.Size))
	}
	copy(block[136:148], "00000000000\x00")
	block[156] = h.Typeflag
	if h.Ustar {
		copy(block[257:265], "ustar\x0000")
		copy(block[345:500], h.Prefix)
	}

	copy(block[148:156], "        ")
	var sum int
	for _, b := range block {
		sum += int(b)
	}
	copy(block[148:156], fmt.Sprintf("%06o\x00 ", sum))
	return block
}

// TarFile appends a header and block-padded content for a regular file.
func TarFile(name string, content []byte) []byte {
	out := TarHeader{Name: name, Typeflag: '0', Size: len(content), Ustar: true}.Block()
	out = append(out, content...)
	return PadBlock(out)
}

// PadBlock zero-pads buf to a multiple of TarBlockSize.
func PadBlock(buf []byte) []byte {
	if rem := len(buf) % TarBlockSize; rem != 0 {
		buf = append(buf, make([]byte, TarBlockSize-rem)...)
	}
	return buf
}

// TarEnd returns the two zero blocks that end a POSIX archive.
func TarEnd() []byte {
	return make([]byte, 2*TarBlockSize)
}
