package signature

// Format identifies the container family a signature belongs to. It is
// only set for records that matter to archive routing.
type Format uint8

const (
	// FormatNone is any format the orchestrator does not route on.
	FormatNone Format = iota
	FormatZip
	FormatTar
	FormatRAR
	Format7Z
	FormatGzip
	FormatZstd
	FormatLZ4
	FormatBzip2
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatZip:
		return "ZIP"
	case FormatTar:
		return "TAR"
	case FormatRAR:
		return "RAR"
	case Format7Z:
		return "7Z"
	case FormatGzip:
		return "GZIP"
	case FormatZstd:
		return "ZSTD"
	case FormatLZ4:
		return "LZ4"
	case FormatBzip2:
		return "BZIP2"
	default:
		return "none"
	}
}

// Match is a magic byte sequence expected at a fixed offset.
type Match struct {
	Offset int
	Magic  []byte
}

// Record is one entry of the signature table.
type Record struct {
	Match

	// Extra is an optional second check that must also hold, used to tell
	// apart formats sharing a container prefix (RIFF/WEBP vs RIFF/WAVE).
	Extra *Match

	Label    string
	MIME     string
	Category string
	Format   Format
}

// table is consulted in order; the first record whose checks all hold wins.
var table = []Record{
	{Match: Match{0, []byte("%PDF")}, Label: "PDF", MIME: "application/pdf", Category: "document"},
	{Match: Match{0, []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}}, Label: "PNG", MIME: "image/png", Category: "image"},
	{Match: Match{0, []byte{0xFF, 0xD8, 0xFF}}, Label: "JPEG", MIME: "image/jpeg", Category: "image"},
	{Match: Match{0, []byte("GIF87a")}, Label: "GIF", MIME: "image/gif", Category: "image"},
	{Match: Match{0, []byte("GIF89a")}, Label: "GIF", MIME: "image/gif", Category: "image"},
	{Match: Match{0, []byte("RIFF")}, Extra: &Match{8, []byte("WEBP")}, Label: "WEBP", MIME: "image/webp", Category: "image"},
	{Match: Match{0, []byte("RIFF")}, Extra: &Match{8, []byte("WAVE")}, Label: "WAV", MIME: "audio/wav", Category: "audio"},
	{Match: Match{0, []byte("BM")}, Extra: &Match{6, []byte{0, 0, 0, 0}}, Label: "BMP", MIME: "image/bmp", Category: "image"},
	{Match: Match{0, []byte{'I', 'I', 0x2A, 0x00}}, Label: "TIFF", MIME: "image/tiff", Category: "image"},
	{Match: Match{0, []byte{'M', 'M', 0x00, 0x2A}}, Label: "TIFF", MIME: "image/tiff", Category: "image"},
	{Match: Match{0, []byte{'P', 'K', 0x03, 0x04}}, Label: "ZIP", MIME: "application/zip", Category: "archive", Format: FormatZip},
	{Match: Match{0, []byte{'P', 'K', 0x05, 0x06}}, Label: "ZIP", MIME: "application/zip", Category: "archive", Format: FormatZip},
	{Match: Match{0, []byte{'P', 'K', 0x07, 0x08}}, Label: "ZIP", MIME: "application/zip", Category: "archive", Format: FormatZip},
	{Match: Match{0, []byte{'R', 'a', 'r', '!', 0x1A, 0x07}}, Label: "RAR", MIME: "application/vnd.rar", Category: "archive", Format: FormatRAR},
	{Match: Match{0, []byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C}}, Label: "7Z", MIME: "application/x-7z-compressed", Category: "archive", Format: Format7Z},
	{Match: Match{0, []byte{0x1F, 0x8B}}, Label: "GZIP", MIME: "application/gzip", Category: "archive", Format: FormatGzip},
	{Match: Match{0, []byte{0x28, 0xB5, 0x2F, 0xFD}}, Label: "ZSTD", MIME: "application/zstd", Category: "archive", Format: FormatZstd},
	{Match: Match{0, []byte{0x04, 0x22, 0x4D, 0x18}}, Label: "LZ4", MIME: "application/x-lz4", Category: "archive", Format: FormatLZ4},
	{Match: Match{0, []byte("BZh")}, Label: "BZIP2", MIME: "application/x-bzip2", Category: "archive", Format: FormatBzip2},
	{Match: Match{0, []byte("ID3")}, Label: "MP3", MIME: "audio/mpeg", Category: "audio"},
	{Match: Match{0, []byte("fLaC")}, Label: "FLAC", MIME: "audio/flac", Category: "audio"},
	{Match: Match{0, []byte("OggS")}, Label: "OGG", MIME: "audio/ogg", Category: "audio"},
	{Match: Match{0, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}}, Label: "MS-Office (CFB)", MIME: "application/x-cfb", Category: "document"},
	{Match: Match{0, []byte("SQLite format 3\x00")}, Label: "SQLite", MIME: "application/vnd.sqlite3", Category: "database"},
	{Match: Match{0, []byte{0x7F, 'E', 'L', 'F'}}, Label: "ELF", MIME: "application/x-elf", Category: "executable"},
	{Match: Match{0, []byte("MZ")}, Label: "Windows PE", MIME: "application/vnd.microsoft.portable-executable", Category: "executable"},
	{Match: Match{257, []byte("ustar")}, Label: "TAR", MIME: "application/x-tar", Category: "archive", Format: FormatTar},
}

// Table returns a copy of the signature table in match order.
func Table() []Record {
	out := make([]Record, len(table))
	copy(out, table)
	return out
}
