// Package bintype holds the types and errors shared by the toolkit packages.
package bintype

// Kind classifies an archive entry.
type Kind uint8

const (
	// KindFile is a regular file with content.
	KindFile Kind = iota

	// KindDirectory is a directory. It never carries content.
	KindDirectory

	// KindUnsupported covers links, devices, extension headers and any
	// other entry type whose content is skipped.
	KindUnsupported
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Entry is one logical member of a decoded archive.
type Entry struct {
	// Name is the slash-separated path recorded in the archive.
	Name string

	// Size is the declared content size in bytes.
	Size uint64

	// Kind classifies the entry.
	Kind Kind

	// Typeflag is the raw TAR type flag, or 0 for entries from other formats.
	Typeflag byte

	// Content holds the file bytes. It is nil unless Kind is KindFile, and
	// is never shared with the decoded input buffer.
	Content []byte
}

// IsFile reports whether the entry is a regular file.
func (e *Entry) IsFile() bool {
	return e.Kind == KindFile
}

// Files returns the file entries of entries, preserving order.
func Files(entries []Entry) []Entry {
	files := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Kind == KindFile {
			files = append(files, e)
		}
	}
	return files
}
