// Package signature classifies byte buffers by their leading magic bytes.
//
// Detection walks a fixed table in order and the first record whose magic
// matches wins; there is no scoring. A buffer too short for a record simply
// fails that record. When nothing matches, the caller's declared MIME type
// supplies a coarse category.
package signature

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/meigma/binkit/internal/bintype"
)

const (
	// MinDetectBytes is the number of leading bytes callers should supply
	// for reliable matching of the common signatures.
	MinDetectBytes = 16

	// PeekBytes is how much DetectReader reads. It covers the ustar magic
	// at offset 257.
	PeekBytes = 512
)

// Unknown is the label and category reported when nothing is known.
const Unknown = "Unknown"

// Result is the outcome of Detect.
type Result struct {
	Label    string
	Category string
	MIME     string
	Format   Format

	// Matched is true when a table record matched, false for the MIME
	// fallback and for Unknown.
	Matched bool
}

// Detect classifies buf by its leading bytes, falling back to declaredMIME.
func Detect(buf []byte, declaredMIME string) Result {
	for i := range table {
		rec := &table[i]
		if !rec.Match.matches(buf) {
			continue
		}
		if rec.Extra != nil && !rec.Extra.matches(buf) {
			continue
		}
		return Result{
			Label:    rec.Label,
			Category: rec.Category,
			MIME:     rec.MIME,
			Format:   rec.Format,
			Matched:  true,
		}
	}
	return fromMIME(declaredMIME)
}

// DetectReader reads up to PeekBytes from r and classifies them.
// Only a failing read is an error; a short source is not.
func DetectReader(r io.Reader, declaredMIME string) (Result, []byte, error) {
	buf := make([]byte, PeekBytes)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return Result{}, nil, &bintype.SourceReadError{Offset: int64(n), Err: err}
	}
	buf = buf[:n]
	return Detect(buf, declaredMIME), buf, nil
}

func (m *Match) matches(buf []byte) bool {
	end := m.Offset + len(m.Magic)
	if end > len(buf) {
		return false
	}
	return bytes.Equal(buf[m.Offset:end], m.Magic)
}

func fromMIME(mime string) Result {
	mime = strings.TrimSpace(mime)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if mime == "" {
		return Result{Label: Unknown, Category: Unknown}
	}
	mime = strings.ToLower(mime)
	major, _, _ := strings.Cut(mime, "/")
	if major == "" {
		return Result{Label: Unknown, Category: Unknown}
	}
	return Result{Label: mime, Category: major, MIME: mime}
}

// String renders the result as "Label (category)".
func (r Result) String() string {
	return fmt.Sprintf("%s (%s)", r.Label, r.Category)
}
