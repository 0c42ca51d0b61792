package signature

import (
	"strings"

	"github.com/meigma/binkit/internal/pathutil"
)

// RouteKind is the closed set of ways an archive can be handled.
type RouteKind uint8

const (
	// RouteUnsupported means no in-process decoder applies.
	RouteUnsupported RouteKind = iota

	// RouteZip hands the buffer to the ZIP codec.
	RouteZip

	// RouteTar hands the buffer, decompressed if needed, to the TAR decoder.
	RouteTar
)

// String returns the route name.
func (k RouteKind) String() string {
	switch k {
	case RouteZip:
		return "zip"
	case RouteTar:
		return "tar"
	default:
		return "unsupported"
	}
}

// Routing is the dispatch decision for one archive. It is computed once from
// a detection result and consumed by a single switch on Kind.
type Routing struct {
	Kind RouteKind

	// Compression is the outer compression for compressed TAR streams
	// (FormatGzip, FormatZstd, FormatLZ4), FormatNone otherwise.
	Compression Format

	// NameSuggestsTar is set when the declared name or MIME type claims a
	// TAR payload.
	NameSuggestsTar bool

	// Format names what was detected, for error messages.
	Format string

	// Reason and Tool explain RouteUnsupported.
	Reason string
	Tool   string
}

var tarSuffixes = []string{".tar", ".tgz", ".tar.gz", ".tzst", ".tar.zst", ".tar.zstd", ".tlz4", ".tar.lz4"}

var tarMIMEs = map[string]bool{
	"application/x-tar":        true,
	"application/tar":          true,
	"application/x-gtar":       true,
	"application/x-ustar":      true,
	"application/x-compressed": true,
}

// Route decides how the orchestrator handles an archive. probeTar should
// report whether the buffer parses as a TAR header. It is consulted for
// unknown content without a TAR name or MIME hint, and for signatures that
// are not archives, whose magic may be the start of a member name.
func Route(res Result, declaredName, declaredMIME string, probeTar func() bool) Routing {
	suggestsTar := nameSuggestsTar(declaredName, declaredMIME)

	switch res.Format {
	case FormatZip:
		return Routing{Kind: RouteZip, Format: res.Label}
	case FormatTar:
		return Routing{Kind: RouteTar, Format: res.Label, NameSuggestsTar: suggestsTar}
	case FormatRAR:
		return Routing{Kind: RouteUnsupported, Format: res.Label, Tool: "unrar", Reason: "no in-process RAR decoder"}
	case Format7Z:
		return Routing{Kind: RouteUnsupported, Format: res.Label, Tool: "7z", Reason: "no in-process 7z decoder"}
	case FormatBzip2:
		if probeTar != nil && probeTar() {
			return Routing{Kind: RouteTar, Format: "TAR", NameSuggestsTar: suggestsTar}
		}
		return Routing{Kind: RouteUnsupported, Format: res.Label, Tool: "bzip2", Reason: "bzip2 streams are not decompressed in-process"}
	case FormatGzip, FormatZstd, FormatLZ4:
		return Routing{Kind: RouteTar, Compression: res.Format, Format: res.Label, NameSuggestsTar: suggestsTar}
	}

	// Short magics at offset 0 can collide with the first member name of a
	// TAR archive, so a non-archive match still yields to a parsable header.
	if res.Matched {
		if probeTar != nil && probeTar() {
			return Routing{Kind: RouteTar, Format: "TAR", NameSuggestsTar: suggestsTar}
		}
		return Routing{Kind: RouteUnsupported, Format: res.Label, Reason: "not an archive"}
	}
	if suggestsTar || (probeTar != nil && probeTar()) {
		return Routing{Kind: RouteTar, Format: "TAR", NameSuggestsTar: suggestsTar}
	}
	return Routing{Kind: RouteUnsupported, Format: res.Label, Reason: "unrecognized content"}
}

func nameSuggestsTar(name, mime string) bool {
	base := strings.ToLower(pathutil.Base(name))
	for _, suffix := range tarSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return tarMIMEs[mime]
}
