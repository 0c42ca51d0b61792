package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoute(t *testing.T) {
	t.Parallel()

	never := func() bool { return false }
	always := func() bool { return true }

	tests := []struct {
		name     string
		res      Result
		fname    string
		mime     string
		probe    func() bool
		wantKind RouteKind
		wantComp Format
		wantTool string
	}{
		{"zip", Result{Label: "ZIP", Format: FormatZip, Matched: true}, "a.tar", "", never, RouteZip, FormatNone, ""},
		{"ustar", Result{Label: "TAR", Format: FormatTar, Matched: true}, "x", "", never, RouteTar, FormatNone, ""},
		{"rar", Result{Label: "RAR", Format: FormatRAR, Matched: true}, "a.rar", "", always, RouteUnsupported, FormatNone, "unrar"},
		{"7z", Result{Label: "7Z", Format: Format7Z, Matched: true}, "a.7z", "", always, RouteUnsupported, FormatNone, "7z"},
		{"bzip2", Result{Label: "BZIP2", Format: FormatBzip2, Matched: true}, "a.tar.bz2", "", never, RouteUnsupported, FormatNone, "bzip2"},
		{"bzip2 magic in member name", Result{Label: "BZIP2", Format: FormatBzip2, Matched: true}, "x", "", always, RouteTar, FormatNone, ""},
		{"gzip", Result{Label: "GZIP", Format: FormatGzip, Matched: true}, "a.tgz", "", never, RouteTar, FormatGzip, ""},
		{"pdf is not an archive", Result{Label: "PDF", Matched: true}, "a.tar", "application/x-tar", never, RouteUnsupported, FormatNone, ""},
		{"member name looks like a magic", Result{Label: "Windows PE", Matched: true}, "bundle.tar", "application/x-tar", always, RouteTar, FormatNone, ""},
		{"magic with tar header and no hint", Result{Label: "MP3", Matched: true}, "upload", "", always, RouteTar, FormatNone, ""},
		{"tar by extension", Result{Label: Unknown}, "backup.TAR", "", never, RouteTar, FormatNone, ""},
		{"tar by mime", Result{Label: Unknown}, "upload", "application/x-tar", never, RouteTar, FormatNone, ""},
		{"tar by probe", Result{Label: Unknown}, "upload", "", always, RouteTar, FormatNone, ""},
		{"unknown", Result{Label: Unknown}, "upload.bin", "", never, RouteUnsupported, FormatNone, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Route(tt.res, tt.fname, tt.mime, tt.probe)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantComp, got.Compression)
			assert.Equal(t, tt.wantTool, got.Tool)
		})
	}
}

func TestRouteProbeOnlyForUnknownContent(t *testing.T) {
	t.Parallel()

	called := false
	probe := func() bool { called = true; return true }

	Route(Result{Label: "ZIP", Format: FormatZip, Matched: true}, "", "", probe)
	Route(Result{Label: "RAR", Format: FormatRAR, Matched: true}, "", "", probe)
	Route(Result{Label: Unknown}, "a.tar", "", probe)
	assert.False(t, called)

	Route(Result{Label: Unknown}, "a.bin", "", probe)
	assert.True(t, called)

	called = false
	Route(Result{Label: "PNG", Matched: true}, "", "", probe)
	assert.True(t, called)
}

func TestNameSuggestsTar(t *testing.T) {
	t.Parallel()

	assert.True(t, nameSuggestsTar(`C:\uploads\site.tar.gz`, ""))
	assert.True(t, nameSuggestsTar("x.tzst", ""))
	assert.True(t, nameSuggestsTar("", "application/x-tar; charset=binary"))
	assert.False(t, nameSuggestsTar("notes.txt", "text/plain"))
	assert.False(t, nameSuggestsTar("tarball", ""))
}
