// Package binkit inspects and reshapes raw binary files.
//
// The toolkit identifies files by their leading bytes, computes content
// digests in bounded memory, groups byte-identical files, decodes TAR
// archives, and splits or merges binary streams. Each capability lives in
// its own package ([signature], [hashing], [dedup], [tarball], [splice],
// [archive]); this package ties them together behind [Toolkit] so that
// callers configure algorithm, chunk size, limits and logging once.
//
// # Quick Start
//
// Find duplicate files:
//
//	tk := binkit.New(binkit.WithAlgorithm(binkit.SHA256))
//	groups, err := tk.Group(ctx, refs)
//	if err != nil {
//	    return err
//	}
//	for _, g := range groups {
//	    fmt.Println(g.Original().Name(), len(g.Duplicates()))
//	}
//
// Extract an uploaded archive into a directory:
//
//	dst, err := sink.NewFileSink("./out")
//	if err != nil {
//	    return err
//	}
//	stats, err := tk.ExtractTo(ctx, ref, dst)
//
// # Errors
//
// Every failure matches exactly one of [ErrInvalidInput], [ErrCorruptArchive],
// [ErrUnsupportedFormat], [ErrSourceRead] or [ErrAborted] under errors.Is.
// Use [KindOf] to get the kind name for logs.
//
// [signature]: github.com/meigma/binkit/signature
// [hashing]: github.com/meigma/binkit/hashing
// [dedup]: github.com/meigma/binkit/dedup
// [tarball]: github.com/meigma/binkit/tarball
// [splice]: github.com/meigma/binkit/splice
// [archive]: github.com/meigma/binkit/archive
package binkit
