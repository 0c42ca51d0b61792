package main

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/meigma/binkit"
	"github.com/meigma/binkit/source"
)

// fileRefs opens each path as a regular-file source.
func fileRefs(paths []string) ([]binkit.Ref, error) {
	refs := make([]binkit.Ref, 0, len(paths))
	for _, p := range paths {
		ref, err := source.File(p)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// collectRefs expands directories into the regular files below them, in
// lexical order, keeping plain file arguments where they appear.
func collectRefs(paths []string) ([]binkit.Ref, error) {
	var refs []binkit.Ref
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, source.OpenError(p, err)
		}
		if !info.IsDir() {
			ref, err := source.File(p)
			if err != nil {
				return nil, err
			}
			refs = append(refs, ref)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.Type().IsRegular() {
				return nil
			}
			ref, err := source.File(path)
			if err != nil {
				return err
			}
			refs = append(refs, ref)
			return nil
		})
		if err != nil {
			return nil, source.OpenError(p, err)
		}
	}
	return refs, nil
}
