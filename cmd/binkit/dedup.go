package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newDedupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dedup FILE|DIR...",
		Short: "Find byte-identical files",
		Long: `Group files with identical content. Directories are walked recursively.

Each group prints its digest, then the first occurrence, then every
duplicate prefixed with "  dup". A summary of reclaimable bytes follows.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := collectRefs(args)
			if err != nil {
				return err
			}
			groups, err := a.toolkit.Group(cmd.Context(), refs)
			if err != nil {
				return err
			}

			var dups int
			var reclaim uint64
			for _, g := range groups {
				fmt.Fprintf(a.stdout, "%s\n  %s\n", g.Digest, g.Original().Name())
				for _, d := range g.Duplicates() {
					fmt.Fprintf(a.stdout, "  dup %s\n", d.Name())
					if size, ok := d.Size(); ok {
						reclaim += uint64(size) //nolint:gosec // sizes are non-negative
					}
					dups++
				}
			}
			fmt.Fprintf(a.stdout, "%d files scanned, %d groups, %d duplicates, %s reclaimable\n",
				len(refs), len(groups), dups, humanize.IBytes(reclaim))
			return nil
		},
	}
}
