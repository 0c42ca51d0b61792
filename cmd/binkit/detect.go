package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newDetectCmd(a *app) *cobra.Command {
	var mime string
	cmd := &cobra.Command{
		Use:   "detect FILE...",
		Short: "Identify files by their magic bytes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := fileRefs(args)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			for _, ref := range refs {
				sig, err := a.toolkit.Detect(ref, mime)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ref.Name(), sig.Label, sig.Category, sig.MIME)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&mime, "mime", "", "declared MIME type used when no signature matches")
	return cmd
}

func newInspectCmd(a *app) *cobra.Command {
	var mime string
	cmd := &cobra.Command{
		Use:   "inspect FILE...",
		Short: "Detect and hash files in one pass",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := fileRefs(args)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			for _, ref := range refs {
				res, err := a.toolkit.Inspect(cmd.Context(), ref, mime)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					res.Name, res.Signature.Label, humanize.IBytes(uint64(res.Size)), res.Digest) //nolint:gosec // size is non-negative
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&mime, "mime", "", "declared MIME type used when no signature matches")
	return cmd
}
