package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/binkit"
	"github.com/meigma/binkit/sink"
)

func newMergeCmd(a *app) *cobra.Command {
	var (
		out   string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "merge -o OUT FILE...",
		Short: "Concatenate files in order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if out == "" {
				return fmt.Errorf("%w: --out is required", binkit.ErrInvalidInput)
			}
			refs, err := fileRefs(args)
			if err != nil {
				return err
			}
			dst, err := sink.NewFileSink(filepath.Dir(out), sink.WithOverwrite(force))
			if err != nil {
				return err
			}
			w, err := dst.Writer(filepath.Base(out))
			if err != nil {
				return err
			}
			defer func() {
				if err != nil {
					_ = w.Discard() //nolint:errcheck // best-effort cleanup
				}
			}()

			n, err := a.toolkit.Merge(cmd.Context(), w, refs)
			if err != nil {
				return err
			}
			if err := w.Commit(); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "wrote %s (%s) from %d parts\n", out, humanize.IBytes(uint64(n)), len(refs)) //nolint:gosec // n is non-negative
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing output file")
	return cmd
}

func newSplitCmd(a *app) *cobra.Command {
	var (
		size  ByteSize
		out   string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "split --out DIR FILE",
		Short: "Cut a file into fixed-size parts",
		Long: `Cut FILE into parts named part001, part002, ... in DIR. Every part
except the last is exactly --size bytes (default split_size from config).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return fmt.Errorf("%w: --out is required", binkit.ErrInvalidInput)
			}
			if !cmd.Flags().Changed("size") {
				size = a.cfg.SplitSize
			}
			refs, err := fileRefs(args)
			if err != nil {
				return err
			}
			dst, err := sink.NewFileSink(out, sink.WithOverwrite(force))
			if err != nil {
				return err
			}
			chunk, err := intSize(size)
			if err != nil {
				return err
			}
			parts, err := a.toolkit.Split(cmd.Context(), refs[0], int64(chunk), dst)
			if err != nil {
				for _, p := range parts {
					a.logger.Warn("part left behind", slog.String("part", filepath.Join(out, p.Name)))
				}
				return err
			}
			for _, p := range parts {
				fmt.Fprintf(a.stdout, "%s\t%d\t%d\n", p.Name, p.Offset, p.Size)
			}
			return nil
		},
	}
	cmd.Flags().Var(&size, "size", "part size, e.g. 10MiB")
	cmd.Flags().StringVar(&out, "out", "", "output directory")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing parts")
	return cmd
}
