package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/binkit"
	"github.com/meigma/binkit/sink"
)

func newExtractCmd(a *app) *cobra.Command {
	var (
		out     string
		bundle  string
		mime    string
		force   bool
		workers int
	)
	cmd := &cobra.Command{
		Use:   "extract [--out DIR] [--zip BUNDLE] ARCHIVE",
		Short: "Extract a TAR or ZIP archive",
		Long: `Extract ARCHIVE into DIR, or repack its files into a single ZIP with --zip.

TAR archives may be gzip, zstd or LZ4 compressed. RAR and 7z archives are
recognized but need external tools; the error names the tool.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" && bundle == "" {
				return fmt.Errorf("%w: one of --out or --zip is required", binkit.ErrInvalidInput)
			}
			refs, err := fileRefs(args)
			if err != nil {
				return err
			}
			entries, err := a.toolkit.Extract(cmd.Context(), refs[0], mime)
			if err != nil {
				return err
			}

			if out != "" {
				dst, err := sink.NewFileSink(out, sink.WithOverwrite(force))
				if err != nil {
					return err
				}
				stats, err := a.toolkit.WriteEntries(cmd.Context(), entries, dst, binkit.CopyWithWorkers(workers))
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "extracted %d files (%s) to %s, %d entries skipped\n",
					stats.Files, humanize.IBytes(stats.Bytes), out, stats.Skipped)
			}
			if bundle != "" {
				data, err := a.toolkit.Bundle(cmd.Context(), entries)
				if err != nil {
					return err
				}
				flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
				if !force {
					flags |= os.O_EXCL
				}
				f, err := os.OpenFile(bundle, flags, 0o644) //nolint:gosec // user-chosen output path
				if err != nil {
					return err
				}
				if _, err := f.Write(data); err != nil {
					_ = f.Close() //nolint:errcheck // write error takes precedence
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "wrote %s (%s)\n", bundle, humanize.IBytes(uint64(len(data))))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "destination directory")
	cmd.Flags().StringVar(&bundle, "zip", "", "write the extracted files as one ZIP archive")
	cmd.Flags().StringVar(&mime, "mime", "", "declared MIME type of the archive")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	cmd.Flags().IntVar(&workers, "copy-workers", 0, "concurrent file writes (0 = GOMAXPROCS)")
	return cmd
}
