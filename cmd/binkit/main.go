// Command binkit inspects, hashes, deduplicates, splits, merges and
// extracts binary files from the command line.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meigma/binkit"
)

// Version information (set by ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

// app carries state shared by subcommands once the root command has
// resolved configuration.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	flags      Config
	cfg        Config
	logger     *slog.Logger
	toolkit    *binkit.Toolkit
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1) //nolint:gocritic // stop already called
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, flags: DefaultConfig()}

	root := &cobra.Command{
		Use:   "binkit",
		Short: "Binary file inspection and archive toolkit",
		Long: `binkit identifies files by their magic bytes, computes content digests,
finds duplicate files, splits and merges binary streams, and extracts
TAR and ZIP archives.`,
		Version:           fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML config file (default $"+configEnv+")")
	pf.StringVar(&a.flags.Algorithm, "algorithm", a.flags.Algorithm, "hash algorithm: sha256, sha1, md5, blake3")
	pf.Var(&a.flags.ChunkSize, "chunk-size", "read chunk size for hashing")
	pf.IntVar(&a.flags.Workers, "workers", a.flags.Workers, "concurrent hashes for dedup (0 = GOMAXPROCS, <0 = serial)")
	pf.StringVar(&a.flags.LogLevel, "log-level", a.flags.LogLevel, "log level: debug, info, warn, error")
	pf.Var(&a.flags.MaxArchiveSize, "max-archive-size", "largest archive extract will read")

	root.AddCommand(
		newDetectCmd(a),
		newInspectCmd(a),
		newHashCmd(a),
		newDedupCmd(a),
		newCompareCmd(a),
		newMergeCmd(a),
		newSplitCmd(a),
		newExtractCmd(a),
	)
	return root
}

// setup layers config file values under explicitly set flags and builds
// the logger and toolkit.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("algorithm") {
		cfg.Algorithm = a.flags.Algorithm
	}
	if flags.Changed("chunk-size") {
		cfg.ChunkSize = a.flags.ChunkSize
	}
	if flags.Changed("workers") {
		cfg.Workers = a.flags.Workers
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.flags.LogLevel
	}
	if flags.Changed("max-archive-size") {
		cfg.MaxArchiveSize = a.flags.MaxArchiveSize
	}

	alg, err := cfg.Validate()
	if err != nil {
		return err
	}
	level, _ := cfg.Level() //nolint:errcheck // checked by Validate
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	chunk, err := intSize(cfg.ChunkSize)
	if err != nil {
		return err
	}
	a.toolkit, err = binkit.New(
		binkit.WithAlgorithm(alg),
		binkit.WithChunkSize(chunk),
		binkit.WithWorkers(cfg.Workers),
		binkit.WithMaxArchiveSize(uint64(cfg.MaxArchiveSize)),
		binkit.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}
	a.logger.Debug("configured",
		slog.String("algorithm", alg.String()),
		slog.String("chunk_size", cfg.ChunkSize.String()),
		slog.Int("workers", cfg.Workers),
		slog.String("max_archive_size", cfg.MaxArchiveSize.String()))
	return nil
}

func intSize(b ByteSize) (int, error) {
	if uint64(b) > math.MaxInt {
		return 0, fmt.Errorf("%w: %s", binkit.ErrSizeOverflow, b)
	}
	return int(b), nil
}
