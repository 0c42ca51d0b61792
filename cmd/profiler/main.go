package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand" //nolint:gosec // intentional use for reproducible benchmarks
	"net/http"
	_ "net/http/pprof" //nolint:gosec // intentional profiling endpoint
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"time"

	"github.com/felixge/fgprof"
	"github.com/klauspost/compress/gzip"

	"github.com/meigma/binkit"
	"github.com/meigma/binkit/internal/testutil"
	"github.com/meigma/binkit/sink"
	"github.com/meigma/binkit/source"
)

type config struct {
	mode       string
	files      int
	fileSize   int
	dupRatio   float64
	pattern    string
	algorithm  string
	chunkSize  int
	splitSize  int64
	workers    int
	fgProfile  string
	duration   time.Duration
	iterations int
	pprofAddr  string
	cpuProfile string
	memProfile string
	traceFile  string
	tempDir    string
	keepTemp   bool
	randomSeed int64
}

//nolint:unused // sink variables prevent compiler optimizations in profiling
var (
	sinkDigest binkit.Digest
	sinkGroups []binkit.Group
	sinkCount  int
)

//nolint:gocognit,gocyclo // main function complexity is acceptable for CLI tool
func main() {
	cfg := parseFlags()

	if cfg.pprofAddr != "" {
		go func() {
			log.Printf("pprof listening on %s", cfg.pprofAddr)
			//nolint:gosec // intentional pprof server without timeouts for profiling
			if err := http.ListenAndServe(cfg.pprofAddr, nil); err != nil {
				log.Printf("pprof server error: %v", err)
			}
		}()
	}

	dir, cleanup, err := setupTempDir(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if cleanup != nil {
		defer cleanup() //nolint:errcheck // cleanup errors are non-fatal in profiler
	}

	paths, err := makeFiles(dir, cfg)
	if err != nil {
		log.Fatal(err) //nolint:gocritic // exitAfterDefer is intentional - cleanup is best-effort
	}

	alg, err := binkit.ParseAlgorithm(cfg.algorithm)
	if err != nil {
		log.Fatal(err)
	}
	tk, err := binkit.New(
		binkit.WithAlgorithm(alg),
		binkit.WithChunkSize(cfg.chunkSize),
		binkit.WithWorkers(cfg.workers),
	)
	if err != nil {
		log.Fatal(err)
	}

	var stopFG func() error
	if cfg.fgProfile != "" {
		fgFile, fgErr := os.Create(cfg.fgProfile)
		if fgErr != nil {
			log.Fatal(fgErr)
		}
		stopFG = fgprof.Start(fgFile, fgprof.FormatPprof)
		defer func() {
			if err := stopFG(); err != nil {
				log.Printf("fgprof stop error: %v", err)
			}
			_ = fgFile.Close()
		}()
	}

	if cfg.cpuProfile != "" {
		cpuFile, cpuErr := os.Create(cfg.cpuProfile)
		if cpuErr != nil {
			log.Fatal(cpuErr)
		}
		if cpuErr = pprof.StartCPUProfile(cpuFile); cpuErr != nil {
			log.Fatal(cpuErr)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = cpuFile.Close()
		}()
	}

	if cfg.traceFile != "" {
		traceFile, traceErr := os.Create(cfg.traceFile)
		if traceErr != nil {
			log.Fatal(traceErr)
		}
		if traceErr = trace.Start(traceFile); traceErr != nil {
			log.Fatal(traceErr)
		}
		defer func() {
			trace.Stop()
			_ = traceFile.Close()
		}()
	}

	stats, err := runProfile(context.Background(), cfg, tk, paths, dir)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.memProfile != "" {
		runtime.GC()
		f, err := os.Create(cfg.memProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal(err)
		}
		_ = f.Close()
	}

	fmt.Printf("mode=%s ops=%d bytes=%d elapsed=%s throughput=%.2f MB/s\n",
		cfg.mode,
		stats.ops,
		stats.bytes,
		stats.elapsed,
		float64(stats.bytes)/(1024*1024)/stats.elapsed.Seconds(),
	)
}

type profileStats struct {
	ops     int
	bytes   int64
	elapsed time.Duration
}

//nolint:gocognit,gocyclo,gocritic // complexity is inherent to multi-mode profiler dispatch; hugeParam acceptable for profiler
func runProfile(ctx context.Context, cfg config, tk *binkit.Toolkit, paths []string, rootDir string) (profileStats, error) {
	refs := make([]binkit.Ref, 0, len(paths))
	var totalBytes int64
	for _, p := range paths {
		ref, err := source.File(p)
		if err != nil {
			return profileStats{}, err
		}
		size, _ := ref.Size()
		totalBytes += size
		refs = append(refs, ref)
	}

	start := time.Now()
	ops := 0
	var byteCount int64

	shouldContinue := func() bool {
		if cfg.iterations > 0 {
			return ops < cfg.iterations
		}
		return time.Since(start) < cfg.duration
	}

	switch cfg.mode {
	case "hash":
		for shouldContinue() {
			ref := refs[ops%len(refs)]
			d, err := tk.Hash(ctx, ref)
			if err != nil {
				return profileStats{}, err
			}
			sinkDigest = d
			size, _ := ref.Size()
			byteCount += size
			ops++
		}

	case "inspect":
		for shouldContinue() {
			ref := refs[ops%len(refs)]
			res, err := tk.Inspect(ctx, ref, "")
			if err != nil {
				return profileStats{}, err
			}
			sinkDigest = res.Digest
			byteCount += res.Size
			ops++
		}

	case "dedup":
		for shouldContinue() {
			groups, err := tk.Group(ctx, refs)
			if err != nil {
				return profileStats{}, err
			}
			sinkGroups = groups
			byteCount += totalBytes
			ops++
		}

	case "split":
		big, err := mergedFile(ctx, tk, refs, rootDir)
		if err != nil {
			return profileStats{}, err
		}
		size, _ := big.Size()
		for shouldContinue() {
			parts, err := tk.Split(ctx, big, cfg.splitSize, sink.NewMemorySink())
			if err != nil {
				return profileStats{}, err
			}
			sinkCount = len(parts)
			byteCount += size
			ops++
		}

	case "merge":
		for shouldContinue() {
			n, err := tk.Merge(ctx, io.Discard, refs)
			if err != nil {
				return profileStats{}, err
			}
			byteCount += n
			ops++
		}

	case "extract", "extract-gzip":
		archive, err := buildTar(paths, rootDir, cfg.mode == "extract-gzip")
		if err != nil {
			return profileStats{}, err
		}
		for shouldContinue() {
			entries, err := tk.Extract(ctx, archive, "")
			if err != nil {
				return profileStats{}, err
			}
			sinkCount = len(entries)
			byteCount += totalBytes
			ops++
		}

	case "bundle":
		archive, err := buildTar(paths, rootDir, false)
		if err != nil {
			return profileStats{}, err
		}
		entries, err := tk.Extract(ctx, archive, "")
		if err != nil {
			return profileStats{}, err
		}
		for shouldContinue() {
			data, err := tk.Bundle(ctx, entries)
			if err != nil {
				return profileStats{}, err
			}
			sinkCount = len(data)
			byteCount += totalBytes
			ops++
		}

	default:
		return profileStats{}, fmt.Errorf("unknown mode: %s", cfg.mode)
	}

	return profileStats{
		ops:     ops,
		bytes:   byteCount,
		elapsed: time.Since(start),
	}, nil
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.mode, "mode", "hash", "mode: hash, inspect, dedup, split, merge, extract, extract-gzip, bundle")
	flag.IntVar(&cfg.files, "files", 512, "number of files")
	flag.IntVar(&cfg.fileSize, "file-size", 64<<10, "file size in bytes")
	flag.Float64Var(&cfg.dupRatio, "dup-ratio", 0.25, "fraction of files that copy an earlier file")
	flag.StringVar(&cfg.pattern, "pattern", "random", "pattern: compressible or random")
	flag.StringVar(&cfg.algorithm, "algorithm", "sha256", "hash algorithm: sha256, sha1, md5, blake3")
	flag.IntVar(&cfg.chunkSize, "chunk-size", 2<<20, "hash read chunk size in bytes")
	flag.Int64Var(&cfg.splitSize, "split-size", 1<<20, "part size for split mode")
	flag.IntVar(&cfg.workers, "workers", 0, "dedup workers: <0 serial, 0 auto, >0 fixed")
	flag.StringVar(&cfg.fgProfile, "fgprofile", "", "write fgprof (wall clock) profile to file")
	flag.DurationVar(&cfg.duration, "duration", 10*time.Second, "duration to run (ignored if iterations > 0)")
	flag.IntVar(&cfg.iterations, "iterations", 0, "number of iterations to run")
	flag.StringVar(&cfg.pprofAddr, "pprof-addr", "", "pprof listen address (e.g. :6060)")
	flag.StringVar(&cfg.cpuProfile, "cpuprofile", "", "write CPU profile to file")
	flag.StringVar(&cfg.memProfile, "memprofile", "", "write heap profile to file")
	flag.StringVar(&cfg.traceFile, "trace", "", "write trace to file")
	flag.StringVar(&cfg.tempDir, "temp-dir", "", "directory to use for dataset")
	flag.BoolVar(&cfg.keepTemp, "keep-temp", false, "keep temp dir after run")
	flag.Int64Var(&cfg.randomSeed, "seed", 1, "random seed")
	flag.Parse()
	return cfg
}

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func setupTempDir(cfg config) (string, func() error, error) {
	if cfg.tempDir != "" {
		return cfg.tempDir, nil, os.MkdirAll(cfg.tempDir, 0o755) //nolint:gosec // 0o755 is intentional for profiler temp dirs
	}
	dir, err := os.MkdirTemp("", "binkit-profiler-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() error {
		if cfg.keepTemp {
			return nil
		}
		return os.RemoveAll(dir)
	}
	return dir, cleanup, nil
}

// makeFiles writes the dataset and returns absolute paths. Roughly dupRatio
// of the files repeat the content of an earlier file.
//
//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func makeFiles(dir string, cfg config) ([]string, error) {
	paths := make([]string, 0, cfg.files)
	contents := make([][]byte, 0, cfg.files)
	rng := rand.New(rand.NewSource(cfg.randomSeed)) //nolint:gosec // intentional use for reproducible benchmarks
	for i := range cfg.files {
		fullPath := filepath.Join(dir, "data", fmt.Sprintf("file%05d.dat", i))
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil { //nolint:gosec // 0o755 is intentional for profiler
			return nil, err
		}

		var content []byte
		if i > 0 && rng.Float64() < cfg.dupRatio {
			content = contents[rng.Intn(len(contents))]
		} else {
			switch cfg.pattern {
			case "random":
				content = testutil.RandomBytes(uint64(cfg.randomSeed)+uint64(i), cfg.fileSize) //nolint:gosec // seed is a flag value
			default:
				content = bytes.Repeat([]byte{byte('a' + (i % 26))}, cfg.fileSize)
				if len(content) > 0 {
					content[0] = byte(i)
				}
			}
		}
		contents = append(contents, content)

		if err := os.WriteFile(fullPath, content, 0o644); err != nil { //nolint:gosec // 0o644 is intentional for profiler test files
			return nil, err
		}
		paths = append(paths, fullPath)
	}
	return paths, nil
}

// mergedFile concatenates the dataset into one file for split mode.
func mergedFile(ctx context.Context, tk *binkit.Toolkit, refs []binkit.Ref, rootDir string) (binkit.Ref, error) {
	dst, err := sink.NewFileSink(rootDir, sink.WithOverwrite(true))
	if err != nil {
		return nil, err
	}
	w, err := dst.Writer("merged.bin")
	if err != nil {
		return nil, err
	}
	if _, err := tk.Merge(ctx, w, refs); err != nil {
		_ = w.Discard() //nolint:errcheck // best-effort cleanup
		return nil, err
	}
	if err := w.Commit(); err != nil {
		return nil, err
	}
	return source.File(filepath.Join(rootDir, "merged.bin"))
}

// buildTar packs the dataset into a ustar archive, optionally gzip-wrapped.
func buildTar(paths []string, rootDir string, compress bool) (binkit.Ref, error) {
	var buf bytes.Buffer
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		buf.Write(testutil.TarFile(filepath.Base(p), content))
	}
	buf.Write(testutil.TarEnd())

	name := "dataset.tar"
	data := buf.Bytes()
	if compress {
		var gz bytes.Buffer
		zw := gzip.NewWriter(&gz)
		if _, err := zw.Write(data); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		name = "dataset.tar.gz"
		data = gz.Bytes()
	}
	path := filepath.Join(rootDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // 0o644 is intentional for profiler test files
		return nil, err
	}
	return source.File(path)
}
