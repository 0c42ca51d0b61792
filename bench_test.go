package binkit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"testing"

	"github.com/meigma/binkit/internal/testutil"
	"github.com/meigma/binkit/sink"
	"github.com/meigma/binkit/source"
)

var (
	benchSinkDigest Digest
	benchSinkGroups []Group
	benchSinkInt    int
)

func init() {
	if os.Getenv("BINKIT_PROFILE_BLOCK") == "1" {
		runtime.SetBlockProfileRate(1)
	}
	if os.Getenv("BINKIT_PROFILE_MUTEX") == "1" {
		runtime.SetMutexProfileFraction(1)
	}
}

func BenchmarkHash(b *testing.B) {
	cases := []struct {
		alg   Algorithm
		size  int
		chunk int
	}{
		{alg: SHA256, size: 1 << 20, chunk: 64 << 10},
		{alg: SHA256, size: 1 << 20, chunk: 2 << 20},
		{alg: SHA1, size: 1 << 20, chunk: 2 << 20},
		{alg: MD5, size: 1 << 20, chunk: 2 << 20},
		{alg: BLAKE3, size: 1 << 20, chunk: 2 << 20},
	}

	for _, tc := range cases {
		b.Run(fmt.Sprintf("%s/size=%d/chunk=%d", tc.alg, tc.size, tc.chunk), func(b *testing.B) {
			tk, err := New(WithAlgorithm(tc.alg), WithChunkSize(tc.chunk))
			if err != nil {
				b.Fatal(err)
			}
			ref := source.Bytes("bench", testutil.RandomBytes(1, tc.size))
			ctx := context.Background()

			b.SetBytes(int64(tc.size))
			b.ReportAllocs()
			for b.Loop() {
				d, err := tk.Hash(ctx, ref)
				if err != nil {
					b.Fatal(err)
				}
				benchSinkDigest = d
			}
		})
	}
}

func BenchmarkGroup(b *testing.B) {
	cases := []struct {
		files   int
		size    int
		workers int
	}{
		{files: 128, size: 16 << 10, workers: -1},
		{files: 128, size: 16 << 10, workers: 0},
		{files: 32, size: 256 << 10, workers: 0},
	}

	for _, tc := range cases {
		b.Run(fmt.Sprintf("files=%d/size=%d/workers=%d", tc.files, tc.size, tc.workers), func(b *testing.B) {
			tk, err := New(WithWorkers(tc.workers))
			if err != nil {
				b.Fatal(err)
			}
			refs := make([]Ref, tc.files)
			for i := range refs {
				// Every fourth file repeats its predecessor; all share one size
				// so the size prefilter cannot skip hashing.
				seed := uint64(i)
				if i%4 == 3 {
					seed = uint64(i - 1)
				}
				refs[i] = source.Bytes(fmt.Sprintf("f%04d", i), testutil.RandomBytes(seed, tc.size))
			}
			ctx := context.Background()

			b.SetBytes(int64(tc.files * tc.size))
			b.ReportAllocs()
			for b.Loop() {
				groups, err := tk.Group(ctx, refs)
				if err != nil {
					b.Fatal(err)
				}
				benchSinkGroups = groups
			}
		})
	}
}

func BenchmarkExtractTar(b *testing.B) {
	cases := []struct {
		files int
		size  int
	}{
		{files: 16, size: 64 << 10},
		{files: 512, size: 2 << 10},
	}

	for _, tc := range cases {
		b.Run(fmt.Sprintf("files=%d/size=%d", tc.files, tc.size), func(b *testing.B) {
			var buf bytes.Buffer
			for i := range tc.files {
				buf.Write(testutil.TarFile(fmt.Sprintf("dir/file%04d", i), testutil.RandomBytes(uint64(i), tc.size)))
			}
			buf.Write(testutil.TarEnd())
			ref := source.Bytes("bench.tar", buf.Bytes())
			tk, err := New()
			if err != nil {
				b.Fatal(err)
			}
			ctx := context.Background()

			b.SetBytes(int64(buf.Len()))
			b.ReportAllocs()
			for b.Loop() {
				entries, err := tk.Extract(ctx, ref, "")
				if err != nil {
					b.Fatal(err)
				}
				benchSinkInt = len(entries)
			}
		})
	}
}

func BenchmarkSplitMerge(b *testing.B) {
	const size = 8 << 20
	data := testutil.RandomBytes(7, size)
	tk, err := New()
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()

	b.Run("split", func(b *testing.B) {
		ref := source.Bytes("bench", data)
		b.SetBytes(size)
		b.ReportAllocs()
		for b.Loop() {
			parts, err := tk.Split(ctx, ref, 1<<20, sink.NewMemorySink())
			if err != nil {
				b.Fatal(err)
			}
			benchSinkInt = len(parts)
		}
	})

	b.Run("merge", func(b *testing.B) {
		refs := make([]Ref, 8)
		for i := range refs {
			refs[i] = source.Bytes(fmt.Sprintf("part%03d", i+1), data[i<<20:(i+1)<<20])
		}
		b.SetBytes(size)
		b.ReportAllocs()
		for b.Loop() {
			if _, err := tk.Merge(ctx, io.Discard, refs); err != nil {
				b.Fatal(err)
			}
		}
	})
}
