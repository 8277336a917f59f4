// SPDX-License-Identifier: MIT
// Copyright (c) 2026 KalaKit
// Source: github.com/KalaKit/KalaData

package kdat

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

const benchEntries = 32

// createBenchTree writes a fixture tree of identical compressible entries.
func createBenchTree(b *testing.B) string {
	b.Helper()

	root := b.TempDir()
	block := bytes.Repeat([]byte("benchmark fixture block "), 128)
	for i := 0; i < benchEntries; i++ {
		p := filepath.Join(root, "data", fmt.Sprintf("entry-%03d.bin", i))
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			b.Fatal(err)
		}
		if err := os.WriteFile(p, block, 0o600); err != nil {
			b.Fatal(err)
		}
	}

	return root
}

// createBenchArchive packs the fixture tree once for read benchmarks.
func createBenchArchive(b *testing.B) string {
	b.Helper()

	target := filepath.Join(b.TempDir(), "bench.kdat")
	if _, err := Pack(context.Background(), createBenchTree(b), target, PackOptions{Preset: PresetFastest}); err != nil {
		b.Fatal(err)
	}

	return target
}

func BenchmarkPack(b *testing.B) {
	origin := createBenchTree(b)
	scratch := b.TempDir()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		target := filepath.Join(scratch, fmt.Sprintf("bench-%d.kdat", i))
		if _, err := Pack(context.Background(), origin, target, PackOptions{Preset: PresetFastest}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkOpenParse(b *testing.B) {
	path := createBenchArchive(b)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r, err := Open(path)
		if err != nil {
			b.Fatal(err)
		}

		if len(r.Entries()) == 0 {
			b.Fatal("empty entries")
		}

		_ = r.Close()
	}
}

func BenchmarkExtract(b *testing.B) {
	path := createBenchArchive(b)
	scratch := b.TempDir()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		outDir := filepath.Join(scratch, fmt.Sprintf("out-%d", i))
		if _, err := Extract(context.Background(), path, outDir, ExtractOptions{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncodeFilePayload(b *testing.B) {
	input := bytes.Repeat([]byte("payload codec benchmark "), 2048)

	b.ReportAllocs()
	b.SetBytes(int64(len(input)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := encodeFilePayload(input, MinWindowSize, MinLookahead); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecodeFilePayload(b *testing.B) {
	input := bytes.Repeat([]byte("payload codec benchmark "), 2048)
	method, payload, err := encodeFilePayload(input, MinWindowSize, MinLookahead)
	if err != nil {
		b.Fatal(err)
	}
	if method != MethodCompressed {
		b.Fatal("fixture did not compress")
	}

	b.ReportAllocs()
	b.SetBytes(int64(len(input)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := decodeFilePayload(method, uint64(len(input)), payload); err != nil {
			b.Fatal(err)
		}
	}
}
