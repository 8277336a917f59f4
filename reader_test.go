// SPDX-License-Identifier: MIT
// Copyright (c) 2026 KalaKit
// Source: github.com/KalaKit/KalaData

package kdat

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// appendTestRecord serializes one record for handcrafted archives.
func appendTestRecord(dst []byte, path string, method byte, originalSize, storedSize uint64, payload []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(path)))
	dst = append(dst, path...)
	dst = append(dst, method)
	dst = binary.LittleEndian.AppendUint64(dst, originalSize)
	dst = binary.LittleEndian.AppendUint64(dst, storedSize)

	return append(dst, payload...)
}

// buildTestArchive assembles a KDAT header plus prebuilt record bytes.
func buildTestArchive(fileCount uint32, records []byte) []byte {
	out := append([]byte{}, magic...)
	out = append(out, versionDigits...)
	out = binary.LittleEndian.AppendUint32(out, fileCount)

	return append(out, records...)
}

// openArchiveBytes parses an in-memory archive.
func openArchiveBytes(data []byte) (*Reader, error) {
	return NewReaderFromReaderAt(bytes.NewReader(data), int64(len(data)))
}

func TestOpenParsesEntries(t *testing.T) {
	t.Parallel()

	files := map[string][]byte{
		"docs/readme.txt": []byte("read me first"),
		"bin/empty":       nil,
	}

	target := packTree(t, files, PackOptions{})

	r, err := Open(target)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = r.Close() }()

	entries := r.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries=%d, want 2", len(entries))
	}

	byPath := map[string]EntryInfo{}
	for _, e := range entries {
		byPath[e.Path] = e
	}

	if e, ok := byPath["docs/readme.txt"]; !ok || e.OriginalSize != uint64(len(files["docs/readme.txt"])) {
		t.Fatalf("readme entry=%+v", e)
	}
	if e, ok := byPath["bin/empty"]; !ok || e.OriginalSize != 0 {
		t.Fatalf("empty entry=%+v", e)
	}
}

func TestReadEntry(t *testing.T) {
	t.Parallel()

	content := bytes.Repeat([]byte("entry payload "), 400)
	target := packTree(t, map[string][]byte{"data/payload.bin": content}, PackOptions{Preset: PresetFast})

	r, err := Open(target)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = r.Close() }()

	got, err := r.ReadEntry("data/payload.bin")
	if err != nil {
		t.Fatalf("ReadEntry: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatal("ReadEntry content mismatch")
	}

	if _, err := r.ReadEntry("missing.bin"); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestReadEntryAfterClose(t *testing.T) {
	t.Parallel()

	target := packTree(t, map[string][]byte{"a.txt": []byte("a")}, PackOptions{})

	r, err := Open(target)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := r.ReadEntry("a.txt"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestOpenWithOptionsFilters(t *testing.T) {
	t.Parallel()

	files := map[string][]byte{
		"scripts/main.c":  []byte("int main() { return 0; }"),
		"scripts/util.c":  []byte("tiny"),
		"textures/sky.px": []byte("pixels pixels pixels"),
	}

	target := packTree(t, files, PackOptions{})

	t.Run("prefix", func(t *testing.T) {
		t.Parallel()

		r, err := OpenWithOptions(target, ReaderOptions{EntryPathPrefix: "scripts"})
		if err != nil {
			t.Fatalf("OpenWithOptions: %v", err)
		}
		defer func() { _ = r.Close() }()

		for _, e := range r.Entries() {
			if e.Path != "scripts/main.c" && e.Path != "scripts/util.c" {
				t.Fatalf("unexpected entry %s", e.Path)
			}
		}
		if got := len(r.Entries()); got != 2 {
			t.Fatalf("entries=%d, want 2", got)
		}
	})

	t.Run("min size", func(t *testing.T) {
		t.Parallel()

		r, err := OpenWithOptions(target, ReaderOptions{MinEntryOriginalSize: 10})
		if err != nil {
			t.Fatalf("OpenWithOptions: %v", err)
		}
		defer func() { _ = r.Close() }()

		for _, e := range r.Entries() {
			if e.OriginalSize < 10 {
				t.Fatalf("entry %s below size threshold", e.Path)
			}
		}
		if got := len(r.Entries()); got != 2 {
			t.Fatalf("entries=%d, want 2", got)
		}
	})
}

func TestOpenRejectsInvalidMagic(t *testing.T) {
	t.Parallel()

	target := packTree(t, map[string][]byte{"a.txt": []byte("alpha")}, PackOptions{})

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}

	data[3] = 'X' // KDAT -> KDAX

	if _, err := openArchiveBytes(data); !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("expected ErrInvalidMagic, got %v", err)
	}
}

func TestOpenRejectsVersions(t *testing.T) {
	t.Parallel()

	records := appendTestRecord(nil, "a.txt", MethodRaw, 1, 1, []byte("a"))

	testCases := []struct {
		name    string
		version string
	}{
		{name: "legacy 01", version: "01"},
		{name: "future 03", version: "03"},
		{name: "future 99", version: "99"},
		{name: "non-numeric", version: "v2"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			data := buildTestArchive(1, records)
			copy(data[4:6], tc.version)

			if _, err := openArchiveBytes(data); !errors.Is(err, ErrUnsupportedVersion) {
				t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
			}
		})
	}
}

func TestOpenRejectsFileCounts(t *testing.T) {
	t.Parallel()

	records := appendTestRecord(nil, "a.txt", MethodRaw, 1, 1, []byte("a"))

	testCases := []struct {
		name  string
		count uint32
	}{
		{name: "zero", count: 0},
		{name: "implausible", count: maxFileCount + 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			data := buildTestArchive(tc.count, records)
			if _, err := openArchiveBytes(data); !errors.Is(err, ErrInvalidFileCount) {
				t.Fatalf("expected ErrInvalidFileCount, got %v", err)
			}
		})
	}
}

func TestOpenRejectsUnknownMethod(t *testing.T) {
	t.Parallel()

	records := appendTestRecord(nil, "a.txt", 2, 1, 1, []byte("a"))
	data := buildTestArchive(1, records)

	if _, err := openArchiveBytes(data); !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod, got %v", err)
	}
}

func TestOpenRejectsSizeInvariantViolations(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		records []byte
	}{
		{name: "raw stored differs", records: appendTestRecord(nil, "a.txt", MethodRaw, 5, 4, []byte("abcd"))},
		{name: "compressed stored equal", records: appendTestRecord(nil, "a.txt", MethodCompressed, 5, 5, []byte("abcde"))},
		{name: "compressed stored larger", records: appendTestRecord(nil, "a.txt", MethodCompressed, 5, 6, []byte("abcdef"))},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			data := buildTestArchive(1, tc.records)
			if _, err := openArchiveBytes(data); !errors.Is(err, ErrSizeMismatch) {
				t.Fatalf("expected ErrSizeMismatch, got %v", err)
			}
		})
	}
}

func TestOpenRejectsTraversalPaths(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		path string
		want error
	}{
		{name: "parent escape", path: "../evil", want: ErrPathTraversal},
		{name: "nested escape", path: "..//etc/passwd", want: ErrPathTraversal},
		{name: "absolute", path: "/etc/passwd", want: ErrPathTraversal},
		{name: "drive prefix", path: `C:\evil`, want: ErrPathTraversal},
		{name: "dot only", path: ".", want: ErrInvalidEntryPath},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			records := appendTestRecord(nil, tc.path, MethodRaw, 1, 1, []byte("x"))
			data := buildTestArchive(1, records)

			if _, err := openArchiveBytes(data); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestOpenRejectsTruncatedArchives(t *testing.T) {
	t.Parallel()

	records := appendTestRecord(nil, "dir/file.bin", MethodRaw, 8, 8, []byte("12345678"))
	full := buildTestArchive(1, records)

	testCases := []struct {
		name string
		size int
	}{
		{name: "mid header", size: headerSize - 3},
		{name: "mid path", size: headerSize + 6},
		{name: "mid fields", size: headerSize + 4 + len("dir/file.bin") + 5},
		{name: "mid payload", size: len(full) - 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := openArchiveBytes(full[:tc.size]); !errors.Is(err, ErrTruncatedArchive) {
				t.Fatalf("expected ErrTruncatedArchive, got %v", err)
			}
		})
	}
}

func TestOpenMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Open(filepath.Join(t.TempDir(), "missing.kdat")); err == nil {
		t.Fatal("expected error for missing archive")
	}
}
