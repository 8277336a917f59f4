// SPDX-License-Identifier: MIT
// Copyright (c) 2026 KalaKit
// Source: github.com/KalaKit/KalaData

package kdat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Extract opens the origin archive and expands every entry into the
// target directory.
func Extract(ctx context.Context, origin, target string, opts ExtractOptions) (*ExtractResult, error) {
	if filepath.Ext(origin) != Extension {
		return nil, fmt.Errorf("%w: %q", ErrInvalidExtension, origin)
	}

	r, err := Open(origin)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	return r.Extract(ctx, target, opts)
}

// Extract writes selected entries to dstDir. Entries are processed
// sequentially in archive order; the first failure aborts the whole
// extraction and leaves already-extracted files on disk.
func (r *Reader) Extract(ctx context.Context, dstDir string, opts ExtractOptions) (*ExtractResult, error) {
	startedAt := time.Now()

	if r == nil || r.ra == nil {
		return nil, ErrNilReader
	}

	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	if ctx == nil {
		ctx = context.Background()
	}

	entries := r.entries
	if opts.Entries != nil {
		entries = opts.Entries
	}

	dstRootAbs, err := filepath.Abs(dstDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output dir: %w", err)
	}

	if err := os.MkdirAll(dstRootAbs, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	res := &ExtractResult{}
	for i := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := r.extractEntry(dstRootAbs, &entries[i], res, opts.OnEntryDone); err != nil {
			return nil, err
		}
	}

	res.FileCount = len(entries)
	res.Duration = time.Since(startedAt)

	return res, nil
}

// extractEntry verifies one entry's output path, decodes its payload,
// and writes the result. The descent check runs before any filesystem
// write for this entry.
func (r *Reader) extractEntry(
	dstRootAbs string,
	entry *EntryInfo,
	res *ExtractResult,
	onEntryDone func(entry EntryInfo, written int64, outputPath string),
) error {
	relPath, err := validateExtractEntryPath(entry.Path)
	if err != nil {
		return fmt.Errorf("entry %s: %w", entry.Path, err)
	}

	outPath, err := resolveExtractPath(dstRootAbs, relPath)
	if err != nil {
		return fmt.Errorf("entry %s: %w", entry.Path, err)
	}

	if dir := filepath.Dir(outPath); dir != dstRootAbs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create output directory %s: %w", dir, err)
		}
	}

	data, err := r.readEntryPayload(entry)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outPath, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", entry.Path, err)
	}

	switch {
	case entry.OriginalSize == 0:
		res.EmptyEntries++
	case entry.Method == MethodCompressed:
		res.DecompressedEntries++
	default:
		res.RawEntries++
	}

	res.OutputSize += uint64(len(data))

	if onEntryDone != nil {
		onEntryDone(*entry, int64(len(data)), outPath)
	}

	return nil
}
