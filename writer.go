// SPDX-License-Identifier: MIT
// Copyright (c) 2026 KalaKit
// Source: github.com/KalaKit/KalaData

package kdat

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// defaultWriteBuffer is the buffered writer size for archive output.
const defaultWriteBuffer = 4 * 1024 * 1024

// packFile is one collected origin file with its archive path.
type packFile struct {
	absPath string
	relPath string
	size    int64
}

// Pack compresses the origin directory tree into a new .kdat archive at
// target. The origin must contain at least one regular file and its
// recursive size must not exceed 5 GiB; the target must not exist. On
// failure the partial archive is left on disk for inspection.
func Pack(ctx context.Context, origin, target string, opts PackOptions) (*PackResult, error) {
	startedAt := time.Now()

	if ctx == nil {
		ctx = context.Background()
	}

	opts.applyDefaults()

	matcher, err := newCompressMatcher(opts.Compress, opts.CompressMatcherOptions)
	if err != nil {
		return nil, fmt.Errorf("compile compress rules: %w", err)
	}

	if filepath.Ext(target) != Extension {
		return nil, fmt.Errorf("%w: %q", ErrInvalidExtension, target)
	}

	files, totalSize, err := collectPackFiles(origin)
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoInputFiles, origin)
	}

	if len(files) > maxFileCount {
		return nil, fmt.Errorf("%w: %d files exceeds %d", ErrInvalidFileCount, len(files), maxFileCount)
	}

	if totalSize > maxArchiveTotal {
		return nil, fmt.Errorf("%w: origin holds %d bytes, limit is %d", ErrSizeOverflow, totalSize, int64(maxArchiveTotal))
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrTargetExists, target)
		}

		return nil, fmt.Errorf("create archive: %w", err)
	}
	defer func() {
		if f != nil {
			_ = f.Close()
		}
	}()

	w := bufio.NewWriterSize(f, defaultWriteBuffer)

	res, err := writeArchive(ctx, w, files, matcher, opts)
	if err != nil {
		return nil, err
	}

	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("flush archive: %w", err)
	}

	if err := f.Sync(); err != nil {
		return nil, fmt.Errorf("sync archive: %w", err)
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	f = nil

	info, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("stat archive: %w", err)
	}

	res.OriginSize = uint64(totalSize)
	res.ArchiveSize = uint64(info.Size())
	res.Duration = time.Since(startedAt)

	return res, nil
}

// collectPackFiles walks origin recursively and captures every regular
// file in the enumeration order of the walk.
func collectPackFiles(origin string) ([]packFile, int64, error) {
	var files []packFile
	var totalSize int64

	err := filepath.WalkDir(origin, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}

		rel, err := filepath.Rel(origin, p)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", p, err)
		}

		relPath, err := normalizeArchiveEntryPath(rel)
		if err != nil {
			return err
		}

		if len(relPath) > maxPathLen {
			return fmt.Errorf("%w: %q is longer than %d bytes", ErrInvalidEntryPath, relPath, maxPathLen)
		}

		files = append(files, packFile{absPath: p, relPath: relPath, size: info.Size()})
		totalSize += info.Size()

		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("walk origin %s: %w", origin, err)
	}

	return files, totalSize, nil
}

// writeArchive writes the fixed header and every per-file record in the
// captured order.
func writeArchive(
	ctx context.Context,
	w *bufio.Writer,
	files []packFile,
	matcher *compressMatcher,
	opts PackOptions,
) (*PackResult, error) {
	header := make([]byte, 0, headerSize)
	header = append(header, magic...)
	header = append(header, versionDigits...)
	header = binary.LittleEndian.AppendUint32(header, uint32(len(files)))
	if _, err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	res := &PackResult{FileCount: len(files)}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := os.ReadFile(file.absPath)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file.absPath, err)
		}

		candidate := matcher.Match(file.relPath)

		method := MethodRaw
		payload := raw
		if candidate {
			method, payload, err = encodeFilePayload(raw, opts.WindowSize, opts.Lookahead)
			if err != nil {
				return nil, fmt.Errorf("compress %s: %w", file.relPath, err)
			}
		}

		if err := writeRecord(w, file.relPath, method, uint64(len(raw)), payload); err != nil {
			return nil, err
		}

		switch {
		case len(raw) == 0:
			res.EmptyEntries++
		case method == MethodCompressed:
			res.CompressedEntries++
		default:
			res.RawEntries++
		}

		if opts.OnEntryDone != nil {
			opts.OnEntryDone(PackEntryProgress{
				Path:                 file.relPath,
				Method:               method,
				OriginalSize:         uint64(len(raw)),
				StoredSize:           uint64(len(payload)),
				CompressionCandidate: candidate,
			})
		}
	}

	return res, nil
}

// writeRecord writes one per-file record: path length and bytes, method
// flag, original and stored sizes, payload.
func writeRecord(w io.Writer, relPath string, method byte, originalSize uint64, payload []byte) error {
	meta := make([]byte, 0, 4+len(relPath)+1+8+8)
	meta = binary.LittleEndian.AppendUint32(meta, uint32(len(relPath)))
	meta = append(meta, relPath...)
	meta = append(meta, method)
	meta = binary.LittleEndian.AppendUint64(meta, originalSize)
	meta = binary.LittleEndian.AppendUint64(meta, uint64(len(payload)))
	if _, err := w.Write(meta); err != nil {
		return fmt.Errorf("write metadata for %s: %w", relPath, err)
	}

	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("write payload for %s: %w", relPath, err)
		}
	}

	return nil
}
