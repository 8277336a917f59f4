// SPDX-License-Identifier: MIT
// Copyright (c) 2026 KalaKit
// Source: github.com/KalaKit/KalaData

package kdat

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
)

// readerBufferSize is the sequential read buffer for record metadata parsing.
const readerBufferSize = 64 * 1024

// Reader provides read-only access to a parsed KDAT archive.
type Reader struct {
	// ra is the underlying random-access reader used for payload reads.
	ra io.ReaderAt
	// file is set when Reader owns an *os.File opened via Open.
	file *os.File
	// entries stores parsed immutable entry metadata.
	entries []EntryInfo
	// size is total source size in bytes.
	size int64
	// mu guards closed state and close operation.
	mu sync.Mutex
	// closed reports whether Close was already called.
	closed bool
}

// Open opens a KDAT archive by path and parses its metadata.
func Open(path string) (*Reader, error) {
	return OpenWithOptions(path, ReaderOptions{})
}

// OpenWithOptions opens a KDAT archive by path and parses its metadata
// using explicit reader options.
func OpenWithOptions(path string, opts ReaderOptions) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}

	r, err := NewReaderFromReaderAtWithOptions(f, fi.Size(), opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r.file = f

	return r, nil
}

// NewReaderFromReaderAt parses a KDAT archive from an existing ReaderAt
// and known size.
func NewReaderFromReaderAt(ra io.ReaderAt, size int64) (*Reader, error) {
	return NewReaderFromReaderAtWithOptions(ra, size, ReaderOptions{})
}

// NewReaderFromReaderAtWithOptions parses a KDAT archive from an
// existing ReaderAt and known size using explicit reader options.
func NewReaderFromReaderAtWithOptions(ra io.ReaderAt, size int64, opts ReaderOptions) (*Reader, error) {
	r := &Reader{ra: ra, size: size}
	if err := r.parse(ra, size, opts); err != nil {
		return nil, err
	}

	return r, nil
}

// Entries returns a copy of the visible entry metadata.
func (r *Reader) Entries() []EntryInfo {
	if r == nil {
		return nil
	}

	entries := make([]EntryInfo, len(r.entries))
	copy(entries, r.entries)

	return entries
}

// Close closes the underlying file if the reader owns one.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true
	if r.file != nil {
		return r.file.Close()
	}

	return nil
}

// ReadEntry reads the full decompressed content of the named entry.
func (r *Reader) ReadEntry(name string) ([]byte, error) {
	if r == nil || r.ra == nil {
		return nil, ErrNilReader
	}

	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	entry := r.findEntryByName(name)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}

	return r.readEntryPayload(entry)
}

// findEntryByName resolves one entry by normalized path.
func (r *Reader) findEntryByName(name string) *EntryInfo {
	lookupName := NormalizePath(name)
	for i := range r.entries {
		if r.entries[i].Path == lookupName {
			return &r.entries[i]
		}
	}

	return nil
}

// readEntryPayload reads one entry's stored payload and decodes it.
func (r *Reader) readEntryPayload(entry *EntryInfo) ([]byte, error) {
	payload := make([]byte, entry.StoredSize)
	sr := io.NewSectionReader(r.ra, entry.offset, int64(entry.StoredSize))
	if _, err := io.ReadFull(sr, payload); err != nil {
		return nil, fmt.Errorf("%w: %w: payload of %s", ErrCorruptedArchive, ErrTruncatedArchive, entry.Path)
	}

	data, err := decodeFilePayload(entry.Method, entry.OriginalSize, payload)
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", entry.Path, err)
	}

	return data, nil
}

// parse reads and validates the archive header and every record's
// metadata, capturing payload offsets for later reads.
func (r *Reader) parse(ra io.ReaderAt, size int64, opts ReaderOptions) error {
	sr := io.NewSectionReader(ra, 0, size)
	br := bufio.NewReaderSize(sr, readerBufferSize)

	fileCount, err := parseHeader(br)
	if err != nil {
		return err
	}

	pos := int64(headerSize)
	r.entries = make([]EntryInfo, 0, fileCount)
	for i := uint32(0); i < fileCount; i++ {
		entry, consumed, err := parseRecordMeta(br)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}

		pos += consumed
		entry.offset = pos

		payloadEnd := pos + int64(entry.StoredSize)
		if entry.StoredSize > uint64(size) || payloadEnd > size {
			return fmt.Errorf("%w: %w: payload of %s runs past archive end",
				ErrCorruptedArchive, ErrTruncatedArchive, entry.Path)
		}

		if err := discardPayload(br, int64(entry.StoredSize)); err != nil {
			return fmt.Errorf("%w: %w: payload of %s", ErrCorruptedArchive, ErrTruncatedArchive, entry.Path)
		}

		pos = payloadEnd
		r.entries = append(r.entries, entry)
	}

	r.entries = filterEntriesBySize(r.entries, opts.MinEntryOriginalSize)
	r.entries = filterEntriesByPrefix(r.entries, opts.EntryPathPrefix)

	return nil
}

// parseHeader validates magic and version digits and returns the file count.
func parseHeader(br *bufio.Reader) (uint32, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		return 0, fmt.Errorf("%w: %w: short header", ErrCorruptedArchive, ErrTruncatedArchive)
	}

	if !bytes.Equal(header[0:4], []byte(magic)) {
		return 0, fmt.Errorf("%w: %w: %q", ErrCorruptedArchive, ErrInvalidMagic, header[0:4])
	}

	version, ok := parseVersionDigits(header[4], header[5])
	if !ok {
		return 0, fmt.Errorf("%w: %w: non-numeric digits %q",
			ErrCorruptedArchive, ErrUnsupportedVersion, header[4:6])
	}

	if version != formatVersion {
		return 0, fmt.Errorf("%w: %w: version %02d, supported %s",
			ErrCorruptedArchive, ErrUnsupportedVersion, version, versionDigits)
	}

	fileCount := binary.LittleEndian.Uint32(header[6:10])
	if fileCount == 0 || fileCount > maxFileCount {
		return 0, fmt.Errorf("%w: %w: %d", ErrCorruptedArchive, ErrInvalidFileCount, fileCount)
	}

	return fileCount, nil
}

// parseVersionDigits decodes the two ASCII version digits.
func parseVersionDigits(hi, lo byte) (int, bool) {
	if hi < '0' || hi > '9' || lo < '0' || lo > '9' {
		return 0, false
	}

	return int(hi-'0')*10 + int(lo-'0'), true
}

// parseRecordMeta reads one record's metadata and validates the storage
// method invariants and path safety. It returns the consumed byte count.
func parseRecordMeta(br *bufio.Reader) (EntryInfo, int64, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(br, lenBuf[:]); err != nil {
		return EntryInfo{}, 0, fmt.Errorf("%w: %w: path length", ErrCorruptedArchive, ErrTruncatedArchive)
	}

	pathLen := binary.LittleEndian.Uint32(lenBuf[:])
	if pathLen == 0 || pathLen > maxPathLen {
		return EntryInfo{}, 0, fmt.Errorf("%w: %w: path length %d", ErrCorruptedArchive, ErrInvalidEntryPath, pathLen)
	}

	pathBuf := make([]byte, pathLen)
	if _, err := io.ReadFull(br, pathBuf); err != nil {
		return EntryInfo{}, 0, fmt.Errorf("%w: %w: path bytes", ErrCorruptedArchive, ErrTruncatedArchive)
	}

	var metaBuf [1 + 8 + 8]byte
	if _, err := io.ReadFull(br, metaBuf[:]); err != nil {
		return EntryInfo{}, 0, fmt.Errorf("%w: %w: record fields", ErrCorruptedArchive, ErrTruncatedArchive)
	}

	method := metaBuf[0]
	originalSize := binary.LittleEndian.Uint64(metaBuf[1:9])
	storedSize := binary.LittleEndian.Uint64(metaBuf[9:17])

	relPath, err := validateExtractEntryPath(string(pathBuf))
	if err != nil {
		return EntryInfo{}, 0, fmt.Errorf("%w: %w", ErrCorruptedArchive, err)
	}

	switch method {
	case MethodRaw:
		if storedSize != originalSize {
			return EntryInfo{}, 0, fmt.Errorf("%w: %w: raw %s stores %d bytes, declared %d",
				ErrCorruptedArchive, ErrSizeMismatch, relPath, storedSize, originalSize)
		}
	case MethodCompressed:
		if storedSize >= originalSize {
			return EntryInfo{}, 0, fmt.Errorf("%w: %w: compressed %s stores %d bytes, declared %d",
				ErrCorruptedArchive, ErrSizeMismatch, relPath, storedSize, originalSize)
		}
	default:
		return EntryInfo{}, 0, fmt.Errorf("%w: %w: %d for %s", ErrCorruptedArchive, ErrUnknownMethod, method, relPath)
	}

	entry := EntryInfo{
		Path:         relPath,
		Method:       method,
		OriginalSize: originalSize,
		StoredSize:   storedSize,
	}

	return entry, int64(4) + int64(pathLen) + 1 + 8 + 8, nil
}

// discardPayload skips n payload bytes of the buffered stream.
func discardPayload(br *bufio.Reader, n int64) error {
	for n > 0 {
		chunk := n
		if chunk > readerBufferSize {
			chunk = readerBufferSize
		}

		discarded, err := br.Discard(int(chunk))
		n -= int64(discarded)
		if err != nil {
			return err
		}
	}

	return nil
}
