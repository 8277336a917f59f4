// SPDX-License-Identifier: MIT
// Copyright (c) 2026 KalaKit
// Source: github.com/KalaKit/KalaData

package kdat

import "errors"

// Sentinel errors for KDAT operations. Use errors.Is in callers.
var (
	// ErrCorruptedArchive is the common ancestor of every corruption failure.
	ErrCorruptedArchive = errors.New("corrupted archive")
	// ErrInvalidMagic means the archive does not start with the KDAT magic.
	ErrInvalidMagic = errors.New("invalid magic")
	// ErrUnsupportedVersion means the archive version digits are not the pinned format version.
	ErrUnsupportedVersion = errors.New("unsupported archive version")
	// ErrInvalidFileCount means the archive file count is zero or implausibly large.
	ErrInvalidFileCount = errors.New("invalid archive file count")
	// ErrUnknownMethod means an entry carries a storage method flag outside {raw, compressed}.
	ErrUnknownMethod = errors.New("unknown storage method flag")
	// ErrSizeMismatch means stored/original/decoded sizes violate the storage method invariant.
	ErrSizeMismatch = errors.New("entry size mismatch")
	// ErrTruncatedArchive means the archive ended while metadata or payload was expected.
	ErrTruncatedArchive = errors.New("unexpected end of archive")
	// ErrTruncatedStream means the entry bit stream ended in the middle of a code.
	ErrTruncatedStream = errors.New("unexpected end of bit stream")
	// ErrInvalidFrequencyTable means a serialized Huffman frequency table is malformed.
	ErrInvalidFrequencyTable = errors.New("invalid frequency table")
	// ErrInvalidToken means a decoded match token carries an illegal offset or length.
	ErrInvalidToken = errors.New("invalid match token")
	// ErrPathTraversal means an entry path escapes the extraction root.
	ErrPathTraversal = errors.New("path traversal")
	// ErrInvalidEntryPath means an entry path is empty or invalid after normalization.
	ErrInvalidEntryPath = errors.New("invalid entry path")
	// ErrEntryNotFound means the entry is not found.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrNilReader means the reader is nil.
	ErrNilReader = errors.New("reader is nil")
	// ErrClosed means the reader or resource is already closed.
	ErrClosed = errors.New("reader or resource already closed")
	// ErrSizeOverflow means a size exceeds the 5 GiB archive limit or a wire field range.
	ErrSizeOverflow = errors.New("size exceeds archive or field limit")
	// ErrNoInputFiles means the origin directory contains no regular files to pack.
	ErrNoInputFiles = errors.New("no regular files to pack")
	// ErrTargetExists means the target archive path already exists.
	ErrTargetExists = errors.New("target archive already exists")
	// ErrInvalidExtension means the archive path does not carry the .kdat extension.
	ErrInvalidExtension = errors.New("archive path must have the .kdat extension")
	// ErrInvalidCompressPattern means one or more compression rules are invalid.
	ErrInvalidCompressPattern = errors.New("invalid compress rules")
)
