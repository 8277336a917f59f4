// SPDX-License-Identifier: MIT
// Copyright (c) 2026 KalaKit
// Source: github.com/KalaKit/KalaData

package kdat

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// NormalizePath converts an archive/internal path to normalized
// slash-separated form. It trims spaces, accepts both "/" and "\",
// removes leading "./" and "/", and cleans "." segments.
func NormalizePath(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, `\`, `/`)
	raw = strings.TrimPrefix(raw, "./")
	raw = strings.TrimPrefix(raw, "/")
	raw = path.Clean("/" + raw)
	raw = strings.TrimPrefix(raw, "/")
	if raw == "." {
		return ""
	}

	return strings.TrimSuffix(raw, "/")
}

// normalizeArchiveEntryPath converts a walked source path to canonical
// archive form with "/" separators.
func normalizeArchiveEntryPath(raw string) (string, error) {
	normalized := NormalizePath(filepath.ToSlash(raw))
	if normalized == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidEntryPath, raw)
	}

	return normalized, nil
}

// validateExtractEntryPath normalizes an archive entry path for
// extraction and rejects absolute, traversing, or malformed inputs.
func validateExtractEntryPath(entryPath string) (string, error) {
	raw := strings.TrimSpace(entryPath)
	if raw == "" {
		return "", fmt.Errorf("%w: empty entry path", ErrInvalidEntryPath)
	}
	if strings.ContainsRune(raw, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidEntryPath, entryPath)
	}
	if strings.HasPrefix(raw, `/`) || strings.HasPrefix(raw, `\`) {
		return "", fmt.Errorf("%w: absolute path %q", ErrPathTraversal, entryPath)
	}

	raw = strings.ReplaceAll(raw, `\`, `/`)
	if hasWindowsAbsDrivePrefix(raw) {
		return "", fmt.Errorf("%w: absolute path %q", ErrPathTraversal, entryPath)
	}

	parts := strings.Split(raw, `/`)
	cleanParts := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			return "", fmt.Errorf("%w: %q", ErrPathTraversal, entryPath)
		default:
			cleanParts = append(cleanParts, part)
		}
	}
	if len(cleanParts) == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidEntryPath, entryPath)
	}

	return strings.Join(cleanParts, `/`), nil
}

// resolveExtractPath joins a validated relative entry path to the
// canonicalized extraction root and verifies the result stays a
// descendant of that root.
func resolveExtractPath(rootAbs, relPath string) (string, error) {
	outPath := filepath.Join(rootAbs, filepath.FromSlash(relPath))
	cleanRoot := filepath.Clean(rootAbs)
	if outPath != cleanRoot && !strings.HasPrefix(outPath, cleanRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes %q", ErrPathTraversal, relPath, rootAbs)
	}

	return outPath, nil
}

// hasWindowsAbsDrivePrefix reports whether path starts with a
// drive-root prefix like C:/.
func hasWindowsAbsDrivePrefix(path string) bool {
	if len(path) < 3 {
		return false
	}

	return isASCIIAlpha(path[0]) && path[1] == ':' && path[2] == '/'
}

// isASCIIAlpha reports whether b is an ASCII latin letter.
func isASCIIAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
