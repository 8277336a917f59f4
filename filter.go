// SPDX-License-Identifier: MIT
// Copyright (c) 2026 KalaKit
// Source: github.com/KalaKit/KalaData

package kdat

import "strings"

// filterEntriesBySize keeps entries whose original size meets the threshold.
func filterEntriesBySize(entries []EntryInfo, minOriginalSize uint64) []EntryInfo {
	if minOriginalSize == 0 {
		return entries
	}

	out := make([]EntryInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.OriginalSize < minOriginalSize {
			continue
		}

		out = append(out, entry)
	}

	return out
}

// filterEntriesByPrefix keeps entries under prefix (or an exact match
// when the prefix names a file).
func filterEntriesByPrefix(entries []EntryInfo, prefix string) []EntryInfo {
	prefix = NormalizePath(prefix)
	if prefix == "" {
		return entries
	}

	out := make([]EntryInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.Path != prefix && !strings.HasPrefix(entry.Path, prefix+"/") {
			continue
		}

		out = append(out, entry)
	}

	return out
}
