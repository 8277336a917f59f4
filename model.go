// SPDX-License-Identifier: MIT
// Copyright (c) 2026 KalaKit
// Source: github.com/KalaKit/KalaData

package kdat

import (
	"time"

	"github.com/woozymasta/pathrules"
)

// Internal binary layout and format limits.
const (
	magic         = "KDAT" // 4-byte archive magic
	formatVersion = 2      // pinned format version, written as two ASCII digits
	versionDigits = "02"   // wire form of formatVersion
	headerSize    = 10     // magic + version digits + u32 file count

	// maxFileCount rejects implausible archives before any allocation.
	maxFileCount = 100_000
	// maxPathLen is max entry path length in bytes.
	maxPathLen = 4096
	// maxArchiveTotal is the recursive origin size limit (5 GiB).
	maxArchiveTotal = 5 << 30
)

// Per-entry storage methods as stored in the archive.
const (
	// MethodRaw stores the payload byte-for-byte.
	MethodRaw byte = 0
	// MethodCompressed stores an LZSS+Huffman payload smaller than the original.
	MethodCompressed byte = 1
)

// LZSS tuning boundaries. Window and lookahead are encoder-side only;
// the decoder reconstructs every match from explicit offset/length fields.
const (
	// MinWindowSize is the smallest accepted sliding window (4 KiB).
	MinWindowSize = 4 * 1024
	// MaxWindowSize is the largest accepted sliding window (8 MiB).
	MaxWindowSize = 8 * 1024 * 1024
	// MinLookahead is the smallest accepted max match length.
	MinLookahead = 18
	// MaxLookahead is the largest accepted max match length.
	MaxLookahead = 255
	// minMatch is the shortest back-reference worth a token.
	minMatch = 3
)

// Extension is the required archive file extension.
const Extension = ".kdat"

// Preset selects a predefined window/lookahead pair.
type Preset string

// Compression presets, ordered from fastest scan to densest output.
const (
	PresetFastest  Preset = "fastest"  // 4 KiB window, lookahead 18
	PresetFast     Preset = "fast"     // 32 KiB window, lookahead 32
	PresetBalanced Preset = "balanced" // 256 KiB window, lookahead 64
	PresetSlow     Preset = "slow"     // 1 MiB window, lookahead 128
	PresetArchive  Preset = "archive"  // 8 MiB window, lookahead 255
)

// presetTuning holds one preset's window/lookahead pair.
type presetTuning struct {
	windowSize int
	lookahead  int
}

// presets maps preset names to tuning values.
var presets = map[Preset]presetTuning{
	PresetFastest:  {windowSize: 4 * 1024, lookahead: 18},
	PresetFast:     {windowSize: 32 * 1024, lookahead: 32},
	PresetBalanced: {windowSize: 256 * 1024, lookahead: 64},
	PresetSlow:     {windowSize: 1024 * 1024, lookahead: 128},
	PresetArchive:  {windowSize: 8 * 1024 * 1024, lookahead: 255},
}

// EntryInfo describes a single parsed archive entry.
type EntryInfo struct {
	// Path is the slash-separated relative entry path as stored in the archive.
	Path string `json:"path" yaml:"path"`
	// Method is the storage method flag (MethodRaw or MethodCompressed).
	Method byte `json:"method" yaml:"method"`
	// OriginalSize is the decompressed payload size in bytes.
	OriginalSize uint64 `json:"original_size" yaml:"original_size"`
	// StoredSize is the stored payload size in bytes.
	StoredSize uint64 `json:"stored_size" yaml:"stored_size"`
	// offset is the absolute payload offset inside the archive file.
	offset int64
}

// IsCompressed reports whether this entry is stored with the LZSS+Huffman codec.
func (e *EntryInfo) IsCompressed() bool {
	return e.Method == MethodCompressed
}

// PackEntryProgress contains one completed entry write event from the pack flow.
type PackEntryProgress struct {
	// Path is the entry path written to the archive.
	Path string `json:"path" yaml:"path"`
	// Method is the storage method chosen for this entry.
	Method byte `json:"method" yaml:"method"`
	// OriginalSize is the source file size in bytes.
	OriginalSize uint64 `json:"original_size" yaml:"original_size"`
	// StoredSize is the payload size written to the archive.
	StoredSize uint64 `json:"stored_size" yaml:"stored_size"`
	// CompressionCandidate reports whether the compression path was attempted.
	CompressionCandidate bool `json:"compression_candidate,omitempty" yaml:"compression_candidate,omitempty"`
}

// PackOptions configures pack behavior.
type PackOptions struct {
	// OnEntryDone is called after one entry is fully written to the archive.
	OnEntryDone func(entry PackEntryProgress) `json:"-" yaml:"-"`
	// Compress defines ordered path rules for compression candidate selection.
	// Empty rule set means every file is a candidate.
	Compress []pathrules.Rule `json:"compress,omitempty" yaml:"compress,omitempty"`
	// CompressMatcherOptions control compression path rule matching.
	CompressMatcherOptions pathrules.MatcherOptions `json:"compress_matcher_options,omitzero" yaml:"compress_matcher_options,omitzero"`
	// Preset selects a window/lookahead pair; unknown presets revert to fastest.
	Preset Preset `json:"preset,omitempty" yaml:"preset,omitempty"`
	// WindowSize overrides the preset sliding window. Values outside
	// [MinWindowSize, MaxWindowSize] or not divisible by 4 revert to MinWindowSize.
	WindowSize int `json:"window_size,omitempty" yaml:"window_size,omitempty"`
	// Lookahead overrides the preset max match length, clamped to [MinLookahead, MaxLookahead].
	Lookahead int `json:"lookahead,omitempty" yaml:"lookahead,omitempty"`
}

// PackResult contains pack output statistics.
type PackResult struct {
	// FileCount is the number of entries written to the archive.
	FileCount int `json:"file_count" yaml:"file_count"`
	// CompressedEntries is the number of entries stored with MethodCompressed.
	CompressedEntries int `json:"compressed_entries,omitempty" yaml:"compressed_entries,omitempty"`
	// RawEntries is the number of non-empty entries stored with MethodRaw.
	RawEntries int `json:"raw_entries,omitempty" yaml:"raw_entries,omitempty"`
	// EmptyEntries is the number of zero-length entries.
	EmptyEntries int `json:"empty_entries,omitempty" yaml:"empty_entries,omitempty"`
	// OriginSize is the recursive origin folder size in bytes.
	OriginSize uint64 `json:"origin_size" yaml:"origin_size"`
	// ArchiveSize is the final archive size in bytes.
	ArchiveSize uint64 `json:"archive_size" yaml:"archive_size"`
	// Duration is the end-to-end pack core duration.
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// ExtractOptions configures Extract behavior.
type ExtractOptions struct {
	// OnEntryDone is called after one entry is fully written to disk.
	OnEntryDone func(entry EntryInfo, written int64, outputPath string) `json:"-" yaml:"-"`
	// Entries limits extraction to a selected metadata list; nil means all parsed entries.
	Entries []EntryInfo `json:"-" yaml:"-"`
}

// ExtractResult contains extract output statistics.
type ExtractResult struct {
	// FileCount is the number of entries written to disk.
	FileCount int `json:"file_count" yaml:"file_count"`
	// DecompressedEntries is the number of MethodCompressed entries expanded.
	DecompressedEntries int `json:"decompressed_entries,omitempty" yaml:"decompressed_entries,omitempty"`
	// RawEntries is the number of non-empty MethodRaw entries copied.
	RawEntries int `json:"raw_entries,omitempty" yaml:"raw_entries,omitempty"`
	// EmptyEntries is the number of zero-length entries created.
	EmptyEntries int `json:"empty_entries,omitempty" yaml:"empty_entries,omitempty"`
	// OutputSize is the total decompressed bytes written.
	OutputSize uint64 `json:"output_size" yaml:"output_size"`
	// Duration is the end-to-end extract duration.
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// ReaderOptions configures entry visibility for listing workflows.
type ReaderOptions struct {
	// MinEntryOriginalSize drops entries with a smaller original size from the entry list.
	MinEntryOriginalSize uint64 `json:"min_entry_original_size,omitempty" yaml:"min_entry_original_size,omitempty"`
	// EntryPathPrefix limits the entry list to paths under the given prefix.
	EntryPathPrefix string `json:"entry_path_prefix,omitempty" yaml:"entry_path_prefix,omitempty"`
}

// applyDefaults normalizes pack tuning values. Invalid values revert
// silently: unknown presets fall back to fastest, a window outside the
// supported range or not divisible by 4 reverts to MinWindowSize, and
// lookahead clamps into [MinLookahead, MaxLookahead].
func (opts *PackOptions) applyDefaults() {
	tuning, ok := presets[opts.Preset]
	if !ok {
		tuning = presets[PresetFastest]
	}

	if opts.WindowSize == 0 {
		opts.WindowSize = tuning.windowSize
	}
	if opts.WindowSize%4 != 0 || opts.WindowSize < MinWindowSize || opts.WindowSize > MaxWindowSize {
		opts.WindowSize = MinWindowSize
	}

	if opts.Lookahead == 0 {
		opts.Lookahead = tuning.lookahead
	}
	if opts.Lookahead < MinLookahead {
		opts.Lookahead = MinLookahead
	}
	if opts.Lookahead > MaxLookahead {
		opts.Lookahead = MaxLookahead
	}

	if opts.CompressMatcherOptions == (pathrules.MatcherOptions{}) {
		opts.CompressMatcherOptions = pathrules.MatcherOptions{
			CaseInsensitive: true,
			DefaultAction:   pathrules.ActionExclude,
		}
	}

	if opts.CompressMatcherOptions.DefaultAction == pathrules.ActionUnknown {
		opts.CompressMatcherOptions.DefaultAction = pathrules.ActionExclude
	}
}
