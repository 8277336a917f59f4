// SPDX-License-Identifier: MIT
// Copyright (c) 2026 KalaKit
// Source: github.com/KalaKit/KalaData

/*
Package kdat packs a directory tree into a single .kdat archive and
expands it back. Payloads run through an LZSS sliding-window pass whose
tokens are entropy-coded with three Huffman tables (literals, match
lengths, match offsets); entries that do not shrink are stored raw.

Storage rules (summary):

  - path rules (PackOptions.Compress) select compression candidates;
    an empty rule set makes every file a candidate;
  - a candidate is stored compressed only when the coded payload is
    strictly smaller than the source bytes;
  - empty files are always stored raw with an empty payload;
  - the recursive origin size is limited to 5 GiB per archive.

# Packing

Pack a folder into a new archive:

	res, err := kdat.Pack(ctx, "assets/", "assets.kdat", kdat.PackOptions{
	    Preset: kdat.PresetBalanced,
	})
	if err != nil {
	    return err
	}
	_ = res.CompressedEntries

Skip already-packed formats with compression rules:

	res, err := kdat.Pack(ctx, "assets/", "assets.kdat", kdat.PackOptions{
	    Compress: []pathrules.Rule{
	        {Action: pathrules.ActionExclude, Pattern: "*.png"},
	        {Action: pathrules.ActionInclude, Pattern: "**"},
	    },
	    OnEntryDone: func(entry kdat.PackEntryProgress) {
	        // progress callback per written entry
	    },
	})

# Reading

Open an archive and list or read entries:

	r, err := kdat.Open("assets.kdat")
	if err != nil {
	    return err
	}
	defer r.Close()
	for _, e := range r.Entries() {
	    data, _ := r.ReadEntry(e.Path)
	    // use data
	}

For filtered listings:

	r, err := kdat.OpenWithOptions("assets.kdat", kdat.ReaderOptions{
	    MinEntryOriginalSize: 12,
	    EntryPathPrefix:      "textures",
	})

# Extracting

Extract all entries into a directory:

	res, err := kdat.Extract(ctx, "assets.kdat", "out/", kdat.ExtractOptions{})
	if err != nil {
	    return err
	}
	_ = res.DecompressedEntries

Entry paths are validated before any write: absolute paths, drive
prefixes, and ".." segments abort extraction with ErrPathTraversal.
*/
package kdat
