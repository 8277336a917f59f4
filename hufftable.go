// SPDX-License-Identifier: MIT
// Copyright (c) 2026 KalaKit
// Source: github.com/KalaKit/KalaData

package kdat

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Frequency-table wire layout constants.
const (
	// tableModeDense marks a full 256-slot frequency table.
	tableModeDense byte = 0
	// tableModeSparse marks a (symbol, frequency) pair list.
	tableModeSparse byte = 1

	// denseTableSize is the body size of a dense 8-bit table.
	denseTableSize = 256 * 4
)

// appendTable8 serializes an 8-bit-symbol frequency table, choosing the
// smaller of the sparse and dense layouts. Counts must fit a uint32.
func appendTable8(dst []byte, freq *[256]uint64) ([]byte, error) {
	nonZero := 0
	for _, f := range freq {
		if f > math.MaxUint32 {
			return nil, fmt.Errorf("%w: symbol frequency exceeds uint32", ErrSizeOverflow)
		}
		if f > 0 {
			nonZero++
		}
	}

	sparseSize := 2 + nonZero*5
	if sparseSize < denseTableSize {
		dst = append(dst, tableModeSparse)
		dst = binary.LittleEndian.AppendUint16(dst, uint16(nonZero))
		for sym, f := range freq {
			if f == 0 {
				continue
			}

			dst = append(dst, byte(sym))
			dst = binary.LittleEndian.AppendUint32(dst, uint32(f))
		}

		return dst, nil
	}

	dst = append(dst, tableModeDense)
	for _, f := range freq {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(f))
	}

	return dst, nil
}

// parseTable8 deserializes an 8-bit-symbol frequency table and returns
// the consumed byte count.
func parseTable8(data []byte) (*[256]uint32, int, error) {
	if len(data) < 1 {
		return nil, 0, fmt.Errorf("%w: missing table mode", ErrInvalidFrequencyTable)
	}

	freq := new([256]uint32)
	mode := data[0]
	switch mode {
	case tableModeSparse:
		if len(data) < 3 {
			return nil, 0, fmt.Errorf("%w: truncated sparse table header", ErrInvalidFrequencyTable)
		}

		nonZero := int(binary.LittleEndian.Uint16(data[1:3]))
		if nonZero > 256 {
			return nil, 0, fmt.Errorf("%w: sparse table lists %d symbols", ErrInvalidFrequencyTable, nonZero)
		}

		n := 3 + nonZero*5
		if len(data) < n {
			return nil, 0, fmt.Errorf("%w: truncated sparse table body", ErrInvalidFrequencyTable)
		}

		for i := 0; i < nonZero; i++ {
			rec := data[3+i*5:]
			freq[rec[0]] = binary.LittleEndian.Uint32(rec[1:5])
		}

		return freq, n, nil
	case tableModeDense:
		n := 1 + denseTableSize
		if len(data) < n {
			return nil, 0, fmt.Errorf("%w: truncated dense table body", ErrInvalidFrequencyTable)
		}

		for i := 0; i < 256; i++ {
			freq[i] = binary.LittleEndian.Uint32(data[1+i*4:])
		}

		return freq, n, nil
	default:
		return nil, 0, fmt.Errorf("%w: unknown table mode %d", ErrInvalidFrequencyTable, mode)
	}
}

// appendTable32 serializes a 32-bit-symbol frequency table. Symbols must
// be in ascending order; the layout is always sparse.
func appendTable32(dst []byte, symbols []uint32, freqs []uint64) ([]byte, error) {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(symbols)))
	for i, sym := range symbols {
		if freqs[i] > math.MaxUint32 {
			return nil, fmt.Errorf("%w: offset frequency exceeds uint32", ErrSizeOverflow)
		}

		dst = binary.LittleEndian.AppendUint32(dst, sym)
		dst = binary.LittleEndian.AppendUint32(dst, uint32(freqs[i]))
	}

	return dst, nil
}

// parseTable32 deserializes a 32-bit-symbol frequency table and returns
// present symbols, their frequencies, and the consumed byte count.
func parseTable32(data []byte) ([]uint32, []uint64, int, error) {
	if len(data) < 4 {
		return nil, nil, 0, fmt.Errorf("%w: truncated offset table header", ErrInvalidFrequencyTable)
	}

	nonZero := binary.LittleEndian.Uint32(data[0:4])
	n64 := 4 + int64(nonZero)*8
	if n64 > int64(len(data)) {
		return nil, nil, 0, fmt.Errorf("%w: truncated offset table body", ErrInvalidFrequencyTable)
	}
	n := int(n64)

	symbols := make([]uint32, 0, nonZero)
	freqs := make([]uint64, 0, nonZero)
	prevSet := false
	var prev uint32
	for i := 0; i < int(nonZero); i++ {
		rec := data[4+i*8:]
		sym := binary.LittleEndian.Uint32(rec[0:4])
		f := binary.LittleEndian.Uint32(rec[4:8])
		if f == 0 {
			return nil, nil, 0, fmt.Errorf("%w: zero frequency for offset %d", ErrInvalidFrequencyTable, sym)
		}
		if prevSet && sym <= prev {
			return nil, nil, 0, fmt.Errorf("%w: offset symbols out of order", ErrInvalidFrequencyTable)
		}

		prev = sym
		prevSet = true
		symbols = append(symbols, sym)
		freqs = append(freqs, uint64(f))
	}

	return symbols, freqs, n, nil
}

// table8Symbols converts a parsed 256-slot table to ascending present
// symbol and frequency slices for tree construction.
func table8Symbols(freq *[256]uint32) ([]uint32, []uint64) {
	var symbols []uint32
	var freqs []uint64
	for sym, f := range freq {
		if f == 0 {
			continue
		}

		symbols = append(symbols, uint32(sym))
		freqs = append(freqs, uint64(f))
	}

	return symbols, freqs
}
