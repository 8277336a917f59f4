// SPDX-License-Identifier: MIT
// Copyright (c) 2026 KalaKit
// Source: github.com/KalaKit/KalaData

package kdat

import "fmt"

// token is one LZSS emission unit: a literal byte or a back-reference
// into already-emitted output.
type token struct {
	offset    uint32
	literal   byte
	length    uint8
	isLiteral bool
}

// literalToken returns a literal token for b.
func literalToken(b byte) token {
	return token{isLiteral: true, literal: b}
}

// matchToken returns a back-reference token.
func matchToken(offset uint32, length uint8) token {
	return token{offset: offset, length: length}
}

// tokenize scans input with a sliding window of windowSize bytes and a
// max match length of lookahead, emitting a greedy token sequence.
// Matches shorter than minMatch become literals. The first maximum-length
// match found (scanning the window oldest-first) wins ties.
func tokenize(input []byte, windowSize, lookahead int) []token {
	tokens := make([]token, 0, len(input)/2)

	pos := 0
	for pos < len(input) {
		bestLength := 0
		bestOffset := 0

		start := 0
		if pos > windowSize {
			start = pos - windowSize
		}

		for i := start; i < pos; i++ {
			length := 0
			for length < lookahead &&
				pos+length < len(input) &&
				input[i+length] == input[pos+length] {
				length++
			}

			if length > bestLength {
				bestLength = length
				bestOffset = pos - i
			}
		}

		if bestLength >= minMatch {
			tokens = append(tokens, matchToken(uint32(bestOffset), uint8(bestLength)))
			pos += bestLength

			continue
		}

		tokens = append(tokens, literalToken(input[pos]))
		pos++
	}

	return tokens
}

// detokenize reconstructs raw bytes from a token sequence. Matches copy
// byte by byte so overlapping back-references expand into runs. A match
// with zero length, zero offset, or an offset beyond the emitted output
// is corruption.
func detokenize(tokens []token, originalSize uint64) ([]byte, error) {
	out := make([]byte, 0, originalSize)
	for _, t := range tokens {
		if t.isLiteral {
			out = append(out, t.literal)

			continue
		}

		if t.offset == 0 || uint64(t.offset) > uint64(len(out)) {
			return nil, fmt.Errorf("%w: offset %d with %d bytes emitted", ErrInvalidToken, t.offset, len(out))
		}

		if t.length == 0 {
			return nil, fmt.Errorf("%w: zero-length match", ErrInvalidToken)
		}

		start := len(out) - int(t.offset)
		for i := 0; i < int(t.length); i++ {
			out = append(out, out[start+i])
		}
	}

	return out, nil
}
