// SPDX-License-Identifier: MIT
// Copyright (c) 2026 KalaKit
// Source: github.com/KalaKit/KalaData

package kdat

import (
	"container/heap"
	"fmt"
)

// maxCodeLen bounds Huffman code lengths; 256 symbols or 2^32 offset
// positions never need more, so a deeper tree indicates a codec defect.
const maxCodeLen = 32

// huffCode is one symbol's prefix code, stored in the low `size` bits.
type huffCode struct {
	bits uint32
	size uint8
}

// huffNode is one arena slot: a leaf carries a symbol, an internal node
// references two children by index.
type huffNode struct {
	symbol uint32
	freq   uint64
	left   int32
	right  int32
}

// isLeaf reports whether the node has no children.
func (n *huffNode) isLeaf() bool {
	return n.left < 0 && n.right < 0
}

// huffTree is an index-arena Huffman tree. Nodes live in one slice and
// are discarded together; children are referenced by slice index.
type huffTree struct {
	nodes []huffNode
	root  int32
}

// huffHeapItem keys one pending node by frequency and insertion order.
type huffHeapItem struct {
	node int32
	freq uint64
	seq  int
}

// huffHeap is a min-heap ordered by frequency, then insertion order, so
// tree construction is deterministic for equal frequencies.
type huffHeap []huffHeapItem

func (h huffHeap) Len() int { return len(h) }

func (h huffHeap) Less(i, j int) bool {
	if h[i].freq != h[j].freq {
		return h[i].freq < h[j].freq
	}

	return h[i].seq < h[j].seq
}

func (h huffHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *huffHeap) Push(x any) {
	*h = append(*h, x.(huffHeapItem)) //nolint:forcetypeassert // heap contains only huffHeapItem
}

func (h *huffHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]

	return item
}

// buildHuffTree builds a Huffman tree from present symbols and their
// frequencies. Symbols must be in ascending order with positive
// frequencies; encoder and decoder pass the same transmitted table, so
// both sides derive an identical tree. Returns nil when no symbols are
// present.
func buildHuffTree(symbols []uint32, freqs []uint64) *huffTree {
	if len(symbols) == 0 {
		return nil
	}

	t := &huffTree{nodes: make([]huffNode, 0, 2*len(symbols))}

	pending := make(huffHeap, 0, len(symbols)+1)
	seq := 0
	for i, sym := range symbols {
		t.nodes = append(t.nodes, huffNode{symbol: sym, freq: freqs[i], left: -1, right: -1})
		pending = append(pending, huffHeapItem{node: int32(len(t.nodes) - 1), freq: freqs[i], seq: seq})
		seq++
	}

	if len(pending) == 1 {
		// A one-symbol alphabet still needs a depth-1 tree; pair the
		// symbol with a synthetic sibling that never appears in the data.
		t.nodes = append(t.nodes, huffNode{symbol: phantomSymbol(symbols[0]), freq: 1, left: -1, right: -1})
		pending = append(pending, huffHeapItem{node: int32(len(t.nodes) - 1), freq: 1, seq: seq})
	}

	heap.Init(&pending)
	for pending.Len() > 1 {
		left := heap.Pop(&pending).(huffHeapItem)  //nolint:forcetypeassert // heap contains only huffHeapItem
		right := heap.Pop(&pending).(huffHeapItem) //nolint:forcetypeassert // heap contains only huffHeapItem
		t.nodes = append(t.nodes, huffNode{
			freq:  left.freq + right.freq,
			left:  left.node,
			right: right.node,
		})

		seq++
		heap.Push(&pending, huffHeapItem{
			node: int32(len(t.nodes) - 1),
			freq: left.freq + right.freq,
			seq:  seq,
		})
	}

	t.root = pending[0].node

	return t
}

// phantomSymbol returns a symbol distinct from sym for the synthetic
// second leaf of a one-symbol tree.
func phantomSymbol(sym uint32) uint32 {
	if sym == 0 {
		return 1
	}

	return 0
}

// codes walks the tree and assigns each leaf symbol its path code:
// left edges contribute 0, right edges 1.
func (t *huffTree) codes() (map[uint32]huffCode, error) {
	out := make(map[uint32]huffCode, (len(t.nodes)+1)/2)
	if err := t.assignCodes(t.root, 0, 0, out); err != nil {
		return nil, err
	}

	return out, nil
}

// assignCodes recursively descends from node index collecting path bits.
func (t *huffTree) assignCodes(node int32, bits uint32, depth uint8, out map[uint32]huffCode) error {
	n := &t.nodes[node]
	if n.isLeaf() {
		out[n.symbol] = huffCode{bits: bits, size: depth}
		return nil
	}

	if depth == maxCodeLen {
		return fmt.Errorf("%w: code length exceeds %d bits", ErrInvalidFrequencyTable, maxCodeLen)
	}

	if err := t.assignCodes(n.left, bits<<1, depth+1, out); err != nil {
		return err
	}

	return t.assignCodes(n.right, bits<<1|1, depth+1, out)
}

// decodeSymbol walks the tree bit by bit until a leaf is reached.
// End-of-stream mid-walk means the payload is corrupt.
func (t *huffTree) decodeSymbol(br *bitReader) (uint32, error) {
	node := t.root
	for {
		n := &t.nodes[node]
		if n.isLeaf() {
			return n.symbol, nil
		}

		bit, err := br.readBit()
		if err != nil {
			return 0, err
		}

		if bit == 0 {
			node = n.left
		} else {
			node = n.right
		}
	}
}
