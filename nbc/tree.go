// Copyright © 2024 The ampliseq Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package nbc implements a Naive Bayesian Classifier over a taxonomy
// tree, with bootstrap-agreement confidences per rank.
package nbc

import (
	"github.com/shenwei356/ampliseq/kmer"
	"github.com/shenwei356/ampliseq/label"
)

const rootIdx = int32(0)

// node is one taxonomy-tree node, stored by value in a flat slice and
// referenced by integer index (never by pointer) so the tree has no
// cycles and is trivially serializable.
type node struct {
	name       string
	parent     int32
	depth      int32
	children   []int32
	seqCount   int32
	wordCounts map[uint16]int32
}

// Tree is an immutable, build-once NBC reference index.
type Tree struct {
	nodes []node
}

// newTree returns a Tree containing only the implicit root.
func newTree() *Tree {
	return &Tree{nodes: []node{{
		name:       "",
		parent:     -1,
		depth:      0,
		wordCounts: make(map[uint16]int32),
	}}}
}

// NumRefSeqs returns the number of reference sequences folded into the tree.
func (t *Tree) NumRefSeqs() int { return int(t.nodes[rootIdx].seqCount) }

func (t *Tree) childByName(parent int32, name string) (int32, bool) {
	for _, c := range t.nodes[parent].children {
		if t.nodes[c].name == name {
			return c, true
		}
	}
	return -1, false
}

func (t *Tree) findOrCreateChild(parent int32, name string) int32 {
	if c, ok := t.childByName(parent, name); ok {
		return c
	}
	idx := int32(len(t.nodes))
	t.nodes = append(t.nodes, node{
		name:       name,
		parent:     parent,
		depth:      t.nodes[parent].depth + 1,
		wordCounts: make(map[uint16]int32),
	})
	t.nodes[parent].children = append(t.nodes[parent].children, idx)
	return idx
}

// BuildIndex builds an NBC taxonomy tree from parallel seqs/taxStrings
// slices, truncating to the shorter length if they differ and
// skipping any pair with an empty taxonomy string.
func BuildIndex(seqs []string, taxStrings []string) *Tree {
	n := len(seqs)
	if len(taxStrings) < n {
		n = len(taxStrings)
	}

	t := newTree()
	ws := kmer.NewWorkspace()

	for i := 0; i < n; i++ {
		if taxStrings[i] == "" {
			continue
		}
		ranks := label.RankStrings(taxStrings[i])
		if len(ranks) == 0 {
			continue
		}

		words := ws.ExtractUnique(seqs[i])

		cur := rootIdx
		t.nodes[cur].seqCount++
		for _, rank := range ranks {
			cur = t.findOrCreateChild(cur, rank)
			t.nodes[cur].seqCount++
			for _, w := range words {
				t.nodes[cur].wordCounts[w]++
			}
		}
	}

	return t
}
