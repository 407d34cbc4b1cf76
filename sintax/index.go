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

// Package sintax implements the SINTAX classifier: an 8-mer
// posting-list index plus bootstrap resampling for fast non-Bayesian
// taxonomy assignment with per-rank confidences.
package sintax

import (
	"github.com/zeebo/wyhash"

	"github.com/shenwei356/ampliseq/kmer"
	"github.com/shenwei356/ampliseq/label"
)

// wyhashSeed is fixed so that dedup bucket placement, and therefore
// build time, is reproducible across runs.
const wyhashSeed = 0x5e17a9

// UniqTaxon is one deduplicated reference taxonomy string.
type UniqTaxon struct {
	TaxString string
	Ranks     []string // e.g. ["d:Bacteria", "p:Firmicutes", "g:Testus"]
	RankIDs   []int32  // rank-name -> small integer id, aligned with Ranks
}

// Index is an immutable, build-once SINTAX reference index.
type Index struct {
	uniq            []UniqTaxon
	seqToUniqTaxID  []int32
	rankNameToID    map[string]int32
	numSeqs         int

	starts []int32 // starts[w] into data
	lens   []int32
	data   []int32
}

// NumSeqs returns the number of reference sequences indexed.
func (idx *Index) NumSeqs() int { return idx.numSeqs }

// NumUniqTaxa returns the number of deduplicated taxonomy strings indexed.
func (idx *Index) NumUniqTaxa() int { return len(idx.uniq) }

// Taxon returns the deduplicated taxonomy record for uniqTaxID.
func (idx *Index) Taxon(uniqTaxID int32) UniqTaxon { return idx.uniq[uniqTaxID] }

// SeqUniqTaxID returns the unique-taxonomy slot of reference sequence i.
func (idx *Index) SeqUniqTaxID(i int) int32 { return idx.seqToUniqTaxID[i] }

// posting returns the packed posting list for word w.
func (idx *Index) posting(w uint16) []int32 {
	s := idx.starts[w]
	l := idx.lens[w]
	return idx.data[s : s+l]
}

type taxDedup struct {
	buckets map[uint64][]int32
	uniq    []UniqTaxon
	rankIDs map[string]int32
}

func newTaxDedup() *taxDedup {
	return &taxDedup{
		buckets: make(map[uint64][]int32),
		rankIDs: make(map[string]int32),
	}
}

func (d *taxDedup) rankID(name string) int32 {
	if id, ok := d.rankIDs[name]; ok {
		return id
	}
	id := int32(len(d.rankIDs))
	d.rankIDs[name] = id
	return id
}

func (d *taxDedup) idFor(taxStr string) int32 {
	h := wyhash.Hash([]byte(taxStr), wyhashSeed)
	for _, idx := range d.buckets[h] {
		if d.uniq[idx].TaxString == taxStr {
			return idx
		}
	}
	ranks := label.RankStrings(taxStr)
	rankIDs := make([]int32, len(ranks))
	for i, r := range ranks {
		rankIDs[i] = d.rankID(label.RankName(r))
	}
	idx := int32(len(d.uniq))
	d.uniq = append(d.uniq, UniqTaxon{TaxString: taxStr, Ranks: ranks, RankIDs: rankIDs})
	d.buckets[h] = append(d.buckets[h], idx)
	return idx
}

// BuildIndex builds a SINTAX index from parallel seqs/taxStrings
// slices. If the two slices differ in length, the index is built over
// the shorter length. Sequences whose taxonomy string is empty are
// skipped (they cannot contribute posting entries tied to any
// taxonomy).
func BuildIndex(seqs []string, taxStrings []string) *Index {
	n := len(seqs)
	if len(taxStrings) < n {
		n = len(taxStrings)
	}

	dedup := newTaxDedup()
	seqToUniqTaxID := make([]int32, 0, n)
	keptSeqs := make([]string, 0, n)

	for i := 0; i < n; i++ {
		if taxStrings[i] == "" {
			continue
		}
		keptSeqs = append(keptSeqs, seqs[i])
		seqToUniqTaxID = append(seqToUniqTaxID, dedup.idFor(taxStrings[i]))
	}

	idx := &Index{
		uniq:           dedup.uniq,
		seqToUniqTaxID: seqToUniqTaxID,
		rankNameToID:   dedup.rankIDs,
		numSeqs:        len(keptSeqs),
		starts:         make([]int32, kmer.NumWords),
		lens:           make([]int32, kmer.NumWords),
	}

	// pass 1: count posting-list sizes.
	ws := kmer.NewWorkspace()
	perSeqWords := make([][]uint16, len(keptSeqs))
	for i, s := range keptSeqs {
		words := ws.ExtractUnique(s)
		cp := make([]uint16, len(words))
		copy(cp, words)
		perSeqWords[i] = cp
		for _, w := range cp {
			idx.lens[w]++
		}
	}

	var total int32
	for w := 0; w < kmer.NumWords; w++ {
		idx.starts[w] = total
		total += idx.lens[w]
	}
	idx.data = make([]int32, total)

	// pass 2: fill, using a per-word cursor initialized to starts.
	cursor := make([]int32, kmer.NumWords)
	copy(cursor, idx.starts)
	for i, words := range perSeqWords {
		for _, w := range words {
			idx.data[cursor[w]] = int32(i)
			cursor[w]++
		}
	}

	return idx
}
