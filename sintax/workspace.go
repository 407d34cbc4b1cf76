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

package sintax

import "github.com/shenwei356/ampliseq/kmer"

// Workspace is per-goroutine mutable scratch reused across queries.
// Create one per worker with NewWorkspace and never share it between
// goroutines.
type Workspace struct {
	kmerWS *kmer.Workspace

	votes   []int32 // per-reference-sequence vote counts, reset lazily
	touched []int32 // sequence ids touched in the current boot iteration

	taxVotes   []int32 // per-unique-taxonomy vote counts
	taxTouched []int32
}

// NewWorkspace allocates a Workspace sized for idx.
func NewWorkspace(idx *Index) *Workspace {
	return &Workspace{
		kmerWS:   kmer.NewWorkspace(),
		votes:    make([]int32, idx.NumSeqs()),
		touched:  make([]int32, 0, 256),
		taxVotes: make([]int32, len(idx.uniq)),
	}
}

func (w *Workspace) resetIterationVotes() {
	for _, t := range w.touched {
		w.votes[t] = 0
	}
	w.touched = w.touched[:0]
}

func (w *Workspace) resetTaxVotes() {
	for _, t := range w.taxTouched {
		w.taxVotes[t] = 0
	}
	w.taxTouched = w.taxTouched[:0]
}

func (w *Workspace) addVote(target int32) {
	if w.votes[target] == 0 {
		w.touched = append(w.touched, target)
	}
	w.votes[target]++
}

func (w *Workspace) addTaxVote(taxID int32) {
	if w.taxVotes[taxID] == 0 {
		w.taxTouched = append(w.taxTouched, taxID)
	}
	w.taxVotes[taxID]++
}
