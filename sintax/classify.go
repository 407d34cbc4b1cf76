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

import "sort"

// DefaultBootIters and DefaultBootSubset are USEARCH's SINTAX defaults.
const (
	DefaultBootIters  = 100
	DefaultBootSubset = 32
	minQueryWords     = 8
)

// Hit is the result of classifying one query.
type Hit struct {
	Ranks       []string  // e.g. ["d:Bacteria", "p:Firmicutes", "g:Testus"]
	Confidences []float64 // aligned with Ranks, monotonic non-increasing
	Strand      byte      // '+' or '-'; 0 if unclassified
}

// Options controls classification.
type Options struct {
	BootIters  int
	BootSubset int
}

func (o Options) normalized() Options {
	if o.BootIters == 0 {
		o.BootIters = DefaultBootIters
	}
	if o.BootSubset == 0 {
		o.BootSubset = DefaultBootSubset
	}
	return o
}

// Classify classifies query against idx, trying both the forward
// strand and the reverse complement (computed in place, without
// allocating an explicit RC string) and keeping whichever strand saw
// the higher per-iteration vote count for a winning reference
// sequence; the forward strand wins ties.
func Classify(query string, idx *Index, ws *Workspace, opt Options) Hit {
	opt = opt.normalized()

	fwdWords := ws.kmerWS.ExtractUnique(query)
	fwdHit, fwdVotes := classifyWords(copyWords(fwdWords), idx, ws, opt)

	rcWords := ws.kmerWS.ExtractUniqueRC(query)
	rcHit, rcVotes := classifyWords(copyWords(rcWords), idx, ws, opt)

	if len(fwdWords) < minQueryWords && len(rcWords) < minQueryWords {
		return Hit{}
	}

	if rcVotes > fwdVotes {
		rcHit.Strand = '-'
		return rcHit
	}
	fwdHit.Strand = '+'
	return fwdHit
}

func copyWords(words []uint16) []uint16 {
	cp := make([]uint16, len(words))
	copy(cp, words)
	return cp
}

// classifyWords runs the bootstrap voting loop over an already
// extracted, already-copied word set (copied because ws.kmerWS's
// internal buffer is reused by the RC extraction that follows the
// forward extraction in Classify). It returns the winning hit and the
// highest vote count any iteration's winning reference sequence
// received from sampled words (0 if no sampled word hit the index),
// used to compare strands.
func classifyWords(queryWords []uint16, idx *Index, ws *Workspace, opt Options) (Hit, int32) {
	if len(queryWords) < minQueryWords {
		return Hit{}, 0
	}

	ws.resetTaxVotes()

	rng := newLCG(1)
	tie := newMWC5(rng)
	var bestSeen int32

	for it := 0; it < opt.BootIters; it++ {
		ws.resetIterationVotes()

		for s := 0; s < opt.BootSubset; s++ {
			w := queryWords[rng.intn(len(queryWords))]
			for _, target := range idx.posting(w) {
				ws.addVote(target)
			}
		}

		winner, ok := pickWinner(ws, rng, tie)
		if !ok {
			// no sampled word matched any reference sequence this
			// iteration: fall back to a uniform random reference.
			winner = int32(rng.intn(idx.NumSeqs()))
		} else if ws.votes[winner] > bestSeen {
			bestSeen = ws.votes[winner]
		}
		ws.addTaxVote(idx.SeqUniqTaxID(int(winner)))
	}

	hit, _ := buildHit(idx, ws, opt.BootIters)
	return hit, bestSeen
}

// pickWinner finds the touched sequence id(s) with the maximum vote
// count, and, if there is more than one, breaks the tie uniformly at
// random (ascending-index order, k = tie.next() mod |ties|).
func pickWinner(ws *Workspace, rng *lcg, tie *mwc5) (int32, bool) {
	if len(ws.touched) == 0 {
		return 0, false
	}

	var maxVal int32 = -1
	for _, t := range ws.touched {
		if ws.votes[t] > maxVal {
			maxVal = ws.votes[t]
		}
	}

	ties := make([]int32, 0, 4)
	for _, t := range ws.touched {
		if ws.votes[t] == maxVal {
			ties = append(ties, t)
		}
	}
	if len(ties) == 1 {
		return ties[0], true
	}

	sort.Slice(ties, func(i, j int) bool { return ties[i] < ties[j] })
	k := tie.intn(len(ties))
	return ties[k], true
}

// buildHit ranks unique taxa by vote count (ties broken lexically by
// taxonomy string), takes the top one as the predicted path, and
// computes per-rank cumulative confidences.
func buildHit(idx *Index, ws *Workspace, bootIters int) (Hit, int32) {
	if len(ws.taxTouched) == 0 {
		return Hit{}, 0
	}

	best := ws.taxTouched[0]
	for _, t := range ws.taxTouched[1:] {
		if better(idx, ws, t, best) {
			best = t
		}
	}

	top := idx.Taxon(best)
	depth := len(top.Ranks)
	confidences := make([]float64, depth)

	cum := 1.0
	for d := 0; d < depth; d++ {
		rankID := top.RankIDs[d]
		var votesAtRank int32
		for _, t := range ws.taxTouched {
			tax := idx.Taxon(t)
			if len(tax.RankIDs) > d && tax.RankIDs[d] == rankID {
				votesAtRank += ws.taxVotes[t]
			}
		}
		frac := float64(votesAtRank) / float64(bootIters)
		if frac > 1 {
			frac = 1
		}
		cum *= frac
		confidences[d] = cum
	}

	return Hit{Ranks: top.Ranks, Confidences: confidences}, ws.taxVotes[best]
}

func better(idx *Index, ws *Workspace, a, b int32) bool {
	if ws.taxVotes[a] != ws.taxVotes[b] {
		return ws.taxVotes[a] > ws.taxVotes[b]
	}
	return idx.Taxon(a).TaxString < idx.Taxon(b).TaxString
}
