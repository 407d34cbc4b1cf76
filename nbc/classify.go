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

package nbc

import (
	"math"

	"github.com/shenwei356/ampliseq/kmer"
)

// DefaultBootIters and DefaultMinWords are the classifier's defaults.
const (
	DefaultBootIters = 100
	DefaultMinWords  = 15
)

// Options controls classification.
type Options struct {
	BootIters int
	MinWords  int
}

func (o Options) normalized() Options {
	if o.BootIters == 0 {
		o.BootIters = DefaultBootIters
	}
	if o.MinWords == 0 {
		o.MinWords = DefaultMinWords
	}
	return o
}

// Hit is the result of classifying one query.
type Hit struct {
	Ranks       []string
	Confidences []float64 // agree[d] / BootIters, aligned with Ranks
	Strand      byte      // '+' or '-'; 0 if unclassified
	Score       float64   // total log-likelihood of the winning path; -Inf if unclassified
}

// Workspace is per-goroutine mutable scratch reused across queries.
type Workspace struct {
	kmerWS *kmer.Workspace
	sample []uint16
}

// NewWorkspace allocates a Workspace.
func NewWorkspace() *Workspace {
	return &Workspace{kmerWS: kmer.NewWorkspace()}
}

// Classify classifies query against tree, choosing between the
// forward strand and an explicit reverse-complement string: the
// deeper resulting path wins; ties go to the higher log-score; ties
// on that go to the forward strand.
func Classify(query string, tree *Tree, ws *Workspace, opt Options) Hit {
	opt = opt.normalized()

	fwdWords := ws.kmerWS.ExtractUnique(query)
	fwd := classifyStrand(copyWords(fwdWords), tree, ws, opt)

	rc := revComp(query)
	rcWords := ws.kmerWS.ExtractUnique(rc)
	rev := classifyStrand(copyWords(rcWords), tree, ws, opt)

	if len(rev.Ranks) > len(fwd.Ranks) {
		rev.Strand = '-'
		return rev
	}
	if len(rev.Ranks) == len(fwd.Ranks) && len(rev.Ranks) > 0 && rev.Score > fwd.Score {
		rev.Strand = '-'
		return rev
	}
	if len(fwd.Ranks) > 0 {
		fwd.Strand = '+'
	}
	return fwd
}

func copyWords(words []uint16) []uint16 {
	cp := make([]uint16, len(words))
	copy(cp, words)
	return cp
}

func classifyStrand(words []uint16, tree *Tree, ws *Workspace, opt Options) Hit {
	if len(words) == 0 {
		return Hit{Score: math.Inf(-1)}
	}

	path, score := descend(tree, words, nil)
	if len(path) == 0 {
		return Hit{Score: math.Inf(-1)}
	}

	agree := make([]int, len(path))
	sampleSize := len(words) / 8
	if sampleSize < opt.MinWords {
		sampleSize = opt.MinWords
	}
	rng := newLCG(1)
	if ws.sample == nil || cap(ws.sample) < sampleSize {
		ws.sample = make([]uint16, sampleSize)
	}
	sample := ws.sample[:sampleSize]

	for it := 0; it < opt.BootIters; it++ {
		for i := 0; i < sampleSize; i++ {
			sample[i] = words[rng.intn(len(words))]
		}
		bootPath, _ := descend(tree, sample, rng)

		matched := true
		for d := 0; d < len(path); d++ {
			if !matched {
				break
			}
			if d >= len(bootPath) || bootPath[d] != path[d] {
				matched = false
				break
			}
			agree[d]++
		}
	}

	ranks := make([]string, len(path))
	confidences := make([]float64, len(path))
	for d, nodeIdx := range path {
		ranks[d] = tree.nodes[nodeIdx].name
		confidences[d] = float64(agree[d]) / float64(opt.BootIters)
	}

	return Hit{Ranks: ranks, Confidences: confidences, Score: score}
}

// descend walks the tree from the root, choosing at each level the
// child maximizing log-prior + sum_w log((wordCount(w)+1)/(seqCount+2)).
// Ties go to the first child in insertion order unless rng is
// non-nil, in which case ties are broken uniformly at random (used by
// the bootstrap re-descent; the deterministic descent passes a nil
// rng).
func descend(tree *Tree, words []uint16, rng *lcg) ([]int32, float64) {
	cur := rootIdx
	var path []int32
	var total float64

	for {
		children := tree.nodes[cur].children
		if len(children) == 0 {
			break
		}

		var siblingTotal int32
		for _, c := range children {
			siblingTotal += tree.nodes[c].seqCount
		}
		denom := float64(siblingTotal + int32(len(children)))

		bestScore := math.Inf(-1)
		ties := children[:0:0]
		for _, c := range children {
			child := &tree.nodes[c]
			prior := float64(child.seqCount+1) / denom
			s := math.Log(prior)
			for _, w := range words {
				wc := child.wordCounts[w]
				s += math.Log(float64(wc+1) / float64(child.seqCount+2))
			}
			switch {
			case s > bestScore:
				bestScore = s
				ties = ties[:0]
				ties = append(ties, c)
			case s == bestScore:
				ties = append(ties, c)
			}
		}

		var chosen int32
		if rng == nil || len(ties) == 1 {
			chosen = ties[0]
		} else {
			chosen = ties[rng.intn(len(ties))]
		}

		cur = chosen
		path = append(path, cur)
		total += bestScore
	}

	return path, total
}
