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

// Package uchime implements the UCHIME2 crossover detector: pairwise
// banded global alignment of each candidate ZOTU against
// higher-abundance candidates, followed by a positional left/right
// diff-scan test that flags PCR chimeras.
package uchime

import (
	"math"
	"runtime"
	"sync"

	"github.com/shenwei356/ampliseq/align"
	"github.com/shenwei356/ampliseq/unoise"
)

// DefaultMinAbSkew is UCHIME2's default parent/child abundance-skew
// requirement.
const DefaultMinAbSkew = 16.0

// Options controls chimera detection.
type Options struct {
	// MinAbSkew is the minimum ratio of a parent's TotalSize to the
	// query's TotalSize for the parent to be considered. Defaults to
	// DefaultMinAbSkew when zero.
	MinAbSkew float64
	// Threads selects the concurrency mode: 1 = sequential using the
	// evolving chimera-flag array (parents already flagged chimeric
	// are skipped, closest to USEARCH's de-novo behavior); 0 = auto
	// parallel sized to the host; >1 = parallel capped to that size.
	// In both parallel modes queries are evaluated independently so
	// that chunked dispatch is deterministic across runs.
	Threads int
	// Progress, if non-nil, is invoked once per centroid after it has
	// been scanned. Safe to call concurrently from parallel mode.
	Progress func()
}

const chunkSize = 32

// Detect scans centroids (assumed already sorted by TotalSize
// descending, as returned by unoise.Denoise) and returns a
// same-length boolean slice: flags[i] is true iff centroids[i] is
// judged a chimera of two higher-abundance centroids.
func Detect(centroids []unoise.Centroid, opt Options) []bool {
	flags := make([]bool, len(centroids))
	if len(centroids) == 0 {
		return flags
	}

	threads := opt.Threads
	if threads == 1 {
		ws := align.NewAlignWorkspace()
		for i := range centroids {
			flags[i] = isChimeraSeq(centroids, i, flags, opt, ws)
			if opt.Progress != nil {
				opt.Progress()
			}
		}
		return flags
	}

	if threads == 0 {
		threads = runtime.NumCPU()
	}
	if threads < 1 {
		threads = 1
	}

	n := len(centroids)
	noFlags := make([]bool, n) // frozen all-false: parallel modes never evolve

	var wg sync.WaitGroup
	tokens := make(chan struct{}, threads)

	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		wg.Add(1)
		tokens <- struct{}{}
		go func(lo, hi int) {
			defer wg.Done()
			defer func() { <-tokens }()
			ws := align.NewAlignWorkspace()
			for i := lo; i < hi; i++ {
				flags[i] = isChimeraSeq(centroids, i, noFlags, opt, ws)
				if opt.Progress != nil {
					opt.Progress()
				}
			}
		}(start, end)
	}
	wg.Wait()

	return flags
}

const noPos = -1

// isChimeraSeq runs the UCHIME2 crossover test for centroid i against
// all higher-or-equal-abundance candidates j < i, consulting
// evolvingFlags to optionally skip already-chimeric parents (only
// meaningful in sequential mode, where evolvingFlags == flags itself;
// in parallel mode it is a frozen all-false slice).
func isChimeraSeq(centroids []unoise.Centroid, i int, evolvingFlags []bool, opt Options, ws *align.AlignWorkspace) bool {
	q := centroids[i]
	qlen := len(q.SeqObj.Seq)

	minAbSkew := opt.MinAbSkew
	if minAbSkew == 0 {
		minAbSkew = DefaultMinAbSkew
	}
	threshold := int(math.Ceil(float64(q.TotalSize) * minAbSkew))

	posBestL0, posBestL1 := noPos, noPos
	bestL0, bestL1 := noPos, noPos
	diffsAtBestL1 := 0

	rightSentinel := qlen + 2
	posBestR0, posBestR1 := rightSentinel, rightSentinel
	bestR0, bestR1 := noPos, noPos

	for j := 0; j < i; j++ {
		if centroids[j].TotalSize < threshold {
			break // parents scanned in abundance order: none further qualify
		}
		if evolvingFlags[j] {
			continue
		}

		parent := centroids[j]
		_, path := align.GlobalAlign(q.SeqObj.Seq, parent.SeqObj.Seq, ws)
		if path == "" {
			continue
		}

		totalDiffs, posL0, posL1 := scanLeft(path, q.SeqObj.Seq, parent.SeqObj.Seq)
		if totalDiffs == 0 {
			return false // exact match to a parent: never a chimera
		}

		if posL0 > posBestL0 {
			posBestL0 = posL0
			bestL0 = j
		}
		if posL1 > posBestL1 {
			posBestL1 = posL1
			bestL1 = j
			diffsAtBestL1 = totalDiffs
		}

		_, posR0, posR1 := scanRight(path, q.SeqObj.Seq, parent.SeqObj.Seq)
		if posR0 < posBestR0 {
			posBestR0 = posR0
			bestR0 = j
		}
		if posR1 < posBestR1 {
			posBestR1 = posR1
			bestR1 = j
		}
	}

	if posBestL0 > 2 && posBestR0 != qlen+1 && posBestL0+1 >= posBestR0 && bestL0 != bestR0 && bestL0 >= 0 && bestR0 >= 0 {
		return true
	}

	if diffsAtBestL1 > 4 && posBestL1 > 2 && posBestR0 != qlen+1 && posBestL1+1 >= posBestR0 && bestL1 != bestR0 && bestL1 >= 0 && bestR0 >= 0 {
		return true
	}

	if posBestL0 > 2 && posBestR1 != qlen+1 && posBestL0+1 >= posBestR1 && bestL0 != bestR1 && bestL0 >= 0 && bestR1 >= 0 {
		return true
	}

	return false
}

// scanLeft walks the alignment path left-to-right. A diff is counted
// on any 'D' or 'I' operation, or on an 'M' whose aligned bases
// mismatch. Query position advances on 'M' and 'D' (both consume
// query) but not on 'I'. pos0/pos1 are the query positions (1-based)
// at the first and second diffs; noPos if fewer than that many diffs
// occurred.
func scanLeft(path, query, target string) (diffs, pos0, pos1 int) {
	pos0, pos1 = noPos, noPos
	qi, ti, qpos := 0, 0, 0
	for k := 0; k < len(path); k++ {
		var isDiff bool
		switch path[k] {
		case 'M':
			qpos++
			isDiff = query[qi] != target[ti]
			qi++
			ti++
		case 'D':
			qpos++
			isDiff = true
			qi++
		default: // 'I'
			isDiff = true
			ti++
		}
		if isDiff {
			diffs++
			if pos0 == noPos {
				pos0 = qpos
			} else if pos1 == noPos {
				pos1 = qpos
			}
		}
	}
	return diffs, pos0, pos1
}

// scanRight is the mirror of scanLeft, walking right-to-left. Query
// position starts at len(query)+1 and decrements on 'M'/'D'.
func scanRight(path, query, target string) (diffs, pos0, pos1 int) {
	qlen := len(query)
	pos0, pos1 = qlen+2, qlen+2
	found0, found1 := false, false
	qi, ti, qpos := len(query)-1, len(target)-1, qlen+1
	for k := len(path) - 1; k >= 0; k-- {
		var isDiff bool
		switch path[k] {
		case 'M':
			qpos--
			isDiff = query[qi] != target[ti]
			qi--
			ti--
		case 'D':
			qpos--
			isDiff = true
			qi--
		default: // 'I'
			isDiff = true
			ti--
		}
		if isDiff {
			diffs++
			if !found0 {
				pos0 = qpos
				found0 = true
			} else if !found1 {
				pos1 = qpos
				found1 = true
			}
		}
	}
	return diffs, pos0, pos1
}
