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

// Package align implements the two alignment oracles shared by the
// UNOISE denoiser and the UCHIME2 chimera detector: a banded
// Levenshtein distance with early exit, and a banded Needleman-Wunsch
// global aligner.
package align

// EditWorkspace holds the two rolling rows used by EditDistance so
// that repeated calls (one per centroid scanned in the UNOISE loop)
// do not reallocate. It is not safe for concurrent use.
type EditWorkspace struct {
	prev []int
	curr []int
}

// NewEditWorkspace returns an EditWorkspace with no preallocated rows;
// rows grow lazily to the largest |t|+1 seen.
func NewEditWorkspace() *EditWorkspace {
	return &EditWorkspace{}
}

func (w *EditWorkspace) ensure(n int) {
	if cap(w.prev) < n {
		w.prev = make([]int, n)
		w.curr = make([]int, n)
	} else {
		w.prev = w.prev[:n]
		w.curr = w.curr[:n]
	}
}

// EditDistance computes the Levenshtein distance between s and t,
// restricted to a band of +/-limit around the main diagonal, and
// returns limit+1 as soon as the distance is provably larger than
// limit. Space is O(|t|); time is O(|s| * band).
func EditDistance(s, t string, limit int, ws *EditWorkspace) int {
	if ws == nil {
		ws = NewEditWorkspace()
	}
	ns, nt := len(s), len(t)
	if abs(ns-nt) > limit {
		return limit + 1
	}
	inf := limit + 1

	ws.ensure(nt + 1)
	prev, curr := ws.prev, ws.curr

	// row 0: d(0,j) = j, but anything beyond the band is unreachable.
	for j := 0; j <= nt; j++ {
		if j <= limit {
			prev[j] = j
		} else {
			prev[j] = inf
		}
	}

	for i := 1; i <= ns; i++ {
		lo := i - limit
		if lo < 1 {
			lo = 1
		}
		hi := i + limit
		if hi > nt {
			hi = nt
		}

		if i <= limit {
			curr[0] = i
		} else {
			curr[0] = inf
		}
		if lo > 1 {
			curr[lo-1] = inf
		}

		rowMin := curr[0]
		for j := lo; j <= hi; j++ {
			del := prev[j] + 1 // consume s[i-1] only
			ins := curr[j-1] + 1
			sub := prev[j-1]
			if s[i-1] != t[j-1] {
				sub++
			}
			v := sub
			if del < v {
				v = del
			}
			if ins < v {
				v = ins
			}
			if v > inf {
				v = inf
			}
			curr[j] = v
			if v < rowMin {
				rowMin = v
			}
		}
		if hi < nt {
			curr[hi+1] = inf
		}
		if rowMin > limit {
			return inf
		}

		prev, curr = curr, prev
	}

	d := prev[nt]
	if d > limit {
		return inf
	}
	return d
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
