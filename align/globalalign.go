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

package align

// Band is the fixed half-bandwidth used by the global aligner.
const Band = 16

// Inf is the overflow sentinel score.
const Inf = 32000

// direction-of-origin codes stored in the trace matrix.
const (
	dirDiag = 0
	dirUp   = 1 // deletion: consumes query only
	dirLeft = 2 // insertion: consumes target only
)

// AlignWorkspace holds the per-thread trace matrix and score rows used
// by GlobalAlign. Buffers grow monotonically to the largest (|q|,|t|)
// seen so far, padded by 500 cells on each growth, and are never
// shrunk. Not safe for concurrent use.
type AlignWorkspace struct {
	trace [][]uint8
	row0  []int
	row1  []int
	capQ  int
	capT  int
}

// NewAlignWorkspace returns an empty AlignWorkspace; buffers are
// allocated lazily on first use.
func NewAlignWorkspace() *AlignWorkspace {
	return &AlignWorkspace{}
}

func (w *AlignWorkspace) ensure(nq, nt int) {
	growQ := nq+1 > w.capQ
	growT := nt+1 > w.capT
	if !growQ && !growT {
		return
	}
	if growQ {
		w.capQ = nq + 1 + 500
	}
	if growT {
		w.capT = nt + 1 + 500
	}
	w.trace = make([][]uint8, w.capQ)
	for i := range w.trace {
		w.trace[i] = make([]uint8, w.capT)
	}
	w.row0 = make([]int, w.capT)
	w.row1 = make([]int, w.capT)
}

// GlobalAlign performs a banded, unit-cost Needleman-Wunsch alignment
// of query against target. It returns the optimal score and a path
// string over {'M','D','I'}: 'D' consumes query only (deletion from
// target's perspective), 'I' consumes target only, 'M' consumes both
// (match or mismatch). If the two sequences differ in length by more
// than Band, alignment is impossible within the band and (Inf, "") is
// returned.
//
// Tie-break order in the recurrence is diagonal > deletion >
// insertion, matching UCHIME2's reference behavior.
func GlobalAlign(query, target string, ws *AlignWorkspace) (int, string) {
	if ws == nil {
		ws = NewAlignWorkspace()
	}
	nq, nt := len(query), len(target)
	if abs(nq-nt) > Band {
		return Inf, ""
	}

	ws.ensure(nq, nt)
	trace := ws.trace
	prev, curr := ws.row0, ws.row1

	colLo := func(i int) int {
		lo := i - Band
		if lo < 0 {
			lo = 0
		}
		return lo
	}
	colHi := func(i int) int {
		hi := i + Band
		if hi > nt {
			hi = nt
		}
		return hi
	}

	lo0, hi0 := colLo(0), colHi(0)
	for j := 0; j <= nt; j++ {
		if j >= lo0 && j <= hi0 {
			prev[j] = j
			trace[0][j] = dirLeft
		} else {
			prev[j] = Inf
		}
	}
	trace[0][0] = dirDiag

	for i := 1; i <= nq; i++ {
		lo, hi := colLo(i), colHi(i)
		if lo > 0 {
			curr[lo-1] = Inf
		}
		for j := lo; j <= hi; j++ {
			if j == 0 {
				curr[j] = i
				trace[i][j] = dirUp
				continue
			}
			diag := prev[j-1]
			if query[i-1] != target[j-1] {
				diag++
			}
			up := prev[j] + 1   // deletion: consume query only
			left := curr[j-1] + 1 // insertion: consume target only

			best := diag
			dir := uint8(dirDiag)
			if up < best {
				best = up
				dir = dirUp
			}
			if left < best {
				best = left
				dir = dirLeft
			}
			if best > Inf {
				best = Inf
			}
			curr[j] = best
			trace[i][j] = dir
		}
		if hi < nt {
			curr[hi+1] = Inf
		}
		prev, curr = curr, prev
	}

	score := prev[nt]
	if score >= Inf {
		return Inf, ""
	}

	// traceback from (nq, nt) to (0, 0); the trace matrix was filled
	// with the winning direction at every visited cell.
	path := make([]byte, 0, nq+nt)
	i, j := nq, nt
	for i > 0 || j > 0 {
		switch trace[i][j] {
		case dirDiag:
			path = append(path, 'M')
			i--
			j--
		case dirUp:
			path = append(path, 'D')
			i--
		default:
			path = append(path, 'I')
			j--
		}
	}
	// reverse
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return score, string(path)
}
