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

// Package kmer implements the 2-bit nucleotide encoding and 8-mer
// (word) extraction shared by the SINTAX, NBC and PhiX components.
package kmer

// K is the word length in bases used across the toolkit. A word is a
// 16-bit unsigned integer: 8 bases, 2 bits each.
const K = 8

// NumWords is the size of the word space, 4^K.
const NumWords = 1 << (2 * K)

// wordMask keeps a rolling word to exactly K*2 bits.
const wordMask = uint16(NumWords - 1)

// ambiguous is returned by encodeBase for any byte that is not one of
// A/C/G/T/U in either case.
const ambiguous = 0xff

// encodeBase maps A/a->0, C/c->1, G/g->2, T/t/U/u->3, anything else
// to the ambiguous sentinel.
func encodeBase(b byte) byte {
	switch b {
	case 'A', 'a':
		return 0
	case 'C', 'c':
		return 1
	case 'G', 'g':
		return 2
	case 'T', 't', 'U', 'u':
		return 3
	default:
		return ambiguous
	}
}

// EncodeBase exposes the 2-bit base encoding for callers outside this
// package (e.g. reverse-complement helpers). ok is false for
// ambiguous bases.
func EncodeBase(b byte) (val byte, ok bool) {
	v := encodeBase(b)
	if v == ambiguous {
		return 0, false
	}
	return v, true
}

// ExtractUnique returns the unique 8-mers of seq, in the order their
// first occurrence completes a full window. Any ambiguous base resets
// the rolling word; emission resumes only once K consecutive valid
// bases have been seen again.
//
// This allocates a result slice per call; hot paths (SINTAX/NBC
// classification, index building) should use a *Workspace instead.
func ExtractUnique(seq string) []uint16 {
	ws := NewWorkspace()
	return ws.ExtractUnique(seq)
}

// Workspace holds the per-goroutine "seen" table used to de-duplicate
// 8-mers within one sequence without re-zeroing a 64K array on every
// call. It is not safe for concurrent use; callers running classifiers
// or index builders across a worker pool must create one Workspace per
// worker.
type Workspace struct {
	seen []uint32 // seen[w] == mark  <=>  w already emitted for the current sequence
	mark uint32
	buf  []uint16
}

// NewWorkspace allocates a Workspace ready for repeated calls to
// ExtractUnique / ExtractUniqueRC.
func NewWorkspace() *Workspace {
	return &Workspace{
		seen: make([]uint32, NumWords),
		mark: 0,
		buf:  make([]uint16, 0, 256),
	}
}

// next advances the stamp used to mark words seen in the current
// sequence. When it wraps around uint32, the seen table is zeroed and
// the mark restarts at 1 -- this happens at most once every ~4
// billion sequences per worker, so the amortized cost is negligible.
func (w *Workspace) next() {
	w.mark++
	if w.mark == 0 {
		for i := range w.seen {
			w.seen[i] = 0
		}
		w.mark = 1
	}
}

// ExtractUnique returns the unique 8-mers of seq using this
// workspace's scratch table. The returned slice is only valid until
// the next call on the same Workspace.
func (w *Workspace) ExtractUnique(seq string) []uint16 {
	w.next()
	w.buf = w.buf[:0]

	var word uint16
	var run int
	for i := 0; i < len(seq); i++ {
		b := encodeBase(seq[i])
		if b == ambiguous {
			word = 0
			run = 0
			continue
		}
		word = (word << 2) | uint16(b)
		word &= wordMask
		run++
		if run < K {
			continue
		}
		if w.seen[word] != w.mark {
			w.seen[word] = w.mark
			w.buf = append(w.buf, word)
		}
	}
	return w.buf
}

// ExtractUniqueRC returns the unique 8-mers of the reverse complement
// of seq without allocating or materializing the reverse-complement
// string: it walks seq right-to-left, complementing each 2-bit base
// with XOR 0b11 as it is folded into the rolling word.
func (w *Workspace) ExtractUniqueRC(seq string) []uint16 {
	w.next()
	w.buf = w.buf[:0]

	var word uint16
	var run int
	for i := len(seq) - 1; i >= 0; i-- {
		b := encodeBase(seq[i])
		if b == ambiguous {
			word = 0
			run = 0
			continue
		}
		b ^= 0b11
		word = (word << 2) | uint16(b)
		word &= wordMask
		run++
		if run < K {
			continue
		}
		if w.seen[word] != w.mark {
			w.seen[word] = w.mark
			w.buf = append(w.buf, word)
		}
	}
	return w.buf
}

// CountValid returns the number of positions in seq at which a full,
// unambiguous 8-mer window ends -- i.e. how many (possibly repeated)
// 8-mers seq contributes, used by PhiX scoring which needs the raw
// count rather than the unique set.
func CountValid(seq string) int {
	var run, n int
	for i := 0; i < len(seq); i++ {
		if _, ok := EncodeBase(seq[i]); ok {
			run++
			if run >= K {
				n++
			}
		} else {
			run = 0
		}
	}
	return n
}
