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

// Package phix filters PhiX174 spike-in control reads out of a
// sequencing run using a compile-time 8-mer containment score.
package phix

import (
	_ "embed"
	"strings"

	"github.com/shenwei356/ampliseq/kmer"
)

//go:embed data/phix174.fasta
var phixFasta string

// genome is the PhiX174 reference sequence with the FASTA header and
// newlines stripped, computed once at init.
var genome string

// table marks every 8-mer present on either strand of genome.
var table [kmer.NumWords]bool

func init() {
	var b strings.Builder
	for _, line := range strings.Split(phixFasta, "\n") {
		if line == "" || line[0] == '>' {
			continue
		}
		b.WriteString(strings.TrimSpace(line))
	}
	genome = b.String()

	ws := kmer.NewWorkspace()
	for _, w := range ws.ExtractUnique(genome) {
		table[w] = true
	}
	for _, w := range ws.ExtractUniqueRC(genome) {
		table[w] = true
	}
}

// SeqLen returns the length of the bundled PhiX174 reference genome.
func SeqLen() int {
	return len(genome)
}

// DefaultMinID and DefaultMinKmers are UCHIME-family defaults for
// IsPhix.
const (
	DefaultMinID    = 0.97
	DefaultMinKmers = 8
)

// Score returns the fraction of q's valid (unambiguous) 8-mers that
// are present in the PhiX 8-mer table. It returns 0 if q contributes
// fewer than one valid 8-mer.
func Score(q string, ws *kmer.Workspace) float64 {
	if ws == nil {
		ws = kmer.NewWorkspace()
	}
	words := ws.ExtractUnique(q)
	total := kmer.CountValid(q)
	if total == 0 {
		return 0
	}
	hits := 0
	for _, w := range words {
		if table[w] {
			hits++
		}
	}
	return float64(hits) / float64(len(words))
}

// IsPhix reports whether q looks like PhiX spike-in: it must
// contribute at least minKmers valid 8-mers, and its Score must be at
// least minID^8.
func IsPhix(q string, minID float64, minKmers int, ws *kmer.Workspace) bool {
	if ws == nil {
		ws = kmer.NewWorkspace()
	}
	n := kmer.CountValid(q)
	if n < minKmers {
		return false
	}
	threshold := pow8(minID)
	return Score(q, ws) >= threshold
}

func pow8(x float64) float64 {
	x2 := x * x
	x4 := x2 * x2
	return x4 * x4
}
