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

// Package unoise implements the UNOISE3 denoiser: greedy,
// abundance-ordered clustering of dereplicated sequences into
// zero-radius OTU centroids using a banded edit-distance oracle.
package unoise

import (
	"math"
	"sort"

	"github.com/twotwotwo/sorts"

	"github.com/shenwei356/ampliseq/align"
)

// DefaultAlpha is UNOISE3's default skew-sensitivity parameter.
const DefaultAlpha = 2.0

// SequenceRecord is a dereplicated sequence with its parsed abundance.
type SequenceRecord struct {
	ID   string
	Seq  string
	Size int
}

// Centroid is a UNOISE cluster: the seeding sequence plus the total
// abundance of every sequence merged into it.
type Centroid struct {
	SeqObj    SequenceRecord
	TotalSize int
}

// Options controls the denoising run.
type Options struct {
	// Alpha is the skew-sensitivity parameter; higher alpha tolerates
	// fewer differences for a given skew. Defaults to DefaultAlpha
	// when zero.
	Alpha float64
	// MinSize is the minimum abundance a sequence needs to seed (or
	// survive as) its own cluster.
	MinSize int
}

// Denoise runs the UNOISE3 greedy clustering algorithm over seqs and
// returns the resulting centroids sorted by TotalSize descending.
//
// seqs is sorted internally by Size descending (a copy is made; the
// caller's slice is untouched) before the greedy scan.
func Denoise(seqs []SequenceRecord, opt Options) []Centroid {
	alpha := opt.Alpha
	if alpha == 0 {
		alpha = DefaultAlpha
	}

	ordered := make([]SequenceRecord, len(seqs))
	copy(ordered, seqs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Size > ordered[j].Size
	})

	centroids := make([]Centroid, 0, len(ordered)/2+1)
	ws := align.NewEditWorkspace()

	for _, query := range ordered {
		if query.Size < opt.MinSize {
			break // remaining are smaller: sorted descending
		}

		best := -1
		bestDiff := int(^uint(0) >> 1) // max int

		for ci := range centroids {
			c := &centroids[ci]
			if c.SeqObj.Size < 2*query.Size {
				// log2(skew) < 1 => no positive diff budget left;
				// centroids are scanned in abundance order so all
				// remaining ones are even smaller.
				break
			}

			skew := float64(c.SeqObj.Size) / float64(query.Size)
			maxDiff := int(math.Floor((math.Log2(skew) - 1) / alpha))
			if maxDiff < 0 {
				continue
			}

			if abs(len(query.Seq)-len(c.SeqObj.Seq)) > maxDiff {
				continue
			}

			diff := align.EditDistance(query.Seq, c.SeqObj.Seq, maxDiff, ws)
			if diff > maxDiff {
				continue
			}
			if diff < bestDiff {
				bestDiff = diff
				best = ci
			}
			if bestDiff <= 1 {
				break
			}
		}

		if best >= 0 {
			centroids[best].TotalSize += query.Size
		} else {
			centroids = append(centroids, Centroid{SeqObj: query, TotalSize: query.Size})
		}
	}

	sorts.Quicksort(byTotalSizeDesc(centroids))
	return centroids
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// byTotalSizeDesc adapts Centroid slices to twotwotwo/sorts'
// parallel-sort interface, matching kmcp's use of the same package
// for its (potentially reference-database-sized) index sorts.
type byTotalSizeDesc []Centroid

func (s byTotalSizeDesc) Len() int           { return len(s) }
func (s byTotalSizeDesc) Less(i, j int) bool { return s[i].TotalSize > s[j].TotalSize }
func (s byTotalSizeDesc) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
