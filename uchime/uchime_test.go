package uchime

import (
	"strings"
	"testing"

	"github.com/shenwei356/ampliseq/unoise"
)

func centroid(id, seq string, totalSize int) unoise.Centroid {
	return unoise.Centroid{SeqObj: unoise.SequenceRecord{ID: id, Seq: seq, Size: totalSize}, TotalSize: totalSize}
}

func TestDetectExactMatchNeverChimeric(t *testing.T) {
	seq := strings.Repeat("ACGT", 20)
	centroids := []unoise.Centroid{
		centroid("parent", seq, 200),
		centroid("query", seq, 10),
	}
	flags := Detect(centroids, Options{Threads: 1})
	if flags[0] || flags[1] {
		t.Fatalf("expected no chimeras, got %v", flags)
	}
}

func TestDetectHalfAndHalfQueryIsChimeric(t *testing.T) {
	a := strings.Repeat("A", 40)
	b := strings.Repeat("T", 40)
	query := strings.Repeat("A", 20) + strings.Repeat("T", 20)

	centroids := []unoise.Centroid{
		centroid("A", a, 1000),
		centroid("B", b, 800),
		centroid("query", query, 10),
	}
	flags := Detect(centroids, Options{Threads: 1, MinAbSkew: 16})
	want := []bool{false, false, true}
	for i := range want {
		if flags[i] != want[i] {
			t.Fatalf("flags = %v, want %v", flags, want)
		}
	}
}

func TestDetectParallelModesAreDeterministic(t *testing.T) {
	a := strings.Repeat("A", 40)
	b := strings.Repeat("T", 40)
	query := strings.Repeat("A", 20) + strings.Repeat("T", 20)

	centroids := []unoise.Centroid{
		centroid("A", a, 1000),
		centroid("B", b, 800),
		centroid("query", query, 10),
	}

	base := Detect(centroids, Options{Threads: 1, MinAbSkew: 16})
	for _, threads := range []int{0, 2, 4} {
		got := Detect(centroids, Options{Threads: threads, MinAbSkew: 16})
		for i := range got {
			if got[i] != base[i] {
				t.Fatalf("threads=%d flags=%v, want %v", threads, got, base)
			}
		}
	}
}

func TestDetectEmpty(t *testing.T) {
	flags := Detect(nil, Options{})
	if len(flags) != 0 {
		t.Fatalf("expected no flags, got %d", len(flags))
	}
}
