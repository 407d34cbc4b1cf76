package nbc

import (
	"strings"
	"testing"
)

func TestClassifySelfHitIsDeepAndConfident(t *testing.T) {
	seq := strings.Repeat("ACGTGGCATCAGTACGGTTTACGGCATG", 3)
	tree := BuildIndex([]string{seq}, []string{"d:Bacteria,p:Firmicutes,c:Bacilli,g:Testus"})
	ws := NewWorkspace()

	hit := Classify(seq, tree, ws, Options{})
	if len(hit.Ranks) <= 2 {
		t.Fatalf("expected a path deeper than 2 ranks, got %v", hit.Ranks)
	}
	last2 := hit.Confidences[len(hit.Confidences)-2:]
	for _, c := range last2 {
		if c < 0.9 {
			t.Fatalf("expected the last two ranks to have confidence >= 0.9, got %v", hit.Confidences)
		}
	}
	if hit.Strand != '+' {
		t.Fatalf("expected forward strand, got %q", string(hit.Strand))
	}
}

func TestClassifyShortQueryUnclassified(t *testing.T) {
	tree := BuildIndex(
		[]string{strings.Repeat("ACGTGGCATCAGTACGGT", 3)},
		[]string{"d:Bacteria"},
	)
	ws := NewWorkspace()

	hit := Classify("ACGTAC", tree, ws, Options{})
	if len(hit.Ranks) != 0 {
		t.Fatalf("expected unclassified, got %v", hit.Ranks)
	}
}

func TestClassifyReverseComplementYieldsMinusStrand(t *testing.T) {
	seq := strings.Repeat("ACGTGGCATCAGTACGGTTTACGGCATG", 3)
	tree := BuildIndex([]string{seq}, []string{"d:Bacteria,p:Firmicutes"})
	ws := NewWorkspace()

	hit := Classify(revComp(seq), tree, ws, Options{})
	if hit.Strand != '-' {
		t.Fatalf("expected reverse strand, got %q", string(hit.Strand))
	}
}
