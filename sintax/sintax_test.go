package sintax

import (
	"strings"
	"testing"
)

func TestClassifyExactSelfHit(t *testing.T) {
	seq := strings.Repeat("ACGTGGCATCAGTACGGT", 3)
	idx := BuildIndex([]string{seq}, []string{"d:Bacteria,p:Firmicutes,g:Testus"})
	ws := NewWorkspace(idx)

	hit := Classify(seq, idx, ws, Options{})
	if hit.Strand != '+' {
		t.Fatalf("expected forward strand, got %q", string(hit.Strand))
	}
	if len(hit.Ranks) != 3 {
		t.Fatalf("expected 3 ranks, got %v", hit.Ranks)
	}
	for i, c := range hit.Confidences {
		if c < 0.99 {
			t.Fatalf("rank %d confidence = %f, want >= 0.99", i, c)
		}
	}
}

func TestClassifyReverseComplementSelfHit(t *testing.T) {
	seq := strings.Repeat("ACGTGGCATCAGTACGGT", 3)
	idx := BuildIndex([]string{seq}, []string{"d:Bacteria,p:Firmicutes,g:Testus"})
	ws := NewWorkspace(idx)

	rc := reverseComplementForTest(seq)
	hit := Classify(rc, idx, ws, Options{})
	if hit.Strand != '-' {
		t.Fatalf("expected reverse strand, got %q", string(hit.Strand))
	}
	if len(hit.Ranks) != 3 {
		t.Fatalf("expected 3 ranks, got %v", hit.Ranks)
	}
}

func TestClassifyShortQueryUnclassified(t *testing.T) {
	seq := strings.Repeat("ACGTGGCATCAGTACGGT", 3)
	idx := BuildIndex([]string{seq}, []string{"d:Bacteria"})
	ws := NewWorkspace(idx)

	hit := Classify("ACGTAC", idx, ws, Options{})
	if len(hit.Ranks) != 0 {
		t.Fatalf("expected unclassified, got %v", hit.Ranks)
	}
}

func TestClassifyDuplicateTaxaAreDeduped(t *testing.T) {
	seqAlpha1 := strings.Repeat("AACCGGTTAACCGGTT", 3)
	seqAlpha2 := strings.Repeat("AACCGGTTAACCGGTA", 3)
	seqBeta := strings.Repeat("TTGGCCAATTGGCCAA", 3)

	idx := BuildIndex(
		[]string{seqAlpha1, seqAlpha2, seqBeta},
		[]string{"d:X,g:Alpha", "d:X,g:Alpha", "d:X,g:Beta"},
	)
	if got := len(idx.uniq); got != 2 {
		t.Fatalf("expected 2 unique taxa, got %d", got)
	}

	ws := NewWorkspace(idx)
	hit := Classify(seqAlpha1, idx, ws, Options{})
	if len(hit.Ranks) == 0 || hit.Ranks[len(hit.Ranks)-1] != "g:Alpha" {
		t.Fatalf("expected ranks ending in g:Alpha, got %v", hit.Ranks)
	}
}

func reverseComplementForTest(s string) string {
	comp := map[byte]byte{'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A'}
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = comp[s[len(s)-1-i]]
	}
	return string(out)
}
