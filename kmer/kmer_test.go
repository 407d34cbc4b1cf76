package kmer

import "testing"

func TestExtractUniqueBasic(t *testing.T) {
	ws := NewWorkspace()
	words := ws.ExtractUnique("ACGTACGT")
	if len(words) == 0 {
		t.Fatalf("expected at least one 8-mer")
	}
}

func TestExtractUniqueResetsOnAmbiguous(t *testing.T) {
	ws := NewWorkspace()
	// "N" breaks the run; no window may span it.
	words := ws.ExtractUnique("ACGTACGNACGTACGT")
	for range words {
		// every emitted word corresponds to a full 8-base run with no
		// ambiguous base; we only check that extraction does not
		// panic and returns fewer windows than the ungapped case.
	}
	full := ws.ExtractUnique("ACGTACGTACGTACGT")
	if len(words) >= len(full) {
		t.Fatalf("expected fewer unique words with an internal N: got %d vs %d", len(words), len(full))
	}
}

func TestExtractUniqueDeduplicates(t *testing.T) {
	ws := NewWorkspace()
	// a homopolymer run of length 16 has exactly one distinct 8-mer.
	words := ws.ExtractUnique("AAAAAAAAAAAAAAAA")
	if len(words) != 1 {
		t.Fatalf("expected 1 unique word, got %d", len(words))
	}
}

func TestExtractUniqueRCIsIndependentOfExplicitRC(t *testing.T) {
	ws := NewWorkspace()
	seq := "ACGTACGTGGCATCAGT"
	rc := reverseComplement(seq)

	fromRC := ws.ExtractUnique(rc)
	fromWalk := ws.ExtractUniqueRC(seq)

	setEq := func(a, b []uint16) bool {
		if len(a) != len(b) {
			return false
		}
		seen := map[uint16]bool{}
		for _, w := range a {
			seen[w] = true
		}
		for _, w := range b {
			if !seen[w] {
				return false
			}
		}
		return true
	}
	if !setEq(fromRC, fromWalk) {
		t.Fatalf("ExtractUniqueRC diverged from explicit-RC extraction:\n%v\n%v", fromRC, fromWalk)
	}
}

func reverseComplement(s string) string {
	comp := map[byte]byte{'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A'}
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = comp[s[len(s)-1-i]]
	}
	return string(out)
}

func TestCountValid(t *testing.T) {
	if n := CountValid("ACGTACGT"); n != 1 {
		t.Fatalf("expected 1 window, got %d", n)
	}
	if n := CountValid("ACGT"); n != 0 {
		t.Fatalf("expected 0 windows for a 4-base sequence, got %d", n)
	}
	if n := CountValid("ACGTNACGT"); n != 0 {
		t.Fatalf("expected 0 windows across the break, got %d", n)
	}
}
