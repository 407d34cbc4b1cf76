package align

import (
	"strings"
	"testing"
)

func applyPath(query, target, path string) (string, string) {
	var q, tg strings.Builder
	qi, ti := 0, 0
	for i := 0; i < len(path); i++ {
		switch path[i] {
		case 'M':
			q.WriteByte(query[qi])
			tg.WriteByte(target[ti])
			qi++
			ti++
		case 'D':
			q.WriteByte(query[qi])
			tg.WriteByte('-')
			qi++
		case 'I':
			q.WriteByte('-')
			tg.WriteByte(target[ti])
			ti++
		}
	}
	return q.String(), tg.String()
}

func TestGlobalAlignExactMatch(t *testing.T) {
	ws := NewAlignWorkspace()
	score, path := GlobalAlign("ACGTACGT", "ACGTACGT", ws)
	if score != 0 {
		t.Fatalf("expected score 0, got %d", score)
	}
	if path != "MMMMMMMM" {
		t.Fatalf("expected all-match path, got %q", path)
	}
}

func TestGlobalAlignPathConsumesBothSequences(t *testing.T) {
	ws := NewAlignWorkspace()
	query := "ACGTACGTTT"
	target := "ACGTACGT"
	score, path := GlobalAlign(query, target, ws)
	if score <= 0 {
		t.Fatalf("expected positive score for an insertion, got %d", score)
	}
	q, tg := applyPath(query, target, path)
	if strings.ReplaceAll(q, "-", "") != query {
		t.Fatalf("path does not reconstruct query: %q", q)
	}
	if strings.ReplaceAll(tg, "-", "") != target {
		t.Fatalf("path does not reconstruct target: %q", tg)
	}
}

func TestGlobalAlignOverBand(t *testing.T) {
	ws := NewAlignWorkspace()
	query := strings.Repeat("A", 5)
	target := strings.Repeat("A", 5+Band+1)
	score, path := GlobalAlign(query, target, ws)
	if score != Inf || path != "" {
		t.Fatalf("expected overflow for a length gap beyond the band, got score=%d path=%q", score, path)
	}
}

func TestAlignWorkspaceReuseGrows(t *testing.T) {
	ws := NewAlignWorkspace()
	GlobalAlign("ACGT", "ACGT", ws)
	score, path := GlobalAlign(strings.Repeat("ACGT", 50), strings.Repeat("ACGT", 50), ws)
	if score != 0 || len(path) != 200 {
		t.Fatalf("unexpected result after growth: score=%d pathlen=%d", score, len(path))
	}
}
