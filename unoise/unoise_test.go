package unoise

import "testing"

func mutate(seq string, pos int, base byte) string {
	b := []byte(seq)
	b[pos] = base
	return string(b)
}

func TestDenoiseMergesSimilarLowerAbundanceSequences(t *testing.T) {
	seq1 := "ACGTACGTACGTACGTACGTACGTACGTACGTACGTACGT"
	seq2 := "TTGGCCAATTGGCCAATTGGCCAATTGGCCAATTGGCCAA"

	seqs := []SequenceRecord{
		{ID: "a", Seq: seq1, Size: 80},
		{ID: "b", Seq: mutate(seq1, 5, 'T'), Size: 10},
		{ID: "c", Seq: seq2, Size: 9},
		{ID: "d", Seq: mutate(seq2, 5, 'A'), Size: 7},
	}

	centroids := Denoise(seqs, Options{Alpha: 2.0, MinSize: 8})

	if len(centroids) != 2 {
		t.Fatalf("expected 2 centroids, got %d: %+v", len(centroids), centroids)
	}
	if centroids[0].SeqObj.ID != "a" || centroids[0].TotalSize != 90 {
		t.Fatalf("expected centroid a to absorb b (totalSize 90), got %+v", centroids[0])
	}
	if centroids[1].SeqObj.ID != "c" || centroids[1].TotalSize != 9 {
		t.Fatalf("expected centroid c alone (totalSize 9), got %+v", centroids[1])
	}
}

func TestDenoiseSortedByTotalSizeDescending(t *testing.T) {
	seqs := []SequenceRecord{
		{ID: "small-seed", Seq: "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", Size: 20},
		{ID: "big-seed", Seq: "CCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCC", Size: 100},
	}
	centroids := Denoise(seqs, Options{Alpha: 2.0, MinSize: 1})
	if len(centroids) != 2 {
		t.Fatalf("expected 2 independent centroids, got %d", len(centroids))
	}
	if centroids[0].TotalSize < centroids[1].TotalSize {
		t.Fatalf("centroids not sorted descending: %+v", centroids)
	}
}

func TestDenoiseEmptyInput(t *testing.T) {
	centroids := Denoise(nil, Options{})
	if len(centroids) != 0 {
		t.Fatalf("expected no centroids for empty input, got %d", len(centroids))
	}
}
