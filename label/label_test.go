package label

import (
	"reflect"
	"testing"
)

func TestParseSize(t *testing.T) {
	cases := map[string]int{
		"x;size=42;":    42,
		"x;size=foo;":   0,
		"x":             0,
		"x;size=0;":     0,
		"x;tax=d:B;":    0,
		"seq1;size=100;tax=d:Bacteria;": 100,
	}
	for id, want := range cases {
		if got := ParseSize(id); got != want {
			t.Errorf("ParseSize(%q) = %d, want %d", id, got, want)
		}
	}
}

func TestParseTax(t *testing.T) {
	if got := ParseTax("seq1;size=10;tax=d:Bacteria,p:Firmicutes;"); got != "d:Bacteria,p:Firmicutes" {
		t.Errorf("ParseTax() = %q", got)
	}
	if got := ParseTax("seq1;size=10;"); got != "" {
		t.Errorf("ParseTax() = %q, want empty", got)
	}
}

func TestRankStrings(t *testing.T) {
	got := RankStrings("d:Bacteria,p:Firmicutes,g:Testus")
	want := []string{"d:Bacteria", "p:Firmicutes", "g:Testus"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RankStrings() = %v, want %v", got, want)
	}
	if got := RankStrings(""); got != nil {
		t.Errorf("RankStrings(\"\") = %v, want nil", got)
	}
}

func TestRankName(t *testing.T) {
	if got := RankName("g:Testus"); got != "g" {
		t.Errorf("RankName() = %q, want g", got)
	}
}
