package cid

import "testing"

func TestParseRoundTrip(t *testing.T) {
	id := Sum([]byte("salmon\n"))
	s := id.String()
	got, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != id {
		t.Fatalf("round trip mismatch: %s != %s", got, id)
	}
}

func TestParseEmptyIsZero(t *testing.T) {
	id, err := Parse("")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !id.IsZero() {
		t.Fatalf("expected zero id")
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse("not-a-hash"); err == nil {
		t.Fatalf("expected error for malformed hex")
	}
}

func TestSumDeterministic(t *testing.T) {
	a := Sum([]byte("celery\n"))
	b := Sum([]byte("celery\n"))
	if a != b {
		t.Fatalf("Sum is not deterministic")
	}
	c := Sum([]byte("garlic\n"))
	if a == c {
		t.Fatalf("different content hashed to same id")
	}
}

func TestSortIsLexicographic(t *testing.T) {
	a := Sum([]byte("a"))
	b := Sum([]byte("b"))
	c := Sum([]byte("c"))
	ids := []ID{c, a, b}
	Sort(ids)
	for i := 1; i < len(ids); i++ {
		if !Less(ids[i-1], ids[i]) && ids[i-1] != ids[i] {
			t.Fatalf("not sorted: %v", ids)
		}
	}
}
