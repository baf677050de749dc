package domain

import "testing"

func TestNewSpan(t *testing.T) {
	s := NewSpan(3, 7)
	if s.Length != 5 {
		t.Fatalf("expected length 5, got %d", s.Length)
	}
	buf := []byte("Hi. Bye.")
	if got := string(s.Bytes(buf)); got != " Bye." {
		t.Fatalf("expected %q, got %q", " Bye.", got)
	}
}

func TestIsDelimiter(t *testing.T) {
	for i := 0; i < 256; i++ {
		b := byte(i)
		want := b == '.' || b == '?' || b == '!'
		if IsDelimiter(b) != want {
			t.Errorf("IsDelimiter(%q) = %v", b, !want)
		}
	}
}

func TestCursorAdvance(t *testing.T) {
	c := Cursor(4096)
	if got := c.Advance(10).Offset(); got != 4106 {
		t.Fatalf("expected 4106, got %d", got)
	}
}

func TestNewCandidate_DeterministicID(t *testing.T) {
	a := NewCandidate("Hi.")
	b := NewCandidate("Hi.")
	c := NewCandidate(" Bye.")
	if a.ID != b.ID {
		t.Fatal("same text should yield same ID")
	}
	if a.ID == c.ID {
		t.Fatal("different text should yield different IDs")
	}
	if a.Length != 3 {
		t.Fatalf("expected length 3, got %d", a.Length)
	}
}

func TestCandidates_PreservesOrder(t *testing.T) {
	got := Candidates([]string{" Bye.", "Hi."})
	if len(got) != 2 || got[0].Text != " Bye." || got[1].Text != "Hi." {
		t.Fatalf("unexpected candidates: %+v", got)
	}
}
