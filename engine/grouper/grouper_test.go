package grouper

import (
	"testing"

	"github.com/WessleyAI/sentwindow/engine/candidate"
	"github.com/WessleyAI/sentwindow/engine/domain"
	"github.com/WessleyAI/sentwindow/engine/sentence"
)

func group(t *testing.T, text string, b domain.Bounds) (*candidate.Set, Stats) {
	t.Helper()
	buf := []byte(text)
	res := sentence.NewIndexer().Index(buf)
	set := candidate.NewSet()
	return set, Group(res.Spans, buf, b, set)
}

func TestGroup_SingleSentences(t *testing.T) {
	set, stats := group(t, "Hi. Bye.", domain.Bounds{Min: 1, Max: 20})
	got := set.Sorted()
	if len(got) != 2 || got[0] != " Bye." || got[1] != "Hi." {
		t.Fatalf("unexpected candidates %q", got)
	}
	if stats.Emitted != 2 || stats.Dropped != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestGroup_MergesToReachMin(t *testing.T) {
	set, _ := group(t, "Hi. Bye.", domain.Bounds{Min: 8, Max: 20})
	got := set.Sorted()
	if len(got) != 1 || got[0] != "Hi. Bye." {
		t.Fatalf("unexpected candidates %q", got)
	}
}

func TestGroup_RestartKeepsOverflowingSpan(t *testing.T) {
	// Lengths 6, 6, 4 with a [10, 10] window: the first sentence is lost and
	// the second starts the run that is finally emitted.
	set, stats := group(t, "aaaaa.bbbbb.ccc.", domain.Bounds{Min: 10, Max: 10})
	got := set.Sorted()
	if len(got) != 1 || got[0] != "bbbbb.ccc." {
		t.Fatalf("unexpected candidates %q", got)
	}
	if stats.Dropped != 0 {
		t.Fatalf("restart is not a drop, got %+v", stats)
	}
}

func TestGroup_TrailingShortRunDropped(t *testing.T) {
	set, stats := group(t, "A. B.", domain.Bounds{Min: 10, Max: 20})
	if set.Len() != 0 {
		t.Fatalf("expected no candidates, got %q", set.Sorted())
	}
	if stats.Pending != 5 {
		t.Fatalf("expected pending length 5, got %d", stats.Pending)
	}
}

func TestGroup_CountsDuplicates(t *testing.T) {
	set, stats := group(t, "x.x.x.", domain.Bounds{Min: 2, Max: 2})
	if set.Len() != 1 {
		t.Fatalf("expected 1 unique candidate, got %d", set.Len())
	}
	if stats.Emitted != 3 || stats.Duplicates != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestGroup_AllRunsWithinWindow(t *testing.T) {
	text := "The quick fox. It jumped! Did it? Yes. Over the lazy dog. Again and again. End."
	b := domain.Bounds{Min: 10, Max: 30}
	set, _ := group(t, text, b)
	if set.Len() == 0 {
		t.Fatal("expected some candidates")
	}
	for _, c := range set.Sorted() {
		if !b.Contains(len(c)) {
			t.Errorf("candidate %q has length %d outside %s", c, len(c), b)
		}
		if !domain.IsDelimiter(c[len(c)-1]) {
			t.Errorf("candidate %q does not end with a delimiter", c)
		}
	}
}

func TestMaterialize_CopiesOutOfBuffer(t *testing.T) {
	buf := []byte("Hi. Bye.")
	spans := []domain.Span{domain.NewSpan(0, 2), domain.NewSpan(3, 7)}
	got := Materialize(spans, buf, 8)
	buf[0] = 'X'
	if got != "Hi. Bye." {
		t.Fatalf("materialized text aliases the buffer: %q", got)
	}
}

func TestStatsAdd(t *testing.T) {
	s := Stats{Emitted: 1, Dropped: 2}
	s.Add(Stats{Emitted: 3, Duplicates: 1, Pending: 4})
	if s != (Stats{Emitted: 4, Dropped: 2, Duplicates: 1, Pending: 4}) {
		t.Fatalf("unexpected sum %+v", s)
	}
}
