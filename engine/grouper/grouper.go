package grouper

import (
	"strings"

	"github.com/WessleyAI/sentwindow/engine/domain"
)

// Inserter receives materialized candidates and reports whether each was new.
type Inserter interface {
	Insert(string) bool
}

// Stats summarizes one Group call.
type Stats struct {
	Emitted    int
	Dropped    int
	Duplicates int
	// Pending is the length accumulated by a trailing run that never reached min.
	Pending int
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Emitted += other.Emitted
	s.Dropped += other.Dropped
	s.Duplicates += other.Duplicates
	s.Pending += other.Pending
}

// Group walks spans once, emitting every accepted run into out. Spans must
// have been indexed from buf; runs never cross into another chunk.
func Group(spans []domain.Span, buf []byte, b domain.Bounds, out Inserter) Stats {
	var (
		run   Run
		stats Stats
	)
	for i, sp := range spans {
		d := run.Step(i, sp.Length, b)
		switch d.Action {
		case Emit:
			stats.Emitted++
			if !out.Insert(Materialize(spans[d.From:d.To+1], buf, d.Total)) {
				stats.Duplicates++
			}
		case Drop:
			stats.Dropped++
		}
	}
	stats.Pending = run.Total
	return stats
}

// Materialize concatenates the bytes of each span, copying them out of buf.
// sizeHint is the expected total length.
func Materialize(spans []domain.Span, buf []byte, sizeHint int) string {
	var sb strings.Builder
	sb.Grow(sizeHint)
	for _, sp := range spans {
		sb.Write(sp.Bytes(buf))
	}
	return sb.String()
}
