package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/WessleyAI/sentwindow/engine/domain"
)

// State is a step of the extraction loop.
type State int

const (
	StateReading State = iota
	StateIndexing
	StateGrouping
	StateFlushing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateReading:
		return "reading"
	case StateIndexing:
		return "indexing"
	case StateGrouping:
		return "grouping"
	case StateFlushing:
		return "flushing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Sink receives the flushed candidates in ascending byte order.
type Sink interface {
	Name() string
	Write(ctx context.Context, cands []domain.Candidate) error
}

// Summary describes one extraction run.
type Summary struct {
	Chunks     int
	Bytes      int64
	Sentences  int
	Emitted    int
	Dropped    int
	Duplicates int
	// Pending sums the lengths of trailing runs that ended a chunk below min.
	Pending int
	// Grows counts chunks re-read at a larger capacity because they held no delimiter.
	Grows int
	// Skipped counts chunks abandoned at the capacity ceiling.
	Skipped    int
	ReadErrors int
	Candidates int
	Duration   time.Duration
}

// LogValue renders the summary as a log group.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("chunks", s.Chunks),
		slog.Int64("bytes", s.Bytes),
		slog.Int("sentences", s.Sentences),
		slog.Int("runs_emitted", s.Emitted),
		slog.Int("runs_dropped", s.Dropped),
		slog.Int("duplicates", s.Duplicates),
		slog.Int("pending_bytes", s.Pending),
		slog.Int("grows", s.Grows),
		slog.Int("skipped", s.Skipped),
		slog.Int("read_errors", s.ReadErrors),
		slog.Int("candidates", s.Candidates),
		slog.Duration("duration", s.Duration),
	)
}
