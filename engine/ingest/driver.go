// Package ingest drives the chunked extraction loop and hands the collected
// candidates to the output sinks.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/WessleyAI/sentwindow/engine/candidate"
	"github.com/WessleyAI/sentwindow/engine/chunk"
	"github.com/WessleyAI/sentwindow/engine/domain"
	"github.com/WessleyAI/sentwindow/engine/grouper"
	"github.com/WessleyAI/sentwindow/engine/sentence"
	"github.com/WessleyAI/sentwindow/pkg/fn"
)

// Deps holds the ambient dependencies shared by the driver and the pipeline.
type Deps struct {
	Logger  *slog.Logger
	Metrics *Metrics
	// Retry governs export sink writes. The zero value means fn.DefaultRetry.
	Retry fn.RetryOpts
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Metrics == nil {
		d.Metrics = NewMetrics(nil)
	}
	if d.Retry.MaxAttempts == 0 {
		d.Retry = fn.DefaultRetry
	}
	return d
}

// Driver runs Reading → Indexing → Grouping until the reader is drained.
// It is single-use and not safe for concurrent use.
type Driver struct {
	reader  *chunk.Reader
	indexer *sentence.Indexer
	bounds  domain.Bounds
	set     *candidate.Set
	log     *slog.Logger
	m       *Metrics

	state   State
	cursor  domain.Cursor
	current chunk.Chunk
	index   sentence.Result
	runs    grouper.Stats
	summary Summary
}

// NewDriver creates a driver positioned at the start of r.
func NewDriver(r *chunk.Reader, b domain.Bounds, deps Deps) *Driver {
	deps = deps.withDefaults()
	return &Driver{
		reader:  r,
		indexer: sentence.NewIndexer(),
		bounds:  b,
		set:     candidate.NewSet(),
		log:     deps.Logger,
		m:       deps.Metrics,
		state:   StateReading,
	}
}

// State returns the current state.
func (d *Driver) State() State { return d.state }

// Cursor returns the offset of the next read.
func (d *Driver) Cursor() domain.Cursor { return d.cursor }

// Summary returns the counters gathered so far.
func (d *Driver) Summary() Summary {
	s := d.summary
	s.Emitted = d.runs.Emitted
	s.Dropped = d.runs.Dropped
	s.Duplicates = d.runs.Duplicates
	s.Pending = d.runs.Pending
	s.Candidates = d.set.Len()
	return s
}

// Step performs one state transition. It only fails when ctx is done.
func (d *Driver) Step(ctx context.Context) error {
	switch d.state {
	case StateReading:
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("ingest: read at %d: %w", d.cursor.Offset(), err)
		}
		d.read()
	case StateIndexing:
		d.indexChunk()
	case StateGrouping:
		d.group()
	default:
		return fmt.Errorf("ingest: step in state %s", d.state)
	}
	return nil
}

// Collect steps until the input is exhausted, leaving the driver in StateFlushing.
func (d *Driver) Collect(ctx context.Context) (Summary, error) {
	start := time.Now()
	for d.state != StateFlushing {
		if err := d.Step(ctx); err != nil {
			return d.Summary(), err
		}
	}
	d.summary.Duration = time.Since(start)
	return d.Summary(), nil
}

// Flush writes every candidate, in ascending byte order, to out.
func (d *Driver) Flush(ctx context.Context, out Sink) ([]domain.Candidate, error) {
	if d.state != StateFlushing {
		return nil, fmt.Errorf("ingest: flush in state %s", d.state)
	}
	cands := domain.Candidates(d.set.Sorted())
	start := time.Now()
	if err := out.Write(ctx, cands); err != nil {
		d.m.SinkErrors(out.Name()).Inc()
		return nil, fmt.Errorf("ingest: flush to %s: %w", out.Name(), err)
	}
	d.m.SinkSeconds(out.Name()).Since(start)
	d.state = StateDone
	d.log.Debug("flushed", "sink", out.Name(), "candidates", len(cands))
	return cands, nil
}

func (d *Driver) read() {
	c, err := d.reader.Read(d.cursor)
	if err != nil {
		d.summary.ReadErrors++
		d.m.ReadErrors.Inc()
		d.log.Error("read failed, ending input", "chunk_offset", c.Offset, "error", err)
	}
	if c.Empty() {
		d.state = StateFlushing
		return
	}
	d.current = c
	d.summary.Chunks++
	d.summary.Bytes += int64(c.Len())
	d.m.Chunks.Inc()
	d.m.Bytes.Add(int64(c.Len()))
	if d.reader.Exhausted() {
		d.log.Debug("input exhausted", "chunk_offset", c.Offset, "bytes", c.Len())
	}
	d.state = StateIndexing
}

func (d *Driver) indexChunk() {
	d.index = d.indexer.Index(d.current.Data)
	d.summary.Sentences += len(d.index.Spans)
	d.m.Sentences.Add(int64(len(d.index.Spans)))

	advance := d.index.Consumed
	switch {
	case advance > 0:
		d.reader.Reset()
	case d.current.Full && d.reader.Grow():
		// No boundary in a full buffer: re-read the same bytes as one larger unit.
		d.summary.Grows++
		d.m.Grows.Inc()
		d.log.Debug("no sentence boundary, growing chunk",
			"chunk_offset", d.current.Offset, "capacity", d.reader.Capacity())
	case d.current.Full:
		advance = d.current.Len()
		d.summary.Skipped++
		d.m.Skipped.Inc()
		d.reader.Reset()
		d.log.Warn("no sentence boundary within maximum capacity, skipping",
			"chunk_offset", d.current.Offset, "bytes", advance)
	}
	d.m.Capacity.Set(int64(d.reader.Capacity()))
	d.cursor = d.cursor.Advance(advance)
	d.state = StateGrouping
}

func (d *Driver) group() {
	st := grouper.Group(d.index.Spans, d.current.Data, d.bounds, d.set)
	d.runs.Add(st)
	d.m.RunsEmitted.Add(int64(st.Emitted))
	d.m.RunsDropped.Add(int64(st.Dropped))
	d.m.Duplicates.Add(int64(st.Duplicates))
	d.m.Candidates.Set(int64(d.set.Len()))
	d.log.Debug("chunk grouped",
		"chunk_offset", d.current.Offset,
		"bytes", d.current.Len(),
		"spans", len(d.index.Spans),
		"carried", d.index.Carried(d.current.Len()),
		"emitted", st.Emitted,
		"pending", st.Pending,
	)
	d.state = StateReading
}
