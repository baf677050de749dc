package ingest

import "github.com/WessleyAI/sentwindow/pkg/metrics"

// Metrics are the counters the driver and pipeline update.
type Metrics struct {
	Chunks      *metrics.Counter
	Bytes       *metrics.Counter
	Sentences   *metrics.Counter
	RunsEmitted *metrics.Counter
	RunsDropped *metrics.Counter
	Duplicates  *metrics.Counter
	Grows       *metrics.Counter
	Skipped     *metrics.Counter
	ReadErrors  *metrics.Counter
	Candidates  *metrics.Gauge
	Capacity    *metrics.Gauge
	reg         *metrics.Registry
}

// NewMetrics registers the ingest metrics in reg. A nil reg gets a private registry.
func NewMetrics(reg *metrics.Registry) *Metrics {
	if reg == nil {
		reg = metrics.New()
	}
	runs := func(outcome string) *metrics.Counter {
		return reg.Counter(metrics.WithLabels("sentwindow_runs_total", "outcome", outcome), "Sentence runs by outcome")
	}
	return &Metrics{
		Chunks:      reg.Counter("sentwindow_chunks_total", "Chunks read from the input"),
		Bytes:       reg.Counter("sentwindow_bytes_total", "Bytes read from the input, including re-read tails"),
		Sentences:   reg.Counter("sentwindow_sentences_total", "Delimited sentences indexed"),
		RunsEmitted: runs("emitted"),
		RunsDropped: runs("dropped"),
		Duplicates:  reg.Counter("sentwindow_duplicate_candidates_total", "Emitted runs already in the collection"),
		Grows:       reg.Counter("sentwindow_chunk_grows_total", "Chunks re-read at a larger capacity"),
		Skipped:     reg.Counter("sentwindow_chunks_skipped_total", "Chunks skipped without a sentence boundary"),
		ReadErrors:  reg.Counter("sentwindow_read_errors_total", "Input read failures"),
		Candidates:  reg.Gauge("sentwindow_candidates", "Unique candidates collected"),
		Capacity:    reg.Gauge("sentwindow_reader_capacity_bytes", "Current chunk buffer capacity"),
		reg:         reg,
	}
}

// SinkErrors returns the error counter for the named sink.
func (m *Metrics) SinkErrors(sink string) *metrics.Counter {
	return m.reg.Counter(metrics.WithLabels("sentwindow_sink_errors_total", "sink", sink), "Failed sink writes")
}

// SinkSeconds returns the write latency histogram for the named sink.
func (m *Metrics) SinkSeconds(sink string) *metrics.Histogram {
	return m.reg.Histogram(metrics.WithLabels("sentwindow_sink_write_seconds", "sink", sink), "Sink write latency", nil)
}
