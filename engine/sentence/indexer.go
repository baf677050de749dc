// Package sentence locates delimiter-terminated sentences inside a chunk and
// works out where the next chunk read must begin.
package sentence

import "github.com/WessleyAI/sentwindow/engine/domain"

// Result is the outcome of indexing one chunk.
type Result struct {
	// Spans are the complete sentences found, in order. The slice is reused by
	// the next Index call.
	Spans []domain.Span
	// Consumed is how far the cursor may advance. Bytes past Consumed belong to
	// an unterminated sentence and are re-read with the next chunk.
	Consumed int
}

// Carried returns the number of tail bytes left for the next chunk.
func (r Result) Carried(size int) int { return size - r.Consumed }

// Indexer scans chunks for sentences. It is not safe for concurrent use.
type Indexer struct {
	spans []domain.Span
}

// NewIndexer creates an Indexer.
func NewIndexer() *Indexer {
	return &Indexer{spans: make([]domain.Span, 0, 64)}
}

// isControl matches the bytes rewritten to spaces before delimiter detection.
func isControl(b byte) bool {
	return b == 0 || b == '\r' || b == '\n'
}

// Index normalizes buf in place and records every delimiter-terminated
// sentence in it. Spans from the previous call are discarded.
func (ix *Indexer) Index(buf []byte) Result {
	ix.spans = ix.spans[:0]

	pending := 0
	lastEnd := -1
	for i := range buf {
		if isControl(buf[i]) {
			buf[i] = ' '
		}
		if domain.IsDelimiter(buf[i]) {
			ix.spans = append(ix.spans, domain.NewSpan(pending, i))
			lastEnd = i
			pending = i + 1
		}
	}

	consumed := pending
	if lastEnd == len(buf)-1 {
		consumed = len(buf)
	}
	return Result{Spans: ix.spans, Consumed: consumed}
}
