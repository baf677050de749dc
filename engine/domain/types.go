// Package domain defines the core types shared by the sentence-window
// extractor: spans, cursors, length bounds and flushed candidates, plus the
// validation gate for user-supplied bounds.
package domain

import (
	"github.com/google/uuid"
)

// IsDelimiter reports whether b closes a sentence. The delimiter byte belongs
// to the sentence it closes.
func IsDelimiter(b byte) bool {
	return b == '.' || b == '?' || b == '!'
}

// Span is a sentence located inside the current chunk buffer.
// End is inclusive, so Length = End - Start + 1.
//
// A Span borrows the buffer it was indexed from; it is only meaningful until
// that buffer is overwritten by the next chunk read.
type Span struct {
	Start  int
	End    int
	Length int
}

// NewSpan builds a span over buf[start..end].
func NewSpan(start, end int) Span {
	return Span{Start: start, End: end, Length: end - start + 1}
}

// Bytes returns the span's slice of buf. The result aliases buf.
func (s Span) Bytes(buf []byte) []byte {
	return buf[s.Start : s.Start+s.Length]
}

// Cursor is the byte offset in the source at which the next chunk read starts.
type Cursor int64

// Advance returns the cursor moved forward by n bytes.
func (c Cursor) Advance(n int) Cursor { return c + Cursor(n) }

// Offset returns the cursor as a file offset.
func (c Cursor) Offset() int64 { return int64(c) }

// Candidate is a flushed, deduplicated run of sentences.
type Candidate struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Length int    `json:"length"`
}

// NewCandidate builds a Candidate with a deterministic ID derived from its text,
// so repeated runs over the same input produce the same IDs.
func NewCandidate(text string) Candidate {
	return Candidate{
		ID:     uuid.NewSHA1(uuid.NameSpaceURL, []byte("sentwindow:"+text)).String(),
		Text:   text,
		Length: len(text),
	}
}

// Candidates converts an ordered list of texts into Candidate records, preserving order.
func Candidates(texts []string) []Candidate {
	out := make([]Candidate, len(texts))
	for i, t := range texts {
		out[i] = NewCandidate(t)
	}
	return out
}
