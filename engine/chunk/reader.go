// Package chunk reads a source in fixed-capacity chunks starting at an
// explicit cursor.
package chunk

import (
	"errors"
	"fmt"
	"io"

	"github.com/WessleyAI/sentwindow/engine/domain"
)

// DefaultMaxCapacity bounds how far Grow may enlarge the buffer (64 MiB).
const DefaultMaxCapacity = 64 << 20

// Chunk is one read of the source. Data aliases the reader's buffer and is
// overwritten by the next Read.
type Chunk struct {
	Offset int64
	Data   []byte
	// Full is true when the read filled the buffer to capacity.
	Full bool
}

// Len returns the number of valid bytes in the chunk.
func (c Chunk) Len() int { return len(c.Data) }

// Empty reports whether the chunk carries no bytes, which ends the read loop.
func (c Chunk) Empty() bool { return len(c.Data) == 0 }

// Reader supplies successive chunks of a source.
type Reader struct {
	src       io.ReaderAt
	base      int
	max       int
	buf       []byte
	exhausted bool
}

// Option configures a Reader.
type Option func(*Reader)

// WithMaxCapacity sets the ceiling for Grow.
func WithMaxCapacity(n int) Option {
	return func(r *Reader) { r.max = n }
}

// NewReader creates a Reader with the given base capacity.
func NewReader(src io.ReaderAt, capacity int, opts ...Option) (*Reader, error) {
	if err := domain.ValidateChunkSize(capacity); err != nil {
		return nil, err
	}
	r := &Reader{src: src, base: capacity, max: DefaultMaxCapacity}
	for _, o := range opts {
		o(r)
	}
	if r.max > domain.ChunkSizeLimit {
		r.max = domain.ChunkSizeLimit
	}
	if r.max < capacity {
		r.max = capacity
	}
	r.buf = make([]byte, capacity)
	return r, nil
}

// Capacity returns the current buffer capacity.
func (r *Reader) Capacity() int { return len(r.buf) }

// Exhausted reports whether a short read has already hit the end of the source.
func (r *Reader) Exhausted() bool { return r.exhausted }

// Read fills the buffer from cursor. Once a read comes back short the source
// is treated as exhausted and every later Read returns an empty chunk.
// A non-EOF error also exhausts the source. The bytes read before it are
// returned along with the error.
func (r *Reader) Read(cursor domain.Cursor) (Chunk, error) {
	off := cursor.Offset()
	if r.exhausted {
		return Chunk{Offset: off}, nil
	}
	n, err := r.src.ReadAt(r.buf, off)
	if err != nil && !errors.Is(err, io.EOF) {
		r.exhausted = true
		return Chunk{Offset: off, Data: r.buf[:n]}, fmt.Errorf("chunk: read at %d: %w", off, err)
	}
	if n < len(r.buf) {
		r.exhausted = true
	}
	return Chunk{Offset: off, Data: r.buf[:n], Full: n == len(r.buf)}, nil
}

// Grow doubles the capacity, up to the configured ceiling. It returns false
// when the buffer is already at the ceiling.
func (r *Reader) Grow() bool {
	if len(r.buf) >= r.max {
		return false
	}
	next := len(r.buf) * 2
	if next > r.max {
		next = r.max
	}
	r.buf = make([]byte, next)
	return true
}

// Reset returns the buffer to its base capacity.
func (r *Reader) Reset() {
	if len(r.buf) != r.base {
		r.buf = make([]byte, r.base)
	}
}
