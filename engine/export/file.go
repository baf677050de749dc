// Package export holds the destinations flushed candidates are written to.
package export

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/WessleyAI/sentwindow/engine/domain"
)

// FileSink writes one candidate per line, byte for byte, to a local file.
type FileSink struct {
	path string
	f    *os.File
	w    *bufio.Writer
}

// CreateFile creates (or truncates) path for writing.
func CreateFile(path string) (*FileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("export: create %s: %w", path, err)
	}
	return &FileSink{path: path, f: f, w: bufio.NewWriterSize(f, 64<<10)}, nil
}

// Name implements ingest.Sink.
func (s *FileSink) Name() string { return "file" }

// Path returns the output path.
func (s *FileSink) Path() string { return s.path }

// Write appends each candidate followed by '\n' and flushes the buffer.
func (s *FileSink) Write(ctx context.Context, cands []domain.Candidate) error {
	for i, c := range cands {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if _, err := s.w.WriteString(c.Text); err != nil {
			return fmt.Errorf("export: write %s: %w", s.path, err)
		}
		if err := s.w.WriteByte('\n'); err != nil {
			return fmt.Errorf("export: write %s: %w", s.path, err)
		}
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("export: flush %s: %w", s.path, err)
	}
	return nil
}

// Close syncs and closes the file so late write errors surface here.
// Data not yet flushed by Write is discarded.
func (s *FileSink) Close() error {
	syncErr := s.f.Sync()
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("export: close %s: %w", s.path, err)
	}
	if syncErr != nil {
		return fmt.Errorf("export: sync %s: %w", s.path, syncErr)
	}
	return nil
}
