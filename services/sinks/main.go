package sinks

import (
	"bufio"
	"io"
	"sync"

	"github.com/novonordisk-research/vcf-parser/models"
)

// Sink receives rendered output. Write may be called from several
// workers at once.
type Sink interface {
	Write(chunk models.OutputChunk) error
	Close() error
}

// Writer serialises chunks onto an io.Writer.
type Writer struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriterSize(w, 256*1024)}
}

func (s *Writer) Write(chunk models.OutputChunk) error {
	if len(chunk.Data) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.Write(chunk.Data)
	return err
}

// Close flushes buffered output; the underlying writer stays open.
func (s *Writer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Flush()
}
