package dump

import (
	"context"
	"io"
	"sync"

	"github.com/viant/rrsched/model"
)

// Writer is a sink encoding records onto an io.Writer
type Writer struct {
	mu      sync.Mutex
	w       io.Writer
	encoder encoder
}

// Snapshot writes a snapshot
func (s *Writer) Snapshot(_ context.Context, snapshot *model.Snapshot) error {
	if snapshot == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encoder.snapshot(s.w, snapshot)
}

// Final writes final totals
func (s *Writer) Final(_ context.Context, totals []model.ProcessTotal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encoder.final(s.w, totals)
}

// Close closes the underlying writer when it is an io.Closer
func (s *Writer) Close(_ context.Context) error {
	if closer, ok := s.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// NewWriter creates a writer sink
func NewWriter(w io.Writer, format Format) (*Writer, error) {
	enc, err := newEncoder(format)
	if err != nil {
		return nil, err
	}
	return &Writer{w: w, encoder: enc}, nil
}

var _ Sink = (*Writer)(nil)
