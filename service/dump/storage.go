package dump

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/rrsched/model"
)

// Storage buffers encoded records and uploads them to an afs URL. The
// object is rewritten after the final totals and on Close.
type Storage struct {
	fs     afs.Service
	URL    string
	mu     sync.Mutex
	buffer *bytes.Buffer
	writer *Writer
	closed bool
}

// Snapshot buffers a snapshot
func (s *Storage) Snapshot(ctx context.Context, snapshot *model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("dump %v: closed", s.URL)
	}
	return s.writer.Snapshot(ctx, snapshot)
}

// Final buffers final totals and uploads the dump
func (s *Storage) Final(ctx context.Context, totals []model.ProcessTotal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("dump %v: closed", s.URL)
	}
	if err := s.writer.Final(ctx, totals); err != nil {
		return err
	}
	return s.upload(ctx)
}

// Flush uploads what has been buffered so far
func (s *Storage) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upload(ctx)
}

// Close uploads the dump and releases the sink
func (s *Storage) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.upload(ctx)
}

func (s *Storage) upload(ctx context.Context) error {
	if err := s.fs.Upload(ctx, s.URL, file.DefaultFileOsMode, bytes.NewReader(s.buffer.Bytes())); err != nil {
		return fmt.Errorf("failed to upload dump %v: %w", s.URL, err)
	}
	return nil
}

// NewStorage creates a storage sink
func NewStorage(fs afs.Service, cfg Config) (*Storage, error) {
	if fs == nil {
		fs = afs.New()
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	buffer := &bytes.Buffer{}
	writer, err := NewWriter(buffer, cfg.Format)
	if err != nil {
		return nil, err
	}
	return &Storage{fs: fs, URL: cfg.URL, buffer: buffer, writer: writer}, nil
}

var _ Sink = (*Storage)(nil)
