package dump

import (
	"context"
	"sync"

	"github.com/viant/rrsched/model"
)

// Recorder keeps every record in memory
type Recorder struct {
	mu        sync.Mutex
	snapshots []*model.Snapshot
	totals    []model.ProcessTotal
	finals    int
	closed    bool
}

// Snapshot records a snapshot
func (r *Recorder) Snapshot(_ context.Context, snapshot *model.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, snapshot)
	return nil
}

// Final records final totals
func (r *Recorder) Final(_ context.Context, totals []model.ProcessTotal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totals = append([]model.ProcessTotal(nil), totals...)
	r.finals++
	return nil
}

// Close marks the recorder closed
func (r *Recorder) Close(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Snapshots returns recorded snapshots
func (r *Recorder) Snapshots() []*model.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.Snapshot(nil), r.snapshots...)
}

// Totals returns the recorded final totals
func (r *Recorder) Totals() []model.ProcessTotal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.ProcessTotal(nil), r.totals...)
}

// Finals returns how many times Final was called
func (r *Recorder) Finals() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finals
}

// Closed reports whether Close was called
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

var _ Sink = (*Recorder)(nil)
