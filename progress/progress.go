// Package progress provides a lightweight tracker that keeps aggregated
// simulation counters (ticks, dispatches, faults, transport failures, …) for
// a single run. The scheduler applies deltas after every tick; observers can
// read a snapshot at any time or register a change callback.

package progress

import (
	"sync"
	"time"
)

// Counters holds simulation counters. When used as a delta the fields are
// increments.
type Counters struct {
	Ticks              int `json:"ticks"`
	Dispatches         int `json:"dispatches"`
	Preemptions        int `json:"preemptions"`
	IOBlocks           int `json:"ioBlocks"`
	Unblocks           int `json:"unblocks"`
	Reseeds            int `json:"reseeds"`
	PageFaults         int `json:"pageFaults"`
	PageHits           int `json:"pageHits"`
	UnresolvedFaults   int `json:"unresolvedFaults"`
	SendFailures       int `json:"sendFailures"`
	ReplyTimeouts      int `json:"replyTimeouts"`
	StaleReplies       int `json:"staleReplies"`
	ProtocolViolations int `json:"protocolViolations"`
}

// Add returns the sum of both counters
func (c Counters) Add(d Counters) Counters {
	c.Ticks += d.Ticks
	c.Dispatches += d.Dispatches
	c.Preemptions += d.Preemptions
	c.IOBlocks += d.IOBlocks
	c.Unblocks += d.Unblocks
	c.Reseeds += d.Reseeds
	c.PageFaults += d.PageFaults
	c.PageHits += d.PageHits
	c.UnresolvedFaults += d.UnresolvedFaults
	c.SendFailures += d.SendFailures
	c.ReplyTimeouts += d.ReplyTimeouts
	c.StaleReplies += d.StaleReplies
	c.ProtocolViolations += d.ProtocolViolations
	return c
}

// Progress keeps aggregated counters for a simulation run. It is safe for
// concurrent use.
type Progress struct {
	RunID     string
	StartedAt time.Time

	counters Counters
	mu       sync.Mutex
	onChange func(Counters)
}

// New creates a tracker
func New(runID string, onChange func(Counters)) *Progress {
	return &Progress{RunID: runID, StartedAt: time.Now(), onChange: onChange}
}

// Update applies the supplied delta to the tracker. If an onChange callback
// has been registered it is invoked with a copy of the counters outside the
// critical section.
func (p *Progress) Update(d Counters) {
	if p == nil {
		return
	}

	p.mu.Lock()
	p.counters = p.counters.Add(d)
	snapshot := p.counters
	cb := p.onChange
	p.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the counters
func (p *Progress) Snapshot() Counters {
	if p == nil {
		return Counters{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counters
}

// OnChange registers a callback that is invoked after every Update. Passing
// nil disables the callback.
func (p *Progress) OnChange(cb func(Counters)) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.onChange = cb
	p.mu.Unlock()
}
