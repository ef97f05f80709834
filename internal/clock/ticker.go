package clock

import (
	"sync"
	"time"
)

// Ticker delivers scheduling-clock events. The receiver only observes the
// channel; all work triggered by a tick happens in the caller's loop.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type wallTicker struct {
	ticker *time.Ticker
}

func (t *wallTicker) C() <-chan time.Time { return t.ticker.C }

func (t *wallTicker) Stop() { t.ticker.Stop() }

// NewTicker returns a Ticker backed by time.Ticker.
func NewTicker(interval time.Duration) Ticker {
	return &wallTicker{ticker: time.NewTicker(interval)}
}

// ManualTicker is a Ticker advanced explicitly by Advance, used by tests and
// by callers that drive the simulation as fast as possible.
type ManualTicker struct {
	ch      chan time.Time
	once    sync.Once
	stopped chan struct{}
}

// NewManualTicker creates a ManualTicker with the given event buffer.
func NewManualTicker(buffer int) *ManualTicker {
	if buffer < 0 {
		buffer = 0
	}
	return &ManualTicker{
		ch:      make(chan time.Time, buffer),
		stopped: make(chan struct{}),
	}
}

// C returns tick events.
func (t *ManualTicker) C() <-chan time.Time { return t.ch }

// Advance raises n tick events. It blocks while the buffer is full and returns
// false once the ticker has been stopped.
func (t *ManualTicker) Advance(n int) bool {
	for i := 0; i < n; i++ {
		select {
		case <-t.stopped:
			return false
		case t.ch <- Now():
		}
	}
	return true
}

// Stop stops the ticker; pending Advance calls return.
func (t *ManualTicker) Stop() {
	t.once.Do(func() { close(t.stopped) })
}
