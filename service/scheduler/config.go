package scheduler

import (
	"errors"
	"fmt"
	"time"
)

// Config represents scheduler settings
type Config struct {
	ProcessCount  int           `json:"processCount" yaml:"processCount"`
	Quantum       int           `json:"quantum" yaml:"quantum"`
	TickInterval  time.Duration `json:"tickInterval" yaml:"tickInterval"`
	MaxTicks      int           `json:"maxTicks" yaml:"maxTicks"`
	SnapshotEvery int           `json:"snapshotEvery" yaml:"snapshotEvery"`
	ReplyTimeout  time.Duration `json:"replyTimeout" yaml:"replyTimeout"`
	Strict        bool          `json:"strict" yaml:"strict"`
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		ProcessCount:  10,
		Quantum:       100,
		TickInterval:  10 * time.Millisecond,
		MaxTicks:      10000,
		SnapshotEvery: 100,
		ReplyTimeout:  time.Second,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	var errs []error
	if c.ProcessCount <= 0 {
		errs = append(errs, fmt.Errorf("processCount must be positive: %d", c.ProcessCount))
	}
	if c.Quantum <= 0 {
		errs = append(errs, fmt.Errorf("quantum must be positive: %d", c.Quantum))
	}
	if c.TickInterval < time.Millisecond {
		errs = append(errs, fmt.Errorf("tickInterval must be at least 1ms: %v", c.TickInterval))
	}
	if c.MaxTicks <= 0 {
		errs = append(errs, fmt.Errorf("maxTicks must be positive: %d", c.MaxTicks))
	}
	if c.SnapshotEvery <= 0 {
		errs = append(errs, fmt.Errorf("snapshotEvery must be positive: %d", c.SnapshotEvery))
	}
	if c.ReplyTimeout <= 0 {
		errs = append(errs, fmt.Errorf("replyTimeout must be positive: %v", c.ReplyTimeout))
	}
	return errors.Join(errs...)
}

// TickMs returns the tick interval in whole milliseconds
func (c Config) TickMs() int {
	return int(c.TickInterval / time.Millisecond)
}
