package rrsched

import (
	"errors"
	"fmt"
	"time"

	"github.com/viant/rrsched/service/dump"
	"github.com/viant/rrsched/service/memory"
	mmemory "github.com/viant/rrsched/service/messaging/memory"
	"github.com/viant/rrsched/service/scheduler"
	"github.com/viant/rrsched/service/workload"
)

// Config is a serialisable representation of the simulation configuration.
// Sections left out of a loaded document keep their package defaults.
type Config struct {
	Scheduler       scheduler.Config `json:"scheduler" yaml:"scheduler"`
	Memory          memory.Config    `json:"memory" yaml:"memory"`
	Workload        workload.Config  `json:"workload" yaml:"workload"`
	Channel         mmemory.Config   `json:"channel" yaml:"channel"`
	Dump            dump.Config      `json:"dump" yaml:"dump"`
	Log             LogConfig        `json:"log" yaml:"log"`
	Tracing         TracingConfig    `json:"tracing" yaml:"tracing"`
	ShutdownTimeout time.Duration    `json:"shutdownTimeout" yaml:"shutdownTimeout"`
}

// LogConfig configures logging
type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

// TracingConfig configures the stdout span exporter
type TracingConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	File    string `json:"file" yaml:"file"`
}

// DefaultConfig returns a Config populated with the package defaults
func DefaultConfig() *Config {
	return &Config{
		Scheduler:       scheduler.DefaultConfig(),
		Memory:          memory.DefaultConfig(),
		Workload:        workload.DefaultConfig(),
		Channel:         mmemory.DefaultConfig(),
		Dump:            dump.DefaultConfig(),
		Log:             LogConfig{Level: "info"},
		ShutdownTimeout: 5 * time.Second,
	}
}

// normalize derives settings shared between sections
func (c *Config) normalize() {
	c.Workload.PageSize = c.Memory.PageSize
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	c.normalize()
	var errs []error
	if err := c.Scheduler.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("scheduler: %w", err))
	}
	if err := c.Memory.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Workload.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Workload.LastPage >= c.Memory.PageTableEntries {
		errs = append(errs, fmt.Errorf("workload.lastPage %d exceeds page table of %d entries", c.Workload.LastPage, c.Memory.PageTableEntries))
	}
	if c.Channel.QueueBuffer <= 0 {
		errs = append(errs, fmt.Errorf("channel.buffer must be > 0"))
	}
	if err := c.Dump.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("dump: %w", err))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdownTimeout must be > 0"))
	}
	return errors.Join(errs...)
}
