package dump

import (
	"context"
	"fmt"

	"github.com/viant/rrsched/model"
)

// Sink receives scheduler output
type Sink interface {
	// Snapshot records periodic scheduler state
	Snapshot(ctx context.Context, snapshot *model.Snapshot) error

	// Final records final per-process totals
	Final(ctx context.Context, totals []model.ProcessTotal) error

	// Close releases the sink
	Close(ctx context.Context) error
}

// Format represents a dump encoding
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// DefaultURL is the dump destination used when none is configured
const DefaultURL = "schedule_dump.txt"

// Config configures the dump sink
type Config struct {
	URL    string `json:"url" yaml:"url"`
	Format Format `json:"format" yaml:"format"`
}

// DefaultConfig returns the default dump configuration
func DefaultConfig() Config {
	return Config{URL: DefaultURL, Format: FormatText}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if _, err := newEncoder(c.Format); err != nil {
		return err
	}
	return nil
}

func newEncoder(format Format) (encoder, error) {
	switch format {
	case "", FormatText:
		return textEncoder{}, nil
	case FormatJSON:
		return jsonEncoder{}, nil
	}
	return nil, fmt.Errorf("unsupported dump format: %q", format)
}
