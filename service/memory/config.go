package memory

import "fmt"

// Config represents memory manager configuration
type Config struct {
	// FrameCount is the number of physical frames
	FrameCount int `json:"frames" yaml:"frames"`

	// PageTableEntries is the number of pages per process
	PageTableEntries int `json:"pageTableEntries" yaml:"pageTableEntries"`

	// PageSize is the page and frame size in bytes
	PageSize int `json:"pageSize" yaml:"pageSize"`
}

// DefaultConfig returns the default memory configuration
func DefaultConfig() Config {
	return Config{
		FrameCount:       32,
		PageTableEntries: 16,
		PageSize:         4096,
	}
}

// Validate checks memory settings
func (c Config) Validate() error {
	switch {
	case c.FrameCount <= 0:
		return fmt.Errorf("memory.frames must be > 0")
	case c.PageTableEntries <= 0:
		return fmt.Errorf("memory.pageTableEntries must be > 0")
	case c.PageSize <= 0:
		return fmt.Errorf("memory.pageSize must be > 0")
	}
	return nil
}
