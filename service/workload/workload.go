// Package workload generates the pseudorandom CPU/IO bursts and virtual
// address streams that drive the simulation. Generators are seedable so that
// runs can be replayed; a Generator is not safe for concurrent use, use
// ForWorker to derive an independent stream per worker.
package workload

import (
	"fmt"
	"math/rand"

	"github.com/viant/rrsched/model"
)

// Config represents workload configuration
type Config struct {
	// Seed initialises the generator; zero selects a time based seed
	Seed int64 `json:"seed" yaml:"seed"`

	CPUBurstMin int `json:"cpuBurstMin" yaml:"cpuBurstMin"`
	CPUBurstMax int `json:"cpuBurstMax" yaml:"cpuBurstMax"`
	IOBurstMin  int `json:"ioBurstMin" yaml:"ioBurstMin"`
	IOBurstMax  int `json:"ioBurstMax" yaml:"ioBurstMax"`

	// FirstPage and LastPage bound the pages touched by generated addresses
	FirstPage int `json:"firstPage" yaml:"firstPage"`
	LastPage  int `json:"lastPage" yaml:"lastPage"`

	PageSize int `json:"-" yaml:"-"`
}

// DefaultConfig returns the default workload configuration
func DefaultConfig() Config {
	return Config{
		CPUBurstMin: 500,
		CPUBurstMax: 999,
		IOBurstMin:  200,
		IOBurstMax:  499,
		FirstPage:   1,
		LastPage:    4,
		PageSize:    4096,
	}
}

// Validate checks workload settings
func (c Config) Validate() error {
	switch {
	case c.CPUBurstMin <= 0 || c.CPUBurstMax < c.CPUBurstMin:
		return fmt.Errorf("workload: invalid cpu burst range [%d, %d]", c.CPUBurstMin, c.CPUBurstMax)
	case c.IOBurstMin <= 0 || c.IOBurstMax < c.IOBurstMin:
		return fmt.Errorf("workload: invalid io burst range [%d, %d]", c.IOBurstMin, c.IOBurstMax)
	case c.FirstPage < 0 || c.LastPage < c.FirstPage:
		return fmt.Errorf("workload: invalid page range [%d, %d]", c.FirstPage, c.LastPage)
	case c.PageSize <= 0:
		return fmt.Errorf("workload: page size must be > 0")
	}
	return nil
}

// Generator produces bursts and address streams
type Generator struct {
	config Config
	rnd    *rand.Rand
}

// New creates a generator
func New(config Config) *Generator {
	seed := config.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	return &Generator{config: config, rnd: rand.New(rand.NewSource(seed))}
}

// ForWorker derives an independent, reproducible generator for a worker
func (g *Generator) ForWorker(pid int) *Generator {
	config := g.config
	config.Seed = g.rnd.Int63() ^ int64(pid)
	if config.Seed == 0 {
		config.Seed = int64(pid) + 1
	}
	return New(config)
}

// Bursts returns a fresh cpu and io burst
func (g *Generator) Bursts() (cpu, io int) {
	cpu = g.between(g.config.CPUBurstMin, g.config.CPUBurstMax)
	io = g.between(g.config.IOBurstMin, g.config.IOBurstMax)
	return cpu, io
}

// Addresses returns the virtual addresses accessed during one dispatch; every
// address lies within [FirstPage, LastPage] to simulate locality.
func (g *Generator) Addresses() [model.AccessesPerDispatch]int {
	var ret [model.AccessesPerDispatch]int
	for i := range ret {
		page := g.between(g.config.FirstPage, g.config.LastPage)
		ret[i] = page*g.config.PageSize + g.rnd.Intn(g.config.PageSize)
	}
	return ret
}

func (g *Generator) between(lo, hi int) int {
	return lo + g.rnd.Intn(hi-lo+1)
}
