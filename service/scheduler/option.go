package scheduler

import (
	"log/slog"

	"github.com/viant/rrsched/model"
	"github.com/viant/rrsched/progress"
	"github.com/viant/rrsched/service/dao"
	"github.com/viant/rrsched/service/dump"
	"github.com/viant/rrsched/service/event"
	"github.com/viant/rrsched/service/memory"
)

// Option represents a scheduler option
type Option func(s *Service)

// WithConfig sets the scheduler configuration
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithTransport sets the dispatch/result transport
func WithTransport(transport Transport) Option {
	return func(s *Service) {
		s.transport = transport
	}
}

// WithWorkers sets the worker set joined on shutdown
func WithWorkers(workers Workers) Option {
	return func(s *Service) {
		s.workers = workers
	}
}

// WithMemory sets the memory manager
func WithMemory(manager *memory.Manager) Option {
	return func(s *Service) {
		s.memory = manager
	}
}

// WithBursts sets the burst generator used on unblock and reseed
func WithBursts(bursts BurstSource) Option {
	return func(s *Service) {
		s.bursts = bursts
	}
}

// WithProcesses sets the initial processes in ready-queue order, replacing the
// generated ones
func WithProcesses(processes ...*model.Process) Option {
	return func(s *Service) {
		s.initial = processes
	}
}

// WithRegistry sets the process registry
func WithRegistry(registry dao.Service[int, model.Process]) Option {
	return func(s *Service) {
		s.registry = registry
	}
}

// WithSink sets the dump sink
func WithSink(sink dump.Sink) Option {
	return func(s *Service) {
		s.sink = sink
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithProgress sets the counter tracker
func WithProgress(p *progress.Progress) Option {
	return func(s *Service) {
		s.progress = p
	}
}

// WithEvents sets the status event publisher
func WithEvents(publisher *event.Publisher[model.StatusEvent]) Option {
	return func(s *Service) {
		s.events = publisher
	}
}

// WithRunID sets the run identifier
func WithRunID(runID string) Option {
	return func(s *Service) {
		s.runID = runID
	}
}
