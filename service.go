package rrsched

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/viant/afs"
	"github.com/viant/rrsched/internal/clock"
	"github.com/viant/rrsched/internal/idgen"
	"github.com/viant/rrsched/model"
	"github.com/viant/rrsched/progress"
	"github.com/viant/rrsched/service/channel"
	"github.com/viant/rrsched/service/dump"
	"github.com/viant/rrsched/service/event"
	"github.com/viant/rrsched/service/memory"
	mmemory "github.com/viant/rrsched/service/messaging/memory"
	"github.com/viant/rrsched/service/scheduler"
	"github.com/viant/rrsched/service/worker"
	"github.com/viant/rrsched/service/workload"
	"github.com/viant/rrsched/tracing"
)

// ErrNotStarted is returned by queries issued before Run
var ErrNotStarted = errors.New("rrsched: simulation not started")

const (
	serviceName    = "rrsched"
	serviceVersion = "0.1.0"

	eventBuffer = 1024
)

// Service runs scheduling simulations
type Service struct {
	config     *Config
	logger     *slog.Logger
	ticker     clock.Ticker
	sink       dump.Sink
	fs         afs.Service
	onProgress func(progress.Counters)
	onEvent    func(*event.Event[model.StatusEvent])
	tracingErr error

	scheduler *scheduler.Service
}

// New creates a service
func New(options ...Option) (*Service, error) {
	ret := &Service{}
	for _, option := range options {
		option(ret)
	}
	if ret.tracingErr != nil {
		return nil, fmt.Errorf("failed to initialise tracing: %w", ret.tracingErr)
	}
	if ret.config == nil {
		ret.config = DefaultConfig()
	}
	if err := ret.config.Validate(); err != nil {
		return nil, err
	}
	if ret.logger == nil {
		logger, err := NewLogger(ret.config.Log.Level, nil)
		if err != nil {
			return nil, err
		}
		ret.logger = logger
	}
	if ret.config.Tracing.Enabled {
		if err := tracing.Init(serviceName, serviceVersion, ret.config.Tracing.File); err != nil {
			return nil, fmt.Errorf("failed to initialise tracing: %w", err)
		}
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	return ret, nil
}

// Config returns the service configuration
func (s *Service) Config() *Config {
	return s.config
}

// Run executes one simulation: it starts a worker per process, drives the
// scheduler until the tick budget is spent or ctx is done, shuts everything
// down within Config.ShutdownTimeout and returns the run report.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	cfg := s.config
	runID := idgen.New()
	logger := s.logger.With("runID", runID)

	pids := make([]int, cfg.Scheduler.ProcessCount)
	for i := range pids {
		pids[i] = i + 1
	}
	generator := workload.New(cfg.Workload)
	transport := channel.New(cfg.Channel, pids...)
	manager := memory.New(cfg.Memory, pids...)
	pool := worker.NewPool(transport, generator, logger)

	sink := s.sink
	var ownedSink dump.Sink
	if sink == nil {
		storage, err := dump.NewStorage(s.fs, cfg.Dump)
		if err != nil {
			return nil, err
		}
		sink, ownedSink = storage, storage
	}

	options := []scheduler.Option{
		scheduler.WithConfig(cfg.Scheduler),
		scheduler.WithRunID(runID),
		scheduler.WithTransport(transport),
		scheduler.WithWorkers(pool),
		scheduler.WithMemory(manager),
		scheduler.WithBursts(generator),
		scheduler.WithSink(sink),
		scheduler.WithLogger(logger),
		scheduler.WithProgress(progress.New(runID, s.onProgress)),
	}
	if s.onEvent != nil {
		queue := mmemory.NewQueue[event.Event[model.StatusEvent]](mmemory.Config{QueueBuffer: eventBuffer})
		publisher := event.NewPublisher[model.StatusEvent](queue)
		listener := event.NewListener(publisher, s.onEvent, logger)
		listener.Start(context.WithoutCancel(ctx))
		// registered before any later return so the listener and queue are released on every path
		defer func() {
			listener.Stop()
			_ = queue.Close()
		}()
		options = append(options, scheduler.WithEvents(publisher))
	}

	sched, err := scheduler.New(options...)
	if err != nil {
		return nil, errors.Join(err, release(ctx, transport, ownedSink))
	}
	if err = pool.Start(context.WithoutCancel(ctx), pids...); err != nil {
		return nil, errors.Join(err, release(ctx, transport, ownedSink))
	}
	s.scheduler = sched

	ticker := s.ticker
	if ticker == nil {
		ticker = clock.NewTicker(cfg.Scheduler.TickInterval)
	}
	startedAt := clock.Now()
	logger.Info("simulation started", "processes", len(pids), "maxTicks", cfg.Scheduler.MaxTicks)
	reason, runErr := sched.Run(ctx, ticker)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	shutdownErr := sched.Shutdown(shutdownCtx)
	if shutdownErr != nil {
		logger.Warn("graceful shutdown failed, cancelling workers", "error", shutdownErr)
		pool.Shutdown()
	}
	var closeErr error
	if ownedSink != nil {
		closeErr = ownedSink.Close(shutdownCtx)
	}

	totals, err := sched.Totals(shutdownCtx)
	if err != nil {
		return nil, err
	}
	report := &Report{
		RunID:           runID,
		StartedAt:       startedAt,
		Duration:        clock.Now().Sub(startedAt),
		Ticks:           sched.Ticks(),
		StopReason:      reason,
		Counters:        sched.Progress().Snapshot(),
		Totals:          totals,
		AllocatedFrames: manager.AllocatedFrames(),
		FreeFrames:      manager.FreeFrames(),
	}
	logger.Info("simulation finished", "ticks", report.Ticks, "reason", reason,
		"dispatches", report.Counters.Dispatches, "pageFaults", report.Counters.PageFaults)
	return report, errors.Join(runErr, shutdownErr, closeErr)
}

// release closes the transport and the owned sink of a run that failed to start
func release(ctx context.Context, transport io.Closer, sink dump.Sink) error {
	err := transport.Close()
	if sink != nil {
		err = errors.Join(err, sink.Close(context.WithoutCancel(ctx)))
	}
	return err
}

// Processes returns the processes of the last run at the supplied locations,
// or all of them, ordered by pid. It must not be called while Run is active.
func (s *Service) Processes(ctx context.Context, locations ...model.Location) ([]*model.Process, error) {
	if s.scheduler == nil {
		return nil, ErrNotStarted
	}
	return s.scheduler.Processes(ctx, locations...)
}
