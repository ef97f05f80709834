package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/viant/rrsched/service/channel"
	"github.com/viant/rrsched/service/workload"
)

// Provider resolves the transport endpoint of a pid
type Provider interface {
	Endpoint(pid int) (*channel.Endpoint, error)
}

// Pool manages the set of workers serving a simulation
type Pool struct {
	provider  Provider
	generator *workload.Generator
	logger    *slog.Logger

	workers  []*Worker
	workerWg sync.WaitGroup
	cancelFn context.CancelFunc
	mu       sync.Mutex
	errs     []error
}

// NewPool creates a worker pool
func NewPool(provider Provider, generator *workload.Generator, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{provider: provider, generator: generator, logger: logger}
}

// Start creates one worker per pid and starts them. If any worker cannot be
// created no worker is started.
func (p *Pool) Start(ctx context.Context, pids ...int) error {
	workers := make([]*Worker, 0, len(pids))
	for _, pid := range pids {
		endpoint, err := p.provider.Endpoint(pid)
		if err != nil {
			return fmt.Errorf("failed to create worker %d: %w", pid, err)
		}
		workers = append(workers, New(endpoint, p.generator.ForWorker(pid), p.logger))
	}

	workerCtx, cancel := context.WithCancel(ctx)
	p.cancelFn = cancel
	p.workers = workers
	for _, w := range workers {
		p.workerWg.Add(1)
		go p.run(workerCtx, w)
	}
	return nil
}

func (p *Pool) run(ctx context.Context, w *Worker) {
	defer p.workerWg.Done()
	if err := w.Run(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			p.logger.Warn("worker exited", "pid", w.PID(), "error", err)
		}
		p.mu.Lock()
		p.errs = append(p.errs, err)
		p.mu.Unlock()
	}
}

// Size returns the number of started workers
func (p *Pool) Size() int {
	return len(p.workers)
}

// Wait blocks until every worker has exited or ctx is done
func (p *Pool) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.workerWg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for workers: %w", ctx.Err())
	}
}

// Errors returns errors of workers that exited abnormally
func (p *Pool) Errors() []error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]error(nil), p.errs...)
}

// Shutdown cancels every worker and waits for them to exit
func (p *Pool) Shutdown() {
	if p.cancelFn != nil {
		p.cancelFn()
	}
	p.workerWg.Wait()
}
