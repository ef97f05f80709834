package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/viant/rrsched/model"
)

// Endpoint is the worker side of the scheduler transport
type Endpoint interface {
	PID() int
	Receive(ctx context.Context) (*model.Dispatch, error)
	Reply(ctx context.Context, result *model.Result) error
}

// AddressSource produces the virtual addresses touched during one dispatch
type AddressSource interface {
	Addresses() [model.AccessesPerDispatch]int
}

// Worker services dispatches for a single process
type Worker struct {
	pid       int
	endpoint  Endpoint
	addresses AddressSource
	logger    *slog.Logger
	handled   int
}

// New creates a worker bound to endpoint
func New(endpoint Endpoint, addresses AddressSource, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		pid:       endpoint.PID(),
		endpoint:  endpoint,
		addresses: addresses,
		logger:    logger.With("component", "worker", "pid", endpoint.PID()),
	}
}

// PID returns the process id served by the worker
func (w *Worker) PID() int {
	return w.pid
}

// Handled returns the number of dispatches serviced
func (w *Worker) Handled() int {
	return w.handled
}

// Run services dispatches until a terminate message arrives or the transport
// fails. A terminate message yields a nil error.
func (w *Worker) Run(ctx context.Context) error {
	for {
		dispatch, err := w.endpoint.Receive(ctx)
		if err != nil {
			return fmt.Errorf("worker %d: receive failed: %w", w.pid, err)
		}
		if dispatch.Terminate {
			w.logger.Debug("terminated", "handled", w.handled)
			return nil
		}
		if dispatch.PID != w.pid {
			w.logger.Error("misrouted dispatch", "dispatchPid", dispatch.PID)
			continue
		}
		result := Execute(dispatch, w.addresses.Addresses())
		if err = w.endpoint.Reply(ctx, result); err != nil {
			return fmt.Errorf("worker %d: reply failed: %w", w.pid, err)
		}
		w.handled++
	}
}

// Execute advances the burst state carried by dispatch by at most one quantum
// and builds the reply.
func Execute(dispatch *model.Dispatch, addresses [model.AccessesPerDispatch]int) *model.Result {
	result := &model.Result{
		Seq:               dispatch.Seq,
		PID:               dispatch.PID,
		RemainingCPUBurst: dispatch.RemainingCPUBurst,
		RemainingIOBurst:  dispatch.RemainingIOBurst,
		QuantumRemaining:  dispatch.QuantumRemaining,
		VirtualAddresses:  addresses,
	}
	workDone := min(result.QuantumRemaining, result.RemainingCPUBurst)
	if workDone < 0 {
		workDone = 0
	}
	result.RemainingCPUBurst -= workDone
	result.QuantumRemaining -= workDone
	if result.RemainingCPUBurst <= 0 && result.RemainingIOBurst > 0 {
		result.IORequested = true
	}
	return result
}
