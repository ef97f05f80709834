package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/viant/rrsched/internal/clock"
	"github.com/viant/rrsched/internal/idgen"
	"github.com/viant/rrsched/model"
	"github.com/viant/rrsched/progress"
	"github.com/viant/rrsched/service/dao"
	"github.com/viant/rrsched/service/dao/criteria"
	"github.com/viant/rrsched/service/dao/store"
	"github.com/viant/rrsched/service/dump"
	"github.com/viant/rrsched/service/event"
	"github.com/viant/rrsched/service/memory"
	"github.com/viant/rrsched/service/workload"
	"github.com/viant/rrsched/tracing"
)

// Transport carries dispatches to workers and their results back
type Transport interface {
	Send(ctx context.Context, dispatch *model.Dispatch) error
	Receive(ctx context.Context) (*model.Result, error)
	Close() error
}

// Workers is the set of worker units joined on shutdown
type Workers interface {
	Wait(ctx context.Context) error
}

// BurstSource generates fresh CPU and I/O bursts
type BurstSource interface {
	Bursts() (cpu, io int)
}

// StopReason tells why Run returned
type StopReason string

const (
	StopMaxTicks  StopReason = "maxTicks"
	StopCancelled StopReason = "cancelled"
	StopError     StopReason = "error"
)

// Service is the round-robin scheduler
type Service struct {
	config    Config
	runID     string
	transport Transport
	workers   Workers
	memory    *memory.Manager
	bursts    BurstSource
	registry  dao.Service[int, model.Process]
	sink      dump.Sink
	logger    *slog.Logger
	progress  *progress.Progress
	events    *event.Publisher[model.StatusEvent]

	initial  []*model.Process
	pids     []int
	ready    fifo
	waiting  fifo
	accesses []model.AccessRecord
	running  *model.Process
	tick     int
	seq      uint64
	shutdown bool
}

// NewRegistry creates an in-memory process registry filterable by "Location"
func NewRegistry() *store.MemoryStore[int, model.Process] {
	return store.NewMemoryStore[int, model.Process](
		func(p *model.Process) int { return p.PID },
		func(p *model.Process, parameters []*dao.Parameter) bool {
			return criteria.FilterBy("Location", string(p.Location), parameters)
		})
}

// New creates a scheduler. Unless WithProcesses is used, ProcessCount
// processes with pids 0..ProcessCount-1 are created with fresh bursts and a
// full quantum and placed in the ready queue in pid order.
func New(opts ...Option) (*Service, error) {
	ret := &Service{config: DefaultConfig()}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.transport == nil {
		return nil, ErrNoTransport
	}
	if err := ret.config.Validate(); err != nil {
		return nil, err
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	ret.logger = ret.logger.With("component", "scheduler")
	if ret.runID == "" {
		ret.runID = idgen.New()
	}
	if ret.progress == nil {
		ret.progress = progress.New(ret.runID, nil)
	}
	if ret.bursts == nil {
		ret.bursts = workload.New(workload.DefaultConfig())
	}
	if ret.registry == nil {
		ret.registry = NewRegistry()
	}
	processes := ret.initial
	if len(processes) == 0 {
		for pid := 1; pid <= ret.config.ProcessCount; pid++ {
			cpu, io := ret.bursts.Bursts()
			processes = append(processes, model.NewProcess(pid, cpu, io, ret.config.Quantum))
		}
	}
	ret.initial = nil
	if ret.memory == nil {
		ret.memory = memory.New(memory.DefaultConfig())
	}
	ctx := context.Background()
	seen := map[int]bool{}
	for _, p := range processes {
		if seen[p.PID] {
			return nil, fmt.Errorf("duplicate process pid: %d", p.PID)
		}
		seen[p.PID] = true
		p.Location = model.LocationReady
		if err := ret.registry.Save(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to register process %d: %w", p.PID, err)
		}
		ret.memory.Register(p.PID)
		ret.pids = append(ret.pids, p.PID)
		ret.ready.push(p)
	}
	sort.Ints(ret.pids)
	return ret, nil
}

// RunID returns the run identifier
func (s *Service) RunID() string {
	return s.runID
}

// Ticks returns the number of ticks processed
func (s *Service) Ticks() int {
	return s.tick
}

// PIDs returns the pids of all processes in ascending order
func (s *Service) PIDs() []int {
	return append([]int(nil), s.pids...)
}

// Progress returns the counter tracker
func (s *Service) Progress() *progress.Progress {
	return s.progress
}

// Memory returns the memory manager
func (s *Service) Memory() *memory.Manager {
	return s.memory
}

// Run processes one tick per ticker event until MaxTicks ticks have been
// processed, ctx is done or a tick fails. The ticker is stopped on return.
func (s *Service) Run(ctx context.Context, ticker clock.Ticker) (StopReason, error) {
	defer ticker.Stop()
	if s.shutdown {
		return StopError, ErrShutdown
	}
	for s.tick < s.config.MaxTicks {
		select {
		case <-ctx.Done():
			return StopCancelled, nil
		case <-ticker.C():
		}
		if err := s.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				return StopCancelled, nil
			}
			return StopError, err
		}
	}
	return StopMaxTicks, nil
}

// Tick performs one scheduling step
func (s *Service) Tick(ctx context.Context) (err error) {
	if s.shutdown {
		return ErrShutdown
	}
	s.tick++
	ctx, span := tracing.StartSpan(ctx, "scheduler.tick", "INTERNAL")
	span.WithInt("tick", s.tick)
	delta := progress.Counters{Ticks: 1}
	defer func() {
		s.progress.Update(delta)
		tracing.EndSpan(span, err)
	}()

	s.advanceWaiting(ctx, &delta)
	s.accrueWaiting()
	s.running = nil
	if err = s.dispatch(ctx, &delta); err != nil {
		return err
	}
	if s.tick%s.config.SnapshotEvery == 0 {
		s.flushSnapshot(ctx)
	}
	return nil
}

// advanceWaiting decrements the I/O burst of every blocked process by the
// tick interval; completed processes get fresh bursts, a full quantum and
// join the ready tail in wait-queue order.
func (s *Service) advanceWaiting(ctx context.Context, delta *progress.Counters) {
	elapsed := s.config.TickMs()
	pending := s.waiting.items
	s.waiting.items = nil
	for _, p := range pending {
		p.RemainingIOBurst -= elapsed
		if p.RemainingIOBurst > 0 {
			s.waiting.push(p)
			continue
		}
		p.RemainingCPUBurst, p.RemainingIOBurst = s.bursts.Bursts()
		p.QuantumRemaining = s.config.Quantum
		p.Location = model.LocationReady
		s.ready.push(p)
		delta.Unblocks++
		s.publish(ctx, model.StatusUnblock, p.PID, 0)
	}
}

// accrueWaiting adds the tick interval exactly once to every ready process
// except the head, which is dispatched during this tick.
func (s *Service) accrueWaiting() {
	elapsed := s.config.TickMs()
	for i, p := range s.ready.items {
		if i == 0 {
			continue
		}
		p.TotalWaitTime += elapsed
	}
}

// dispatch sends the ready head to its worker and handles the reply
func (s *Service) dispatch(ctx context.Context, delta *progress.Counters) (err error) {
	p := s.ready.pop()
	if p == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "scheduler.dispatch", "PRODUCER")
	span.WithInt("pid", p.PID).WithInt("tick", s.tick)
	defer func() { tracing.EndSpan(span, err) }()

	s.seq++
	seq := s.seq
	p.Location = model.LocationDispatched
	s.running = p
	if err = s.transport.Send(ctx, model.NewDispatch(seq, p)); err != nil {
		delta.SendFailures++
		s.requeue(ctx, p)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("dispatch send failed", "pid", p.PID, "tick", s.tick, "error", err)
		return nil
	}
	s.publish(ctx, model.StatusDispatch, p.PID, 0)

	result, err := s.awaitResult(ctx, p, seq, delta)
	if err != nil || result == nil {
		s.requeue(ctx, p)
		return err
	}
	delta.Dispatches++
	s.apply(ctx, p, result, delta)
	s.route(ctx, p, result, delta)
	return nil
}

// awaitResult blocks for the reply carrying seq. A nil result with a nil error
// means the process must be re-enqueued unchanged.
func (s *Service) awaitResult(ctx context.Context, p *model.Process, seq uint64, delta *progress.Counters) (*model.Result, error) {
	replyCtx, cancel := context.WithTimeout(ctx, s.config.ReplyTimeout)
	defer cancel()
	for {
		result, err := s.transport.Receive(replyCtx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				delta.ReplyTimeouts++
				s.logger.Warn("reply timed out", "pid", p.PID, "seq", seq, "tick", s.tick, "error", ErrReplyTimeout)
				return nil, nil
			}
			return nil, fmt.Errorf("failed to receive result for pid %d: %w", p.PID, err)
		}
		if result.Seq < seq {
			delta.StaleReplies++
			s.logger.Debug("discarded stale reply", "pid", result.PID, "seq", result.Seq, "expected", seq)
			continue
		}
		if violation := s.validate(p, seq, result); violation != "" {
			delta.ProtocolViolations++
			if s.config.Strict {
				return nil, fmt.Errorf("%w: pid %d seq %d: %s", ErrProtocolViolation, p.PID, seq, violation)
			}
			s.logger.Error("dropped malformed reply", "pid", p.PID, "seq", seq, "violation", violation)
			return nil, nil
		}
		return result, nil
	}
}

func (s *Service) validate(p *model.Process, seq uint64, result *model.Result) string {
	switch {
	case result.Seq != seq:
		return "sequence " + strconv.FormatUint(result.Seq, 10) + " was never dispatched"
	case result.PID != p.PID:
		return "reply from pid " + strconv.Itoa(result.PID)
	case result.RemainingCPUBurst > p.RemainingCPUBurst:
		return "cpu burst increased"
	case result.QuantumRemaining > p.QuantumRemaining:
		return "quantum increased"
	case result.RemainingIOBurst != p.RemainingIOBurst:
		return "io burst changed"
	}
	cfg := s.memory.Config()
	limit := cfg.PageTableEntries * cfg.PageSize
	for _, va := range result.VirtualAddresses {
		if va < 0 || va >= limit {
			return "virtual address " + strconv.Itoa(va) + " out of range"
		}
	}
	return ""
}

// apply copies the reply state into p and translates every reported address
func (s *Service) apply(ctx context.Context, p *model.Process, result *model.Result, delta *progress.Counters) {
	p.RemainingCPUBurst = result.RemainingCPUBurst
	p.RemainingIOBurst = result.RemainingIOBurst
	p.QuantumRemaining = result.QuantumRemaining
	p.ExecutionCount++
	for _, va := range result.VirtualAddresses {
		record := model.AccessRecord{PID: p.PID, VirtualAddress: va}
		pa, faulted, err := s.memory.Translate(p.PID, va)
		record.PhysicalAddress = pa
		record.Fault = faulted
		switch {
		case errors.Is(err, memory.ErrNoFreeFrame):
			record.Unresolved = true
			delta.PageFaults++
			delta.UnresolvedFaults++
			s.logger.Debug("unresolved page fault", "pid", p.PID, "va", va, "error", err)
		case err != nil:
			record.Unresolved = true
			s.logger.Error("translation failed", "pid", p.PID, "va", va, "error", err)
		case faulted:
			delta.PageFaults++
		default:
			delta.PageHits++
		}
		if faulted {
			s.publish(ctx, model.StatusFault, p.PID, va)
		}
		s.accesses = append(s.accesses, record)
	}
}

// route places p in the wait queue or back at the ready tail
func (s *Service) route(ctx context.Context, p *model.Process, result *model.Result, delta *progress.Counters) {
	if result.IORequested {
		p.Location = model.LocationBlocked
		s.waiting.push(p)
		delta.IOBlocks++
		s.publish(ctx, model.StatusBlock, p.PID, 0)
		return
	}
	if p.RemainingCPUBurst <= 0 {
		p.RemainingCPUBurst, p.RemainingIOBurst = s.bursts.Bursts()
		delta.Reseeds++
	}
	if p.QuantumRemaining <= 0 {
		p.QuantumRemaining = s.config.Quantum
		delta.Preemptions++
		p.Location = model.LocationReady
		s.ready.push(p)
		s.publish(ctx, model.StatusPreempt, p.PID, 0)
		return
	}
	s.requeue(ctx, p)
}

func (s *Service) requeue(ctx context.Context, p *model.Process) {
	p.Location = model.LocationReady
	s.ready.push(p)
	s.publish(ctx, model.StatusRequeue, p.PID, 0)
}

func (s *Service) publish(ctx context.Context, kind model.StatusKind, pid, address int) {
	if s.events == nil {
		return
	}
	evt := event.NewEvent(&event.Context{RunID: s.runID, Tick: s.tick, EventType: string(kind), Component: "scheduler"},
		model.StatusEvent{Tick: s.tick, Kind: kind, PID: pid, Address: address})
	if err := s.events.Publish(ctx, evt); err != nil {
		s.logger.Debug("status event dropped", "kind", kind, "pid", pid, "error", err)
	}
}

// Snapshot returns the current scheduler state including the access log
// accumulated since the last flush.
func (s *Service) Snapshot() *model.Snapshot {
	ret := &model.Snapshot{
		RunID:      s.runID,
		Tick:       s.tick,
		ElapsedMs:  s.tick * s.config.TickMs(),
		CreatedAt:  clock.Now(),
		Ready:      s.ready.views(),
		Waiting:    s.waiting.views(),
		Accesses:   append([]model.AccessRecord(nil), s.accesses...),
		FreeFrames: s.memory.FreeFrames(),
	}
	if s.running != nil {
		view := s.running.View()
		ret.Running = &view
	}
	if head := s.ready.peek(); head != nil {
		view := head.View()
		ret.Head = &view
	}
	return ret
}

func (s *Service) flushSnapshot(ctx context.Context) {
	snapshot := s.Snapshot()
	s.accesses = s.accesses[:0]
	if s.sink == nil {
		return
	}
	if err := s.sink.Snapshot(ctx, snapshot); err != nil {
		s.logger.Error("failed to write snapshot", "tick", s.tick, "error", err)
	}
}

// Shutdown sends a terminate dispatch to every worker, joins the workers,
// releases the transport and emits the final totals to the sink. It is
// idempotent.
func (s *Service) Shutdown(ctx context.Context) error {
	if s.shutdown {
		return nil
	}
	s.shutdown = true
	var errs []error
	for _, pid := range s.pids {
		if err := s.transport.Send(ctx, model.NewTerminate(pid)); err != nil {
			s.logger.Warn("terminate send failed", "pid", pid, "error", err)
			errs = append(errs, fmt.Errorf("failed to terminate worker %d: %w", pid, err))
		}
	}
	if s.workers != nil {
		if err := s.workers.Wait(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.transport.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close transport: %w", err))
	}
	totals, err := s.Totals(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	if s.sink != nil {
		if err = s.sink.Final(ctx, totals); err != nil {
			errs = append(errs, fmt.Errorf("failed to write final totals: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Ready returns the ready queue in order
func (s *Service) Ready() []model.ProcessView {
	return s.ready.views()
}

// Waiting returns the I/O wait queue in order
func (s *Service) Waiting() []model.ProcessView {
	return s.waiting.views()
}

// Process returns a copy of the process with pid
func (s *Service) Process(ctx context.Context, pid int) (*model.Process, error) {
	p, err := s.registry.Load(ctx, pid)
	if err != nil {
		return nil, fmt.Errorf("process %d: %w", pid, err)
	}
	return p.Clone(), nil
}

// Processes returns copies of the registered processes at the supplied
// locations, or all of them, ordered by pid
func (s *Service) Processes(ctx context.Context, locations ...model.Location) ([]*model.Process, error) {
	var parameters []*dao.Parameter
	if len(locations) > 0 {
		values := make([]string, 0, len(locations))
		for _, location := range locations {
			values = append(values, string(location))
		}
		parameters = append(parameters, &dao.Parameter{Name: "Location", Value: values})
	}
	list, err := s.registry.List(ctx, parameters...)
	if err != nil {
		return nil, err
	}
	ret := make([]*model.Process, 0, len(list))
	for _, p := range list {
		ret = append(ret, p.Clone())
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].PID < ret[j].PID })
	return ret, nil
}

// Totals returns the per-process accounting ordered by pid
func (s *Service) Totals(ctx context.Context) ([]model.ProcessTotal, error) {
	processes, err := s.Processes(ctx)
	if err != nil {
		return nil, err
	}
	ret := make([]model.ProcessTotal, 0, len(processes))
	for _, p := range processes {
		ret = append(ret, p.Total())
	}
	return ret, nil
}
