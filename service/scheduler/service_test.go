package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/rrsched/internal/clock"
	"github.com/viant/rrsched/model"
	"github.com/viant/rrsched/progress"
	"github.com/viant/rrsched/service/channel"
	"github.com/viant/rrsched/service/dao"
	"github.com/viant/rrsched/service/dump"
	"github.com/viant/rrsched/service/event"
	"github.com/viant/rrsched/service/memory"
	mmemory "github.com/viant/rrsched/service/messaging/memory"
	"github.com/viant/rrsched/service/worker"
	"github.com/viant/rrsched/service/workload"
)

var testAddresses = [model.AccessesPerDispatch]int{4160, 4170, 8192, 8200, 12288, 12300, 16384, 16390, 4096, 4100}

type fixedBursts struct {
	cpu, io int
}

func (f fixedBursts) Bursts() (int, int) { return f.cpu, f.io }

// fakeTransport answers every dispatch synchronously through reply
type fakeTransport struct {
	mu       sync.Mutex
	sendErr  error
	reply    func(d *model.Dispatch) []*model.Result
	sent     []*model.Dispatch
	pending  []*model.Result
	closed   bool
	closeErr error
}

func (f *fakeTransport) Send(_ context.Context, d *model.Dispatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, d)
	if !d.Terminate && f.reply != nil {
		f.pending = append(f.pending, f.reply(d)...)
	}
	return nil
}

func (f *fakeTransport) Receive(ctx context.Context) (*model.Result, error) {
	f.mu.Lock()
	if len(f.pending) > 0 {
		r := f.pending[0]
		f.pending = f.pending[1:]
		f.mu.Unlock()
		return r, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return f.closeErr
}

func (f *fakeTransport) dispatchedPIDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ret []int
	for _, d := range f.sent {
		if !d.Terminate {
			ret = append(ret, d.PID)
		}
	}
	return ret
}

func executing() *fakeTransport {
	return &fakeTransport{reply: func(d *model.Dispatch) []*model.Result {
		return []*model.Result{worker.Execute(d, testAddresses)}
	}}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ReplyTimeout = 20 * time.Millisecond
	return cfg
}

func pidsOf(views []model.ProcessView) []int {
	var ret []int
	for _, v := range views {
		ret = append(ret, v.PID)
	}
	return ret
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		srv, err := New(WithTransport(executing()), WithBursts(workload.New(workload.Config{
			Seed: 7, CPUBurstMin: 500, CPUBurstMax: 999, IOBurstMin: 200, IOBurstMax: 499, FirstPage: 1, LastPage: 4, PageSize: 4096,
		})))
		require.NoError(t, err)
		ready := srv.Ready()
		assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, pidsOf(ready))
		for _, p := range ready {
			assert.GreaterOrEqual(t, p.RemainingCPUBurst, 500)
			assert.LessOrEqual(t, p.RemainingCPUBurst, 999)
			assert.GreaterOrEqual(t, p.RemainingIOBurst, 200)
			assert.LessOrEqual(t, p.RemainingIOBurst, 499)
			assert.Equal(t, 100, p.QuantumRemaining)
		}
		assert.Empty(t, srv.Waiting())
		assert.NotEmpty(t, srv.RunID())
		assert.Equal(t, 32, srv.Memory().FreeFrames())
	})
	t.Run("missing transport", func(t *testing.T) {
		_, err := New()
		assert.True(t, errors.Is(err, ErrNoTransport))
	})
	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Quantum = 0
		_, err := New(WithTransport(executing()), WithConfig(cfg))
		assert.Error(t, err)
	})
	t.Run("zero pid", func(t *testing.T) {
		_, err := New(WithTransport(executing()), WithProcesses(model.NewProcess(0, 10, 10, 100)))
		assert.True(t, errors.Is(err, dao.ErrInvalidID))
	})
	t.Run("duplicate pid", func(t *testing.T) {
		_, err := New(WithTransport(executing()), WithProcesses(model.NewProcess(1, 10, 10, 100), model.NewProcess(1, 10, 10, 100)))
		assert.Error(t, err)
	})
}

func TestService_Tick_RoundRobin(t *testing.T) {
	ctx := context.Background()
	transport := executing()
	srv, err := New(WithTransport(transport), WithConfig(testConfig()), WithBursts(fixedBursts{cpu: 900, io: 300}),
		WithProcesses(model.NewProcess(1, 1000, 300, 100), model.NewProcess(2, 1000, 300, 100), model.NewProcess(3, 1000, 300, 100)))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, srv.Tick(ctx))
	}
	assert.Equal(t, []int{1, 2, 3}, transport.dispatchedPIDs())
	ready := srv.Ready()
	assert.Equal(t, []int{1, 2, 3}, pidsOf(ready))
	for _, p := range ready {
		assert.Equal(t, 900, p.RemainingCPUBurst)
		assert.Equal(t, 100, p.QuantumRemaining)
		assert.Equal(t, 20, p.TotalWaitTime)
		assert.Equal(t, 1, p.ExecutionCount)
	}
	counters := srv.Progress().Snapshot()
	assert.Equal(t, 3, counters.Ticks)
	assert.Equal(t, 3, counters.Dispatches)
	assert.Equal(t, 3, counters.Preemptions)
}

func TestService_Tick_FairRotation(t *testing.T) {
	ctx := context.Background()
	const processCount, rotations = 10, 3
	cfg := testConfig()
	cfg.Quantum = 30
	transport := executing()
	var processes []*model.Process
	for pid := 1; pid <= processCount; pid++ {
		processes = append(processes, model.NewProcess(pid, 5000, 300, cfg.Quantum))
	}
	srv, err := New(WithTransport(transport), WithConfig(cfg), WithBursts(fixedBursts{cpu: 5000, io: 300}),
		WithProcesses(processes...))
	require.NoError(t, err)

	ticks := processCount * rotations
	for i := 0; i < ticks; i++ {
		require.NoError(t, srv.Tick(ctx))
		for _, view := range srv.Ready() {
			assert.GreaterOrEqual(t, view.QuantumRemaining, 0)
		}
		running := srv.Snapshot().Running
		require.NotNil(t, running)
		assert.GreaterOrEqual(t, running.QuantumRemaining, 0)
	}

	dispatched := transport.dispatchedPIDs()
	require.Len(t, dispatched, ticks)
	for i, pid := range dispatched {
		assert.Equal(t, i%processCount+1, pid)
	}
	assert.Empty(t, srv.Waiting())
	totals, err := srv.Totals(ctx)
	require.NoError(t, err)
	require.Len(t, totals, processCount)
	for i, total := range totals {
		assert.Equal(t, i+1, total.PID)
		assert.Equal(t, rotations, total.ExecutionCount)
		assert.Equal(t, (ticks-rotations)*cfg.TickMs(), total.TotalWaitTime)
	}
}

func TestService_Tick_BlocksOnIO(t *testing.T) {
	ctx := context.Background()
	srv, err := New(WithTransport(executing()), WithConfig(testConfig()),
		WithProcesses(model.NewProcess(1, 50, 200, 100)))
	require.NoError(t, err)

	require.NoError(t, srv.Tick(ctx))
	assert.Empty(t, srv.Ready())
	waiting := srv.Waiting()
	require.Len(t, waiting, 1)
	assert.Equal(t, 0, waiting[0].RemainingCPUBurst)
	assert.Equal(t, 200, waiting[0].RemainingIOBurst)
	assert.Equal(t, 50, waiting[0].QuantumRemaining)

	p, err := srv.Process(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.LocationBlocked, p.Location)
	assert.Equal(t, 1, p.ExecutionCount)
	assert.Equal(t, 0, p.TotalWaitTime)

	snapshot := srv.Snapshot()
	require.Len(t, snapshot.Accesses, model.AccessesPerDispatch)
	assert.Equal(t, model.AccessRecord{PID: 1, VirtualAddress: 4160, PhysicalAddress: 127040, Fault: true}, snapshot.Accesses[0])
	assert.Equal(t, model.AccessRecord{PID: 1, VirtualAddress: 4170, PhysicalAddress: 127050}, snapshot.Accesses[1])
	require.NotNil(t, snapshot.Running)
	assert.Equal(t, 1, snapshot.Running.PID)
	assert.Nil(t, snapshot.Head)

	counters := srv.Progress().Snapshot()
	assert.Equal(t, 1, counters.IOBlocks)
	assert.Equal(t, 4, counters.PageFaults)
	assert.Equal(t, 6, counters.PageHits)
}

func TestService_AdvanceWaiting(t *testing.T) {
	ctx := context.Background()
	srv, err := New(WithTransport(executing()), WithConfig(testConfig()), WithBursts(fixedBursts{cpu: 700, io: 250}),
		WithProcesses(model.NewProcess(1, 0, 15, 40)))
	require.NoError(t, err)
	p := srv.ready.pop()
	p.Location = model.LocationBlocked
	srv.waiting.push(p)

	delta := progress.Counters{}
	srv.advanceWaiting(ctx, &delta)
	require.Len(t, srv.Waiting(), 1)
	assert.Equal(t, 5, srv.Waiting()[0].RemainingIOBurst)
	assert.Empty(t, srv.Ready())

	srv.advanceWaiting(ctx, &delta)
	assert.Empty(t, srv.Waiting())
	ready := srv.Ready()
	require.Len(t, ready, 1)
	assert.Equal(t, 700, ready[0].RemainingCPUBurst)
	assert.Equal(t, 250, ready[0].RemainingIOBurst)
	assert.Equal(t, 100, ready[0].QuantumRemaining)
	assert.Equal(t, model.LocationReady, p.Location)
	assert.Equal(t, 1, delta.Unblocks)
}

func TestService_Tick_WaitAccruesOnlyWhileReady(t *testing.T) {
	ctx := context.Background()
	srv, err := New(WithTransport(executing()), WithConfig(testConfig()),
		WithProcesses(model.NewProcess(1, 50, 500, 100), model.NewProcess(2, 1000, 500, 100)))
	require.NoError(t, err)

	require.NoError(t, srv.Tick(ctx)) // pid 1 blocks
	require.NoError(t, srv.Tick(ctx))
	require.NoError(t, srv.Tick(ctx))

	blocked, err := srv.Process(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, blocked.TotalWaitTime)
	assert.Equal(t, 480, blocked.RemainingIOBurst)
	running, err := srv.Process(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 10, running.TotalWaitTime)
	assert.Equal(t, 3, running.ExecutionCount)
}

func TestService_Tick_SendFailure(t *testing.T) {
	ctx := context.Background()
	transport := &fakeTransport{sendErr: errors.New("inbox full")}
	srv, err := New(WithTransport(transport), WithConfig(testConfig()),
		WithProcesses(model.NewProcess(1, 300, 200, 100), model.NewProcess(2, 300, 200, 100)))
	require.NoError(t, err)

	require.NoError(t, srv.Tick(ctx))
	ready := srv.Ready()
	assert.Equal(t, []int{2, 1}, pidsOf(ready))
	assert.Equal(t, 300, ready[1].RemainingCPUBurst)
	assert.Equal(t, 0, ready[1].ExecutionCount)
	assert.Equal(t, 1, srv.Progress().Snapshot().SendFailures)
}

func TestService_Tick_ReplyTimeout(t *testing.T) {
	ctx := context.Background()
	transport := &fakeTransport{}
	srv, err := New(WithTransport(transport), WithConfig(testConfig()),
		WithProcesses(model.NewProcess(1, 300, 200, 100), model.NewProcess(2, 300, 200, 100)))
	require.NoError(t, err)

	require.NoError(t, srv.Tick(ctx))
	ready := srv.Ready()
	assert.Equal(t, []int{2, 1}, pidsOf(ready))
	assert.Equal(t, 300, ready[1].RemainingCPUBurst)
	assert.Equal(t, 100, ready[1].QuantumRemaining)
	counters := srv.Progress().Snapshot()
	assert.Equal(t, 1, counters.ReplyTimeouts)
	assert.Equal(t, 0, counters.Dispatches)
}

func TestService_Tick_StaleReply(t *testing.T) {
	ctx := context.Background()
	transport := executing()
	transport.pending = []*model.Result{{Seq: 0, PID: 2, RemainingCPUBurst: 1, VirtualAddresses: testAddresses}}
	srv, err := New(WithTransport(transport), WithConfig(testConfig()),
		WithProcesses(model.NewProcess(1, 300, 200, 100)))
	require.NoError(t, err)

	require.NoError(t, srv.Tick(ctx))
	p, err := srv.Process(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 200, p.RemainingCPUBurst)
	counters := srv.Progress().Snapshot()
	assert.Equal(t, 1, counters.StaleReplies)
	assert.Equal(t, 1, counters.Dispatches)
}

func TestService_Tick_ProtocolViolation(t *testing.T) {
	testCases := []struct {
		name   string
		strict bool
		reply  func(d *model.Dispatch) *model.Result
	}{
		{
			name:   "wrong pid strict",
			strict: true,
			reply: func(d *model.Dispatch) *model.Result {
				r := worker.Execute(d, testAddresses)
				r.PID++
				return r
			},
		},
		{
			name: "wrong pid lenient",
			reply: func(d *model.Dispatch) *model.Result {
				r := worker.Execute(d, testAddresses)
				r.PID++
				return r
			},
		},
		{
			name:   "address out of range strict",
			strict: true,
			reply: func(d *model.Dispatch) *model.Result {
				r := worker.Execute(d, testAddresses)
				r.VirtualAddresses[3] = 16 * 4096
				return r
			},
		},
		{
			name: "future sequence lenient",
			reply: func(d *model.Dispatch) *model.Result {
				r := worker.Execute(d, testAddresses)
				r.Seq += 5
				return r
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			cfg := testConfig()
			cfg.Strict = tc.strict
			transport := &fakeTransport{reply: func(d *model.Dispatch) []*model.Result {
				return []*model.Result{tc.reply(d)}
			}}
			srv, err := New(WithTransport(transport), WithConfig(cfg),
				WithProcesses(model.NewProcess(1, 300, 200, 100)))
			require.NoError(t, err)

			err = srv.Tick(ctx)
			if tc.strict {
				assert.True(t, errors.Is(err, ErrProtocolViolation))
			} else {
				assert.NoError(t, err)
			}
			p, loadErr := srv.Process(ctx, 1)
			require.NoError(t, loadErr)
			assert.Equal(t, 300, p.RemainingCPUBurst)
			assert.Equal(t, model.LocationReady, p.Location)
			assert.Equal(t, 1, srv.Progress().Snapshot().ProtocolViolations)
			assert.Equal(t, 32, srv.Memory().FreeFrames())
		})
	}
}

func TestService_Tick_SnapshotCadence(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.SnapshotEvery = 2
	recorder := &dump.Recorder{}
	srv, err := New(WithTransport(executing()), WithConfig(cfg), WithSink(recorder), WithRunID("run-1"),
		WithProcesses(model.NewProcess(1, 1000, 200, 100), model.NewProcess(2, 1000, 200, 100)))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, srv.Tick(ctx))
	}
	snapshots := recorder.Snapshots()
	require.Len(t, snapshots, 2)
	assert.Equal(t, 2, snapshots[0].Tick)
	assert.Equal(t, 4, snapshots[1].Tick)
	assert.Equal(t, 40, snapshots[1].ElapsedMs)
	assert.Equal(t, "run-1", snapshots[0].RunID)
	assert.Len(t, snapshots[0].Accesses, 2*model.AccessesPerDispatch)
	assert.Len(t, snapshots[1].Accesses, 2*model.AccessesPerDispatch)
	assert.Len(t, srv.Snapshot().Accesses, model.AccessesPerDispatch)
	require.NotNil(t, snapshots[0].Head)
	assert.Equal(t, 1, snapshots[0].Head.PID)
}

func TestService_Tick_Events(t *testing.T) {
	ctx := context.Background()
	queue := mmemory.NewQueue[event.Event[model.StatusEvent]](mmemory.Config{QueueBuffer: 32})
	publisher := event.NewPublisher[model.StatusEvent](queue)
	srv, err := New(WithTransport(executing()), WithConfig(testConfig()), WithEvents(publisher),
		WithProcesses(model.NewProcess(1, 1000, 200, 100)))
	require.NoError(t, err)
	require.NoError(t, srv.Tick(ctx))

	var kinds []model.StatusKind
	for queue.Size() > 0 {
		evt, err := publisher.Consume(ctx)
		require.NoError(t, err)
		kinds = append(kinds, evt.Data.Kind)
	}
	assert.Equal(t, []model.StatusKind{
		model.StatusDispatch,
		model.StatusFault, model.StatusFault, model.StatusFault, model.StatusFault,
		model.StatusPreempt,
	}, kinds)
}

func TestService_Run(t *testing.T) {
	t.Run("max ticks", func(t *testing.T) {
		cfg := testConfig()
		cfg.MaxTicks = 5
		srv, err := New(WithTransport(executing()), WithConfig(cfg), WithProcesses(model.NewProcess(1, 1000, 200, 100)))
		require.NoError(t, err)
		ticker := clock.NewManualTicker(5)
		require.True(t, ticker.Advance(5))
		reason, err := srv.Run(context.Background(), ticker)
		require.NoError(t, err)
		assert.Equal(t, StopMaxTicks, reason)
		assert.Equal(t, 5, srv.Ticks())
	})
	t.Run("cancelled", func(t *testing.T) {
		srv, err := New(WithTransport(executing()), WithConfig(testConfig()), WithProcesses(model.NewProcess(1, 1000, 200, 100)))
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		reason, err := srv.Run(ctx, clock.NewManualTicker(0))
		require.NoError(t, err)
		assert.Equal(t, StopCancelled, reason)
		assert.Equal(t, 0, srv.Ticks())
	})
	t.Run("strict failure", func(t *testing.T) {
		cfg := testConfig()
		cfg.Strict = true
		transport := &fakeTransport{reply: func(d *model.Dispatch) []*model.Result {
			return []*model.Result{{Seq: d.Seq, PID: d.PID + 1}}
		}}
		srv, err := New(WithTransport(transport), WithConfig(cfg), WithProcesses(model.NewProcess(1, 1000, 200, 100)))
		require.NoError(t, err)
		ticker := clock.NewManualTicker(1)
		require.True(t, ticker.Advance(1))
		reason, err := srv.Run(context.Background(), ticker)
		assert.Equal(t, StopError, reason)
		assert.True(t, errors.Is(err, ErrProtocolViolation))
	})
}

func TestService_Shutdown(t *testing.T) {
	ctx := context.Background()
	transport := executing()
	recorder := &dump.Recorder{}
	srv, err := New(WithTransport(transport), WithConfig(testConfig()), WithSink(recorder),
		WithProcesses(model.NewProcess(3, 1000, 200, 100), model.NewProcess(1, 1000, 200, 100), model.NewProcess(2, 1000, 200, 100)))
	require.NoError(t, err)
	require.NoError(t, srv.Tick(ctx))
	require.NoError(t, srv.Tick(ctx))

	require.NoError(t, srv.Shutdown(ctx))
	require.NoError(t, srv.Shutdown(ctx))
	assert.True(t, transport.closed)
	var terminated []int
	for _, d := range transport.sent {
		if d.Terminate {
			terminated = append(terminated, d.PID)
		}
	}
	assert.Equal(t, []int{1, 2, 3}, terminated)
	assert.Equal(t, 1, recorder.Finals())
	assert.Equal(t, []model.ProcessTotal{
		{PID: 1, TotalWaitTime: 10, ExecutionCount: 1},
		{PID: 2, TotalWaitTime: 20, ExecutionCount: 0},
		{PID: 3, TotalWaitTime: 10, ExecutionCount: 1},
	}, recorder.Totals())
	assert.True(t, errors.Is(srv.Tick(ctx), ErrShutdown))
}

func TestService_Processes(t *testing.T) {
	ctx := context.Background()
	srv, err := New(WithTransport(executing()), WithConfig(testConfig()),
		WithProcesses(model.NewProcess(1, 50, 200, 100), model.NewProcess(2, 1000, 200, 100), model.NewProcess(3, 1000, 200, 100)))
	require.NoError(t, err)
	require.NoError(t, srv.Tick(ctx))

	blocked, err := srv.Processes(ctx, model.LocationBlocked)
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, 1, blocked[0].PID)
	ready, err := srv.Processes(ctx, model.LocationReady)
	require.NoError(t, err)
	assert.Len(t, ready, 2)
	all, err := srv.Processes(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	_, err = srv.Process(ctx, 9)
	assert.Error(t, err)
}

func TestService_EndToEnd(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.MaxTicks = 300
	cfg.ReplyTimeout = time.Second
	generator := workload.New(workload.Config{
		Seed: 42, CPUBurstMin: 500, CPUBurstMax: 999, IOBurstMin: 200, IOBurstMax: 499, FirstPage: 1, LastPage: 4, PageSize: 4096,
	})
	pids := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	transport := channel.New(mmemory.DefaultConfig(), pids...)
	pool := worker.NewPool(transport, generator, nil)
	require.NoError(t, pool.Start(context.WithoutCancel(ctx), pids...))
	recorder := &dump.Recorder{}
	srv, err := New(WithTransport(transport), WithWorkers(pool), WithConfig(cfg), WithBursts(generator),
		WithMemory(memory.New(memory.DefaultConfig())), WithSink(recorder))
	require.NoError(t, err)

	ticker := clock.NewManualTicker(cfg.MaxTicks)
	require.True(t, ticker.Advance(cfg.MaxTicks))
	reason, err := srv.Run(ctx, ticker)
	require.NoError(t, err)
	assert.Equal(t, StopMaxTicks, reason)

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(shutdownCtx))
	assert.Empty(t, pool.Errors())

	counters := srv.Progress().Snapshot()
	assert.Equal(t, 300, counters.Ticks)
	assert.Greater(t, counters.Dispatches, 0)
	assert.Greater(t, counters.PageFaults, 0)
	assert.Equal(t, 0, counters.ProtocolViolations)
	assert.Equal(t, 0, counters.ReplyTimeouts)
	assert.Len(t, recorder.Snapshots(), 3)
	totals := recorder.Totals()
	require.Len(t, totals, 10)
	for i, total := range totals {
		assert.Equal(t, i+1, total.PID)
	}
	assert.LessOrEqual(t, srv.Memory().AllocatedFrames(), 32)
}
