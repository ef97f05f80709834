package rrsched_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/rrsched"
	"github.com/viant/rrsched/internal/clock"
	"github.com/viant/rrsched/model"
	"github.com/viant/rrsched/progress"
	"github.com/viant/rrsched/service/dump"
	"github.com/viant/rrsched/service/event"
	"github.com/viant/rrsched/service/scheduler"
)

func stringReader(s string) io.Reader {
	return strings.NewReader(s)
}

func testConfig(maxTicks int) *rrsched.Config {
	cfg := rrsched.DefaultConfig()
	cfg.Scheduler.MaxTicks = maxTicks
	cfg.Workload.Seed = 3
	return cfg
}

func prefilled(n int) *clock.ManualTicker {
	ticker := clock.NewManualTicker(n)
	ticker.Advance(n)
	return ticker
}

func TestService_Run(t *testing.T) {
	ctx := context.Background()
	logger, err := rrsched.NewLogger("warn", io.Discard)
	require.NoError(t, err)
	recorder := &dump.Recorder{}
	var mux sync.Mutex
	events := map[model.StatusKind]int{}
	var last progress.Counters

	srv, err := rrsched.New(
		rrsched.WithConfig(testConfig(200)),
		rrsched.WithLogger(logger),
		rrsched.WithTicker(prefilled(200)),
		rrsched.WithSink(recorder),
		rrsched.WithProgress(func(c progress.Counters) { last = c }),
		rrsched.WithEvents(func(e *event.Event[model.StatusEvent]) {
			mux.Lock()
			events[e.Data.Kind]++
			mux.Unlock()
		}),
	)
	require.NoError(t, err)
	_, err = srv.Processes(ctx)
	assert.ErrorIs(t, err, rrsched.ErrNotStarted)

	report, err := srv.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, scheduler.StopMaxTicks, report.StopReason)
	assert.Equal(t, 200, report.Ticks)
	assert.NotEmpty(t, report.RunID)
	require.Len(t, report.Totals, 10)
	for i, total := range report.Totals {
		assert.Equal(t, i+1, total.PID)
	}
	assert.Equal(t, 32, report.AllocatedFrames+report.FreeFrames)
	assert.Equal(t, 200, report.Counters.Ticks)
	assert.Equal(t, report.Counters, last)
	assert.Greater(t, report.AverageWaitTime(), 0.0)

	require.Len(t, recorder.Snapshots(), 2)
	for _, snapshot := range recorder.Snapshots() {
		for _, access := range snapshot.Accesses {
			assert.GreaterOrEqual(t, access.PID, 1)
			assert.LessOrEqual(t, access.PID, 10)
		}
	}
	assert.Equal(t, report.Totals, recorder.Totals())
	assert.False(t, recorder.Closed())

	mux.Lock()
	assert.Greater(t, events[model.StatusDispatch], 0)
	mux.Unlock()

	processes, err := srv.Processes(ctx)
	require.NoError(t, err)
	assert.Len(t, processes, 10)
	ready, err := srv.Processes(ctx, model.LocationReady)
	require.NoError(t, err)
	blocked, err := srv.Processes(ctx, model.LocationBlocked)
	require.NoError(t, err)
	assert.Equal(t, 10, len(ready)+len(blocked))
}

func TestService_Run_StorageSink(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	cfg := testConfig(100)
	cfg.Dump.URL = "mem://localhost/rrsched/run/schedule_dump.txt"
	logger, err := rrsched.NewLogger("error", io.Discard)
	require.NoError(t, err)

	srv, err := rrsched.New(rrsched.WithConfig(cfg), rrsched.WithLogger(logger), rrsched.WithFs(fs), rrsched.WithTicker(prefilled(100)))
	require.NoError(t, err)
	_, err = srv.Run(ctx)
	require.NoError(t, err)

	data, err := fs.DownloadWithURL(ctx, cfg.Dump.URL)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "=== Tick 100 ===")
	assert.Contains(t, text, "Run Queue: ")
	assert.Contains(t, text, "Memory Access Log:")
	assert.Contains(t, text, "Final Process States:")
	assert.Contains(t, text, "Process 1: Total Wait Time = ")
	assert.Contains(t, text, "Process 10: Total Wait Time = ")
	assert.NotContains(t, text, "Process 0: ")
}

func TestService_Run_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	logger, err := rrsched.NewLogger("error", io.Discard)
	require.NoError(t, err)
	recorder := &dump.Recorder{}
	srv, err := rrsched.New(rrsched.WithConfig(testConfig(100)), rrsched.WithLogger(logger), rrsched.WithSink(recorder),
		rrsched.WithTicker(clock.NewManualTicker(0)))
	require.NoError(t, err)

	report, err := srv.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, scheduler.StopCancelled, report.StopReason)
	assert.Equal(t, 0, report.Ticks)
	assert.Equal(t, 1, recorder.Finals())
	for _, total := range report.Totals {
		assert.Equal(t, 0, total.TotalWaitTime)
	}
}

func TestService_Run_WallClock(t *testing.T) {
	cfg := testConfig(20)
	cfg.Scheduler.TickInterval = time.Millisecond
	logger, err := rrsched.NewLogger("error", io.Discard)
	require.NoError(t, err)
	srv, err := rrsched.New(rrsched.WithConfig(cfg), rrsched.WithLogger(logger), rrsched.WithSink(&dump.Recorder{}))
	require.NoError(t, err)
	report, err := srv.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, report.Ticks)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := rrsched.DefaultConfig()
	cfg.Scheduler.ProcessCount = -1
	_, err := rrsched.New(rrsched.WithConfig(cfg))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := rrsched.NewLogger("WARN", buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "pid", 3)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "pid=3")

	_, err = rrsched.NewLogger("loud", buf)
	assert.Error(t, err)
}
