package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/viant/rrsched"
	"github.com/viant/rrsched/service/dump"
	"github.com/viant/rrsched/tracing"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := flag.NewFlagSet("rrsched", flag.ContinueOnError)
	configURL := flags.String("config", "", "configuration URL (YAML)")
	dumpURL := flags.String("dump", "", "dump destination URL (default schedule_dump.txt)")
	format := flags.String("format", "", "dump format: text or json")
	ticks := flags.Int("ticks", 0, "maximum number of ticks")
	seed := flags.Int64("seed", 0, "workload seed")
	level := flags.String("log-level", "", "log level: debug, info, warn, error")
	traceFile := flags.String("trace", "", "write OpenTelemetry spans to file")
	report := flags.Bool("report", false, "print the run report as JSON")
	if err := flags.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := rrsched.DefaultConfig()
	if *configURL != "" {
		loaded, err := rrsched.LoadConfig(ctx, *configURL)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *dumpURL != "" {
		cfg.Dump.URL = *dumpURL
	}
	if *format != "" {
		cfg.Dump.Format = dump.Format(*format)
	}
	if *ticks > 0 {
		cfg.Scheduler.MaxTicks = *ticks
	}
	if *seed != 0 {
		cfg.Workload.Seed = *seed
	}
	if *level != "" {
		cfg.Log.Level = *level
	}
	if *traceFile != "" {
		cfg.Tracing.Enabled = true
		cfg.Tracing.File = *traceFile
	}

	srv, err := rrsched.New(rrsched.WithConfig(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = tracing.Shutdown(context.Background()) }()

	result, err := srv.Run(ctx)
	if result != nil {
		if *report {
			data, _ := json.MarshalIndent(result, "", "  ")
			fmt.Println(string(data))
		} else {
			fmt.Printf("run %v: %d ticks (%v), %d dispatches, %d page faults, avg wait %.1fms, dump: %v\n",
				result.RunID, result.Ticks, result.StopReason, result.Counters.Dispatches,
				result.Counters.PageFaults, result.AverageWaitTime(), cfg.Dump.URL)
		}
	}
	return err
}
