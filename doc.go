// Package rrsched simulates a round-robin CPU scheduler driving a set of
// worker units over an addressed message channel, with a demand-paged memory
// manager translating the virtual addresses every dispatch touches.
//
// The root package wires the components together behind a Service facade:
//
//	cfg, _ := rrsched.LoadConfig(ctx, "config.yaml")
//	srv, _ := rrsched.New(rrsched.WithConfig(cfg))
//	report, _ := srv.Run(ctx)
//
// Periodic scheduler snapshots and final per-process wait totals are written
// to the configured dump sink.
package rrsched
