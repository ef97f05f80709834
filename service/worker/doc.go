// Package worker hosts the execution units that service dispatches. There
// is one Worker per simulated process; each consumes Dispatch messages from
// its own inbox, advances the CPU burst by at most one quantum, reports the
// virtual addresses it touched and replies with a Result.
package worker
