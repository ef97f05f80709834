// Package scheduler implements the round-robin scheduling loop.
//
// A Service owns a FIFO ready queue and a FIFO I/O wait queue of processes.
// Every Tick advances blocked processes, accrues waiting time for ready
// processes other than the head, dispatches the head to its worker over a
// Transport, applies the worker's Result, translates the reported virtual
// addresses through the memory manager and routes the process to the wait
// queue or back to the ready tail. A snapshot of the state is handed to the dump sink at a fixed cadence.
//
// A Service is driven by a single goroutine; Tick, Run and Shutdown must not
// be called concurrently.
package scheduler
