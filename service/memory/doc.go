// Package memory implements the demand-paged virtual memory subsystem of the
// simulation. A Manager owns one fixed-size page table per process and the
// global pool of free physical frames. Frames are allocated on the first
// access to a page and are never reclaimed.
//
// A Manager is not safe for concurrent use; it is owned by the scheduler loop,
// which is its only writer.
package memory
