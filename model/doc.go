// Package model contains the in-memory representation of simulated
// processes, the messages exchanged between the scheduler and its workers,
// and the records emitted to the log sink.
//
// The types carry no behaviour beyond small helpers; all mutation happens
// inside the scheduler loop.
package model
