package scheduler

import "errors"

var (
	// ErrProtocolViolation is returned in strict mode when a worker reply does
	// not match the outstanding dispatch or carries out-of-range fields.
	ErrProtocolViolation = errors.New("scheduler: protocol violation")

	// ErrReplyTimeout marks a dispatch whose reply did not arrive in time
	ErrReplyTimeout = errors.New("scheduler: reply timeout")

	// ErrNoTransport is returned by New when no transport was supplied
	ErrNoTransport = errors.New("scheduler: transport is required")

	// ErrShutdown is returned by Tick and Run after Shutdown
	ErrShutdown = errors.New("scheduler: shut down")
)
