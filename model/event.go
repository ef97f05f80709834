package model

// StatusKind represents the type of scheduler status event
type StatusKind string

const (
	StatusDispatch StatusKind = "dispatch"
	StatusPreempt  StatusKind = "preempt"
	StatusRequeue  StatusKind = "requeue"
	StatusBlock    StatusKind = "block"
	StatusUnblock  StatusKind = "unblock"
	StatusFault    StatusKind = "fault"
)

// StatusEvent is emitted on key scheduling actions
type StatusEvent struct {
	Tick int        `json:"tick"`
	Kind StatusKind `json:"kind"`
	PID  int        `json:"pid"`
	// Address is set for fault events
	Address int `json:"address,omitempty"`
}
