package model

import "time"

// AccessRecord captures a single virtual to physical translation performed on
// behalf of a dispatched process. PhysicalAddress is -1 when the fault could
// not be resolved.
type AccessRecord struct {
	PID             int  `json:"pid"`
	VirtualAddress  int  `json:"va"`
	PhysicalAddress int  `json:"pa"`
	Fault           bool `json:"fault,omitempty"`
	Unresolved      bool `json:"unresolved,omitempty"`
}

// ProcessView is a process summary included in snapshots
type ProcessView struct {
	PID               int `json:"pid"`
	RemainingCPUBurst int `json:"cpu"`
	RemainingIOBurst  int `json:"io"`
	QuantumRemaining  int `json:"quantum"`
	TotalWaitTime     int `json:"wait"`
	ExecutionCount    int `json:"executions"`
}

// ProcessTotal is the final per-process accounting emitted at shutdown
type ProcessTotal struct {
	PID            int `json:"pid"`
	TotalWaitTime  int `json:"totalWaitTime"`
	ExecutionCount int `json:"executionCount"`
}

// Snapshot is the periodic scheduler state emitted to the log sink
type Snapshot struct {
	RunID      string         `json:"runId,omitempty"`
	Tick       int            `json:"tick"`
	ElapsedMs  int            `json:"elapsedMs"`
	CreatedAt  time.Time      `json:"createdAt"`
	Running    *ProcessView   `json:"running,omitempty"`
	Head       *ProcessView   `json:"head,omitempty"`
	Ready      []ProcessView  `json:"ready"`
	Waiting    []ProcessView  `json:"waiting"`
	Accesses   []AccessRecord `json:"accesses,omitempty"`
	FreeFrames int            `json:"freeFrames"`
}
