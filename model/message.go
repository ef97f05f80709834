package model

// AccessesPerDispatch is the number of virtual addresses a worker reports
// for every dispatch.
const AccessesPerDispatch = 10

// Dispatch is sent by the scheduler to the worker addressed by PID
type Dispatch struct {
	Seq               uint64 `json:"seq"`
	PID               int    `json:"pid"`
	RemainingCPUBurst int    `json:"remainingCpuBurst"`
	RemainingIOBurst  int    `json:"remainingIoBurst"`
	QuantumRemaining  int    `json:"quantumRemaining"`
	Terminate         bool   `json:"terminate,omitempty"`
}

// Result is sent by a worker back to the scheduler in response to a Dispatch
type Result struct {
	Seq               uint64                   `json:"seq"`
	PID               int                      `json:"pid"`
	RemainingCPUBurst int                      `json:"remainingCpuBurst"`
	RemainingIOBurst  int                      `json:"remainingIoBurst"`
	QuantumRemaining  int                      `json:"quantumRemaining"`
	IORequested       bool                     `json:"ioRequested,omitempty"`
	VirtualAddresses  [AccessesPerDispatch]int `json:"virtualAddresses"`
}

// NewDispatch builds a dispatch carrying the current burst and quantum state of the process
func NewDispatch(seq uint64, p *Process) *Dispatch {
	return &Dispatch{
		Seq:               seq,
		PID:               p.PID,
		RemainingCPUBurst: p.RemainingCPUBurst,
		RemainingIOBurst:  p.RemainingIOBurst,
		QuantumRemaining:  p.QuantumRemaining,
	}
}

// NewTerminate builds a termination dispatch for pid
func NewTerminate(pid int) *Dispatch {
	return &Dispatch{PID: pid, Terminate: true}
}
