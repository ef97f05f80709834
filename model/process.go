package model

// Location represents where a process currently resides
type Location string

// Process location constants
const (
	LocationReady      Location = "ready"
	LocationDispatched Location = "dispatched"
	LocationBlocked    Location = "blocked"
)

// Process represents a simulated process
type Process struct {
	PID               int      `json:"pid" yaml:"pid"`
	RemainingCPUBurst int      `json:"remainingCpuBurst" yaml:"remainingCpuBurst"`
	RemainingIOBurst  int      `json:"remainingIoBurst" yaml:"remainingIoBurst"`
	QuantumRemaining  int      `json:"quantumRemaining" yaml:"quantumRemaining"`
	TotalWaitTime     int      `json:"totalWaitTime" yaml:"totalWaitTime"`
	ExecutionCount    int      `json:"executionCount" yaml:"executionCount"`
	Location          Location `json:"location" yaml:"location"`
}

// NewProcess creates a ready process with the supplied bursts and a full quantum
func NewProcess(pid, cpuBurst, ioBurst, quantum int) *Process {
	return &Process{
		PID:               pid,
		RemainingCPUBurst: cpuBurst,
		RemainingIOBurst:  ioBurst,
		QuantumRemaining:  quantum,
		Location:          LocationReady,
	}
}

// Clone returns a copy of the process
func (p *Process) Clone() *Process {
	if p == nil {
		return nil
	}
	ret := *p
	return &ret
}

// View returns the snapshot summary of the process
func (p *Process) View() ProcessView {
	return ProcessView{
		PID:               p.PID,
		RemainingCPUBurst: p.RemainingCPUBurst,
		RemainingIOBurst:  p.RemainingIOBurst,
		QuantumRemaining:  p.QuantumRemaining,
		TotalWaitTime:     p.TotalWaitTime,
		ExecutionCount:    p.ExecutionCount,
	}
}

// Total returns the final accounting record of the process
func (p *Process) Total() ProcessTotal {
	return ProcessTotal{
		PID:            p.PID,
		TotalWaitTime:  p.TotalWaitTime,
		ExecutionCount: p.ExecutionCount,
	}
}
