package rrsched

import (
	"time"

	"github.com/viant/rrsched/model"
	"github.com/viant/rrsched/progress"
	"github.com/viant/rrsched/service/scheduler"
)

// Report summarises a simulation run
type Report struct {
	RunID           string               `json:"runId"`
	StartedAt       time.Time            `json:"startedAt"`
	Duration        time.Duration        `json:"duration"`
	Ticks           int                  `json:"ticks"`
	StopReason      scheduler.StopReason `json:"stopReason"`
	Counters        progress.Counters    `json:"counters"`
	Totals          []model.ProcessTotal `json:"totals"`
	AllocatedFrames int                  `json:"allocatedFrames"`
	FreeFrames      int                  `json:"freeFrames"`
}

// AverageWaitTime returns the mean total wait time across processes in ms
func (r *Report) AverageWaitTime() float64 {
	if r == nil || len(r.Totals) == 0 {
		return 0
	}
	sum := 0
	for _, t := range r.Totals {
		sum += t.TotalWaitTime
	}
	return float64(sum) / float64(len(r.Totals))
}
