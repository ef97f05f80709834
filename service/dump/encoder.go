package dump

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/viant/rrsched/model"
)

type encoder interface {
	snapshot(w io.Writer, snapshot *model.Snapshot) error
	final(w io.Writer, totals []model.ProcessTotal) error
}

type textEncoder struct{}

func (textEncoder) snapshot(w io.Writer, s *model.Snapshot) error {
	b := &strings.Builder{}
	fmt.Fprintf(b, "\n=== Tick %d ===\n", s.Tick)
	if s.Head != nil {
		fmt.Fprintf(b, "At Tick %d: Process P%d is running, Remaining CPU-Burst = %d\n", s.Tick, s.Head.PID, s.Head.RemainingCPUBurst)
	}
	b.WriteString("Run Queue: ")
	for _, p := range s.Ready {
		fmt.Fprintf(b, "P%d(CPU=%d, Wait=%d) ", p.PID, p.RemainingCPUBurst, p.TotalWaitTime)
	}
	b.WriteString("\nWait Queue: ")
	for _, p := range s.Waiting {
		fmt.Fprintf(b, "P%d(IO=%d) ", p.PID, p.RemainingIOBurst)
	}
	b.WriteString("\n")
	if len(s.Accesses) > 0 {
		b.WriteString("Memory Access Log:\n")
		for _, a := range s.Accesses {
			fmt.Fprintf(b, "PID %d accesses VA %d → PA %d", a.PID, a.VirtualAddress, a.PhysicalAddress)
			if a.Fault {
				b.WriteString(" (Page Fault)")
			}
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (textEncoder) final(w io.Writer, totals []model.ProcessTotal) error {
	b := &strings.Builder{}
	b.WriteString("\nFinal Process States:\n")
	for _, t := range totals {
		fmt.Fprintf(b, "Process %d: Total Wait Time = %dms\n", t.PID, t.TotalWaitTime)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

type jsonEncoder struct{}

type jsonRecord struct {
	Type     string               `json:"type"`
	Snapshot *model.Snapshot      `json:"snapshot,omitempty"`
	Totals   []model.ProcessTotal `json:"totals,omitempty"`
}

func (jsonEncoder) snapshot(w io.Writer, s *model.Snapshot) error {
	return json.NewEncoder(w).Encode(&jsonRecord{Type: "snapshot", Snapshot: s})
}

func (jsonEncoder) final(w io.Writer, totals []model.ProcessTotal) error {
	return json.NewEncoder(w).Encode(&jsonRecord{Type: "final", Totals: totals})
}
