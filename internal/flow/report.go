package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Report summarizes one completed cycle: what went through the reservoir
// and what the stability and identification passes observed.
//
// Field order is fixed so serialized reports compare deterministically.
type Report struct {
	RunToken          string    `json:"run_token"`
	StartedAtNS       uint64    `json:"started_at_ns"`
	PacketCount       int       `json:"packet_count"`
	Outputs           []float32 `json:"outputs"`
	PhaseLocked       bool      `json:"phase_locked"`
	LyapunovExponent  float32   `json:"lyapunov_exponent"`
	Coefficients      []float32 `json:"coefficients,omitempty"`
	AxiomOK           bool      `json:"axiom_ok"`
	Perturbed         bool      `json:"perturbed"`
	ReversibilityMAE  float64   `json:"reversibility_mae"`
	ReversibilityOK   bool      `json:"reversibility_ok"`
}

// Recorder persists cycle reports. Implemented by the telemetry store;
// a nil recorder on the orchestrator disables persistence.
type Recorder interface {
	RecordCycle(ctx context.Context, rep Report) error
}

// MultiRecorder fans each report out to every recorder in order. All
// recorders see the report even when an earlier one fails; the first
// error is returned.
func MultiRecorder(recorders ...Recorder) Recorder {
	return multiRecorder(recorders)
}

type multiRecorder []Recorder

func (m multiRecorder) RecordCycle(ctx context.Context, rep Report) error {
	var firstErr error
	for _, r := range m {
		if err := r.RecordCycle(ctx, rep); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// FinalOutput returns the last output of the cycle, or 0 for an empty one.
func (r Report) FinalOutput() float32 {
	if len(r.Outputs) == 0 {
		return 0
	}
	return r.Outputs[len(r.Outputs)-1]
}

// MarshalJSONIndent renders the report as stable two-space-indented JSON.
func (r Report) MarshalJSONIndent() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// String renders a single-line human-readable summary.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run=%s packets=%d final=%g locked=%t exponent=%g axiom_ok=%t",
		r.RunToken, r.PacketCount, r.FinalOutput(), r.PhaseLocked, r.LyapunovExponent, r.AxiomOK)
	if r.Perturbed {
		b.WriteString(" perturbed=true")
	}
	return b.String()
}
