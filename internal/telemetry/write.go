package telemetry

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/aether/internal/flow"
	"github.com/roach88/aether/internal/sindy"
)

// RecordCycle inserts one cycle report into the store. Implements
// flow.Recorder.
//
// Coefficients are stored as four nullable columns; a report without an
// identification result records NULL for all four.
func (s *Store) RecordCycle(ctx context.Context, rep flow.Report) error {
	c := nullCoefficients(rep.Coefficients)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cycle_records
		(run_token, started_at_ns, packet_count, final_output, phase_locked,
		 lyapunov_exponent, c0, c1, c2, c3, axiom_ok, perturbed,
		 reversibility_ok, reversibility_mae)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rep.RunToken,
		int64(rep.StartedAtNS),
		rep.PacketCount,
		float64(rep.FinalOutput()),
		rep.PhaseLocked,
		float64(rep.LyapunovExponent),
		c[0], c[1], c[2], c[3],
		rep.AxiomOK,
		rep.Perturbed,
		rep.ReversibilityOK,
		rep.ReversibilityMAE,
	)
	if err != nil {
		return fmt.Errorf("record cycle %s: %w", rep.RunToken, err)
	}

	return nil
}

// nullCoefficients maps a coefficient vector onto the four nullable
// columns. Anything other than a full vector stores as NULL.
func nullCoefficients(coefficients []float32) [sindy.LibrarySize]sql.NullFloat64 {
	var c [sindy.LibrarySize]sql.NullFloat64
	if len(coefficients) != sindy.LibrarySize {
		return c
	}
	for i, v := range coefficients {
		c[i] = sql.NullFloat64{Float64: float64(v), Valid: true}
	}
	return c
}
