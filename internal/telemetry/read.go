package telemetry

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/aether/internal/sindy"
)

// CycleRecord is one persisted cycle row.
type CycleRecord struct {
	ID               int64   `json:"id"`
	RunToken         string  `json:"run_token"`
	StartedAtNS      int64   `json:"started_at_ns"`
	PacketCount      int     `json:"packet_count"`
	FinalOutput      float64 `json:"final_output"`
	PhaseLocked      bool    `json:"phase_locked"`
	LyapunovExponent float64 `json:"lyapunov_exponent"`

	// Coefficients is nil when the cycle had no identification result.
	Coefficients []float64 `json:"coefficients,omitempty"`

	AxiomOK          bool    `json:"axiom_ok"`
	Perturbed        bool    `json:"perturbed"`
	ReversibilityOK  bool    `json:"reversibility_ok"`
	ReversibilityMAE float64 `json:"reversibility_mae"`
}

const cycleColumns = `
	id, run_token, started_at_ns, packet_count, final_output, phase_locked,
	lyapunov_exponent, c0, c1, c2, c3, axiom_ok, perturbed,
	reversibility_ok, reversibility_mae`

// ReadCycles returns the most recent cycle records, newest first.
// A limit of 0 or below returns everything.
//
// Returns an empty slice (not nil) if no records exist.
func (s *Store) ReadCycles(ctx context.Context, limit int) ([]CycleRecord, error) {
	query := `SELECT` + cycleColumns + `
		FROM cycle_records
		ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	return collectCycles(rows)
}

// ReadCyclesByToken returns all cycle records for a run token in insertion
// order. Run tokens are unique per cycle in practice, but nothing enforces
// that at the schema level.
func (s *Store) ReadCyclesByToken(ctx context.Context, runToken string) ([]CycleRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT`+cycleColumns+`
		FROM cycle_records
		WHERE run_token = ?
		ORDER BY id ASC
	`, runToken)
	if err != nil {
		return nil, fmt.Errorf("query cycles for %s: %w", runToken, err)
	}
	defer rows.Close()

	return collectCycles(rows)
}

func collectCycles(rows *sql.Rows) ([]CycleRecord, error) {
	records := []CycleRecord{}
	for rows.Next() {
		rec, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycles: %w", err)
	}

	return records, nil
}

func scanCycle(rows *sql.Rows) (CycleRecord, error) {
	var rec CycleRecord
	var c [sindy.LibrarySize]sql.NullFloat64

	err := rows.Scan(
		&rec.ID,
		&rec.RunToken,
		&rec.StartedAtNS,
		&rec.PacketCount,
		&rec.FinalOutput,
		&rec.PhaseLocked,
		&rec.LyapunovExponent,
		&c[0], &c[1], &c[2], &c[3],
		&rec.AxiomOK,
		&rec.Perturbed,
		&rec.ReversibilityOK,
		&rec.ReversibilityMAE,
	)
	if err != nil {
		return CycleRecord{}, fmt.Errorf("scan cycle: %w", err)
	}

	if c[0].Valid && c[1].Valid && c[2].Valid && c[3].Valid {
		rec.Coefficients = []float64{c[0].Float64, c[1].Float64, c[2].Float64, c[3].Float64}
	}

	return rec, nil
}
