package telemetry

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aether/internal/flow"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "telemetry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_AppliesPragmas(t *testing.T) {
	s := openTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	assert.NoError(t, s2.verifyPragma("user_version", "1"))
}

func TestRecordCycle_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rep := flow.Report{
		RunToken:         "run-0001",
		StartedAtNS:      1700000000000000000,
		PacketCount:      3,
		Outputs:          []float32{0.5, 0.25, 0.125},
		PhaseLocked:      true,
		LyapunovExponent: 0.5,
		Coefficients:     []float32{0.25, -0.5, 0, 0},
		AxiomOK:          true,
		Perturbed:        true,
		ReversibilityOK:  true,
	}
	require.NoError(t, s.RecordCycle(ctx, rep))

	records, err := s.ReadCyclesByToken(ctx, "run-0001")
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "run-0001", rec.RunToken)
	assert.Equal(t, int64(1700000000000000000), rec.StartedAtNS)
	assert.Equal(t, 3, rec.PacketCount)
	assert.Equal(t, 0.125, rec.FinalOutput, "final output is the last of the cycle")
	assert.True(t, rec.PhaseLocked)
	assert.Equal(t, 0.5, rec.LyapunovExponent)
	assert.Equal(t, []float64{0.25, -0.5, 0, 0}, rec.Coefficients)
	assert.True(t, rec.AxiomOK)
	assert.True(t, rec.Perturbed)
	assert.True(t, rec.ReversibilityOK)
	assert.Zero(t, rec.ReversibilityMAE)
}

func TestRecordCycle_WithoutCoefficients(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordCycle(ctx, flow.Report{RunToken: "run-0002"}))

	records, err := s.ReadCyclesByToken(ctx, "run-0002")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].Coefficients)
}

func TestReadCycles_NewestFirstWithLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rep := flow.Report{RunToken: fmt.Sprintf("run-%04d", i)}
		require.NoError(t, s.RecordCycle(ctx, rep))
	}

	records, err := s.ReadCycles(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "run-0004", records[0].RunToken)
	assert.Equal(t, "run-0003", records[1].RunToken)

	all, err := s.ReadCycles(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestReadCycles_EmptyStore(t *testing.T) {
	s := openTestStore(t)

	records, err := s.ReadCycles(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}
