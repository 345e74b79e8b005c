package sindy

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentify_InsufficientData(t *testing.T) {
	e := NewEngine(10)

	_, err := e.Identify()
	assert.ErrorIs(t, err, ErrInsufficientData)

	e.RecordState([]float32{1, 2, 3})
	_, err = e.Identify()
	assert.ErrorIs(t, err, ErrInsufficientData, "one snapshot is not enough for a derivative")
}

func TestRecordState_WindowEvictsOldestFirst(t *testing.T) {
	e := NewEngine(3)

	e.RecordState([]float32{1})
	e.RecordState([]float32{2})
	e.RecordState([]float32{3})
	require.Equal(t, 3, e.WindowLen())

	e.RecordState([]float32{4})
	assert.Equal(t, 3, e.WindowLen(), "window must stay at capacity")
	assert.Equal(t, []float32{4}, e.Latest())
}

func TestRecordState_CopiesSnapshot(t *testing.T) {
	e := NewEngine(5)
	state := []float32{1, 2, 3}
	e.RecordState(state)

	state[0] = 99
	assert.Equal(t, float32(1), e.Latest()[0], "engine must not alias caller memory")
}

func TestIdentify_LinearDecay(t *testing.T) {
	e := NewEngine(10)

	// x' = -0.1 x: record x and x + dx with dx = -0.1 x.
	state := make([]float32, 100)
	next := make([]float32, 100)
	for i := range state {
		state[i] = float32(i) * 0.01
		next[i] = state[i] - 0.1*state[i]
	}
	e.RecordState(state)
	e.RecordState(next)

	coeffs, err := e.Identify()
	require.NoError(t, err)
	require.Len(t, coeffs, LibrarySize)

	// The linear basis carries the decay; its projection must be negative.
	assert.Negative(t, coeffs[1])
	assert.NoError(t, e.ValidateAxioms(coeffs))
}

func TestIdentify_ConstantDerivative(t *testing.T) {
	e := NewEngine(10)

	// Every cell moves by +0.2: the constant basis should pick it up exactly.
	a := []float32{1, 2, 3, 4}
	b := []float32{1.2, 2.2, 3.2, 4.2}
	e.RecordState(a)
	e.RecordState(b)

	coeffs, err := e.Identify()
	require.NoError(t, err)
	assert.InDelta(t, 0.2, float64(coeffs[0]), 1e-5)
}

func TestIdentify_UnevenSnapshotLengths(t *testing.T) {
	e := NewEngine(10)

	// The window holds growing output vectors mid-cycle; identification
	// uses the overlapping prefix.
	e.RecordState([]float32{1, 2})
	e.RecordState([]float32{1.1, 2.1, 3.0})

	coeffs, err := e.Identify()
	require.NoError(t, err)
	require.Len(t, coeffs, LibrarySize)
	assert.False(t, math.IsNaN(float64(coeffs[0])))
}

func TestValidateAxioms_CubicBound(t *testing.T) {
	e := NewEngine(2)

	err := e.ValidateAxioms([]float32{0, 0, 0, 0.6})
	require.Error(t, err)

	var ae *AxiomViolationError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, ErrCodeUnboundedGrowth, ae.Code)
	assert.True(t, IsAxiomViolation(err))
}

func TestValidateAxioms_LinearBound(t *testing.T) {
	e := NewEngine(2)

	err := e.ValidateAxioms([]float32{0, 2.5, 0, 0})
	require.Error(t, err)

	var ae *AxiomViolationError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, ErrCodeInsufficientDissipation, ae.Code)
}

func TestValidateAxioms_Accepts(t *testing.T) {
	e := NewEngine(2)

	assert.NoError(t, e.ValidateAxioms([]float32{0, 1, 0, 0}))
	assert.NoError(t, e.ValidateAxioms([]float32{0.3, -0.5, 0.1, -0.2}))
	assert.NoError(t, e.ValidateAxioms([]float32{0, 0, 0, 0.5}), "boundary value passes: violation is strict")
}

func TestValidateAxioms_ShortVector(t *testing.T) {
	e := NewEngine(2)
	assert.NoError(t, e.ValidateAxioms([]float32{0.1}), "short vectors skip the checks they cannot make")
}
