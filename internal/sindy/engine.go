package sindy

import (
	"sync"
)

// LibrarySize is the number of basis functions: {1, x, x², x³}.
const LibrarySize = 4

// Axiom thresholds for a valid coefficient vector.
const (
	// MaxCubicCoefficient bounds the cubic term; above it the fitted model
	// exhibits runaway growth.
	MaxCubicCoefficient float32 = 0.5

	// MaxLinearCoefficient bounds the linear term; above it the fitted
	// model lacks dissipation.
	MaxLinearCoefficient float32 = 2.0
)

// normFloor guards the projection against degenerate zero-norm bases.
const normFloor = 1e-10

// Engine fits a sparse nonlinear model to observed reservoir trajectories.
//
// States are recorded into a bounded FIFO window; identification uses the
// two most recent snapshots for a unit-time finite-difference derivative
// and projects it independently onto each library basis.
//
// Thread-safety: all methods take the internal guard.
type Engine struct {
	mu         sync.Mutex
	window     [][]float32
	windowSize int
}

// NewEngine creates an engine with the given window capacity.
// Capacities below 2 are raised to 2: identification needs two snapshots.
func NewEngine(windowSize int) *Engine {
	if windowSize < 2 {
		windowSize = 2
	}
	return &Engine{
		window:     make([][]float32, 0, windowSize),
		windowSize: windowSize,
	}
}

// RecordState appends a copy of the state snapshot to the sliding window,
// evicting the oldest snapshot first when the window is at capacity.
func (e *Engine) RecordState(state []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.window) >= e.windowSize {
		copy(e.window, e.window[1:])
		e.window = e.window[:len(e.window)-1]
	}

	snap := make([]float32, len(state))
	copy(snap, state)
	e.window = append(e.window, snap)
}

// Identify fits the coefficient vector [c0, c1, c2, c3] for the library
// {1, x, x², x³} against the finite-difference derivative of the two most
// recent snapshots.
//
// Returns ErrInsufficientData with fewer than 2 snapshots. Each coefficient
// is an independent projection: dot(basis, dx/dt) / dot(basis, basis).
func (e *Engine) Identify() ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.window) < 2 {
		return nil, ErrInsufficientData
	}

	current := e.window[len(e.window)-1]
	previous := e.window[len(e.window)-2]

	// Unit-time finite difference over the overlapping prefix. The window
	// holds growing output vectors during a cycle, so lengths can differ.
	m := len(current)
	if len(previous) < m {
		m = len(previous)
	}
	dxdt := make([]float32, m)
	for i := 0; i < m; i++ {
		dxdt[i] = current[i] - previous[i]
	}

	library := buildLibrary(current[:m])

	coefficients := make([]float32, LibrarySize)
	for i, basis := range library {
		var dot, normSq float64
		for j, b := range basis {
			dot += float64(b) * float64(dxdt[j])
			normSq += float64(b) * float64(b)
		}
		if normSq > normFloor {
			coefficients[i] = float32(dot / normSq)
		}
	}

	return coefficients, nil
}

// buildLibrary derives the four candidate function vectors from a state.
// Ephemeral: recomputed per identification call, never stored.
func buildLibrary(state []float32) [LibrarySize][]float32 {
	var lib [LibrarySize][]float32

	ones := make([]float32, len(state))
	for i := range ones {
		ones[i] = 1
	}
	lib[0] = ones

	lib[1] = state

	sq := make([]float32, len(state))
	cu := make([]float32, len(state))
	for i, x := range state {
		sq[i] = x * x
		cu[i] = x * x * x
	}
	lib[2] = sq
	lib[3] = cu

	return lib
}

// ValidateAxioms checks a fitted coefficient vector against the hard
// constraints: bounded cubic growth and sufficient linear dissipation.
// Returns an *AxiomViolationError naming the violated axiom.
func (e *Engine) ValidateAxioms(coefficients []float32) error {
	if len(coefficients) >= 4 && coefficients[3] > MaxCubicCoefficient {
		return &AxiomViolationError{
			Code:        ErrCodeUnboundedGrowth,
			Message:     "unbounded cubic growth detected",
			Coefficient: coefficients[3],
			Limit:       MaxCubicCoefficient,
		}
	}

	if len(coefficients) >= 2 && coefficients[1] > MaxLinearCoefficient {
		return &AxiomViolationError{
			Code:        ErrCodeInsufficientDissipation,
			Message:     "insufficient dissipation",
			Coefficient: coefficients[1],
			Limit:       MaxLinearCoefficient,
		}
	}

	return nil
}

// WindowLen returns the number of retained snapshots.
func (e *Engine) WindowLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.window)
}

// WindowSize returns the configured capacity.
func (e *Engine) WindowSize() int {
	return e.windowSize
}

// Latest returns a copy of the most recent snapshot, or nil if none.
func (e *Engine) Latest() []float32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.window) == 0 {
		return nil
	}
	last := e.window[len(e.window)-1]
	out := make([]float32, len(last))
	copy(out, last)
	return out
}
