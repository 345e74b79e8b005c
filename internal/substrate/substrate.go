package substrate

import (
	"fmt"
	"sync"
)

// DefaultGridSize is the number of virtual nodes in the delay line.
// 1M float32 cells, 4 MiB of accelerator-visible memory.
const DefaultGridSize = 1 << 20

// Kernel constants for the delay-difference update.
const (
	DefaultA float32 = 0.2
	DefaultB float32 = 0.1
)

// Substrate owns the fixed-size delay-line buffer and the accelerator
// pipeline that evolves it.
//
// All public operations take the substrate's internal guard, which makes
// each individual operation safe for concurrent use. Cross-operation
// atomicity (inject, then step, then read the same cell with nothing in
// between) is the caller's responsibility; the flow orchestrator holds its
// own packet-lifecycle guard for exactly that.
type Substrate struct {
	mu       sync.Mutex
	accel    Accelerator
	buf      []float32
	gridSize uint32
	delayTau uint32
	a, b     float32
}

// Option configures a Substrate at construction.
type Option func(*Substrate)

// WithGridSize overrides the default 1M-cell grid.
// Intended for tests and small interactive runs.
func WithGridSize(n uint32) Option {
	return func(s *Substrate) {
		s.gridSize = n
	}
}

// WithAccelerator selects the compute backend. Default: HostAccelerator.
func WithAccelerator(a Accelerator) Option {
	return func(s *Substrate) {
		s.accel = a
	}
}

// WithConstants overrides the kernel constants a and b.
func WithConstants(a, b float32) Option {
	return func(s *Substrate) {
		s.a = a
		s.b = b
	}
}

// New allocates a zero-initialized delay-line buffer and initializes the
// accelerator backend against it (device acquisition, kernel compilation,
// pipeline construction).
//
// Construction fails closed: any backend initialization failure returns an
// *AcceleratorError and no substrate is created. There is no retry.
func New(delayTau uint32, opts ...Option) (*Substrate, error) {
	s := &Substrate{
		gridSize: DefaultGridSize,
		delayTau: delayTau,
		a:        DefaultA,
		b:        DefaultB,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.accel == nil {
		s.accel = NewHostAccelerator()
	}

	if s.gridSize == 0 {
		return nil, fmt.Errorf("grid size must be positive")
	}
	if s.delayTau >= s.gridSize {
		return nil, fmt.Errorf("delay tau %d must be smaller than grid size %d", s.delayTau, s.gridSize)
	}

	if err := s.accel.Initialize(s.gridSize); err != nil {
		return nil, fmt.Errorf("initialize accelerator %s: %w", s.accel.Name(), err)
	}

	s.buf = make([]float32, s.gridSize)
	return s, nil
}

// Inject writes value into the cell at position mod grid size.
// Wraparound addressing means no bounds failure is possible.
func (s *Substrate) Inject(value float32, position uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf[position%uint64(s.gridSize)] = value
}

// Read returns the cell at position mod grid size.
func (s *Substrate) Read(position uint64) float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf[position%uint64(s.gridSize)]
}

// Step dispatches the delay-difference kernel over all cells and blocks
// until the accelerator finishes. Dispatch failures are reported, not
// retried; the caller decides whether to abort the cycle.
func (s *Substrate) Step() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.accel.Dispatch(s.buf, s.delayTau, s.a, s.b); err != nil {
		return fmt.Errorf("dispatch step: %w", err)
	}
	return nil
}

// WithExclusiveAccess runs fn with the raw buffer under the substrate's
// guard, giving a consistent multi-cell view without per-cell locking.
// fn must not retain the slice or resize it.
func (s *Substrate) WithExclusiveAccess(fn func(buf []float32)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.buf)
}

// Snapshot copies n cells starting at position lo, wrapping at the grid
// boundary, taken under a single exclusive-access pass.
func (s *Substrate) Snapshot(lo uint64, n int) []float32 {
	out := make([]float32, n)
	s.WithExclusiveAccess(func(buf []float32) {
		size := uint64(len(buf))
		for i := 0; i < n; i++ {
			out[i] = buf[(lo+uint64(i))%size]
		}
	})
	return out
}

// GridSize returns the fixed cell count.
func (s *Substrate) GridSize() uint32 {
	return s.gridSize
}

// DelayTau returns the configured delay in cells.
func (s *Substrate) DelayTau() uint32 {
	return s.delayTau
}

// Backend returns the accelerator backend name.
func (s *Substrate) Backend() string {
	return s.accel.Name()
}
