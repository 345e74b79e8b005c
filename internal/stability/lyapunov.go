package stability

import (
	"math"
	"sync"
	"time"
)

// Defaults for the chaos monitor.
const (
	// DefaultChaosThreshold is the exponent cutoff below which the system
	// is considered to have lost chaotic behavior.
	DefaultChaosThreshold float32 = -0.01

	// DefaultSeparationHistoryCap bounds the separation history. The
	// exponent estimate reads only the first and last retained samples, so
	// short sessions see estimates identical to an unbounded history.
	DefaultSeparationHistoryCap = 4096

	// maxPerturbation caps the corrective noise magnitude.
	maxPerturbation float32 = 0.01

	// separationFloor guards the log ratio against zero distances.
	separationFloor float32 = 1e-10
)

// ChaosMonitor estimates the finite-time Lyapunov exponent of the reservoir
// from pairs of nearby state samples and proposes a corrective noise
// perturbation when the dynamics stop separating.
//
// The estimate is intentionally crude, a whole-history separation ratio
// rather than a sliding-window rate: precise in sign, not in magnitude.
//
// Thread-safety: all methods take the internal guard.
type ChaosMonitor struct {
	mu          sync.Mutex
	trajectoryA []float32
	trajectoryB []float32
	separations []float32 // non-negative Euclidean distances, bounded
	threshold   float32
	historyCap  int
	noiseFn     func() float32
}

// ChaosMonitorOption configures a ChaosMonitor at construction.
type ChaosMonitorOption func(*ChaosMonitor)

// WithNoiseSource replaces the perturbation source. Tests pin it.
func WithNoiseSource(fn func() float32) ChaosMonitorOption {
	return func(m *ChaosMonitor) {
		m.noiseFn = fn
	}
}

// NewChaosMonitor creates a monitor with the given exponent threshold.
func NewChaosMonitor(threshold float32, opts ...ChaosMonitorOption) *ChaosMonitor {
	m := &ChaosMonitor{
		threshold:  threshold,
		historyCap: DefaultSeparationHistoryCap,
		noiseFn:    wallClockNoise,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// wallClockNoise derives a pseudo-random perturbation in [0, 0.01) from
// the current wall-clock nanoseconds.
func wallClockNoise() float32 {
	return maxPerturbation * float32(time.Now().UnixNano()%1000) / 1000.0
}

// RecordTrajectories overwrites the current trajectory pair and appends
// their Euclidean distance to the separation history. The two states must
// be samples taken at the same instant; lengths are compared element-wise
// up to the shorter.
func (m *ChaosMonitor) RecordTrajectories(stateA, stateB []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.trajectoryA = append(m.trajectoryA[:0], stateA...)
	m.trajectoryB = append(m.trajectoryB[:0], stateB...)

	n := len(stateA)
	if len(stateB) < n {
		n = len(stateB)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(stateA[i] - stateB[i])
		sum += d * d
	}
	separation := float32(math.Sqrt(sum))

	if len(m.separations) >= m.historyCap {
		copy(m.separations, m.separations[1:])
		m.separations = m.separations[:len(m.separations)-1]
	}
	m.separations = append(m.separations, separation)
}

// Exponent returns the finite-time separation rate
// ln(d_last/d_first) / n over the retained history, with both distances
// floored at 1e-10. Fewer than 2 samples yield 0.
func (m *ChaosMonitor) Exponent() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exponentLocked()
}

func (m *ChaosMonitor) exponentLocked() float32 {
	n := len(m.separations)
	if n < 2 {
		return 0
	}

	d0 := m.separations[0]
	if d0 < separationFloor {
		d0 = separationFloor
	}
	dn := m.separations[n-1]
	if dn < separationFloor {
		dn = separationFloor
	}

	return float32(math.Log(float64(dn)/float64(d0))) / float32(n)
}

// IsChaotic reports whether the exponent is strictly above the threshold.
func (m *ChaosMonitor) IsChaotic() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exponentLocked() > m.threshold
}

// NoisePerturbation returns a small corrective perturbation (magnitude at
// most 0.01) when the system is no longer chaotic, and false otherwise.
func (m *ChaosMonitor) NoisePerturbation() (float32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.exponentLocked() > m.threshold {
		return 0, false
	}
	return m.noiseFn(), true
}

// HistoryLen returns the number of retained separation samples.
func (m *ChaosMonitor) HistoryLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.separations)
}
