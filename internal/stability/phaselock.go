package stability

import (
	"sync"
	"time"
)

// Defaults for the phase lock.
const (
	// DefaultAdjustmentGain is the proportional correction gain.
	DefaultAdjustmentGain = 0.1

	// DefaultPhaseHistoryCap bounds the phase-error history. Lock and
	// adjustment queries only read the most recent 5-10 entries, so a few
	// thousand retained samples lose nothing observable.
	DefaultPhaseHistoryCap = 4096

	// MinAdjustedDelayNS is the floor for the compensated delay.
	MinAdjustedDelayNS = 1000

	// lockWindow is how many recent errors the lock check examines.
	lockWindow = 5

	// adjustWindow is how many recent errors the delay adjustment averages.
	adjustWindow = 10
)

// PhaseLock is a minimal discrete-time PLL pacing packet injection at a
// target period. Proportional-only correction, no integral term: adequate
// for compensating slow scheduler jitter, not for large phase jumps.
//
// The lock state is derived from the error history on every query; there is
// no explicit state machine.
//
// Thread-safety: all methods take the internal guard.
type PhaseLock struct {
	mu             sync.Mutex
	targetPeriodNS int64
	lastInjection  time.Time
	errors         []int64 // signed ns deltas, bounded to historyCap
	gain           float64
	historyCap     int
	now            func() time.Time
}

// PhaseLockOption configures a PhaseLock at construction.
type PhaseLockOption func(*PhaseLock)

// WithTimeSource replaces the wall clock. Tests use a fake clock so lock
// convergence is deterministic.
func WithTimeSource(now func() time.Time) PhaseLockOption {
	return func(p *PhaseLock) {
		p.now = now
	}
}

// WithAdjustmentGain overrides the proportional gain.
func WithAdjustmentGain(gain float64) PhaseLockOption {
	return func(p *PhaseLock) {
		p.gain = gain
	}
}

// NewPhaseLock creates a phase lock targeting the given period.
func NewPhaseLock(targetPeriodNS int64, opts ...PhaseLockOption) *PhaseLock {
	p := &PhaseLock{
		targetPeriodNS: targetPeriodNS,
		gain:           DefaultAdjustmentGain,
		historyCap:     DefaultPhaseHistoryCap,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.lastInjection = p.now()
	return p
}

// MarkInjection records an injection instant and returns the phase error:
// elapsed since the previous injection minus the target period, in
// nanoseconds. The last-injection timestamp updates unconditionally.
func (p *PhaseLock) MarkInjection() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	phaseError := now.Sub(p.lastInjection).Nanoseconds() - p.targetPeriodNS
	p.lastInjection = now

	if len(p.errors) >= p.historyCap {
		copy(p.errors, p.errors[1:])
		p.errors = p.errors[:len(p.errors)-1]
	}
	p.errors = append(p.errors, phaseError)

	return phaseError
}

// AdjustedDelay returns the drift-compensated injection delay: the target
// period minus the gain-scaled average of the last 10 errors, floored at
// MinAdjustedDelayNS. With no history it returns the target period.
func (p *PhaseLock) AdjustedDelay() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.errors) == 0 {
		return time.Duration(p.targetPeriodNS)
	}

	n := len(p.errors)
	window := adjustWindow
	if n < window {
		window = n
	}
	var sum float64
	for _, e := range p.errors[n-window:] {
		sum += float64(e)
	}
	avg := sum / float64(window)

	adjusted := p.targetPeriodNS - int64(avg*p.gain)
	if adjusted < MinAdjustedDelayNS {
		adjusted = MinAdjustedDelayNS
	}
	return time.Duration(adjusted)
}

// Locked reports whether recent jitter has settled: at least 5 samples
// exist and the variance of the last 5 errors is below
// (target period * 0.1)^2.
func (p *PhaseLock) Locked() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.errors)
	if n < lockWindow {
		return false
	}

	recent := p.errors[n-lockWindow:]
	var mean float64
	for _, e := range recent {
		mean += float64(e)
	}
	mean /= float64(lockWindow)

	var variance float64
	for _, e := range recent {
		d := float64(e) - mean
		variance += d * d
	}
	variance /= float64(lockWindow)

	limit := float64(p.targetPeriodNS) * 0.1
	return variance < limit*limit
}

// TargetPeriod returns the configured period.
func (p *PhaseLock) TargetPeriod() time.Duration {
	return time.Duration(p.targetPeriodNS)
}

// HistoryLen returns the number of retained phase errors.
func (p *PhaseLock) HistoryLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.errors)
}
