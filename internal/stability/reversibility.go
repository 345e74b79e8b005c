package stability

import (
	"log/slog"
	"math"
	"sync"
)

// ReversibilityAssertion validates that a forward/inverse transform chain
// reproduces its input: the pre-transform vector is cached, and the
// recovered vector is later checked against it by mean absolute error.
//
// Thread-safety: all methods take the internal guard.
type ReversibilityAssertion struct {
	mu        sync.Mutex
	cache     []float32
	tolerance float32
}

// NewReversibilityAssertion creates an assertion with the given MAE tolerance.
func NewReversibilityAssertion(tolerance float32) *ReversibilityAssertion {
	return &ReversibilityAssertion{tolerance: tolerance}
}

// CacheInput stores a copy of the pre-transform vector.
func (r *ReversibilityAssertion) CacheInput(input []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = append(r.cache[:0], input...)
}

// Verify compares the recovered vector against the cached input.
//
// Fails with a SIZE_MISMATCH violation if the lengths differ, and with a
// TOLERANCE_EXCEEDED violation if the mean absolute error exceeds the
// configured tolerance. On success the measured error is reported via the
// structured log.
func (r *ReversibilityAssertion) Verify(recovered []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.cache) != len(recovered) {
		return &ViolationError{
			Code:    ErrCodeSizeMismatch,
			Message: "cached and recovered vectors differ in length",
		}
	}

	var sum float64
	for i, v := range r.cache {
		sum += math.Abs(float64(v - recovered[i]))
	}
	var errMean float64
	if len(r.cache) > 0 {
		errMean = sum / float64(len(r.cache))
	}

	if errMean > float64(r.tolerance) {
		return &ViolationError{
			Code:     ErrCodeToleranceExceeded,
			Message:  "reversibility leak detected",
			Measured: errMean,
			Limit:    float64(r.tolerance),
		}
	}

	slog.Debug("reversibility assertion passed", "error", errMean, "tolerance", r.tolerance)
	return nil
}
