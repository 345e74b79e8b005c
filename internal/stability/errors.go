package stability

import (
	"errors"
	"fmt"
)

// ViolationError reports a failed stability check.
//
// Violations are recoverable at the orchestrator level: they mean "the
// model is currently inconsistent", not "the system is unusable", so the
// orchestrator logs them and the cycle continues.
type ViolationError struct {
	// Code identifies the violation category.
	Code ViolationCode

	// Message is a human-readable description.
	Message string

	// Measured is the observed value (reconstruction error, exponent).
	Measured float64

	// Limit is the threshold that was exceeded, where applicable.
	Limit float64
}

// ViolationCode categorizes stability violations.
type ViolationCode string

const (
	// ErrCodeSizeMismatch indicates cached and recovered vectors differ in length.
	ErrCodeSizeMismatch ViolationCode = "SIZE_MISMATCH"

	// ErrCodeToleranceExceeded indicates reconstruction error above tolerance.
	ErrCodeToleranceExceeded ViolationCode = "TOLERANCE_EXCEEDED"
)

// Error implements the error interface.
func (e *ViolationError) Error() string {
	if e.Code == ErrCodeSizeMismatch {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (measured=%g, limit=%g)", e.Code, e.Message, e.Measured, e.Limit)
}

// IsViolation returns true if err is a stability ViolationError.
// Uses errors.As to handle wrapped errors.
func IsViolation(err error) bool {
	var ve *ViolationError
	return errors.As(err, &ve)
}
