package sindy

import (
	"errors"
	"fmt"
)

// ErrInsufficientData is returned when identification is requested before
// enough history exists. The orchestrator treats it as a no-op, not a
// failure.
var ErrInsufficientData = errors.New("insufficient state history for identification")

// AxiomViolationError reports a fitted model that breaks a hard constraint.
//
// Axiom violations mean "the current fit is not trustworthy"; they are
// logged by the orchestrator and the cycle continues.
type AxiomViolationError struct {
	// Code identifies the violated axiom.
	Code AxiomCode

	// Message is a human-readable description.
	Message string

	// Coefficient is the offending fitted value.
	Coefficient float32

	// Limit is the axiom threshold.
	Limit float32
}

// AxiomCode categorizes axiom violations.
type AxiomCode string

const (
	// ErrCodeUnboundedGrowth indicates the cubic coefficient exceeds its bound.
	ErrCodeUnboundedGrowth AxiomCode = "UNBOUNDED_GROWTH"

	// ErrCodeInsufficientDissipation indicates the linear coefficient exceeds its bound.
	ErrCodeInsufficientDissipation AxiomCode = "INSUFFICIENT_DISSIPATION"
)

// Error implements the error interface.
func (e *AxiomViolationError) Error() string {
	return fmt.Sprintf("%s: %s (coefficient=%g, limit=%g)", e.Code, e.Message, e.Coefficient, e.Limit)
}

// IsAxiomViolation returns true if err is an AxiomViolationError.
// Uses errors.As to handle wrapped errors.
func IsAxiomViolation(err error) bool {
	var ae *AxiomViolationError
	return errors.As(err, &ae)
}
