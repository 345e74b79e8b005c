package substrate

import (
	"errors"
	"fmt"
)

// AcceleratorError represents a failure at the hardware-execution boundary.
//
// Accelerator errors include:
//   - Device unavailable: no compatible accelerator present
//   - Kernel compile: the update kernel failed to compile or load
//   - Pipeline create: the execution pipeline could not be built
//   - Dispatch failed: a step dispatch was rejected or timed out
//
// All accelerator errors are fatal to the operation in progress and are
// never retried automatically. The caller decides whether to abort the
// orchestration cycle.
type AcceleratorError struct {
	// Code identifies the error category.
	Code AcceleratorErrorCode

	// Backend names the accelerator backend ("host", "cuda").
	Backend string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// AcceleratorErrorCode categorizes accelerator errors.
type AcceleratorErrorCode string

const (
	// ErrCodeDeviceUnavailable indicates no compatible accelerator is present.
	ErrCodeDeviceUnavailable AcceleratorErrorCode = "DEVICE_UNAVAILABLE"

	// ErrCodeKernelCompile indicates the update kernel failed to compile.
	ErrCodeKernelCompile AcceleratorErrorCode = "KERNEL_COMPILE"

	// ErrCodePipelineCreate indicates the execution pipeline could not be built.
	ErrCodePipelineCreate AcceleratorErrorCode = "PIPELINE_CREATE"

	// ErrCodeDispatchFailed indicates a step dispatch was rejected or timed out.
	ErrCodeDispatchFailed AcceleratorErrorCode = "DISPATCH_FAILED"
)

// Error implements the error interface.
func (e *AcceleratorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (backend=%s): %v", e.Code, e.Message, e.Backend, e.Err)
	}
	return fmt.Sprintf("%s: %s (backend=%s)", e.Code, e.Message, e.Backend)
}

// Unwrap returns the underlying cause.
func (e *AcceleratorError) Unwrap() error {
	return e.Err
}

// IsAcceleratorError returns true if err is an AcceleratorError.
// Uses errors.As to handle wrapped errors.
func IsAcceleratorError(err error) bool {
	var ae *AcceleratorError
	return errors.As(err, &ae)
}

// IsDispatchError returns true if err is a dispatch failure.
func IsDispatchError(err error) bool {
	var ae *AcceleratorError
	if errors.As(err, &ae) {
		return ae.Code == ErrCodeDispatchFailed
	}
	return false
}
