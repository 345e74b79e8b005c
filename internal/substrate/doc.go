// Package substrate implements the reservoir's delay-line buffer: a fixed
// number of float32 nodes held in memory shared with a compute accelerator,
// evolved by a nonlinear delay-difference kernel.
//
// The buffer is owned exclusively by the Substrate. Callers reach it through
// Inject, Read, Step, and WithExclusiveAccess; positions wrap modulo the grid
// size, so out-of-range addressing is never a fault.
//
// Two accelerator backends exist:
//
//   - Host: a deterministic CPU rendition of the kernel, sharded across
//     goroutines. This is the default and what tests run against.
//   - CUDA: a driver-API backend compiled with the "cuda" build tag.
//
// Step dispatches the kernel over all nodes and blocks until the backend
// finishes. This trades throughput for determinism: between Inject and the
// next Step the buffer has a single writer and a single reader.
package substrate
