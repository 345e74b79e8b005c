package substrate

// Accelerator is the compute backend that executes the delay-difference
// kernel over the substrate buffer.
//
// Implemented by HostAccelerator (default) and the CUDA backend ("cuda"
// build tag). Both must be deterministic: identical buffer contents and
// constants produce identical results.
type Accelerator interface {
	// Name identifies the backend in logs and errors.
	Name() string

	// Initialize prepares the backend for a buffer of gridSize cells:
	// device acquisition, kernel compilation, pipeline construction.
	// Any failure is fatal to substrate creation.
	Initialize(gridSize uint32) error

	// Dispatch executes the kernel over every cell of buf with the given
	// constants and blocks until execution completes. Dispatch may only
	// rewrite buf in place, never resize it.
	Dispatch(buf []float32, delayTau uint32, a, b float32) error
}
