//go:build cuda

package substrate

import (
	"os"
	"unsafe"

	"github.com/InternatBlackhole/cudago/cuda"
)

// kernelPTXPath locates the compiled delay-difference kernel. The entry
// point takes the snapshot and state pointers, the cell count, delay tau,
// and the constants a and b. Overridable via AETHER_KERNEL_PTX.
const kernelPTXPath = "kernel/aether_reservoir.ptx"

const kernelEntry = "mackey_glass_kernel"

// cudaThreadsPerBlock matches the GPU kernel's launch configuration.
const cudaThreadsPerBlock = 256

// CUDAAccelerator executes the kernel through the CUDA driver API.
//
// The buffer lives in host memory; Dispatch copies it to the device,
// launches the kernel over all cells, synchronizes, and copies the result
// back. Blocking on synchronize preserves the single-writer contract the
// substrate depends on.
type CUDAAccelerator struct {
	ctx    *cuda.Context
	module *cuda.Module
	fn     *cuda.Function
	dprev  *cuda.DeviceMemory // pre-step snapshot, read-only in the kernel
	dbuf   *cuda.DeviceMemory
	cells  uint32
}

// NewCUDAAccelerator creates the driver-API backend bound to device 0.
func NewCUDAAccelerator() *CUDAAccelerator {
	return &CUDAAccelerator{}
}

// Name identifies the backend.
func (c *CUDAAccelerator) Name() string { return "cuda" }

// Initialize acquires device 0, creates a context, loads the kernel module,
// resolves the entry point, and allocates the device-side buffer. Every
// failure maps to the accelerator error taxonomy and is fatal.
func (c *CUDAAccelerator) Initialize(gridSize uint32) error {
	if res := cuda.Init(0); res != nil {
		return &AcceleratorError{Code: ErrCodeDeviceUnavailable, Backend: "cuda", Message: "driver init failed", Err: res}
	}
	dev, res := cuda.DeviceGet(0)
	if res != nil {
		return &AcceleratorError{Code: ErrCodeDeviceUnavailable, Backend: "cuda", Message: "no CUDA device found", Err: res}
	}
	ctx, res := cuda.NewContext(cuda.CU_CTX_SCHED_BLOCKING_SYNC, dev)
	if res != nil {
		return &AcceleratorError{Code: ErrCodeDeviceUnavailable, Backend: "cuda", Message: "context creation failed", Err: res}
	}
	c.ctx = ctx

	path := kernelPTXPath
	if env := os.Getenv("AETHER_KERNEL_PTX"); env != "" {
		path = env
	}
	ptx, err := os.ReadFile(path)
	if err != nil {
		return &AcceleratorError{Code: ErrCodeKernelCompile, Backend: "cuda", Message: "kernel source unavailable", Err: err}
	}

	module, res := cuda.LoadModuleData(ptx)
	if res != nil {
		return &AcceleratorError{Code: ErrCodeKernelCompile, Backend: "cuda", Message: "kernel module load failed", Err: res}
	}
	c.module = module

	fn, res := module.GetFunction(kernelEntry)
	if res != nil {
		return &AcceleratorError{Code: ErrCodePipelineCreate, Backend: "cuda", Message: "kernel entry point not found", Err: res}
	}
	c.fn = fn

	dprev, res := cuda.MemAlloc(uint64(gridSize) * 4)
	if res != nil {
		return &AcceleratorError{Code: ErrCodePipelineCreate, Backend: "cuda", Message: "device buffer allocation failed", Err: res}
	}
	c.dprev = dprev

	dbuf, res := cuda.MemAlloc(uint64(gridSize) * 4)
	if res != nil {
		return &AcceleratorError{Code: ErrCodePipelineCreate, Backend: "cuda", Message: "device buffer allocation failed", Err: res}
	}
	c.dbuf = dbuf
	c.cells = gridSize
	return nil
}

// Dispatch copies the buffer into the device-side snapshot, launches the
// kernel over all cells with the snapshot as its read source, blocks until
// completion, and copies the result back in place.
func (c *CUDAAccelerator) Dispatch(buf []float32, delayTau uint32, a, b float32) error {
	bytes := uint64(len(buf)) * 4
	if res := c.dprev.MemcpyToDevice(unsafe.Pointer(&buf[0]), bytes); res != nil {
		return &AcceleratorError{Code: ErrCodeDispatchFailed, Backend: "cuda", Message: "host to device copy failed", Err: res}
	}

	cells := c.cells
	blocks := (cells + cudaThreadsPerBlock - 1) / cudaThreadsPerBlock
	prevPtr := c.dprev.Ptr()
	statePtr := c.dbuf.Ptr()
	args := []unsafe.Pointer{
		unsafe.Pointer(&prevPtr),
		unsafe.Pointer(&statePtr),
		unsafe.Pointer(&cells),
		unsafe.Pointer(&delayTau),
		unsafe.Pointer(&a),
		unsafe.Pointer(&b),
	}
	if res := c.fn.Launch(blocks, 1, 1, cudaThreadsPerBlock, 1, 1, 0, nil, args); res != nil {
		return &AcceleratorError{Code: ErrCodeDispatchFailed, Backend: "cuda", Message: "kernel launch failed", Err: res}
	}
	if res := cuda.CurrentContextSynchronize(); res != nil {
		return &AcceleratorError{Code: ErrCodeDispatchFailed, Backend: "cuda", Message: "synchronize failed", Err: res}
	}

	if res := c.dbuf.MemcpyFromDevice(unsafe.Pointer(&buf[0]), bytes); res != nil {
		return &AcceleratorError{Code: ErrCodeDispatchFailed, Backend: "cuda", Message: "device to host copy failed", Err: res}
	}
	return nil
}

// Close releases device resources. Safe to call once after use.
func (c *CUDAAccelerator) Close() {
	if c.dprev != nil {
		c.dprev.Free()
	}
	if c.dbuf != nil {
		c.dbuf.Free()
	}
	if c.module != nil {
		c.module.Unload()
	}
	if c.ctx != nil {
		c.ctx.Destroy()
	}
}
