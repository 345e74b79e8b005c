package substrate

import (
	"runtime"
	"sync"
)

// HostAccelerator executes the delay-difference kernel on the CPU.
//
// The kernel is the same gather-from-old-state map the GPU backend runs:
// every cell reads its delayed neighbor from an immutable snapshot of the
// pre-step buffer, so the result is independent of evaluation order and the
// update can be sharded across goroutines without changing the numerics.
//
// Per-cell update, with d = (i - tau) mod N over the old state x:
//
//	x'[i] = x[i] + a*x[d]/(1 + x[d]^10) - b*x[i]
type HostAccelerator struct {
	shards  int
	scratch []float32
}

// NewHostAccelerator creates the CPU backend, sharded across GOMAXPROCS.
func NewHostAccelerator() *HostAccelerator {
	return &HostAccelerator{shards: runtime.GOMAXPROCS(0)}
}

// Name identifies the backend.
func (h *HostAccelerator) Name() string { return "host" }

// Initialize allocates the pre-step scratch snapshot.
// The host path has no device or compilation step that can fail.
func (h *HostAccelerator) Initialize(gridSize uint32) error {
	h.scratch = make([]float32, gridSize)
	if h.shards < 1 {
		h.shards = 1
	}
	return nil
}

// Dispatch runs the kernel over every cell and returns when all shards
// have finished. Only buf is rewritten; it is never resized.
func (h *HostAccelerator) Dispatch(buf []float32, delayTau uint32, a, b float32) error {
	n := len(buf)
	if len(h.scratch) != n {
		// Initialize sized the scratch to the grid; a mismatch means the
		// backend is being shared across substrates, which is unsupported.
		h.scratch = make([]float32, n)
	}
	prev := h.scratch[:n]
	copy(prev, buf)

	shards := h.shards
	if shards > n {
		shards = n
	}
	chunk := (n + shards - 1) / shards

	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			kernelRange(buf, prev, lo, hi, int(delayTau), a, b)
		}(lo, hi)
	}
	wg.Wait()
	return nil
}

// kernelRange applies the update to cells [lo, hi), reading old state from prev.
func kernelRange(buf, prev []float32, lo, hi, tau int, a, b float32) {
	n := len(prev)
	for i := lo; i < hi; i++ {
		d := (i - tau) % n
		if d < 0 {
			d += n
		}
		xd := prev[d]
		// xd^10 via three squarings.
		x2 := xd * xd
		x4 := x2 * x2
		x8 := x4 * x4
		buf[i] = prev[i] + a*xd/(1+x8*x2) - b*prev[i]
	}
}
