package flow

import "sync"

// SignalQueue is a thread-safe FIFO queue of input signals.
//
// It decouples signal producers (stdin readers, network handlers) from the
// phase-locked injection loop, which drains one signal at a time at its own
// pace. The queue is unbounded so a bursty producer never blocks.
//
// The queue uses a signal channel to enable context-aware waiting in the
// drain loop (prevents goroutine hangs on context cancellation).
type SignalQueue struct {
	mu      sync.Mutex
	signals []float32
	closed  bool
	signal  chan struct{} // signals availability (buffered, size 1)
}

// NewSignalQueue creates an empty signal queue.
func NewSignalQueue() *SignalQueue {
	return &SignalQueue{
		signals: make([]float32, 0, 64),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue adds a signal to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *SignalQueue) Enqueue(v float32) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.signals = append(q.signals, v)

	// Non-blocking signal; the buffer of 1 coalesces multiple signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (0, false) if the queue is empty.
func (q *SignalQueue) TryDequeue() (float32, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.signals) == 0 {
		return 0, false
	}

	v := q.signals[0]
	if len(q.signals) == 1 {
		// Last element: reset to empty slice with original capacity.
		q.signals = q.signals[:0]
	} else {
		q.signals = q.signals[1:]
	}

	return v, true
}

// Wait returns a channel that signals when signals may be available.
// The channel closes when the queue closes, waking all waiters.
func (q *SignalQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *SignalQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.signals)
}

// Closed reports whether the queue has been closed.
func (q *SignalQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close signals that no more signals will be enqueued.
func (q *SignalQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
