package flow

import "sync/atomic"

// Packet is one scalar signal flowing through the reservoir.
// Created per injection request, immutable, never persisted.
type Packet struct {
	// Signal is the scalar to inject.
	Signal float32

	// TimestampNS is nanoseconds since the Unix epoch at creation.
	TimestampNS uint64

	// ID is the monotonic packet id; it also selects the injection cell
	// (id mod grid size).
	ID uint64
}

// packetCounter issues strictly increasing packet ids.
//
// Thread-safety: atomic operations; safe from any goroutine, though the
// orchestrator's packet guard means a single caller in practice.
type packetCounter struct {
	n atomic.Uint64
}

// next reserves and returns the current id, advancing the counter.
// Ids start at 0.
func (c *packetCounter) next() uint64 {
	return c.n.Add(1) - 1
}

// current returns the next id to be issued without reserving it.
func (c *packetCounter) current() uint64 {
	return c.n.Load()
}
