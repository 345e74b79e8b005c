package flow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aether/internal/sindy"
	"github.com/roach88/aether/internal/substrate"
)

func TestRunAsync_StreamsInOrder(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	signals := []float32{0.1, 0.2, 0.3, 0.4, 0.5}
	in := make(chan float32, len(signals))
	out := make(chan float32, len(signals))
	for _, s := range signals {
		in <- s
	}
	close(in)

	err := o.RunAsync(context.Background(), in, out)
	require.NoError(t, err)
	require.Len(t, out, len(signals))

	for i, s := range signals {
		assert.InDelta(t, 0.9*s, <-out, 1e-6, "output %d", i)
	}
	assert.Equal(t, uint64(len(signals)), o.PacketCount())
}

func TestRunAsync_StopsOnCancel(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan float32)
	out := make(chan float32)

	done := make(chan error, 1)
	go func() {
		done <- o.RunAsync(ctx, in, out)
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("RunAsync did not stop on cancellation")
	}
}

func TestRunAsync_DispatchFailureStopsStream(t *testing.T) {
	sub, err := substrate.New(10, substrate.WithGridSize(256),
		substrate.WithAccelerator(newFaultyAccelerator(2)))
	require.NoError(t, err)
	o := New(sub, sindy.NewEngine(4), 1000)

	in := make(chan float32, 4)
	out := make(chan float32, 4)
	for _, s := range []float32{0.1, 0.2, 0.3, 0.4} {
		in <- s
	}
	close(in)

	err = o.RunAsync(context.Background(), in, out)
	require.Error(t, err)
	assert.True(t, substrate.IsDispatchError(err))
	assert.Len(t, out, 2, "outputs before the failing packet still stream")
}

func TestRunQueue_DrainsThenStopsOnClose(t *testing.T) {
	// High rate keeps the pacing delay at the floor so the test is quick.
	sub, err := substrate.New(100, substrate.WithGridSize(1024))
	require.NoError(t, err)
	o := New(sub, sindy.NewEngine(8), 1_000_000)

	q := NewSignalQueue()
	for _, s := range []float32{0.1, 0.2, 0.3} {
		require.True(t, q.Enqueue(s))
	}
	q.Close()

	out := make(chan float32, 3)
	err = o.RunQueue(context.Background(), q, out)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), o.PacketCount())
	assert.Zero(t, q.Len())
	require.Len(t, out, 3)
	assert.InDelta(t, 0.9*0.1, <-out, 1e-6)
}

func TestRunQueue_CancelWhileWaiting(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	ctx, cancel := context.WithCancel(context.Background())
	q := NewSignalQueue()

	done := make(chan error, 1)
	go func() {
		done <- o.RunQueue(ctx, q, nil)
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("RunQueue did not stop on cancellation")
	}
}

func TestRunQueue_NilOutputChannel(t *testing.T) {
	sub, err := substrate.New(100, substrate.WithGridSize(1024))
	require.NoError(t, err)
	o := New(sub, sindy.NewEngine(8), 1_000_000)

	q := NewSignalQueue()
	q.Enqueue(0.5)
	q.Close()

	require.NoError(t, o.RunQueue(context.Background(), q, nil))
	assert.Equal(t, uint64(1), o.PacketCount())
}
