package flow

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RunAsync streams signals from in through the reservoir until in closes or
// ctx is cancelled. Each output is sent to out in input order.
//
// The first packet failure stops the stream and is returned. Cancellation
// returns ctx.Err(). out is not closed; the caller owns it.
func (o *Orchestrator) RunAsync(ctx context.Context, in <-chan float32, out chan<- float32) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case signal, ok := <-in:
			if !ok {
				return nil
			}

			output, err := o.InjectPacket(o.nextPacket(signal))
			if err != nil {
				return fmt.Errorf("stream: %w", err)
			}

			select {
			case out <- output:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// RunQueue drains a signal queue through the reservoir, pacing each
// injection by the phase lock's adjusted delay so the loop converges on the
// target rate instead of free-running.
//
// Returns nil once the queue is closed and drained, or the first packet
// error, or ctx.Err() on cancellation.
func (o *Orchestrator) RunQueue(ctx context.Context, q *SignalQueue, out chan<- float32) error {
	for {
		signal, ok := q.TryDequeue()
		if !ok {
			if q.Closed() {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-q.Wait():
				continue
			}
		}

		output, err := o.InjectPacket(o.nextPacket(signal))
		if err != nil {
			return fmt.Errorf("drain: %w", err)
		}

		if out != nil {
			select {
			case out <- output:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		delay := o.pll.AdjustedDelay()
		slog.Debug("pacing injection",
			"rate_hz", o.injectionRateHz,
			"delay_ns", delay.Nanoseconds(),
			"queued", q.Len(),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
