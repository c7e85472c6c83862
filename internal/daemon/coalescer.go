package daemon

import (
	"context"
	"errors"
	"time"
)

// Backlight hardware reports many near-simultaneous writes per user action
// (a held brightness key fires dozens of events). The coalescer collapses
// each burst into the single value observed after it quiesces.
const (
	drainSlot  = 150 * time.Millisecond
	drainIters = 10
)

// ErrEventsClosed reports that the fraction channel was closed; the daemon
// cannot make progress without producers.
var ErrEventsClosed = errors.New("brightness event channel closed")

// Coalescer is the single consumer of the fraction channel.
type Coalescer struct {
	events <-chan float64

	// slot and iters bound the drain phase; tests compress them.
	slot  time.Duration
	iters int
}

// NewCoalescer creates a coalescer over events with the standard settling
// window (10 slots of 150 ms).
func NewCoalescer(events <-chan float64) *Coalescer {
	return &Coalescer{
		events: events,
		slot:   drainSlot,
		iters:  drainIters,
	}
}

// Run consumes fractions until ctx is cancelled or the channel closes,
// calling emit with one settled value per burst.
//
// Each cycle blocks for a first value, then tries one non-blocking read. If
// nothing else is pending, the first value is already settled and is emitted
// immediately. Otherwise the burst is drained: all iters slots run to
// completion (no early break on an empty slot, matching the reference
// behavior), and the last value seen wins. A burst outlasting the full
// window emits an intermediate value and starts a fresh cycle.
func (c *Coalescer) Run(ctx context.Context, emit func(float64)) error {
	for {
		v, err := c.recv(ctx)
		if err != nil {
			return err
		}

		settled := v
		select {
		case x, ok := <-c.events:
			if !ok {
				return closedErr(ctx)
			}
			settled = x
			for i := 0; i < c.iters; i++ {
				if err := sleepCtx(ctx, c.slot); err != nil {
					return err
				}
				select {
				case y, ok := <-c.events:
					if !ok {
						return closedErr(ctx)
					}
					settled = y
				default:
				}
			}
		default:
		}

		emit(settled)
	}
}

func (c *Coalescer) recv(ctx context.Context) (float64, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case v, ok := <-c.events:
		if !ok {
			return 0, closedErr(ctx)
		}
		return v, nil
	}
}

// closedErr reports why the event channel is gone. A shutdown tears down the
// producer and the context together; when both are observable the select may
// see the closed channel first, so cancellation has to win or a clean stop
// surfaces as a fatal channel failure.
func closedErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrEventsClosed
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
