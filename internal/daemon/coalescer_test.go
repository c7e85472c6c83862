package daemon

import (
	"context"
	"errors"
	"testing"
	"time"
)

// testCoalescer shrinks the drain slots so burst tests run in milliseconds.
func testCoalescer(events <-chan float64) *Coalescer {
	c := NewCoalescer(events)
	c.slot = 5 * time.Millisecond
	return c
}

func runCoalescer(t *testing.T, c *Coalescer) (<-chan float64, <-chan error, context.CancelFunc) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	emitted := make(chan float64, 16)
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Run(ctx, func(v float64) { emitted <- v })
	}()
	return emitted, errCh, cancel
}

func waitEmit(t *testing.T, emitted <-chan float64) float64 {
	t.Helper()
	select {
	case v := <-emitted:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for settled value")
		return 0
	}
}

func TestCoalescerSingleEventEmitsImmediately(t *testing.T) {
	events := make(chan float64, 16)
	c := testCoalescer(events)
	emitted, _, _ := runCoalescer(t, c)

	start := time.Now()
	events <- 0.42

	if v := waitEmit(t, emitted); v != 0.42 {
		t.Fatalf("settled=%v want 0.42", v)
	}
	// A lone value must not pay the drain window.
	if elapsed := time.Since(start); elapsed > 10*c.slot {
		t.Fatalf("lone value delayed by drain: %v", elapsed)
	}
}

func TestCoalescerBurstEmitsLastValueOnce(t *testing.T) {
	events := make(chan float64, 16)
	events <- 0.10
	events <- 0.32
	events <- 0.55
	events <- 0.78

	c := testCoalescer(events)
	emitted, _, _ := runCoalescer(t, c)

	if v := waitEmit(t, emitted); v != 0.78 {
		t.Fatalf("settled=%v want 0.78", v)
	}

	select {
	case v := <-emitted:
		t.Fatalf("burst emitted twice, second value %v", v)
	case <-time.After(20 * c.slot):
	}
}

func TestCoalescerTwoValuesSettleOnSecond(t *testing.T) {
	events := make(chan float64, 16)
	events <- 0.2
	events <- 0.6

	c := testCoalescer(events)
	emitted, _, _ := runCoalescer(t, c)

	// No drain reads succeed, so the second value wins.
	if v := waitEmit(t, emitted); v != 0.6 {
		t.Fatalf("settled=%v want 0.6", v)
	}
}

func TestCoalescerLongBurstEmitsIntermediateValue(t *testing.T) {
	events := make(chan float64, 64)
	c := testCoalescer(events)

	// Produce continuously for about four settling windows.
	window := time.Duration(c.iters) * c.slot
	done := make(chan struct{})
	go func() {
		defer close(done)
		deadline := time.Now().Add(4 * window)
		for i := 0; time.Now().Before(deadline); i++ {
			events <- float64(i) / 1000
			time.Sleep(c.slot / 2)
		}
	}()

	emitted, _, cancel := runCoalescer(t, c)

	first := waitEmit(t, emitted)
	count := 1
	<-done
	for draining := true; draining; {
		select {
		case <-emitted:
			count++
		case <-time.After(2 * window):
			draining = false
		}
	}
	cancel()

	if count < 2 {
		t.Fatalf("expected intermediate emissions during a long burst, got %d (first=%v)", count, first)
	}
}

func TestCoalescerChannelClosedIsFatal(t *testing.T) {
	events := make(chan float64)
	c := testCoalescer(events)
	_, errCh, _ := runCoalescer(t, c)

	close(events)

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrEventsClosed) {
			t.Fatalf("err=%v want ErrEventsClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for Run to fail")
	}
}

func TestCoalescerCancelDuringDispatchIsClean(t *testing.T) {
	// A SIGTERM that lands while a notification is being dispatched cancels
	// the context and stops the watcher (closing the channel) at once; the
	// coalescer must still report a clean cancel, not a channel failure.
	events := make(chan float64, 1)
	c := testCoalescer(events)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	dispatching := make(chan struct{})
	release := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Run(ctx, func(float64) {
			dispatching <- struct{}{}
			<-release
		})
	}()

	events <- 0.5
	<-dispatching

	cancel()
	close(events)
	close(release)

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err=%v want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for Run to return")
	}
}

func TestCoalescerStopsOnCancel(t *testing.T) {
	events := make(chan float64)
	c := testCoalescer(events)
	_, errCh, cancel := runCoalescer(t, c)

	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err=%v want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for Run to return")
	}
}
