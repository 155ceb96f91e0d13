package utils

import (
	"context"
	"testing"
	"time"
)

type fakeTimer struct {
	requested time.Duration
	fired     chan time.Time
	stopped   int
}

func swapTimer(t *testing.T) *fakeTimer {
	t.Helper()
	fake := &fakeTimer{fired: make(chan time.Time, 1)}
	orig := newTimer
	newTimer = func(d time.Duration) (<-chan time.Time, func() bool) {
		fake.requested = d
		return fake.fired, func() bool { fake.stopped++; return true }
	}
	t.Cleanup(func() { newTimer = orig })
	return fake
}

func TestWaitForWaitsForDuration(t *testing.T) {
	fake := swapTimer(t)
	fake.fired <- time.Now()

	if err := WaitFor(context.Background(), 3*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.requested != 3*time.Second {
		t.Fatalf("expected timer of 3s, got %s", fake.requested)
	}
	if fake.stopped != 1 {
		t.Fatalf("expected timer to be stopped once, got %d", fake.stopped)
	}
}

func TestWaitForSkipsNonPositiveDuration(t *testing.T) {
	orig := newTimer
	newTimer = func(time.Duration) (<-chan time.Time, func() bool) {
		t.Fatal("timer must not be created")
		return nil, nil
	}
	t.Cleanup(func() { newTimer = orig })

	if err := WaitFor(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitForStopsTimerOnCancel(t *testing.T) {
	fake := swapTimer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := WaitFor(ctx, time.Minute); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if fake.stopped != 1 {
		t.Fatalf("expected the pending timer to be stopped, got %d stops", fake.stopped)
	}
}

func TestWaitForRealTimer(t *testing.T) {
	start := time.Now()
	if err := WaitFor(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Fatalf("returned after %s, before the timer fired", elapsed)
	}
}
