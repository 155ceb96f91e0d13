package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func TestNewLimiter(t *testing.T) {
	if NewLimiter(0) != nil {
		t.Fatalf("expected no limiter for a zero rate")
	}

	limiter := NewLimiter(60)
	if limiter == nil {
		t.Fatalf("expected a limiter")
	}
	if limiter.Limit() != rate.Every(time.Second) || limiter.Burst() != 1 {
		t.Fatalf("unexpected limiter: limit=%v burst=%d", limiter.Limit(), limiter.Burst())
	}
}

func TestCallerLimiterWaitDoesNotCountAgainstTimeout(t *testing.T) {
	gen := &scriptedGenerator{steps: []func(context.Context) (string, error){reply("first"), reply("second")}}
	caller := NewCaller(gen, 30*time.Millisecond, 0, zap.NewNop())
	// The second call waits about 100ms for a token, longer than the attempt timeout.
	caller.Limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 1)

	for _, want := range []string{"first", "second"} {
		out, err := caller.Generate(context.Background(), "sys", "msg", Options{})
		if err != nil {
			t.Fatalf("call %q: unexpected error: %v", want, err)
		}
		if out != want {
			t.Fatalf("expected %q, got %q", want, out)
		}
	}
	if gen.calls != 2 {
		t.Fatalf("expected 2 forwarded calls, got %d", gen.calls)
	}
}

func TestCallerLimiterRespectsContext(t *testing.T) {
	gen := &scriptedGenerator{steps: []func(context.Context) (string, error){reply("first"), reply("second")}}
	caller := NewCaller(gen, time.Second, 0, zap.NewNop())
	caller.Limiter = NewLimiter(1)

	if _, err := caller.Generate(context.Background(), "", "", Options{}); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := caller.Generate(ctx, "", "", Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if IsTimeout(err) {
		t.Fatalf("a cancelled limiter wait must not be reported as a timeout: %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("expected 1 forwarded call, got %d", gen.calls)
	}
}
