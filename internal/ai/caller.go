package ai

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/devils-advocate/internal/utils"
)

const (
	defaultTimeout      = 60 * time.Second
	defaultMaxLogLength = 200
)

// TimeoutError reports a generation call that exceeded its deadline.
type TimeoutError struct {
	Timeout  time.Duration
	Attempts int
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("generation timed out after %s (%d attempts): %v", e.Timeout, e.Attempts, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// IsTimeout reports whether err wraps a *TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// Caller issues generation requests with a per-attempt deadline.
// An attempt that times out is retried once after Backoff; every other error is returned as is.
// Waiting for Limiter happens before the attempt deadline starts.
type Caller struct {
	Generator Generator
	Limiter   *rate.Limiter
	Timeout   time.Duration
	Backoff   time.Duration
	// Retry enables the single retry of timed-out attempts.
	Retry     bool
	Logger    *zap.Logger
	MaxLogLen int
}

// NewCaller returns a Caller with the retry enabled.
func NewCaller(generator Generator, timeout, backoff time.Duration, logger *zap.Logger) *Caller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Caller{
		Generator: generator,
		Timeout:   timeout,
		Backoff:   backoff,
		Retry:     true,
		Logger:    logger,
		MaxLogLen: defaultMaxLogLength,
	}
}

// Generate runs the request against the wrapped generator.
func (c *Caller) Generate(ctx context.Context, system, message string, opts Options) (string, error) {
	if c == nil || c.Generator == nil {
		return "", errors.New("text generator is not configured")
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	attempts := 1
	if c.Retry {
		attempts = 2
	}

	logger := c.logger()
	logger.Debug("generation request",
		zap.Int("prompt_length", utf8.RuneCountInString(system)+utf8.RuneCountInString(message)),
		zap.String("prompt_preview", utils.TruncateForLog(system, c.maxLogLen())),
		zap.String("response_format", string(opts.ResponseFormat)),
	)

	// Chunks already handed to the caller cannot be taken back, so a streamed
	// attempt that timed out midway is not retried.
	var emitted atomic.Bool
	if stream := opts.Stream; stream != nil {
		opts.Stream = func(chunk string) {
			emitted.Store(true)
			stream(chunk)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := c.attempt(ctx, timeout, system, message, opts)
		if err == nil {
			logger.Debug("generation response",
				zap.Int("attempt", attempt),
				zap.Int("response_length", utf8.RuneCountInString(out)),
				zap.String("response_preview", utils.TruncateForLog(out, c.maxLogLen())),
			)
			return out, nil
		}

		if !errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return "", err
		}

		if emitted.Load() {
			return "", &TimeoutError{Timeout: timeout, Attempts: attempt, Err: err}
		}

		lastErr = err
		if attempt < attempts {
			logger.Warn("generation timed out, retrying",
				zap.Int("attempt", attempt),
				zap.Duration("timeout", timeout),
				zap.Duration("backoff", c.Backoff),
			)
			if err := utils.WaitFor(ctx, c.Backoff); err != nil {
				return "", err
			}
		}
	}

	return "", &TimeoutError{Timeout: timeout, Attempts: attempts, Err: lastErr}
}

func (c *Caller) attempt(ctx context.Context, timeout time.Duration, system, message string, opts Options) (string, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := c.Generator.Generate(callCtx, system, message, opts)
	if err == nil {
		return out, nil
	}
	// SDK transport errors do not always keep the context error in their chain.
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		return "", fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return "", err
}

// Model returns the model name of the wrapped generator.
func (c *Caller) Model() string {
	if c == nil || c.Generator == nil {
		return ""
	}
	return c.Generator.Model()
}

func (c *Caller) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *Caller) maxLogLen() int {
	if c.MaxLogLen <= 0 {
		return defaultMaxLogLength
	}
	return c.MaxLogLen
}
