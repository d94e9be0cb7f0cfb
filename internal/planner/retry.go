package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/hyperengineering/fitplan/internal/program"
)

var _ Generator = (*Retrying)(nil)

// Retrying wraps a Generator and retries unavailable or malformed responses
// with exponential backoff.
type Retrying struct {
	next     Generator
	attempts int
	base     time.Duration
	timeout  time.Duration
}

// WithRetry returns g wrapped so each Generate makes up to attempts calls.
// attempts below 1 is treated as 1.
func WithRetry(g Generator, attempts int, base time.Duration) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	return &Retrying{next: g, attempts: attempts, base: base}
}

// WithAttemptTimeout bounds each individual call. An attempt that runs out of
// time counts as unavailable and is retried; cancelling the caller's context
// still stops everything. Zero means no per-attempt bound.
func (r *Retrying) WithAttemptTimeout(d time.Duration) *Retrying {
	r.timeout = d
	return r
}

// Generate calls the wrapped generator until it succeeds, fails with a
// non-retryable error, or the attempts are exhausted. The last error is returned.
func (r *Retrying) Generate(ctx context.Context, req program.Request) (*program.Plan, error) {
	backoff := retry.WithMaxRetries(uint64(r.attempts-1), retry.NewExponential(r.base))

	attempt := 0
	return retry.DoValue(ctx, backoff, func(ctx context.Context) (*program.Plan, error) {
		attempt++
		plan, err := r.generateOnce(ctx, req)
		if err == nil {
			return plan, nil
		}
		if retryable(err) {
			slog.Warn("plan generation attempt failed",
				"component", "planner",
				"model", r.next.ModelName(),
				"attempt", attempt,
				"error", err,
			)
			return nil, retry.RetryableError(err)
		}
		return nil, err
	})
}

func (r *Retrying) generateOnce(ctx context.Context, req program.Request) (*program.Plan, error) {
	if r.timeout <= 0 {
		return r.next.Generate(ctx, req)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	plan, err := r.next.Generate(attemptCtx, req)
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: attempt timed out after %s", ErrGeneratorUnavailable, r.timeout)
	}
	return plan, err
}

// ModelName returns the wrapped generator's model name.
func (r *Retrying) ModelName() string {
	return r.next.ModelName()
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.Is(err, ErrGeneratorUnavailable) || errors.Is(err, program.ErrMalformedResponse)
}
