package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	errs "firemaps/pkg/errors"
)

// BackoffStrategy computes the wait before the next attempt
type BackoffStrategy interface {
	// NextDelay returns the delay after the given (1-based) failed attempt
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff doubles (by Multiplier) from BaseDelay with +/- JitterFactor noise
type ExponentialBackoff struct {
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64
}

// DefaultExponentialBackoff mirrors the service's tolerated cadence: 1s, 2s, 4s...
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// NextDelay calculates the next delay with exponential backoff and jitter
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	multiplier := eb.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}
	delay := float64(eb.BaseDelay) * math.Pow(multiplier, float64(attempt-1))

	if eb.MaxDelay > 0 && delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	if eb.JitterFactor > 0 {
		jitter := delay * eb.JitterFactor
		delay += (rand.Float64() * 2 * jitter) - jitter
	}

	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// ConstantBackoff implements constant delay backoff
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay returns a constant delay
func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

// UniformBackoff picks a delay uniformly in [Min, Max] regardless of attempt.
// Used after bot challenges so concurrent clients do not retry in lockstep.
type UniformBackoff struct {
	Min time.Duration
	Max time.Duration
}

func (ub *UniformBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	if ub.Max <= ub.Min {
		return ub.Min
	}
	return ub.Min + time.Duration(rand.Int63n(int64(ub.Max-ub.Min)+1))
}

// ErrorTypeBackoff selects a strategy by the failed attempt's error type
type ErrorTypeBackoff struct {
	Default BackoffStrategy
	ByType  map[errs.ErrorType]BackoffStrategy
}

// NextDelayFor returns the delay for the strategy matching err
func (etb *ErrorTypeBackoff) NextDelayFor(attempt int, err error) time.Duration {
	if s, ok := etb.ByType[errs.TypeOf(err)]; ok && s != nil {
		return s.NextDelay(attempt)
	}
	if etb.Default == nil {
		return 0
	}
	return etb.Default.NextDelay(attempt)
}

// NextDelay satisfies BackoffStrategy using the default strategy
func (etb *ErrorTypeBackoff) NextDelay(attempt int) time.Duration {
	return etb.NextDelayFor(attempt, nil)
}

// Wait waits for the specified duration or until context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
