package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow reports whether a request may proceed now, consuming capacity if so
	Allow() bool
	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error
	// Reset restores the initial state
	Reset()
}

// TokenBucket refills to full capacity once per refill period
type TokenBucket struct {
	capacity     int
	tokens       int
	refillPeriod time.Duration
	lastRefill   time.Time
	mu           sync.Mutex
}

// NewTokenBucket creates a new token bucket rate limiter
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
	}
}

// NewPerSecond returns a bucket allowing roughly rps requests per second,
// or nil when rps is not positive
func NewPerSecond(rps float64) *TokenBucket {
	if rps <= 0 {
		return nil
	}
	if rps >= 1 {
		return NewTokenBucket(int(rps), time.Second)
	}
	return NewTokenBucket(1, time.Duration(float64(time.Second)/rps))
}

func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

func (tb *TokenBucket) Wait(ctx context.Context) error {
	for !tb.Allow() {
		tb.mu.Lock()
		untilRefill := tb.refillPeriod - time.Since(tb.lastRefill)
		tb.mu.Unlock()

		if untilRefill <= 0 {
			untilRefill = 10 * time.Millisecond
		}
		if err := sleep(ctx, untilRefill); err != nil {
			return err
		}
	}
	return nil
}

func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = time.Now()
}

func (tb *TokenBucket) refill() {
	now := time.Now()
	if now.Sub(tb.lastRefill) >= tb.refillPeriod {
		tb.tokens = tb.capacity
		tb.lastRefill = now
	}
}

// Pacer spaces sequential calls by MinDelay plus a uniform random jitter.
// The first call after construction or Reset proceeds immediately.
type Pacer struct {
	minDelay time.Duration
	jitter   time.Duration
	started  bool
	last     time.Time
	mu       sync.Mutex
}

// NewPacer creates a pacer with the given floor and jitter window
func NewPacer(minDelay, jitter time.Duration) *Pacer {
	return &Pacer{minDelay: minDelay, jitter: jitter}
}

// NextDelay draws the gap to leave before the next call
func (p *Pacer) NextDelay() time.Duration {
	d := p.minDelay
	if p.jitter > 0 {
		d += time.Duration(rand.Int63n(int64(p.jitter) + 1))
	}
	return d
}

// Allow reports whether at least MinDelay has passed since the previous call
func (p *Pacer) Allow() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started && time.Since(p.last) < p.minDelay {
		return false
	}
	p.started = true
	p.last = time.Now()
	return true
}

func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	first := !p.started
	p.started = true
	p.mu.Unlock()

	if !first {
		if err := sleep(ctx, p.NextDelay()); err != nil {
			return err
		}
	}

	p.mu.Lock()
	p.last = time.Now()
	p.mu.Unlock()
	return nil
}

func (p *Pacer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = false
	p.last = time.Time{}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
