package scraper

import (
	"context"
	"crypto/rand"
	"math/big"
	"sync"
	"time"
)

// bucketRefillWindow is the time an empty bucket needs to refill completely.
// With N workers the sustained rate works out to N requests per window.
const bucketRefillWindow = 15 * time.Second

// RateLimiter paces outgoing requests with a token bucket plus a random
// per-request delay. Tokens allow short bursts up to the worker count;
// the random delay spreads requests out so the scraped site never sees
// a mechanical request rhythm.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	minDelay   time.Duration
	maxDelay   time.Duration
}

// NewRateLimiter creates a rate limiter allowing bursts of up to `workers`
// requests, refilling the burst budget over bucketRefillWindow, and sleeping
// a random duration in [minDelay, maxDelay] before each request.
func NewRateLimiter(workers int, minDelay, maxDelay time.Duration) *RateLimiter {
	if workers < 1 {
		workers = 1
	}
	return &RateLimiter{
		tokens:     float64(workers),
		maxTokens:  float64(workers),
		refillRate: float64(workers) / bucketRefillWindow.Seconds(),
		lastRefill: time.Now(),
		minDelay:   minDelay,
		maxDelay:   maxDelay,
	}
}

// Wait blocks until a token is available, then applies the random delay.
// Returns the context error if ctx is canceled while waiting.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.mu.Lock()
		r.refill()
		if r.tokens >= 1 {
			r.tokens--
			r.mu.Unlock()
			return Sleep(ctx, r.randomDelay())
		}
		// Time until the next whole token becomes available
		wait := time.Duration((1 - r.tokens) / r.refillRate * float64(time.Second))
		r.mu.Unlock()

		if err := Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// refill credits tokens for the time elapsed since the last refill.
// Caller must hold mu.
func (r *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(r.lastRefill).Seconds()
	r.tokens += elapsed * r.refillRate
	if r.tokens > r.maxTokens {
		r.tokens = r.maxTokens
	}
	r.lastRefill = now
}

// randomDelay returns a uniform random duration in [minDelay, maxDelay].
func (r *RateLimiter) randomDelay() time.Duration {
	spread := int64(r.maxDelay - r.minDelay)
	if spread <= 0 {
		return r.minDelay
	}
	n, err := rand.Int(rand.Reader, big.NewInt(spread))
	if err != nil {
		return r.minDelay
	}
	return r.minDelay + time.Duration(n.Int64())
}
