// Package ratelimit implements the token buckets behind the bot's
// quotas: the global webhook throughput cap, per-sender message
// limits, and the per-sender rating budget.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a token bucket. Tokens refill at refillRate per second up
// to maxTokens; each request costs one token. Safe for concurrent use.
type Limiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// New creates a bucket that starts full. maxTokens is the burst
// capacity, refillRate the steady-state tokens per second.
func New(maxTokens, refillRate float64) *Limiter {
	return &Limiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// NewPerMinute creates a bucket from a per-minute quota, with two
// seconds worth of burst and one second of initial tokens.
func NewPerMinute(requestsPerMinute float64) *Limiter {
	perSecond := requestsPerMinute / 60
	return &Limiter{
		tokens:     perSecond,
		maxTokens:  perSecond * 2,
		refillRate: perSecond,
		lastRefill: time.Now(),
	}
}

// refill credits tokens for the elapsed time. Callers hold mu.
func (l *Limiter) refill() {
	now := time.Now()
	elapsed := now.Sub(l.lastRefill).Seconds()

	l.tokens += elapsed * l.refillRate
	if l.tokens > l.maxTokens {
		l.tokens = l.maxTokens
	}
	l.lastRefill = now
}

// Allow consumes a token when one is available. Non-blocking.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()

	if l.tokens >= 1.0 {
		l.tokens -= 1.0
		return true
	}

	return false
}

// Check reports whether a token is available without consuming it.
// Check-then-Consume across several buckets (the keyed limiter's
// per-burst plus daily pair) needs an external lock covering both
// calls; Check alone is not an atomic reservation.
func (l *Limiter) Check() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	return l.tokens >= 1.0
}

// Consume takes a token after a passing Check. Same external-lock
// requirement as Check.
func (l *Limiter) Consume() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	if l.tokens >= 1.0 {
		l.tokens -= 1.0
	}
}

// Wait blocks until a token is available or ctx is canceled. The
// scraper's politeness limiter sits on this so page fetches pace
// themselves instead of spinning.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		l.refill()

		if l.tokens >= 1 {
			l.tokens--
			l.mu.Unlock()
			return nil
		}

		// Sleep exactly until the next token lands.
		waitTime := time.Duration((1 - l.tokens) / l.refillRate * float64(time.Second))
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}
}

// WaitSimple blocks until a token is available, without cancellation.
// The webhook's global limiter uses it on the already-accepted event
// path where dropping is worse than stalling.
func (l *Limiter) WaitSimple() {
	for !l.Allow() {
		time.Sleep(100 * time.Millisecond)
	}
}

// Available returns the current token count.
func (l *Limiter) Available() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	return l.tokens
}

// IsFull reports whether the bucket is back at capacity. The keyed
// limiter's janitor uses it to spot senders who have gone quiet.
func (l *Limiter) IsFull() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	return l.tokens >= l.maxTokens
}

// Reset refills the bucket to capacity.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.tokens = l.maxTokens
	l.lastRefill = time.Now()
}
