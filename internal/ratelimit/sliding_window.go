package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindowCounter enforces a rolling-window quota, used for the
// per-sender daily rating limit. Instead of storing one timestamp per
// request it keeps counts for the current and previous fixed windows
// and weights the previous one by how much of it still overlaps the
// rolling window:
//
//	effective = curr + prev × (window − elapsed) / window
//
// That keeps the counter at O(1) space per sender while still smoothing
// the limit across window boundaries, so a sender who exhausted
// yesterday's budget just before midnight cannot immediately spend a
// full fresh one.
type SlidingWindowCounter struct {
	mu              sync.Mutex
	currCount       int
	prevCount       int
	currWindowStart time.Time
	windowDuration  time.Duration
	maxRequests     int
}

// NewSlidingWindowCounter returns a counter allowing maxRequests per
// windowDuration. A maxRequests of zero or less disables the limit and
// returns nil; the nil receiver is valid and always allows.
func NewSlidingWindowCounter(maxRequests int, windowDuration time.Duration) *SlidingWindowCounter {
	if maxRequests <= 0 {
		return nil
	}
	return &SlidingWindowCounter{
		currWindowStart: time.Now(),
		windowDuration:  windowDuration,
		maxRequests:     maxRequests,
	}
}

// Allow consumes one unit of quota when the weighted count is under the
// limit. Safe for concurrent use; a nil counter always allows.
func (swc *SlidingWindowCounter) Allow() bool {
	if swc == nil {
		return true
	}

	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.maybeRotateWindow()

	if swc.calculateWeightedCount() >= float64(swc.maxRequests) {
		return false
	}

	swc.currCount++
	return true
}

// Check reports whether a request would be allowed without consuming
// quota. The keyed limiter pairs it with Consume under its own per-key
// lock so the burst bucket and the daily counter decide together.
func (swc *SlidingWindowCounter) Check() bool {
	if swc == nil {
		return true
	}

	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.maybeRotateWindow()
	return swc.calculateWeightedCount() < float64(swc.maxRequests)
}

// Consume spends one unit after a passing Check. It re-verifies the
// limit so a racing caller cannot push the count past maxRequests.
func (swc *SlidingWindowCounter) Consume() {
	if swc == nil {
		return
	}

	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.maybeRotateWindow()

	if swc.calculateWeightedCount() < float64(swc.maxRequests) {
		swc.currCount++
	}
}

// maybeRotateWindow advances to the window containing now. Callers
// hold mu.
func (swc *SlidingWindowCounter) maybeRotateWindow() {
	elapsed := time.Since(swc.currWindowStart)

	if elapsed >= swc.windowDuration {
		windowsPassed := int(elapsed / swc.windowDuration)

		if windowsPassed == 1 {
			swc.prevCount = swc.currCount
		} else {
			// The sender was idle for more than a full window, so
			// nothing from the old window overlaps the new one.
			swc.prevCount = 0
		}

		swc.currCount = 0
		swc.currWindowStart = swc.currWindowStart.Add(time.Duration(windowsPassed) * swc.windowDuration)
	}
}

// calculateWeightedCount returns the rolling-window count. Callers
// hold mu.
func (swc *SlidingWindowCounter) calculateWeightedCount() float64 {
	elapsed := time.Since(swc.currWindowStart)

	overlapRatio := float64(swc.windowDuration-elapsed) / float64(swc.windowDuration)
	if overlapRatio < 0 {
		overlapRatio = 0
	}
	if overlapRatio > 1 {
		overlapRatio = 1
	}

	return float64(swc.currCount) + float64(swc.prevCount)*overlapRatio
}

// GetEffectiveCount returns the current weighted count. The keyed
// limiter's janitor uses it to keep entries with daily usage alive.
func (swc *SlidingWindowCounter) GetEffectiveCount() float64 {
	if swc == nil {
		return 0
	}

	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.maybeRotateWindow()
	return swc.calculateWeightedCount()
}

// GetRemaining returns the quota left in the rolling window, or -1
// when the limit is disabled.
func (swc *SlidingWindowCounter) GetRemaining() int {
	if swc == nil {
		return -1
	}

	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.maybeRotateWindow()
	remaining := float64(swc.maxRequests) - swc.calculateWeightedCount()
	if remaining < 0 {
		return 0
	}
	return int(remaining)
}

// IsFull reports whether the quota is currently exhausted.
func (swc *SlidingWindowCounter) IsFull() bool {
	if swc == nil {
		return false
	}

	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.maybeRotateWindow()
	return swc.calculateWeightedCount() >= float64(swc.maxRequests)
}
