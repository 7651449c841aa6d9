package ratelimit

import (
	"github.com/huahelper/hua-messengerbot-go/internal/config"
	"github.com/huahelper/hua-messengerbot-go/internal/metrics"
)

// GlobalLimiter caps the total webhook event throughput across all senders.
// It shields the SQLite read path and the Graph API send quota when the page
// gets a burst of traffic.
type GlobalLimiter struct {
	*Limiter
	metrics *metrics.Metrics
}

// NewGlobalLimiter creates the process-wide event limiter.
// rps is both the burst capacity and the steady-state rate.
func NewGlobalLimiter(rps float64, m *metrics.Metrics) *GlobalLimiter {
	return &GlobalLimiter{
		Limiter: New(rps, rps),
		metrics: m,
	}
}

// Allow consumes a token if available and records drops.
func (gl *GlobalLimiter) Allow() bool {
	allowed := gl.Limiter.Allow()
	if !allowed && gl.metrics != nil {
		gl.metrics.RecordRateLimiterDrop("global")
	}
	return allowed
}

// NewSenderLimiter creates the per-sender message limiter keyed by PSID.
// Remember to call Stop() when done to prevent goroutine leaks.
func NewSenderLimiter(cfg *config.BotConfig, m *metrics.Metrics) *KeyedLimiter {
	return NewKeyedLimiter(KeyedConfig{
		Name:          "user",
		Burst:         cfg.UserRateLimitBurst,
		RefillRate:    cfg.UserRateLimitRefillPerSec,
		CleanupPeriod: config.RateLimiterCleanupInterval,
		Metrics:       m,
	})
}

// Rating submissions are cheap to send but write to storage, so they get a
// tighter bucket plus a rolling 24h cap per sender.
const (
	ratingBurst      = 3.0
	ratingRefillRate = 1.0 / 60.0 // 1 rating per minute steady state
	ratingDailyLimit = 20
)

// NewRatingLimiter creates the per-sender limiter for professor ratings.
// Remember to call Stop() when done to prevent goroutine leaks.
func NewRatingLimiter(m *metrics.Metrics) *KeyedLimiter {
	return NewKeyedLimiter(KeyedConfig{
		Name:          "rating",
		Burst:         ratingBurst,
		RefillRate:    ratingRefillRate,
		DailyLimit:    ratingDailyLimit,
		CleanupPeriod: config.RateLimiterCleanupInterval,
		Metrics:       m,
	})
}
