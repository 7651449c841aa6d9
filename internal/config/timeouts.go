// Package config provides centralized timeout constants for the application.
//
// These values are tuned around:
//   - Messenger Platform constraints (webhook acknowledgment, sender actions)
//   - dit.hua.gr response times (scraping delays, rate limiting)
//   - SQLite performance characteristics (WAL mode, busy timeout)
//
// # Messenger Platform Constraints
//
// The platform expects the webhook POST to be acknowledged with 200 within
// a few seconds or it retries delivery, so events are queued and processed
// after the response is written. The typing indicator shown via the
// typing_on sender action turns off by itself after about 20 seconds.
package config

import "time"

// Webhook timeouts
const (
	// WebhookProcessing is the timeout for processing a single webhook event.
	// This includes bot message handling, database queries, and potential scraping.
	// Processing runs detached from the request, so this bounds the background
	// work, not the 200 acknowledgment.
	WebhookProcessing = 30 * time.Second

	// WebhookHTTPRead is the HTTP server read timeout for webhook requests.
	// Should be short since the platform sends small JSON payloads.
	WebhookHTTPRead = 10 * time.Second

	// WebhookHTTPWrite is the HTTP server write timeout.
	WebhookHTTPWrite = 15 * time.Second

	// WebhookHTTPIdle is the HTTP server idle timeout for keep-alive connections.
	WebhookHTTPIdle = 120 * time.Second
)

// Send API timeouts
const (
	// SendMessage is the timeout for a Graph API message send.
	SendMessage = 15 * time.Second

	// SenderAction is the timeout for mark_seen / typing_on calls. These are
	// cosmetic, so they get a short leash and their failures are only logged.
	SenderAction = 5 * time.Second
)

// Scraper timeouts
const (
	// ScraperRequest is the timeout for a single HTTP request to dit.hua.gr.
	// The site can be slow, especially during registration periods.
	ScraperRequest = 60 * time.Second

	// ScraperRetryInitial is the initial delay before retrying a failed request.
	// Uses exponential backoff: 4s -> 8s -> 16s -> 32s -> 64s
	ScraperRetryInitial = 4 * time.Second

	// ScraperRateLimit is the minimum delay between consecutive scraping requests.
	// Prevents overwhelming the department server and getting blocked.
	ScraperRateLimit = 2 * time.Second
)

// Database timeouts
const (
	// DatabaseBusyTimeout is SQLite busy_timeout pragma value.
	// Handles concurrent write contention during rescrape operations.
	DatabaseBusyTimeout = 30 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of database connections.
	// Prevents stale connections and allows connection pool refresh.
	DatabaseConnMaxLifetime = time.Hour
)

// Background job intervals
const (
	// CacheCleanupInterval is how often expired cache entries are deleted.
	CacheCleanupInterval = 12 * time.Hour

	// CacheCleanupInitialDelay is the delay before first cache cleanup.
	// Allows server to stabilize before running cleanup.
	CacheCleanupInitialDelay = 5 * time.Minute

	// MetricsUpdateInterval is how often cache size metrics are updated.
	MetricsUpdateInterval = 5 * time.Minute

	// RateLimiterCleanupInterval is how often inactive sender rate limiters are cleaned.
	RateLimiterCleanupInterval = 5 * time.Minute
)

// Rescrape schedule
const (
	// RescrapeHour is the local hour (Europe/Athens) of the nightly rescrape.
	RescrapeHour = 3

	// RescrapeTimeout bounds one full scrape of every source page.
	RescrapeTimeout = 20 * time.Minute
)

// Graceful shutdown
const (
	// GracefulShutdown is the timeout for graceful server shutdown.
	// Allows in-flight requests to complete before forceful termination.
	GracefulShutdown = 30 * time.Second
)
