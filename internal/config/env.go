// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Core (Required)
	EnvPageAccessToken = "HUA_FB_PAGE_ACCESS_TOKEN"
	EnvAppSecret       = "HUA_FB_APP_SECRET"
	EnvVerifyToken     = "HUA_FB_VERIFY_TOKEN"

	// Graph API
	EnvGraphAPIBaseURL = "HUA_GRAPH_API_BASE_URL"

	// Server
	EnvPort            = "HUA_PORT"
	EnvLogLevel        = "HUA_LOG_LEVEL"
	EnvShutdownTimeout = "HUA_SHUTDOWN_TIMEOUT"
	EnvInstanceID      = "HUA_INSTANCE_ID"

	// Data
	EnvDataDir  = "HUA_DATA_DIR"
	EnvCacheTTL = "HUA_CACHE_TTL"

	// Scraper
	EnvScraperTimeout    = "HUA_SCRAPER_TIMEOUT"
	EnvScraperMaxRetries = "HUA_SCRAPER_MAX_RETRIES"
	EnvScraperBaseURL    = "HUA_SCRAPER_BASE_URL"

	// Webhook
	EnvWebhookTimeout = "HUA_WEBHOOK_TIMEOUT"

	// Rate Limits
	EnvGlobalRateRPS  = "HUA_GLOBAL_RATE_RPS"
	EnvUserRateBurst  = "HUA_USER_RATE_BURST"
	EnvUserRateRefill = "HUA_USER_RATE_REFILL"

	// Background Tasks
	EnvDataRefreshInterval    = "HUA_DATA_REFRESH_INTERVAL"
	EnvDataCleanupInterval    = "HUA_DATA_CLEANUP_INTERVAL"
	EnvR2SnapshotPollInterval = "HUA_R2_SNAPSHOT_POLL_INTERVAL"

	// R2 Snapshot Feature
	EnvR2Enabled         = "HUA_R2_ENABLED"
	EnvR2AccountID       = "HUA_R2_ACCOUNT_ID"
	EnvR2AccessKeyID     = "HUA_R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "HUA_R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "HUA_R2_BUCKET_NAME"
	EnvR2SnapshotKey     = "HUA_R2_SNAPSHOT_KEY"
	EnvR2LockKey         = "HUA_R2_LOCK_KEY"
	EnvR2LockTTL         = "HUA_R2_LOCK_TTL"
	EnvR2DeltaPrefix     = "HUA_R2_DELTA_PREFIX"

	// Sentry Feature (Better Stack Errors)
	EnvSentryToken       = "HUA_SENTRY_TOKEN"
	EnvSentryHost        = "HUA_SENTRY_HOST"
	EnvSentryEnvironment = "HUA_SENTRY_ENVIRONMENT"
	EnvSentryRelease     = "HUA_SENTRY_RELEASE"
	EnvSentrySampleRate  = "HUA_SENTRY_SAMPLE_RATE"

	// Better Stack Logs Feature
	EnvBetterStackToken    = "HUA_BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "HUA_BETTERSTACK_ENDPOINT"

	// Metrics Auth Feature
	EnvMetricsUsername = "HUA_METRICS_USERNAME"
	EnvMetricsPassword = "HUA_METRICS_PASSWORD"
)
