// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// server mode, webhook processing, scraping and cache settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Messenger Platform Configuration
	PageAccessToken string // Graph API page access token for sending messages
	AppSecret       string // App secret for X-Hub-Signature-256 verification
	VerifyToken     string // Token echoed back during the webhook GET handshake
	GraphAPIBaseURL string // Graph API base URL, overridable for tests

	// Metrics Authentication
	MetricsUsername string // Username for /metrics endpoint Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics endpoint Basic Auth (empty = no auth)

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration
	InstanceID      string // Distinguishes replicas in logs and R2 lock ownership

	// Better Stack log shipping (empty token = stdout only)
	BetterstackToken    string
	BetterstackEndpoint string

	// Sentry (Better Stack Errors)
	Sentry SentryConfig

	// Data Configuration
	DataDir  string        // Data directory for SQLite database
	CacheTTL time.Duration // TTL: absolute expiration for cache entries (default: 7 days)

	// Scraper Configuration
	ScraperTimeout    time.Duration
	ScraperMaxRetries int
	ScraperBaseURLs   map[string][]string

	// R2 snapshot sync (optional)
	R2 R2Config

	// Bot Configuration (embedded)
	Bot BotConfig
}

// SentryConfig holds error tracking configuration.
type SentryConfig struct {
	Token       string
	Host        string
	Environment string
	Release     string
	SampleRate  float64
}

// R2Config holds the optional snapshot sync settings. The feature is off
// unless Enabled is set, so single-instance deployments need none of it.
type R2Config struct {
	Enabled         bool
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	SnapshotKey     string
	LockKey         string
	DeltaPrefix     string
	LockTTL         time.Duration
	PollInterval    time.Duration
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// LoadForScrape reads configuration for the offline scrape tool, which
// talks to the department site and the database but never to the
// Messenger Platform, so no page credentials are required.
func LoadForScrape() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.validateData(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	bot, err := LoadBotConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		// Messenger Platform Configuration
		PageAccessToken: getEnv(EnvPageAccessToken, ""),
		AppSecret:       getEnv(EnvAppSecret, ""),
		VerifyToken:     getEnv(EnvVerifyToken, ""),
		GraphAPIBaseURL: getEnv(EnvGraphAPIBaseURL, "https://graph.facebook.com/v19.0"),

		// Metrics Authentication
		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),

		// Server Configuration
		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),
		InstanceID:      getEnv(EnvInstanceID, ""),

		// Better Stack log shipping
		BetterstackToken:    getEnv(EnvBetterStackToken, ""),
		BetterstackEndpoint: getEnv(EnvBetterStackEndpoint, ""),

		// Sentry
		Sentry: SentryConfig{
			Token:       getEnv(EnvSentryToken, ""),
			Host:        getEnv(EnvSentryHost, "errors.betterstack.com"),
			Environment: getEnv(EnvSentryEnvironment, "production"),
			Release:     getEnv(EnvSentryRelease, ""),
			SampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),
		},

		// Data Configuration
		DataDir:  getEnv(EnvDataDir, getDefaultDataDir()),
		CacheTTL: getDurationEnv(EnvCacheTTL, 168*time.Hour), // TTL: 7 days

		// Scraper Configuration
		ScraperTimeout:    getDurationEnv(EnvScraperTimeout, ScraperRequest),
		ScraperMaxRetries: getIntEnv(EnvScraperMaxRetries, 10), // Max 10 retries with exponential backoff
		// The department site is the single source for every scraped page.
		// List-valued to allow mirrors, the way the rest of the scraper
		// expects candidate URLs in fallback order.
		ScraperBaseURLs: map[string][]string{
			"dit": {getEnv(EnvScraperBaseURL, "https://dit.hua.gr")},
		},

		// R2 snapshot sync
		R2: R2Config{
			Enabled:         getBoolEnv(EnvR2Enabled, false),
			AccountID:       getEnv(EnvR2AccountID, ""),
			AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
			SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
			Bucket:          getEnv(EnvR2BucketName, ""),
			SnapshotKey:     getEnv(EnvR2SnapshotKey, "snapshots/hua.db.zst"),
			LockKey:         getEnv(EnvR2LockKey, "locks/scrape"),
			DeltaPrefix:     getEnv(EnvR2DeltaPrefix, "deltas/"),
			LockTTL:         getDurationEnv(EnvR2LockTTL, 15*time.Minute),
			PollInterval:    getDurationEnv(EnvR2SnapshotPollInterval, 5*time.Minute),
		},

		// Bot Configuration
		Bot: *bot,
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.PageAccessToken == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvPageAccessToken))
	}
	if c.AppSecret == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvAppSecret))
	}
	if c.VerifyToken == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvVerifyToken))
	}
	if c.Port == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvPort))
	}
	if err := c.Bot.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("bot config: %w", err))
	}
	if err := c.validateData(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// validateData covers the settings every binary needs, server or not.
func (c *Config) validateData() error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvDataDir))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvCacheTTL, c.CacheTTL))
	}
	if c.ScraperTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvScraperTimeout, c.ScraperTimeout))
	}
	if c.ScraperMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %d", EnvScraperMaxRetries, c.ScraperMaxRetries))
	}
	if c.R2.Enabled {
		if c.R2.AccountID == "" || c.R2.AccessKeyID == "" || c.R2.SecretAccessKey == "" || c.R2.Bucket == "" {
			errs = append(errs, errors.New("R2 sync enabled but credentials or bucket are missing"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getBoolEnv retrieves boolean environment variable with fallback to default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "hua.db")
}
