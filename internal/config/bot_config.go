// Package config provides centralized configuration management for bot modules.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Messenger Send API limits.
// https://developers.facebook.com/docs/messenger-platform/reference/templates/generic
const (
	// MessengerMaxCarouselCards is the generic template element limit.
	MessengerMaxCarouselCards = 10

	// MessengerMaxButtonsPerCard is the button limit per generic template element.
	MessengerMaxButtonsPerCard = 3

	// MessengerMaxTitleLength is the character limit for card titles.
	MessengerMaxTitleLength = 80

	// MessengerMaxSubtitleLength is the character limit for card subtitles.
	MessengerMaxSubtitleLength = 80

	// MessengerMaxTextLength is the character limit for a plain text message.
	MessengerMaxTextLength = 2000

	// MessengerMaxPostbackLength is the byte limit for postback payloads.
	MessengerMaxPostbackLength = 1000
)

// BotConfig centralizes all bot module configuration.
// This improves maintainability by keeping all constants in one place.
type BotConfig struct {
	// Webhook configuration
	WebhookTimeout      time.Duration
	MaxEventsPerWebhook int
	MaxMessageLength    int
	MaxPostbackDataSize int

	// Rate limiting configuration (token bucket)
	UserRateLimitBurst        float64
	UserRateLimitRefillPerSec float64
	GlobalRateLimitRPS        float64

	// Presentation limits
	MaxCardsPerCarousel int // cards sent per carousel reply
	TextFallbackResults int // results listed when falling back to plain text

	// Module limits
	MaxProfessorsPerSearch int
	MaxCoursesPerSearch    int
	MaxContactsPerSearch   int
}

// DefaultBotConfig returns default configuration values.
func DefaultBotConfig() *BotConfig {
	return &BotConfig{
		// Webhook
		WebhookTimeout:      WebhookProcessing,
		MaxEventsPerWebhook: 100,
		MaxMessageLength:    MessengerMaxTextLength,
		MaxPostbackDataSize: MessengerMaxPostbackLength,

		// Rate limiting
		UserRateLimitBurst:        6.0, // 6 tokens per sender
		UserRateLimitRefillPerSec: 0.2, // 1 token per 5 seconds
		GlobalRateLimitRPS:        80.0,

		// Presentation
		MaxCardsPerCarousel: MessengerMaxCarouselCards,
		TextFallbackResults: 3,

		// Module limits
		MaxProfessorsPerSearch: 50,
		MaxCoursesPerSearch:    40,
		MaxContactsPerSearch:   100,
	}
}

// LoadBotConfig loads configuration from environment variables.
// Falls back to defaults if environment variables are not set.
// Validates configuration before returning.
func LoadBotConfig() (*BotConfig, error) {
	cfg := DefaultBotConfig()

	if v := os.Getenv(EnvWebhookTimeout); v != "" {
		if val, err := time.ParseDuration(v); err == nil && val > 0 {
			cfg.WebhookTimeout = val
		}
	}

	if v := os.Getenv(EnvUserRateBurst); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil && val > 0 {
			cfg.UserRateLimitBurst = val
		}
	}

	if v := os.Getenv(EnvUserRateRefill); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil && val > 0 {
			cfg.UserRateLimitRefillPerSec = val
		}
	}

	if v := os.Getenv(EnvGlobalRateRPS); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil && val > 0 {
			cfg.GlobalRateLimitRPS = val
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
// Returns error describing validation failures.
func (c *BotConfig) Validate() error {
	if c.WebhookTimeout <= 0 {
		return fmt.Errorf("webhook timeout must be positive, got %v", c.WebhookTimeout)
	}

	if c.MaxEventsPerWebhook < 1 {
		return fmt.Errorf("max events per webhook must be positive, got %d", c.MaxEventsPerWebhook)
	}

	if c.MaxMessageLength < 1 || c.MaxMessageLength > MessengerMaxTextLength {
		return fmt.Errorf("max message length must be 1-%d, got %d", MessengerMaxTextLength, c.MaxMessageLength)
	}

	if c.MaxPostbackDataSize < 1 || c.MaxPostbackDataSize > MessengerMaxPostbackLength {
		return fmt.Errorf("max postback data size must be 1-%d, got %d", MessengerMaxPostbackLength, c.MaxPostbackDataSize)
	}

	if c.UserRateLimitBurst <= 0 {
		return fmt.Errorf("user rate limit burst must be positive, got %f", c.UserRateLimitBurst)
	}

	if c.UserRateLimitRefillPerSec <= 0 {
		return fmt.Errorf("user rate limit refill rate must be positive, got %f", c.UserRateLimitRefillPerSec)
	}

	if c.GlobalRateLimitRPS <= 0 {
		return fmt.Errorf("global rate limit RPS must be positive, got %f", c.GlobalRateLimitRPS)
	}

	if c.MaxCardsPerCarousel < 1 || c.MaxCardsPerCarousel > MessengerMaxCarouselCards {
		return fmt.Errorf("max cards per carousel must be 1-%d, got %d", MessengerMaxCarouselCards, c.MaxCardsPerCarousel)
	}

	if c.TextFallbackResults < 1 {
		return fmt.Errorf("text fallback results must be positive, got %d", c.TextFallbackResults)
	}

	if c.MaxProfessorsPerSearch < 1 {
		return fmt.Errorf("max professors per search must be positive, got %d", c.MaxProfessorsPerSearch)
	}

	if c.MaxCoursesPerSearch < 1 {
		return fmt.Errorf("max courses per search must be positive, got %d", c.MaxCoursesPerSearch)
	}

	if c.MaxContactsPerSearch < 1 {
		return fmt.Errorf("max contacts per search must be positive, got %d", c.MaxContactsPerSearch)
	}

	return nil
}
