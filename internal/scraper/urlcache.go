package scraper

import (
	"context"
	"fmt"
	"sync/atomic"
)

// URLCache caches the working base URL for one domain. Reads are lock-free;
// a cache miss runs failover detection once and stores the winner. Clear it
// after a scrape error to force re-detection on the next call.
type URLCache struct {
	client *Client
	domain string
	cache  atomic.Value // stores string
}

// NewURLCache creates a new URL cache for a specific domain.
// Domain must be registered in Client.baseURLs (e.g., "dit").
func NewURLCache(client *Client, domain string) *URLCache {
	return &URLCache{
		client: client,
		domain: domain,
	}
}

// Get returns the cached working URL, detecting one first if the cache is
// empty or was cleared.
func (c *URLCache) Get(ctx context.Context) (string, error) {
	if cached := c.cache.Load(); cached != nil {
		if url, ok := cached.(string); ok && url != "" {
			return url, nil
		}
	}

	baseURL, err := c.client.TryFailoverURLs(ctx, c.domain)
	if err != nil {
		// Fall back to the first configured URL if detection fails
		urls := c.client.GetBaseURLs(c.domain)
		if len(urls) > 0 {
			baseURL = urls[0]
		} else {
			return "", fmt.Errorf("no URLs available for domain %s: %w", c.domain, err)
		}
	}

	c.cache.Store(baseURL)
	return baseURL, nil
}

// Clear invalidates the cached URL, forcing re-detection on next Get().
func (c *URLCache) Clear() {
	c.cache.Store("")
}

// GetCached returns the cached URL without triggering failover detection.
// Returns empty string if the cache is empty.
func (c *URLCache) GetCached() string {
	if cached := c.cache.Load(); cached != nil {
		if url, ok := cached.(string); ok {
			return url
		}
	}
	return ""
}
