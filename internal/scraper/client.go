package scraper

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/corpix/uarand"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Default pacing against dit.hua.gr. The site is a small Joomla install
// serving the whole department, so the scraper stays polite: small bursts,
// multi-second gaps between requests.
const (
	defaultWorkers  = 3
	defaultMinDelay = 2 * time.Second
	defaultMaxDelay = 5 * time.Second

	retryInitialDelay = 4 * time.Second
	retryMaxDelay     = 60 * time.Second
)

// Client is an HTTP client for web scraping with rate limiting and URL failover
type Client struct {
	httpClient  *http.Client
	rateLimiter *RateLimiter
	maxRetries  int
	retryDelay  time.Duration
	retryCap    time.Duration
	baseURLs    map[string][]string // Base URLs for failover by domain
	mu          sync.RWMutex
}

// NewClient creates a new scraper client with URL failover support.
// baseURLs maps a domain key (e.g. "dit") to candidate base URLs in
// fallback order.
func NewClient(timeout time.Duration, maxRetries int, baseURLs map[string][]string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		rateLimiter: NewRateLimiter(defaultWorkers, defaultMinDelay, defaultMaxDelay),
		maxRetries:  maxRetries,
		retryDelay:  retryInitialDelay,
		retryCap:    retryMaxDelay,
		baseURLs:    baseURLs,
	}
}

// Get performs a GET request with rate limiting and retries
// Caller is responsible for closing the response body
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	var resp *http.Response
	var lastErr error

	// Retry with exponential backoff
	err := RetryWithBackoff(ctx, c.maxRetries, c.retryDelay, c.retryCap, func() error {
		// Wait for rate limiter
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return err
		}

		// Create request
		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		// Set random User-Agent
		req.Header.Set("User-Agent", uarand.GetRandom())
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "el-GR,el;q=0.9,en-US;q=0.8,en;q=0.7")
		req.Header.Set("Accept-Encoding", "gzip, deflate")

		// Perform request
		resp, err = c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			return lastErr
		}

		// Check status code
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			// Close body for non-success responses since we won't return it
			_ = resp.Body.Close()

			scrapeErr := &ScrapeError{URL: url, StatusCode: resp.StatusCode}
			switch resp.StatusCode {
			case 404, 403, 401: // Client errors - don't retry
				return Permanent(scrapeErr)
			default: // 429 and server errors - retry with backoff
				lastErr = scrapeErr
				return lastErr
			}
		}

		// Success - caller must close response body
		return nil
	})

	if err != nil {
		return nil, err
	}

	return resp, nil
}

// GetDocument performs a GET request and parses the response as HTML
func (c *Client) GetDocument(ctx context.Context, url string) (*goquery.Document, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	// Handle gzip encoding
	var reader io.Reader
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress gzip: %w", err)
		}
		defer func() { _ = gzipReader.Close() }()
		reader = gzipReader
	} else {
		reader = resp.Body
	}

	// Older pages on Greek university sites still declare legacy encodings
	contentType := strings.ToUpper(resp.Header.Get("Content-Type"))
	switch {
	case strings.Contains(contentType, "WINDOWS-1253"):
		reader = transform.NewReader(reader, charmap.Windows1253.NewDecoder())
	case strings.Contains(contentType, "ISO-8859-7"):
		reader = transform.NewReader(reader, charmap.ISO8859_7.NewDecoder())
	}

	// Parse HTML from reader
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return doc, nil
}

// TryFailoverURLs attempts to use alternative base URLs when primary URL fails
// Returns the working URL or empty string if all URLs failed
func (c *Client) TryFailoverURLs(ctx context.Context, domain string) (string, error) {
	c.mu.RLock()
	urls, exists := c.baseURLs[domain]
	c.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("no failover URLs configured for domain: %s", domain)
	}

	// Try each URL
	for _, baseURL := range urls {
		// Simple HEAD request to check if URL is accessible
		req, err := http.NewRequestWithContext(ctx, "HEAD", baseURL, nil)
		if err != nil {
			continue
		}

		req.Header.Set("User-Agent", uarand.GetRandom())

		resp, err := c.httpClient.Do(req)
		if err != nil {
			continue
		}
		_ = resp.Body.Close()

		if resp.StatusCode < 500 {
			// URL is accessible
			return baseURL, nil
		}
	}

	return "", fmt.Errorf("all failover URLs failed for domain: %s", domain)
}

// GetBaseURLs returns the list of base URLs for a domain
func (c *Client) GetBaseURLs(domain string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	urls, exists := c.baseURLs[domain]
	if !exists {
		return nil
	}

	// Return a copy to prevent external modification
	result := make([]string, len(urls))
	copy(result, urls)
	return result
}
