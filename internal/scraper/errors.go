package scraper

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// permanentError marks an error that must not be retried (e.g., 404/403/401).
// RetryWithBackoff unwraps it and returns the underlying error immediately.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so RetryWithBackoff stops retrying and returns the
// underlying error as-is. Wrapping nil returns nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// ScrapeError reports a fetch of a source page that came back with a
// non-success HTTP status.
type ScrapeError struct {
	URL        string
	StatusCode int
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("scrape %s: status %d", e.URL, e.StatusCode)
}

// IsNetworkError reports whether err looks like a transient network or
// server problem worth a failover attempt. Permanent client errors
// (404/403/401) return false.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}

	// Permanent errors were already classified as non-retryable
	var permErr *permanentError
	if errors.As(err, &permErr) {
		return false
	}

	var scrapeErr *ScrapeError
	if errors.As(err, &scrapeErr) {
		return scrapeErr.StatusCode == 429 || scrapeErr.StatusCode >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := err.Error()
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"no such host",
		"server error",
		"rate limited",
		"unexpected EOF",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}

	return false
}
