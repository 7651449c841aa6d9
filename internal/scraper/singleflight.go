package scraper

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// ScrapeGroup collapses concurrent scrape requests for the same key into a
// single execution. The nightly rescrape and any manually triggered rescrape
// share one key, so overlapping triggers run the scrape once.
type ScrapeGroup struct {
	group singleflight.Group
}

// NewScrapeGroup creates a new scrape group
func NewScrapeGroup() *ScrapeGroup {
	return &ScrapeGroup{}
}

// Do executes a scraping operation with singleflight.
// Multiple concurrent calls for the same key only execute the function once;
// the others receive the shared result.
func (g *ScrapeGroup) Do(ctx context.Context, key string, fn func() (any, error)) (any, error) {
	result, err, _ := g.group.Do(key, func() (any, error) {
		// Check context before executing
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		return fn()
	})

	return result, err
}

// Forget removes a key from the group, allowing the next call to execute again
func (g *ScrapeGroup) Forget(key string) {
	g.group.Forget(key)
}
