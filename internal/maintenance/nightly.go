package maintenance

import "time"

// NextRun returns the next occurrence of hour:00 in loc strictly after
// now. The nightly rescrape uses it to land at 03:00 Athens time
// regardless of the server's own timezone, including across DST
// changes.
func NextRun(now time.Time, hour int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
