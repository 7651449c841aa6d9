// Package stringutil provides common string manipulation utilities.
package stringutil

import "strings"

// IsNumeric checks if a string contains only digits.
// Returns false for empty strings.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// CollapseSpaces trims s and folds every run of whitespace into a single
// space. Scraped HTML text arrives with non-breaking spaces, tabs and
// newlines from the page layout; they all count as whitespace here.
//
// Example:
//
//	CollapseSpaces("  Βαρλάμης  Ηρακλής\n") returns "Βαρλάμης Ηρακλής"
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateRunes shortens s to at most max runes, replacing the tail with a
// single ellipsis rune when truncation happens. Returns s unchanged when it
// already fits. max must be at least 1.
//
// Rune counting matters: Greek text is two bytes per letter in UTF-8, and
// card title limits are counted in characters, not bytes.
func TruncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}

// FirstNonEmpty returns the first argument that is not empty after
// trimming whitespace, or "" if none qualifies. Used when scraped pages
// publish the same field in several places of varying quality.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
