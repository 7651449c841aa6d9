package config

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// TestDataPlaceholders ensures scraped-data placeholder values stay stable.
// Stored rows reference them literally, so changing either is a migration.
func TestDataPlaceholders(t *testing.T) {
	if UnsupportedFieldValue != "Δεν υποστηρίζεται" {
		t.Errorf("UnsupportedFieldValue = %q, want %q", UnsupportedFieldValue, "Δεν υποστηρίζεται")
	}

	if !strings.HasPrefix(SyntheticEmailDomain, "@") {
		t.Errorf("SyntheticEmailDomain = %q, should start with '@'", SyntheticEmailDomain)
	}
	if strings.ContainsAny(SyntheticEmailDomain[1:], "@ ") {
		t.Errorf("SyntheticEmailDomain = %q contains invalid characters", SyntheticEmailDomain)
	}
}

// TestSharedMessages ensures messages are non-empty and well-formed
func TestSharedMessages(t *testing.T) {
	messages := map[string]string{
		"FallbackMessage":            FallbackMessage,
		"NotProvidedBySiteMessage":   NotProvidedBySiteMessage,
		"SnapshotUnavailableMessage": SnapshotUnavailableMessage,
		"RateLimitedMessage":         RateLimitedMessage,
		"TryAgainSuffix":             TryAgainSuffix,
	}

	for name, msg := range messages {
		if msg == "" {
			t.Errorf("%s should not be empty", name)
		}
		// Check minimum length (messages should be informative)
		if utf8.RuneCountInString(msg) < 10 {
			t.Errorf("%s = %q is too short, should be more informative", name, msg)
		}
		if !utf8.ValidString(msg) {
			t.Errorf("%s is not valid UTF-8", name)
		}
	}
}

// TestMessagesFitMessengerLimit ensures every canned message can be sent
// as a single text message without chunking.
func TestMessagesFitMessengerLimit(t *testing.T) {
	messages := []string{
		FallbackMessage,
		NotProvidedBySiteMessage,
		SnapshotUnavailableMessage,
		RateLimitedMessage,
		TryAgainSuffix,
	}

	for _, msg := range messages {
		if n := utf8.RuneCountInString(msg); n > MessengerMaxTextLength {
			t.Errorf("message %q is %d runes, exceeds limit %d", msg, n, MessengerMaxTextLength)
		}
	}
}
