package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNew(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	if m == nil {
		t.Fatal("New() returned nil")
	}

	// Verify all metric fields are initialized
	if m.ScraperRequestsTotal == nil {
		t.Error("ScraperRequestsTotal is nil")
	}
	if m.ScraperDurationSeconds == nil {
		t.Error("ScraperDurationSeconds is nil")
	}
	if m.CacheHitsTotal == nil {
		t.Error("CacheHitsTotal is nil")
	}
	if m.CacheMissesTotal == nil {
		t.Error("CacheMissesTotal is nil")
	}
	if m.WebhookDurationSeconds == nil {
		t.Error("WebhookDurationSeconds is nil")
	}
	if m.WebhookRequestsTotal == nil {
		t.Error("WebhookRequestsTotal is nil")
	}
	if m.SendRequestsTotal == nil {
		t.Error("SendRequestsTotal is nil")
	}
	if m.SendDurationSeconds == nil {
		t.Error("SendDurationSeconds is nil")
	}
	if m.ResolveMatchesTotal == nil {
		t.Error("ResolveMatchesTotal is nil")
	}
	if m.HTTPErrorsTotal == nil {
		t.Error("HTTPErrorsTotal is nil")
	}
	if m.ScrapeDataIntegrity == nil {
		t.Error("ScrapeDataIntegrity is nil")
	}
	if m.RateLimiterDropped == nil {
		t.Error("RateLimiterDropped is nil")
	}
	if m.SnapshotSyncTotal == nil {
		t.Error("SnapshotSyncTotal is nil")
	}
	if m.RescrapeDuration == nil {
		t.Error("RescrapeDuration is nil")
	}
	if m.RescrapeRecordsLoaded == nil {
		t.Error("RescrapeRecordsLoaded is nil")
	}
}

func TestRecordScraperRequest(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	// Should not panic
	m.RecordScraperRequest("professor", "success", 1.5)
	m.RecordScraperRequest("course", "error", 2.0)
	m.RecordScraperRequest("contact", "timeout", 120.0)
}

func TestRecordCacheHit(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	// Should not panic
	m.RecordCacheHit("professor")
	m.RecordCacheHit("course")
	m.RecordCacheHit("contact")
}

func TestRecordCacheMiss(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	// Should not panic
	m.RecordCacheMiss("professor")
	m.RecordCacheMiss("course")
	m.RecordCacheMiss("contact")
}

func TestRecordWebhook(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	// Should not panic
	m.RecordWebhook("message", "success", 0.5)
	m.RecordWebhook("postback", "error", 1.0)
	m.RecordWebhook("referral", "success", 0.1)
}

func TestRecordSend(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	// Should not panic
	m.RecordSend("text", "success", 0.2)
	m.RecordSend("carousel", "success", 0.4)
	m.RecordSend("sender_action", "error", 5.0)
}

func TestRecordResolveMatch(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	// Should not panic
	m.RecordResolveMatch("professor", "exact_last")
	m.RecordResolveMatch("professor", "fuzzy")
	m.RecordResolveMatch("course", "none")
}

func TestRecordHTTPError(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	// Should not panic
	m.RecordHTTPError("timeout", "webhook")
	m.RecordHTTPError("rate_limit", "scraper")
	m.RecordHTTPError("invalid_signature", "webhook")
}

func TestRecordIntegrityIssue(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	// Should not panic
	m.RecordIntegrityIssue("missing_email")
	m.RecordIntegrityIssue("empty_name")
	m.RecordIntegrityIssue("bad_course_code")
}

func TestRecordRateLimiterDrop(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	// Should not panic
	m.RecordRateLimiterDrop("user")
	m.RecordRateLimiterDrop("global")
}

func TestRecordSnapshotSync(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	// Should not panic
	m.RecordSnapshotSync("upload", "success", 3.2)
	m.RecordSnapshotSync("download", "error", 10.0)
	m.RecordSnapshotSync("download", "skipped", 0.1)
}

func TestRecordRescrape(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	// Should not panic
	m.RecordRescrapeDuration(60.0)
	m.RecordRescrapeDuration(300.0)
	m.RecordRescrapeRecords("professors", 42)
	m.RecordRescrapeRecords("courses", 120)
}

func TestMetrics_WithDefaultRegistry(t *testing.T) {
	// Test that metrics can be created with a new registry
	// without conflicting with default registry
	registry := prometheus.NewRegistry()
	m := New(registry)

	// Record some metrics
	m.RecordScraperRequest("test", "success", 1.0)
	m.RecordCacheHit("test")
	m.RecordWebhook("message", "success", 0.5)
	m.RecordSend("text", "success", 0.2)

	// Gather metrics to verify they were recorded
	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	// Should have metrics registered
	if len(metricFamilies) == 0 {
		t.Error("No metrics were gathered")
	}

	// Check for specific metric names
	expectedMetrics := map[string]bool{
		"hua_scraper_requests_total":   false,
		"hua_scraper_duration_seconds": false,
		"hua_cache_hits_total":         false,
		"hua_webhook_requests_total":   false,
		"hua_webhook_duration_seconds": false,
		"hua_send_requests_total":      false,
	}

	for _, mf := range metricFamilies {
		if _, ok := expectedMetrics[mf.GetName()]; ok {
			expectedMetrics[mf.GetName()] = true
		}
	}

	for name, found := range expectedMetrics {
		if !found {
			t.Errorf("Expected metric %q not found", name)
		}
	}
}
