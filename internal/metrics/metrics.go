package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Scraper metrics
	ScraperRequestsTotal   *prometheus.CounterVec
	ScraperDurationSeconds *prometheus.HistogramVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Webhook metrics
	WebhookDurationSeconds *prometheus.HistogramVec
	WebhookRequestsTotal   *prometheus.CounterVec

	// Send API metrics
	SendRequestsTotal   *prometheus.CounterVec
	SendDurationSeconds *prometheus.HistogramVec

	// Resolver metrics
	ResolveMatchesTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Data integrity metrics
	ScrapeDataIntegrity *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterWaitDuration *prometheus.HistogramVec
	RateLimiterDropped      *prometheus.CounterVec
	RateLimiterActiveKeys   *prometheus.GaugeVec

	// Singleflight metrics
	SingleflightDedupTotal *prometheus.CounterVec

	// Snapshot sync metrics
	SnapshotSyncTotal     *prometheus.CounterVec
	SnapshotSyncDuration  *prometheus.HistogramVec
	RescrapeDuration      prometheus.Histogram
	RescrapeRecordsLoaded *prometheus.GaugeVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// Scraper metrics
		ScraperRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hua_scraper_requests_total",
				Help: "Total number of scraper requests by module and status",
			},
			[]string{"module", "status"}, // status: success, error, timeout, not_found
		),

		ScraperDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hua_scraper_duration_seconds",
				Help:    "Scraper request duration in seconds by module",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60}, // Matches 60s timeout + backoff
			},
			[]string{"module"}, // module: professor, course, facility, service, contact
		),

		// Cache metrics
		CacheHitsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hua_cache_hits_total",
				Help: "Total number of cache hits by module",
			},
			[]string{"module"},
		),

		CacheMissesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hua_cache_misses_total",
				Help: "Total number of cache misses by module",
			},
			[]string{"module"},
		),

		// Webhook metrics
		WebhookDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hua_webhook_duration_seconds",
				Help:    "Webhook event processing duration in seconds by event type",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5}, // Faster buckets for webhook
			},
			[]string{"event_type"}, // event_type: message, postback, referral
		),

		WebhookRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hua_webhook_requests_total",
				Help: "Total number of webhook events by event type and status",
			},
			[]string{"event_type", "status"}, // status: success, error
		),

		// Send API metrics
		SendRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hua_send_requests_total",
				Help: "Total number of Graph API send calls by message type and status",
			},
			[]string{"message_type", "status"}, // message_type: text, carousel, sender_action
		),

		SendDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hua_send_duration_seconds",
				Help:    "Graph API send call duration in seconds by message type",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15}, // Matches 15s send timeout
			},
			[]string{"message_type"},
		),

		// Resolver metrics
		ResolveMatchesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hua_resolve_matches_total",
				Help: "Total number of name resolutions by module and winning match tier",
			},
			[]string{"module", "tier"}, // tier: exact_last, exact_first, exact_full, substring, fuzzy, none
		),

		// HTTP metrics
		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hua_http_errors_total",
				Help: "Total HTTP errors by type and module",
			},
			[]string{"error_type", "module"}, // error_type: timeout, rate_limit, invalid_signature, etc.
		),

		// Data integrity metrics
		ScrapeDataIntegrity: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hua_scrape_data_integrity_issues_total",
				Help: "Total number of scraped data integrity issues detected",
			},
			[]string{"issue_type"}, // issue_type: missing_email, empty_name, bad_course_code, etc.
		),

		// Rate limiter metrics
		RateLimiterWaitDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hua_rate_limiter_wait_duration_seconds",
				Help:    "Time spent waiting for rate limiter token by limiter type",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5}, // 1ms to 5s
			},
			[]string{"limiter_type"}, // limiter_type: scraper, user, global
		),

		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hua_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: user, global
		),

		RateLimiterActiveKeys: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hua_rate_limiter_active_keys",
				Help: "Number of per-key limiters currently tracked by limiter type",
			},
			[]string{"limiter_type"},
		),

		// Singleflight metrics
		SingleflightDedupTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hua_singleflight_dedup_total",
				Help: "Total number of deduplicated requests (requests that waited instead of executing)",
			},
			[]string{"module"},
		),

		// Snapshot sync metrics
		SnapshotSyncTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hua_snapshot_sync_total",
				Help: "Total number of R2 snapshot operations by direction and status",
			},
			[]string{"direction", "status"}, // direction: upload, download; status: success, error, skipped
		),

		SnapshotSyncDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hua_snapshot_sync_duration_seconds",
				Help:    "R2 snapshot operation duration in seconds by direction",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"direction"},
		),

		RescrapeDuration: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hua_rescrape_duration_seconds",
				Help:    "Total duration of a full site rescrape",
				Buckets: []float64{10, 30, 60, 120, 300, 600, 900, 1800}, // 10s to 30min
			},
		),

		RescrapeRecordsLoaded: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hua_rescrape_records_loaded",
				Help: "Number of records loaded by the last rescrape by table",
			},
			[]string{"table"}, // table: professors, courses, facilities, services, contacts
		),
	}

	return m
}

// RecordScraperRequest records a scraper request with status
func (m *Metrics) RecordScraperRequest(module, status string, duration float64) {
	m.ScraperRequestsTotal.WithLabelValues(module, status).Inc()
	m.ScraperDurationSeconds.WithLabelValues(module).Observe(duration)
}

// RecordCacheHit records a cache hit
func (m *Metrics) RecordCacheHit(module string) {
	m.CacheHitsTotal.WithLabelValues(module).Inc()
}

// RecordCacheMiss records a cache miss
func (m *Metrics) RecordCacheMiss(module string) {
	m.CacheMissesTotal.WithLabelValues(module).Inc()
}

// RecordWebhook records a processed webhook event
func (m *Metrics) RecordWebhook(eventType, status string, duration float64) {
	m.WebhookRequestsTotal.WithLabelValues(eventType, status).Inc()
	m.WebhookDurationSeconds.WithLabelValues(eventType).Observe(duration)
}

// RecordSend records a Graph API send call
func (m *Metrics) RecordSend(messageType, status string, duration float64) {
	m.SendRequestsTotal.WithLabelValues(messageType, status).Inc()
	m.SendDurationSeconds.WithLabelValues(messageType).Observe(duration)
}

// RecordResolveMatch records the winning tier of a name resolution
func (m *Metrics) RecordResolveMatch(module, tier string) {
	m.ResolveMatchesTotal.WithLabelValues(module, tier).Inc()
}

// RecordHTTPError records HTTP error metrics
func (m *Metrics) RecordHTTPError(errorType, module string) {
	m.HTTPErrorsTotal.WithLabelValues(errorType, module).Inc()
}

// RecordIntegrityIssue records a scraped data integrity issue
func (m *Metrics) RecordIntegrityIssue(issueType string) {
	m.ScrapeDataIntegrity.WithLabelValues(issueType).Inc()
}

// RecordRateLimiterWait records time spent waiting for rate limiter
func (m *Metrics) RecordRateLimiterWait(limiterType string, duration float64) {
	m.RateLimiterWaitDuration.WithLabelValues(limiterType).Observe(duration)
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// SetRateLimiterActiveKeys records how many per-key limiters are tracked
func (m *Metrics) SetRateLimiterActiveKeys(limiterType string, count float64) {
	m.RateLimiterActiveKeys.WithLabelValues(limiterType).Set(count)
}

// RecordSingleflightDedup records a deduplicated request
func (m *Metrics) RecordSingleflightDedup(module string) {
	m.SingleflightDedupTotal.WithLabelValues(module).Inc()
}

// RecordSnapshotSync records an R2 snapshot operation
func (m *Metrics) RecordSnapshotSync(direction, status string, duration float64) {
	m.SnapshotSyncTotal.WithLabelValues(direction, status).Inc()
	m.SnapshotSyncDuration.WithLabelValues(direction).Observe(duration)
}

// RecordRescrapeDuration records total duration of a full rescrape
func (m *Metrics) RecordRescrapeDuration(duration float64) {
	m.RescrapeDuration.Observe(duration)
}

// RecordRescrapeRecords records how many rows the last rescrape loaded
func (m *Metrics) RecordRescrapeRecords(table string, count float64) {
	m.RescrapeRecordsLoaded.WithLabelValues(table).Set(count)
}
