// Package main provides the Messenger bot server entry point.
package main

import (
	"context"
	"time"

	"github.com/huahelper/hua-messengerbot-go/internal/config"
	"github.com/huahelper/hua-messengerbot-go/internal/delta"
	"github.com/huahelper/hua-messengerbot-go/internal/logger"
	"github.com/huahelper/hua-messengerbot-go/internal/maintenance"
	"github.com/huahelper/hua-messengerbot-go/internal/metrics"
	"github.com/huahelper/hua-messengerbot-go/internal/scraper"
	"github.com/huahelper/hua-messengerbot-go/internal/search"
	"github.com/huahelper/hua-messengerbot-go/internal/snapshot"
	"github.com/huahelper/hua-messengerbot-go/internal/storage"
	"github.com/huahelper/hua-messengerbot-go/internal/warmup"
)

// expiringTables lists the tables whose rows carry a cached_at TTL.
// Ratings are user content and never expire.
var expiringTables = []string{
	"professors", "courses", "facilities", "student_services", "eplatforms", "contacts",
}

// cleanupExpiredData periodically removes rows whose TTL has lapsed.
func cleanupExpiredData(ctx context.Context, db *storage.DB, ttl time.Duration, m *metrics.Metrics, log *logger.Logger) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(config.CacheCleanupInitialDelay):
		performCleanup(ctx, db, ttl, m, log)
	}

	ticker := time.NewTicker(config.CacheCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			performCleanup(ctx, db, ttl, m, log)
		}
	}
}

func performCleanup(ctx context.Context, db *storage.DB, ttl time.Duration, m *metrics.Metrics, log *logger.Logger) {
	log.Info("Starting data cleanup")

	var totalDeleted int64
	for _, table := range expiringTables {
		deleted, err := db.DeleteExpired(ctx, table, ttl)
		if err != nil {
			log.WithError(err).WithField("table", table).Error("Failed to cleanup expired rows")
			continue
		}
		totalDeleted += deleted
		if deleted > 0 {
			log.WithField("table", table).WithField("deleted", deleted).Debug("Expired rows removed")
		}
	}

	if totalDeleted > 0 {
		if _, err := db.Conn().ExecContext(ctx, "VACUUM"); err != nil {
			log.WithError(err).Warn("Failed to vacuum database")
		}
	}

	updateTableGauges(ctx, db, m, log)
	log.WithField("total_deleted", totalDeleted).Info("Data cleanup complete")
}

// rescrapeDeps bundles what the nightly rescrape needs. The three R2
// fields are nil on single-instance deployments, which disables leader
// gating, snapshot upload and the changelog but not the rescrape itself.
type rescrapeDeps struct {
	db            *storage.DB
	client        *scraper.Client
	urls          *scraper.URLCache
	index         *search.CourseIndex
	metrics       *metrics.Metrics
	logger        *logger.Logger
	snapshotMgr   *snapshot.Manager
	scheduleStore *maintenance.R2ScheduleStore
	changeLog     *delta.ChangeLog
}

// nightlyRescrape refreshes every source once a day at 03:00 Athens
// time, when the department site is idle. The target time is
// recomputed each cycle so DST transitions cannot drift the schedule.
func nightlyRescrape(ctx context.Context, deps rescrapeDeps) {
	loc, err := time.LoadLocation("Europe/Athens")
	if err != nil {
		deps.logger.WithError(err).Warn("Athens timezone unavailable, scheduling rescrape in UTC")
		loc = time.UTC
	}

	for {
		next := maintenance.NextRun(time.Now(), config.RescrapeHour, loc)
		deps.logger.WithField("next_run", next.Format(time.RFC3339)).Debug("Nightly rescrape scheduled")

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
			performRescrape(ctx, deps)
		}
	}
}

func performRescrape(ctx context.Context, deps rescrapeDeps) {
	log := deps.logger

	// With R2 enabled, exactly one replica runs the scrape and the rest
	// pick up its snapshot through polling.
	if deps.snapshotMgr != nil {
		if done, err := rescrapeDoneToday(ctx, deps); err != nil {
			log.WithError(err).Warn("Failed to load schedule state, rescraping anyway")
		} else if done {
			log.Info("Rescrape already done today by another instance")
			return
		}

		acquired, err := deps.snapshotMgr.AcquireLeaderLock(ctx)
		if err != nil {
			log.WithError(err).Error("Failed to acquire rescrape leader lock")
			return
		}
		if !acquired {
			log.Info("Another instance holds the rescrape lock")
			return
		}
		defer func() {
			if err := deps.snapshotMgr.ReleaseLeaderLock(context.WithoutCancel(ctx)); err != nil {
				log.WithError(err).Warn("Failed to release rescrape leader lock")
			}
		}()
	}

	log.Info("Starting nightly rescrape")
	startedAt := time.Now()

	before, err := deps.db.CountAll(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to count tables before rescrape")
	}

	runCtx, cancel := context.WithTimeout(ctx, config.RescrapeTimeout)
	_, runErr := warmup.Run(runCtx, deps.db, deps.client, deps.urls, log, warmup.Options{
		Force:   true,
		Metrics: deps.metrics,
		Index:   deps.index,
	})
	cancel()
	if runErr != nil {
		log.WithError(runErr).Warn("Nightly rescrape finished with errors")
	}

	after, err := deps.db.CountAll(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to count tables after rescrape")
	}

	if deps.changeLog != nil {
		rec := delta.Record{StartedAt: startedAt.Unix(), FinishedAt: time.Now().Unix()}
		if runErr != nil {
			rec.Errors = append(rec.Errors, runErr.Error())
		}
		rec.Tables = make(map[string]delta.TableDelta, len(after))
		for table, count := range after {
			rec.Tables[table] = delta.TableDelta{Before: before[table], After: count}
		}
		if err := deps.changeLog.Append(ctx, rec); err != nil {
			log.WithError(err).Warn("Failed to append scrape changelog record")
		}
	}

	if deps.snapshotMgr != nil && runErr == nil {
		if etag, err := deps.snapshotMgr.UploadSnapshot(ctx, deps.db); err != nil {
			log.WithError(err).Error("Failed to upload snapshot after rescrape")
		} else {
			log.WithField("etag", etag).Info("Snapshot uploaded after rescrape")
		}
	}

	if deps.scheduleStore != nil && runErr == nil {
		if err := deps.scheduleStore.Update(ctx, func(s *maintenance.State) {
			s.LastRescrape = time.Now().Unix()
		}); err != nil {
			log.WithError(err).Warn("Failed to record rescrape in schedule state")
		}
	}

	log.WithField("duration", time.Since(startedAt)).Info("Nightly rescrape complete")
}

// rescrapeDoneToday reports whether the shared schedule state already
// records a rescrape for the current Athens day.
func rescrapeDoneToday(ctx context.Context, deps rescrapeDeps) (bool, error) {
	state, _, found, err := deps.scheduleStore.Load(ctx)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	loc, err := time.LoadLocation("Europe/Athens")
	if err != nil {
		loc = time.UTC
	}
	now := time.Now().In(loc)
	last := time.Unix(state.LastRescrape, 0).In(loc)
	return last.Year() == now.Year() && last.YearDay() == now.YearDay(), nil
}

// updateTableSizeMetrics keeps the per-table row gauges current.
func updateTableSizeMetrics(ctx context.Context, db *storage.DB, m *metrics.Metrics, log *logger.Logger) {
	ticker := time.NewTicker(config.MetricsUpdateInterval)
	defer ticker.Stop()

	updateTableGauges(ctx, db, m, log)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateTableGauges(ctx, db, m, log)
		}
	}
}

func updateTableGauges(ctx context.Context, db *storage.DB, m *metrics.Metrics, log *logger.Logger) {
	counts, err := db.CountAll(ctx)
	if err != nil {
		log.WithError(err).Debug("Failed to count tables for metrics")
		return
	}
	for table, count := range counts {
		m.RecordRescrapeRecords(table, float64(count))
	}
}
