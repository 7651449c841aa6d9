// Package main provides the Messenger bot server entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/huahelper/hua-messengerbot-go/internal/bot"
	"github.com/huahelper/hua-messengerbot-go/internal/bot/contact"
	"github.com/huahelper/hua-messengerbot-go/internal/bot/course"
	"github.com/huahelper/hua-messengerbot-go/internal/bot/facility"
	"github.com/huahelper/hua-messengerbot-go/internal/bot/professor"
	"github.com/huahelper/hua-messengerbot-go/internal/bot/rating"
	"github.com/huahelper/hua-messengerbot-go/internal/bot/service"
	"github.com/huahelper/hua-messengerbot-go/internal/bot/usage"
	"github.com/huahelper/hua-messengerbot-go/internal/config"
	"github.com/huahelper/hua-messengerbot-go/internal/delta"
	"github.com/huahelper/hua-messengerbot-go/internal/logger"
	"github.com/huahelper/hua-messengerbot-go/internal/maintenance"
	"github.com/huahelper/hua-messengerbot-go/internal/messenger"
	"github.com/huahelper/hua-messengerbot-go/internal/metrics"
	"github.com/huahelper/hua-messengerbot-go/internal/r2client"
	"github.com/huahelper/hua-messengerbot-go/internal/ratelimit"
	"github.com/huahelper/hua-messengerbot-go/internal/scraper"
	"github.com/huahelper/hua-messengerbot-go/internal/search"
	"github.com/huahelper/hua-messengerbot-go/internal/sentry"
	"github.com/huahelper/hua-messengerbot-go/internal/snapshot"
	"github.com/huahelper/hua-messengerbot-go/internal/storage"
	"github.com/huahelper/hua-messengerbot-go/internal/warmup"
	"github.com/huahelper/hua-messengerbot-go/internal/webhook"
)

// scheduleStateKey is the R2 object recording the last rescrape and
// cleanup runs, shared by every replica.
const scheduleStateKey = "state/maintenance.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewShipping(logger.ShipOptions{
		Level:               cfg.LogLevel,
		BetterstackToken:    cfg.BetterstackToken,
		BetterstackEndpoint: cfg.BetterstackEndpoint,
	})
	log.Info("Starting HUA Messenger bot server")

	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.Sentry.Token,
		Host:        cfg.Sentry.Host,
		Environment: cfg.Sentry.Environment,
		Release:     cfg.Sentry.Release,
		SampleRate:  cfg.Sentry.SampleRate,
	}); err != nil {
		log.WithError(err).Warn("Failed to initialize Sentry, error tracking disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())
	m := metrics.New(registry)

	// Optional R2 wiring: snapshot sync, shared schedule state and the
	// scrape changelog. Everything stays nil on single-instance setups.
	var (
		snapshotMgr   *snapshot.Manager
		scheduleStore *maintenance.R2ScheduleStore
		changeLog     *delta.ChangeLog
	)
	if cfg.R2.Enabled {
		r2, err := r2client.New(context.Background(), r2client.Config{
			Endpoint:    fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2.AccountID),
			AccessKeyID: cfg.R2.AccessKeyID,
			SecretKey:   cfg.R2.SecretAccessKey,
			BucketName:  cfg.R2.Bucket,
		})
		if err != nil {
			fatal(log, err, "Failed to create R2 client")
		}
		snapshotMgr = snapshot.New(r2, snapshot.Config{
			SnapshotKey:  cfg.R2.SnapshotKey,
			LockKey:      cfg.R2.LockKey,
			LockTTL:      cfg.R2.LockTTL,
			PollInterval: cfg.R2.PollInterval,
			TempDir:      cfg.DataDir,
		}, log, m)
		scheduleStore, err = maintenance.NewR2ScheduleStore(r2, scheduleStateKey, 10*time.Second)
		if err != nil {
			fatal(log, err, "Failed to create schedule store")
		}
		changeLog, err = delta.NewChangeLog(r2, cfg.R2.DeltaPrefix, cfg.InstanceID)
		if err != nil {
			fatal(log, err, "Failed to create scrape changelog")
		}

		// Start from the shared snapshot when there is no local database.
		if _, err := os.Stat(cfg.SQLitePath()); errors.Is(err, os.ErrNotExist) {
			if _, etag, err := snapshotMgr.DownloadSnapshot(context.Background(), cfg.DataDir); err != nil {
				if !errors.Is(err, snapshot.ErrNotFound) {
					fatal(log, err, "Failed to download snapshot")
				}
				log.Info("No snapshot in R2 yet, starting with an empty database")
			} else {
				log.WithField("etag", etag).Info("Bootstrapped database from R2 snapshot")
			}
		}
	}

	// The hot-swap wrapper lets the snapshot poller replace the database
	// file under live traffic. Non-R2 setups never swap but the wrapper
	// costs nothing.
	hotDB, err := storage.NewHotSwapDB(cfg.SQLitePath(), cfg.CacheTTL)
	if err != nil {
		fatal(log, err, "Failed to open database")
	}
	defer func() { _ = hotDB.Close() }()
	db := hotDB.DB()
	db.SetMetrics(m)
	log.WithField("path", cfg.SQLitePath()).
		WithField("cache_ttl", cfg.CacheTTL).
		Info("Database connected")

	scrapeClient := scraper.NewClient(cfg.ScraperTimeout, cfg.ScraperMaxRetries, cfg.ScraperBaseURLs)
	urls := scraper.NewURLCache(scrapeClient, "dit")

	// Seed the search index from whatever the database already holds;
	// warmup rebuilds it once fresh course data lands.
	courseIndex := search.NewCourseIndex(log)
	if courses, err := db.GetAllCourses(context.Background()); err != nil {
		log.WithError(err).Warn("Failed to load courses for search index")
	} else if len(courses) > 0 {
		if err := courseIndex.Rebuild(courses); err != nil {
			log.WithError(err).Warn("Failed to build course search index")
		} else {
			log.WithField("courses", courseIndex.Count()).Info("Course search index built")
		}
	}

	// Module registration order matters: dispatch is first-match-wins
	// and the professor module doubles as the bare-name fallback.
	botRegistry := bot.NewRegistry()
	botRegistry.Use(bot.RecoveryMiddleware(log))
	botRegistry.Use(bot.LoggingMiddleware(log))
	botRegistry.Use(bot.MetricsMiddleware(m))
	botRegistry.Register(course.NewHandler(db, courseIndex, log, m))
	botRegistry.Register(professor.NewHandler(db, log, m))
	botRegistry.Register(facility.NewHandler(db, log, m))
	botRegistry.Register(service.NewHandler(db, log, m))
	botRegistry.Register(contact.NewHandler(db, log, m))
	botRegistry.Register(rating.NewHandler(db, ratelimit.NewRatingLimiter(m), log, m))
	botRegistry.Register(usage.NewHandler(log))

	processor := bot.NewProcessor(bot.ProcessorConfig{
		Registry:      botRegistry,
		SenderLimiter: ratelimit.NewSenderLimiter(&cfg.Bot, m),
		Logger:        log,
		Metrics:       m,
		BotConfig:     &cfg.Bot,
	})

	sendClient := messenger.NewClient(messenger.ClientConfig{
		BaseURL:     cfg.GraphAPIBaseURL,
		AccessToken: cfg.PageAccessToken,
		Logger:      log,
		Metrics:     m,
	})

	webhookHandler := webhook.NewHandler(webhook.HandlerConfig{
		AppSecret:   cfg.AppSecret,
		VerifyToken: cfg.VerifyToken,
		Client:      sendClient,
		Processor:   processor,
		BotConfig:   &cfg.Bot,
		Metrics:     m,
		Logger:      log,
	})
	log.Info("Webhook handler created")

	// First warmup runs in the background; the readiness probe opens
	// once faculty data is in, or after the timeout as a last resort.
	readiness := warmup.NewReadinessState(10 * time.Minute)
	warmup.RunInBackground(db, scrapeClient, urls, log, readiness, warmup.Options{
		Metrics: m,
		Index:   courseIndex,
	})
	log.Info("Background warmup started")

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(log))
	setupRoutes(router, routeDeps{
		webhook:   webhookHandler,
		db:        db,
		readiness: readiness,
		registry:  registry,
		auth:      metricsAuthMiddleware(cfg.MetricsPassword != "", cfg.MetricsUsername, cfg.MetricsPassword),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  config.WebhookHTTPRead,
		WriteTimeout: config.WebhookHTTPWrite,
		IdleTimeout:  config.WebhookHTTPIdle,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	startJob := func(name string, job func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithField("panic", r).WithField("job", name).Error("Panic in background job")
				}
			}()
			job(ctx)
		}()
	}

	startJob("cleanup", func(ctx context.Context) {
		cleanupExpiredData(ctx, db, cfg.CacheTTL, m, log)
	})
	startJob("rescrape", func(ctx context.Context) {
		nightlyRescrape(ctx, rescrapeDeps{
			db:            db,
			client:        scrapeClient,
			urls:          urls,
			index:         courseIndex,
			metrics:       m,
			logger:        log,
			snapshotMgr:   snapshotMgr,
			scheduleStore: scheduleStore,
			changeLog:     changeLog,
		})
	})
	startJob("table_metrics", func(ctx context.Context) {
		updateTableSizeMetrics(ctx, db, m, log)
	})

	// Followers pick up leader snapshots through polling.
	if snapshotMgr != nil {
		snapshotMgr.StartPolling(ctx, hotDB, cfg.DataDir)
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, err, "Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	cancel()

	if snapshotMgr != nil {
		snapshotMgr.StopPolling()
	}

	// Drain in-flight webhook events before pulling the transport.
	drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	if err := webhookHandler.Shutdown(drainCtx); err != nil {
		log.WithError(err).Warn("Webhook events still in flight at shutdown")
	}
	drainCancel()

	jobsDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(jobsDone)
	}()
	select {
	case <-jobsDone:
		log.Info("All background jobs stopped")
	case <-time.After(5 * time.Second):
		log.Warn("Timeout waiting for background jobs to stop")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	if err := hotDB.Close(); err != nil {
		log.WithError(err).Error("Failed to close database")
	}

	sentry.Flush(2 * time.Second)
	if err := log.Shutdown(shutdownCtx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to flush logs: %v\n", err)
	}

	log.Info("Server stopped")
}

// fatal logs err at error level and exits. Used only during startup,
// before the graceful shutdown path exists.
func fatal(log *logger.Logger, err error, msg string) {
	log.WithError(err).Error(msg)
	os.Exit(1)
}
