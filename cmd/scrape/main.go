// Command scrape runs the dit.hua.gr ETL once and exits. It fills the
// same SQLite database the server uses, so it doubles as a local seed
// tool and as a cron-style refresh for setups that keep scraping out
// of the serving process.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/huahelper/hua-messengerbot-go/internal/config"
	"github.com/huahelper/hua-messengerbot-go/internal/logger"
	"github.com/huahelper/hua-messengerbot-go/internal/scraper"
	"github.com/huahelper/hua-messengerbot-go/internal/storage"
	"github.com/huahelper/hua-messengerbot-go/internal/warmup"
)

var (
	modulesFlag = flag.String("modules", "", "Comma-separated modules to scrape (professor,course,facility,service,contact); empty = all")
	forceFlag   = flag.Bool("force", false, "Scrape even when the database already holds data")
	timeoutFlag = flag.Duration("timeout", config.RescrapeTimeout, "Overall scrape deadline")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadForScrape()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("Starting scrape tool")

	db, err := storage.New(cfg.SQLitePath(), cfg.CacheTTL)
	if err != nil {
		log.WithError(err).Error("Failed to open database")
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", cfg.SQLitePath()).Info("Database connected")

	client := scraper.NewClient(cfg.ScraperTimeout, cfg.ScraperMaxRetries, cfg.ScraperBaseURLs)
	urls := scraper.NewURLCache(client, "dit")

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	startTime := time.Now()
	stats, err := warmup.Run(ctx, db, client, urls, log, warmup.Options{
		Modules: warmup.ParseModules(*modulesFlag),
		Force:   *forceFlag,
	})
	duration := time.Since(startTime).Round(time.Second)

	if stats == nil {
		stats = &warmup.Stats{}
	}
	counts := stats.Counts()
	summary := fmt.Sprintf("%d professors, %d courses, %d facilities, %d services, %d e-platforms, %d contacts",
		counts["professors"], counts["courses"], counts["facilities"],
		counts["student_services"], counts["eplatforms"], counts["contacts"])

	if err != nil {
		log.WithError(err).Error("Scrape completed with errors")
		_, _ = fmt.Fprintf(os.Stderr, "Scrape completed with errors after %v: %s\n", duration, summary)
		os.Exit(1)
	}

	fmt.Printf("Scrape complete in %v: %s\n", duration, summary)
}
