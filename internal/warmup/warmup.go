// Package warmup fills the knowledge base from dit.hua.gr. It runs once
// at startup when the database is empty and again on every scheduled
// rescrape; the readiness probe stays down until the first run lands
// faculty data.
package warmup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/huahelper/hua-messengerbot-go/internal/logger"
	"github.com/huahelper/hua-messengerbot-go/internal/metrics"
	"github.com/huahelper/hua-messengerbot-go/internal/scraper"
	"github.com/huahelper/hua-messengerbot-go/internal/scraper/hua"
	"github.com/huahelper/hua-messengerbot-go/internal/search"
	"github.com/huahelper/hua-messengerbot-go/internal/storage"
)

// Stats counts the records each module landed. All fields use atomic
// operations so module goroutines can update them concurrently.
type Stats struct {
	Professors atomic.Int64
	Courses    atomic.Int64
	Facilities atomic.Int64
	Services   atomic.Int64
	EPlatforms atomic.Int64
	Contacts   atomic.Int64
}

// Counts returns the stats as a plain map, for logging and for the
// scrape delta records.
func (s *Stats) Counts() map[string]int64 {
	return map[string]int64{
		"professors":       s.Professors.Load(),
		"courses":          s.Courses.Load(),
		"facilities":       s.Facilities.Load(),
		"student_services": s.Services.Load(),
		"eplatforms":       s.EPlatforms.Load(),
		"contacts":         s.Contacts.Load(),
	}
}

// Options configures a warmup run.
type Options struct {
	Modules []string            // Modules to refresh; nil means all
	Force   bool                // Refresh even when the cache still has data
	Metrics *metrics.Metrics    // Optional
	Index   *search.CourseIndex // Rebuilt after the course module, when set
}

// AllModules lists every warmup module in dispatch order.
func AllModules() []string {
	return []string{"professor", "course", "facility", "service", "contact"}
}

// ParseModules converts a comma-separated module list to a slice.
func ParseModules(modules string) []string {
	var result []string
	for _, m := range strings.Split(modules, ",") {
		if m = strings.TrimSpace(m); m != "" {
			result = append(result, m)
		}
	}
	return result
}

// Run refreshes the selected modules concurrently and reports how many
// records each one landed. Without Force, a database that already holds
// faculty data is considered warm and the run is a no-op.
func Run(ctx context.Context, db *storage.DB, client *scraper.Client, urls *scraper.URLCache, log *logger.Logger, opts Options) (*Stats, error) {
	stats := &Stats{}
	startTime := time.Now()

	modules := opts.Modules
	if len(modules) == 0 {
		modules = AllModules()
	}

	if !opts.Force {
		count, err := db.CountProfessors(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to check cache state: %w", err)
		}
		if count > 0 {
			log.WithField("professors", count).Info("Cache already warm, skipping warmup")
			return stats, nil
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, module := range modules {
		g.Go(func() error {
			if err := runModule(ctx, module, db, client, urls, log, stats, opts); err != nil {
				log.WithError(err).WithField("module", module).Error("Warmup module failed")
				return fmt.Errorf("%s module: %w", module, err)
			}
			return nil
		})
	}
	err := g.Wait()

	if opts.Metrics != nil {
		opts.Metrics.RecordRescrapeDuration(time.Since(startTime).Seconds())
		for table, count := range stats.Counts() {
			opts.Metrics.RecordRescrapeRecords(table, float64(count))
		}
	}

	log.WithField("duration", time.Since(startTime)).
		WithField("professors", stats.Professors.Load()).
		WithField("courses", stats.Courses.Load()).
		WithField("facilities", stats.Facilities.Load()).
		WithField("services", stats.Services.Load()).
		WithField("eplatforms", stats.EPlatforms.Load()).
		WithField("contacts", stats.Contacts.Load()).
		Info("Warmup complete")

	if err != nil {
		return stats, err
	}
	return stats, nil
}

// RunInBackground starts a warmup run that outlives the caller and
// flips the readiness state once faculty data is in place. Used at
// startup so the webhook can come up while the first scrape runs.
func RunInBackground(db *storage.DB, client *scraper.Client, urls *scraper.URLCache, log *logger.Logger, state *ReadinessState, opts Options) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("Panic in background warmup")
			}
		}()

		ctx := context.Background()
		if _, err := Run(ctx, db, client, urls, log, opts); err != nil {
			log.WithError(err).Warn("Background warmup finished with errors")
		}

		// Partial runs still count: the bot can answer as soon as the
		// professor table has anything in it.
		if count, err := db.CountProfessors(ctx); err == nil && count > 0 {
			state.MarkReady()
		}
	}()
}

func runModule(ctx context.Context, module string, db *storage.DB, client *scraper.Client, urls *scraper.URLCache, log *logger.Logger, stats *Stats, opts Options) error {
	switch module {
	case "professor":
		return warmupProfessors(ctx, db, client, urls, log, stats)
	case "course":
		return warmupCourses(ctx, db, client, urls, log, stats, opts.Index)
	case "facility":
		return warmupFacilities(ctx, db, client, urls, log, stats)
	case "service":
		return warmupServices(ctx, db, client, urls, log, stats)
	case "contact":
		return warmupContacts(ctx, db, client, urls, log, stats)
	default:
		log.WithField("module", module).Warn("Unknown warmup module, skipping")
		return nil
	}
}

func warmupProfessors(ctx context.Context, db *storage.DB, client *scraper.Client, urls *scraper.URLCache, log *logger.Logger, stats *Stats) error {
	professors, err := hua.ScrapeProfessors(ctx, client, urls)
	if err != nil {
		return fmt.Errorf("failed to scrape professors: %w", err)
	}
	if err := db.SaveProfessorsBatch(ctx, professors); err != nil {
		return fmt.Errorf("failed to save professors: %w", err)
	}
	stats.Professors.Add(int64(len(professors)))
	log.WithField("count", len(professors)).Info("Professors cached")
	return nil
}

func warmupCourses(ctx context.Context, db *storage.DB, client *scraper.Client, urls *scraper.URLCache, log *logger.Logger, stats *Stats, index *search.CourseIndex) error {
	courses, err := hua.ScrapeCourses(ctx, client, urls)
	if err != nil {
		return fmt.Errorf("failed to scrape courses: %w", err)
	}
	if err := db.SaveCoursesBatch(ctx, courses); err != nil {
		return fmt.Errorf("failed to save courses: %w", err)
	}
	stats.Courses.Add(int64(len(courses)))
	log.WithField("count", len(courses)).Info("Courses cached")

	if index != nil {
		all, err := db.GetAllCourses(ctx)
		if err != nil {
			return fmt.Errorf("failed to load courses for index: %w", err)
		}
		if err := index.Rebuild(all); err != nil {
			// Search degrades to LIKE queries; not worth failing the run.
			log.WithError(err).Warn("Failed to rebuild course search index")
		}
	}
	return nil
}

func warmupFacilities(ctx context.Context, db *storage.DB, client *scraper.Client, urls *scraper.URLCache, log *logger.Logger, stats *Stats) error {
	facilities, err := hua.ScrapeFacilities(ctx, client, urls)
	if err != nil {
		return fmt.Errorf("failed to scrape facilities: %w", err)
	}
	for _, f := range facilities {
		if err := db.SaveFacility(ctx, f); err != nil {
			return fmt.Errorf("failed to save facility %q: %w", f.Name, err)
		}
	}
	stats.Facilities.Add(int64(len(facilities)))
	log.WithField("count", len(facilities)).Info("Facilities cached")
	return nil
}

// warmupServices refreshes student services and e-platforms together.
// One source failing is tolerated as long as the other lands.
func warmupServices(ctx context.Context, db *storage.DB, client *scraper.Client, urls *scraper.URLCache, log *logger.Logger, stats *Stats) error {
	var errs []error

	services, err := hua.ScrapeStudentServices(ctx, client, urls)
	if err != nil {
		log.WithError(err).Warn("Failed to scrape student services, continuing")
		errs = append(errs, fmt.Errorf("student services: %w", err))
	} else {
		for _, s := range services {
			if err := db.SaveStudentService(ctx, s); err != nil {
				return fmt.Errorf("failed to save student service %q: %w", s.Name, err)
			}
		}
		stats.Services.Add(int64(len(services)))
		log.WithField("count", len(services)).Info("Student services cached")
	}

	platforms, err := hua.ScrapeEPlatforms(ctx, client, urls)
	if err != nil {
		log.WithError(err).Warn("Failed to scrape e-platforms, continuing")
		errs = append(errs, fmt.Errorf("e-platforms: %w", err))
	} else {
		for _, p := range platforms {
			if err := db.SaveEPlatform(ctx, p); err != nil {
				return fmt.Errorf("failed to save e-platform %q: %w", p.Name, err)
			}
		}
		stats.EPlatforms.Add(int64(len(platforms)))
		log.WithField("count", len(platforms)).Info("E-platforms cached")
	}

	if len(errs) == 2 {
		return fmt.Errorf("both service sources failed: %w", errors.Join(errs...))
	}
	return nil
}

func warmupContacts(ctx context.Context, db *storage.DB, client *scraper.Client, urls *scraper.URLCache, log *logger.Logger, stats *Stats) error {
	contacts, err := hua.ScrapeContacts(ctx, client, urls)
	if err != nil {
		return fmt.Errorf("failed to scrape contacts: %w", err)
	}
	for _, c := range contacts {
		if err := db.SaveContact(ctx, c); err != nil {
			return fmt.Errorf("failed to save contact %q: %w", c.Key, err)
		}
	}
	stats.Contacts.Add(int64(len(contacts)))
	log.WithField("count", len(contacts)).Info("Contacts cached")
	return nil
}
