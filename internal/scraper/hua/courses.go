package hua

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/huahelper/hua-messengerbot-go/internal/scraper"
	"github.com/huahelper/hua-messengerbot-go/internal/storage"
)

const maxCourseLineLength = 150

var (
	// Course lines appear as "ΠΛ0305 - Βάσεις Δεδομένων" or
	// "ΠΛ0305: Βάσεις Δεδομένων" somewhere in the study-guide markup.
	courseDashRegex  = regexp.MustCompile(`^([\p{L}\p{N}]{1,12})\s*[-–—]\s*(.{3,})$`)
	courseColonRegex = regexp.MustCompile(`^([\p{L}\p{N}]{1,12})\s*[:：]\s*(.{3,})$`)

	// courseCodeRegex validates a normalized code: a short letter
	// prefix followed by the numeric part.
	courseCodeRegex = regexp.MustCompile(`^\p{Lu}{1,4}\p{N}{2,4}$`)

	ectsRegex     = regexp.MustCompile(`(?i)(?:ects|πιστωτικ\p{L}*)[^0-9]{0,40}?([0-9]{1,2})`)
	typeRegex     = regexp.MustCompile(`(?i)(?:τύπ\p{L}*|type|κατηγορ\p{L}*)\s*[:：]\s*(.+)`)
	semesterRegex = regexp.MustCompile(`(?i)(?:εξάμηνο|semester)\s*[:：]?\s*(.+)`)
	numberRegex   = regexp.MustCompile(`[0-9]{1,2}`)

	strictEmailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// ScrapeCourses scrapes the undergraduate study guide into course
// records. The guide lists "CODE - Title" lines; when a line links a
// course page, ECTS points, type, semesters and the instructors are
// filled from it.
func ScrapeCourses(ctx context.Context, client *scraper.Client, urls *scraper.URLCache) ([]*storage.Course, error) {
	doc, baseURL, err := fetchPage(ctx, client, urls, undergradPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch undergraduate studies page: %w", err)
	}

	courses, detailURLs := parseCourseList(doc, baseURL)
	if len(courses) == 0 {
		return nil, fmt.Errorf("no courses found at %s", baseURL+undergradPath)
	}

	for i, course := range courses {
		if detailURLs[i] == "" {
			course.URL = baseURL + undergradPath
			continue
		}
		course.URL = detailURLs[i]
		detail, err := client.GetDocument(ctx, detailURLs[i])
		if err != nil {
			continue
		}
		enrichCourse(detail, course)
	}

	cachedAt := time.Now().Unix()
	for _, c := range courses {
		c.CachedAt = cachedAt
	}

	return courses, nil
}

// parseCourseList extracts the course lines from the study guide,
// together with each line's detail URL ("" when the line links none).
func parseCourseList(doc *goquery.Document, baseURL string) ([]*storage.Course, []string) {
	var courses []*storage.Course
	var detailURLs []string
	seen := make(map[string]struct{})

	doc.Find("li, p, span, a").Each(func(_ int, el *goquery.Selection) {
		text := collapseWS(el.Text())
		if text == "" || len(text) > maxCourseLineLength {
			return
		}

		m := courseDashRegex.FindStringSubmatch(text)
		if m == nil {
			m = courseColonRegex.FindStringSubmatch(text)
		}
		if m == nil {
			return
		}

		code := strings.ToUpper(collapseWS(m[1]))
		if !courseCodeRegex.MatchString(code) {
			return
		}
		if _, ok := seen[code]; ok {
			return
		}
		seen[code] = struct{}{}

		detailURL := ""
		if href, ok := el.Attr("href"); ok {
			detailURL = absolutize(baseURL, href)
		} else if href, ok := el.Find("a[href]").First().Attr("href"); ok {
			detailURL = absolutize(baseURL, href)
		}

		courses = append(courses, &storage.Course{
			CourseCode: code,
			CourseName: collapseWS(m[2]),
		})
		detailURLs = append(detailURLs, detailURL)
	})

	return courses, detailURLs
}

// enrichCourse fills a course record from its detail page.
func enrichCourse(doc *goquery.Document, course *storage.Course) {
	if v := findLabelValue(doc, ectsRegex); v != "" {
		course.ECTSPoints = v
	}
	if v := findLabelValue(doc, typeRegex); v != "" {
		course.Type = strings.Fields(v)[0]
	}
	if v := findLabelValue(doc, semesterRegex); v != "" {
		semesters := numberRegex.FindAllString(v, 2)
		if len(semesters) > 0 {
			course.Semester1 = semesters[0]
		}
		if len(semesters) > 1 {
			course.Semester2 = semesters[1]
		}
	}

	var instructors []string
	for _, email := range extractEmails(doc) {
		if strictEmailRegex.MatchString(email) {
			instructors = append(instructors, email)
		}
		if len(instructors) == 2 {
			break
		}
	}
	if len(instructors) > 0 {
		course.Professor1 = instructors[0]
	}
	if len(instructors) > 1 {
		course.Professor2 = instructors[1]
	}
}
