package hua

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/huahelper/hua-messengerbot-go/internal/scraper"
	"github.com/huahelper/hua-messengerbot-go/internal/storage"
)

// ScrapeStudentServices scrapes the student-services page. Each
// h2/h3/h4 heading opens one service; the first following text block
// is its description and carries the contact details, if any.
func ScrapeStudentServices(ctx context.Context, client *scraper.Client, urls *scraper.URLCache) ([]*storage.StudentService, error) {
	doc, baseURL, err := fetchPage(ctx, client, urls, studentServicesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch student services page: %w", err)
	}

	services := parseStudentServicesPage(doc, baseURL+studentServicesPath)
	if len(services) == 0 {
		return nil, fmt.Errorf("no student services found at %s", baseURL+studentServicesPath)
	}

	cachedAt := time.Now().Unix()
	for _, s := range services {
		s.CachedAt = cachedAt
	}

	return services, nil
}

func parseStudentServicesPage(doc *goquery.Document, pageURL string) []*storage.StudentService {
	var services []*storage.StudentService
	seen := make(map[string]struct{})

	doc.Find("h2, h3, h4").Each(func(_ int, heading *goquery.Selection) {
		name := collapseWS(heading.Text())
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}

		description := ""
		heading.NextUntil("h2, h3, h4").EachWithBreak(func(_ int, el *goquery.Selection) bool {
			if !el.Is("p, div, li, ul") {
				return true
			}
			description = collapseWS(el.Text())
			return description == ""
		})
		if description == "" {
			return
		}
		seen[name] = struct{}{}

		s := &storage.StudentService{
			Name:        name,
			Description: description,
			URL:         pageURL,
		}
		if m := emailRegex.FindString(description); m != "" {
			s.Email = strings.ToLower(deobfuscateEmail(m))
		}
		s.Phone = collapseWS(phoneRegex.FindString(description))

		services = append(services, s)
	})

	return services
}

// ScrapeEPlatforms scrapes the e-platforms page. Each platform appears
// as a bold name inside a text block, followed by a short description
// and a link to the platform itself.
func ScrapeEPlatforms(ctx context.Context, client *scraper.Client, urls *scraper.URLCache) ([]*storage.EPlatform, error) {
	doc, baseURL, err := fetchPage(ctx, client, urls, eplatformsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch e-platforms page: %w", err)
	}

	platforms := parseEPlatformsPage(doc, baseURL)
	if len(platforms) == 0 {
		return nil, fmt.Errorf("no e-platforms found at %s", baseURL+eplatformsPath)
	}

	cachedAt := time.Now().Unix()
	for _, p := range platforms {
		p.CachedAt = cachedAt
	}

	return platforms, nil
}

func parseEPlatformsPage(doc *goquery.Document, baseURL string) []*storage.EPlatform {
	var platforms []*storage.EPlatform
	seen := make(map[string]struct{})

	doc.Find("strong, b").Each(func(_ int, bold *goquery.Selection) {
		name := collapseWS(bold.Text())
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}

		container := bold.Closest("p, li, div")
		if container.Length() == 0 {
			return
		}

		description := collapseWS(strings.Replace(container.Text(), bold.Text(), "", 1))
		description = strings.TrimLeft(description, " :–—-")
		if description == "" {
			return
		}
		seen[name] = struct{}{}

		p := &storage.EPlatform{
			Name:        name,
			Description: description,
		}
		if href, ok := container.Find("a[href]").First().Attr("href"); ok {
			p.URL = absolutize(baseURL, href)
		}

		platforms = append(platforms, p)
	})

	return platforms
}
