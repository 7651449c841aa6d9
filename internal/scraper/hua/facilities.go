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

var (
	faxRegex      = regexp.MustCompile(`(?i)(?:fax|φαξ)\s*[:：]?\s*(\+?\d[\d\s\-]{6,}\d)`)
	hoursRegex    = regexp.MustCompile(`(?i)(?:ωράριο(?:\s+λειτουργίας)?|ώρες λειτουργίας)\s*[:：]?\s*([^.]+)`)
	// Room numbers carry dots ("Αίθουσα: 2.3"), so the value only ends
	// at a sentence or clause boundary.
	locationRegex = regexp.MustCompile(`(?i)(?:τοποθεσία|διεύθυνση|αίθουσα|όροφος)\s*[:：]\s*(.+?)(?:\.\s|\.$|,|$)`)
)

// ScrapeFacilities scrapes the facilities page. Each h2/h3 heading
// opens one facility; the sibling blocks up to the next heading are
// its description, and the contact fields are lifted out of that text.
func ScrapeFacilities(ctx context.Context, client *scraper.Client, urls *scraper.URLCache) ([]*storage.Facility, error) {
	doc, baseURL, err := fetchPage(ctx, client, urls, facilitiesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch facilities page: %w", err)
	}

	facilities := parseFacilitiesPage(doc, baseURL+facilitiesPath)
	if len(facilities) == 0 {
		return nil, fmt.Errorf("no facilities found at %s", baseURL+facilitiesPath)
	}

	cachedAt := time.Now().Unix()
	for _, f := range facilities {
		f.CachedAt = cachedAt
	}

	return facilities, nil
}

func parseFacilitiesPage(doc *goquery.Document, pageURL string) []*storage.Facility {
	var facilities []*storage.Facility
	seen := make(map[string]struct{})

	doc.Find("h2, h3").Each(func(_ int, heading *goquery.Selection) {
		name := collapseWS(heading.Text())
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}

		var parts []string
		heading.NextUntil("h2, h3").Each(func(_ int, el *goquery.Selection) {
			if !el.Is("p, div, ul, li") {
				return
			}
			if text := collapseWS(el.Text()); text != "" {
				parts = append(parts, text)
			}
		})
		if len(parts) == 0 {
			return
		}
		seen[name] = struct{}{}

		text := strings.Join(parts, " ")
		f := &storage.Facility{
			Name: name,
			URL:  pageURL,
		}
		if m := emailRegex.FindString(text); m != "" {
			f.Email = strings.ToLower(deobfuscateEmail(m))
		}
		if m := faxRegex.FindStringSubmatch(text); m != nil {
			f.Fax = collapseWS(m[1])
		}
		if m := hoursRegex.FindStringSubmatch(text); m != nil {
			f.WorkingHours = collapseWS(m[1])
		}
		if m := locationRegex.FindStringSubmatch(text); m != nil {
			f.Location = collapseWS(m[1])
		}
		// The fax line would otherwise win the phone slot too.
		for _, candidate := range phoneRegex.FindAllString(text, -1) {
			if collapseWS(candidate) != f.Fax {
				f.Phone = collapseWS(candidate)
				break
			}
		}

		facilities = append(facilities, f)
	})

	return facilities
}
