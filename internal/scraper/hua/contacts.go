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

var mapLinkRegex = regexp.MustCompile(`(?i)google\.com/maps|openstreetmap|goo\.gl/maps`)

// ScrapeContacts scrapes the contact-and-access page into keyed
// contact records: the postal address under the page's h3, one
// phone/email pair per h4/h5 section (keyed by the section's slug)
// and the map link, when the page carries one.
func ScrapeContacts(ctx context.Context, client *scraper.Client, urls *scraper.URLCache) ([]*storage.Contact, error) {
	doc, baseURL, err := fetchPage(ctx, client, urls, contactPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contact page: %w", err)
	}

	contacts := parseContactPage(doc, baseURL)
	if len(contacts) == 0 {
		return nil, fmt.Errorf("no contact entries found at %s", baseURL+contactPath)
	}

	cachedAt := time.Now().Unix()
	for _, c := range contacts {
		c.CachedAt = cachedAt
	}

	return contacts, nil
}

func parseContactPage(doc *goquery.Document, baseURL string) []*storage.Contact {
	var contacts []*storage.Contact
	seen := make(map[string]struct{})

	add := func(c *storage.Contact) {
		if c.Key == "" || c.Value == "" {
			return
		}
		if _, ok := seen[c.Key]; ok {
			return
		}
		seen[c.Key] = struct{}{}
		contacts = append(contacts, c)
	}

	// The postal address is the first paragraph under the page's h3.
	doc.Find("h3").EachWithBreak(func(_ int, heading *goquery.Selection) bool {
		label := collapseWS(heading.Text())
		value := collapseWS(heading.NextAllFiltered("p").First().Text())
		if label == "" || value == "" {
			return true
		}
		add(&storage.Contact{Key: "address", Label: label, Value: value})
		return false
	})

	// Each h4/h5 section carries one office's phone and email.
	doc.Find("h4, h5").Each(func(_ int, heading *goquery.Selection) {
		label := collapseWS(heading.Text())
		slug := slugify(label)
		if slug == "" {
			return
		}

		var parts []string
		heading.NextUntil("h4, h5").Each(func(_ int, el *goquery.Selection) {
			if !el.Is("p, div") {
				return
			}
			if text := collapseWS(el.Text()); text != "" {
				parts = append(parts, text)
			}
		})
		text := strings.Join(parts, " ")

		if phone := collapseWS(phoneRegex.FindString(text)); phone != "" {
			add(&storage.Contact{Key: slug + "_phone", Label: label, Value: phone})
		}
		if m := emailRegex.FindString(text); m != "" {
			add(&storage.Contact{
				Key:   slug + "_email",
				Label: label,
				Value: strings.ToLower(deobfuscateEmail(m)),
			})
		}
	})

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !mapLinkRegex.MatchString(href) {
			return true
		}
		add(&storage.Contact{
			Key:   "map",
			Label: "Χάρτης",
			Value: "Τοποθεσία",
			URL:   absolutize(baseURL, href),
		})
		return false
	})

	return contacts
}
