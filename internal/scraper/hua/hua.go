// Package hua scrapes the public pages of the department site
// (dit.hua.gr) into storage records. There is one scraper per source
// page; all of them share the extraction helpers in this file.
//
// The site is a Joomla installation, so the markup is loose: headings
// carry "Name, Rank" pairs, contact details live in free-form
// paragraphs, and emails are often obfuscated ("it [at] hua [dot] gr",
// "it (στο) hua.gr"). The helpers normalize all of that before the
// records reach storage.
package hua

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/huahelper/hua-messengerbot-go/internal/scraper"
)

// ditDomain selects the department site's URL set from the client
// configuration.
const ditDomain = "dit"

// Source page paths, relative to the working base URL.
const (
	facultyPath         = "/index.php/el/department-gr/faculty-members"
	undergradPath       = "/index.php/el/studies/undergraduate-studies"
	facilitiesPath      = "/index.php/el/department-gr/facilities"
	studentServicesPath = "/index.php/el/department-gr/student-services"
	eplatformsPath      = "/index.php/el/department-gr/e-platforms-gr"
	contactPath         = "/index.php/el/department-gr/contact-access"
)

// Patterns shared by the page scrapers.
var (
	wsRegex     = regexp.MustCompile(`\s+`)
	schemeRegex = regexp.MustCompile(`^[a-zA-Z0-9+.-]+:`)

	// phoneRegex matches Greek landline/mobile numbers with optional
	// country prefix and inner spaces or dashes.
	phoneRegex = regexp.MustCompile(`\+?\d[\d\s\-]{6,}\d`)

	// emailRegex accepts plain addresses and the obfuscated spellings
	// the site uses to evade harvesters.
	emailRegex = regexp.MustCompile(`(?i)[A-Za-z0-9._%+-]+\s*(?:\[at\]|@|\(at\)|\(στο\))\s*[A-Za-z0-9.-]+\s*(?:\[dot\]|\.|\(dot\)|\(τελεία\))\s*[A-Za-z]{2,}`)

	atTokenRegex  = regexp.MustCompile(`(?i)\s*(?:\[at\]|\(at\)|\(στο\))\s*`)
	dotTokenRegex = regexp.MustCompile(`(?i)\s*(?:\[dot\]|\(dot\)|\(τελεία\))\s*`)

	slugSepRegex = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
	slugRunRegex = regexp.MustCompile(`_+`)
)

// collapseWS trims the text and squeezes every whitespace run into a
// single space, the comparison form every extractor works on.
func collapseWS(text string) string {
	return wsRegex.ReplaceAllString(strings.TrimSpace(text), " ")
}

// absolutize resolves a scraped href against the working base URL.
// Scheme-prefixed links (http:, https:, mailto:, tel:) pass through
// unchanged and fragments are dropped.
func absolutize(baseURL, href string) string {
	if href == "" {
		return ""
	}
	if i := strings.Index(href, "#"); i >= 0 {
		href = href[:i]
	}
	if href == "" {
		return ""
	}
	if schemeRegex.MatchString(href) {
		return href
	}
	if strings.HasPrefix(href, "/") {
		return baseURL + href
	}
	return href
}

// deobfuscateEmail rewrites "it [at] hua [dot] gr" style tokens to a
// plain address. Already-plain addresses pass through unchanged.
func deobfuscateEmail(token string) string {
	if token == "" {
		return ""
	}
	result := atTokenRegex.ReplaceAllString(token, "@")
	result = dotTokenRegex.ReplaceAllString(result, ".")
	return strings.TrimSpace(result)
}

// slugify builds a stable lookup key out of a heading: letters, digits
// and underscores only, lower case.
func slugify(text string) string {
	slug := slugSepRegex.ReplaceAllString(collapseWS(text), "_")
	slug = slugRunRegex.ReplaceAllString(slug, "_")
	return strings.ToLower(strings.Trim(slug, "_"))
}

// findLabelValue scans label:value elements for the pattern, falling
// back to the flattened page text. The pattern must carry exactly one
// capture group for the value.
func findLabelValue(doc *goquery.Document, pat *regexp.Regexp) string {
	var value string
	doc.Find("p, li, div, td").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if m := pat.FindStringSubmatch(collapseWS(el.Text())); m != nil {
			value = collapseWS(m[1])
			return false
		}
		return true
	})
	if value == "" {
		if m := pat.FindStringSubmatch(collapseWS(doc.Text())); m != nil {
			value = collapseWS(m[1])
		}
	}
	return value
}

// extractEmails collects every address on a page, from mailto: links
// and from the visible text, de-obfuscated, lower-cased and de-duped.
// Department addresses (@hua.gr) sort first.
func extractEmails(doc *goquery.Document) []string {
	var raw []string

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if len(href) > 7 && strings.EqualFold(href[:7], "mailto:") {
			addr := href[7:]
			if i := strings.Index(addr, "?"); i >= 0 {
				addr = addr[:i]
			}
			raw = append(raw, strings.TrimSpace(addr))
		}
	})

	raw = append(raw, emailRegex.FindAllString(collapseWS(doc.Text()), -1)...)

	seen := make(map[string]struct{}, len(raw))
	emails := make([]string, 0, len(raw))
	for _, e := range raw {
		addr := strings.ToLower(deobfuscateEmail(e))
		if !strings.Contains(addr, "@") || strings.Contains(addr, " ") || len(addr) > 100 {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		emails = append(emails, addr)
	}

	sort.SliceStable(emails, func(i, j int) bool {
		iHua := strings.HasSuffix(emails[i], "@hua.gr")
		jHua := strings.HasSuffix(emails[j], "@hua.gr")
		if iHua != jHua {
			return iHua
		}
		return emails[i] < emails[j]
	})

	return emails
}

// fetchPage resolves the working base URL, fetches pagePath under it
// and retries once on a fresh base URL after a network failure.
// It returns the document together with the base URL that served it,
// which the callers need to absolutize relative links.
func fetchPage(ctx context.Context, client *scraper.Client, urls *scraper.URLCache, pagePath string) (*goquery.Document, string, error) {
	baseURL, err := urls.Get(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get working base URL: %w", err)
	}

	doc, err := client.GetDocument(ctx, baseURL+pagePath)
	if err != nil {
		if scraper.IsNetworkError(err) {
			urls.Clear()
			newURL, failoverErr := urls.Get(ctx)
			if failoverErr == nil && newURL != baseURL {
				baseURL = newURL
				doc, err = client.GetDocument(ctx, baseURL+pagePath)
			}
		}
		if err != nil {
			return nil, "", err
		}
	}

	return doc, baseURL, nil
}
