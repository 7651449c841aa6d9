package hua

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/huahelper/hua-messengerbot-go/internal/config"
	"github.com/huahelper/hua-messengerbot-go/internal/scraper"
	"github.com/huahelper/hua-messengerbot-go/internal/storage"
)

var (
	areaOfRegex = regexp.MustCompile(`(?i)γνωστικ\p{L}* αντικείμενο\s*[:：]\s*(.+)`)
	officeRegex = regexp.MustCompile(`(?i)γραφείο\s*[:：]\s*([^,]+)`)
	pageRegex   = regexp.MustCompile(`(?i)\b(?:site|web|home|ιστοσελίδα)\b`)
	httpRegex   = regexp.MustCompile(`(?i)^https?://`)
)

// ScrapeProfessors scrapes the faculty listing into professor records.
// Each listing card carries a "Name, Rank" heading plus free-form
// paragraphs; fields still missing after the card is parsed are filled
// from the member's detail page when the card links one. Members whose
// pages publish no address get a synthetic one so that every record
// still has a stable identifier.
func ScrapeProfessors(ctx context.Context, client *scraper.Client, urls *scraper.URLCache) ([]*storage.Professor, error) {
	doc, baseURL, err := fetchPage(ctx, client, urls, facultyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch faculty page: %w", err)
	}

	professors, detailURLs := parseFacultyPage(doc, baseURL)
	if len(professors) == 0 {
		return nil, fmt.Errorf("no faculty entries found at %s", baseURL+facultyPath)
	}

	for i, p := range professors {
		if detailURLs[i] == "" || !professorNeedsDetail(p) {
			continue
		}
		detail, err := client.GetDocument(ctx, detailURLs[i])
		if err != nil {
			// Best effort. The listing already gave us a usable record.
			continue
		}
		enrichProfessor(detail, p)
	}

	cachedAt := time.Now().Unix()
	for _, p := range professors {
		if p.Email == "" {
			p.Email = syntheticEmail(p.FirstName, p.LastName)
		}
		p.CachedAt = cachedAt
	}

	return professors, nil
}

// parseFacultyPage extracts one professor per listing card, together
// with the card's "read more" URL ("" when the card links none).
func parseFacultyPage(doc *goquery.Document, baseURL string) ([]*storage.Professor, []string) {
	cards := doc.Find("div[style*='padding']")
	if cards.Length() == 0 {
		cards = doc.Find("article")
	}

	var professors []*storage.Professor
	var detailURLs []string
	seen := make(map[string]struct{})

	cards.Each(func(_ int, card *goquery.Selection) {
		heading := collapseWS(card.Find("h2, h3, h4").First().Text())
		if heading == "" {
			return
		}

		name, category := heading, ""
		if i := strings.Index(heading, ","); i >= 0 {
			name = collapseWS(heading[:i])
			category = collapseWS(heading[i+1:])
		}
		fields := strings.Fields(name)
		if len(fields) < 2 {
			return
		}

		p := &storage.Professor{
			FirstName: fields[0],
			LastName:  strings.Join(fields[1:], " "),
			Category:  category,
			Gender:    genderFromCategory(category),
		}
		key := p.FirstName + " " + p.LastName
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}

		if src, ok := card.Find("img").First().Attr("src"); ok {
			p.ImageURL = absolutize(baseURL, src)
		}

		card.Find("p").Each(func(_ int, par *goquery.Selection) {
			text := collapseWS(par.Text())
			if text == "" {
				return
			}
			if p.AreaOf == "" {
				if m := areaOfRegex.FindStringSubmatch(text); m != nil {
					p.AreaOf = collapseWS(m[1])
				}
			}
			if p.Office == "" {
				if m := officeRegex.FindStringSubmatch(text); m != nil {
					p.Office = collapseWS(m[1])
				}
			}
			if p.Phone == "" {
				p.Phone = collapseWS(phoneRegex.FindString(text))
			}
			if p.Email == "" {
				if m := emailRegex.FindString(text); m != "" {
					p.Email = strings.ToLower(deobfuscateEmail(m))
				}
			}
		})

		detailURL := ""
		card.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			if strings.Contains(strings.ToLower(a.Text()), "περισσότερ") {
				href, _ := a.Attr("href")
				detailURL = absolutize(baseURL, href)
				return false
			}
			return true
		})

		professors = append(professors, p)
		detailURLs = append(detailURLs, detailURL)
	})

	return professors, detailURLs
}

// professorNeedsDetail reports whether the detail page is worth
// fetching, that is whether the listing card left any field empty.
func professorNeedsDetail(p *storage.Professor) bool {
	return p.Email == "" || p.Office == "" || p.Phone == "" ||
		p.AreaOf == "" || p.AcademicWebPage == ""
}

// enrichProfessor fills the record's still-empty fields from the
// member's detail page.
func enrichProfessor(doc *goquery.Document, p *storage.Professor) {
	if p.Email == "" {
		if emails := extractEmails(doc); len(emails) > 0 {
			p.Email = emails[0]
		}
	}
	if p.Office == "" {
		p.Office = findLabelValue(doc, officeRegex)
	}
	if p.AreaOf == "" {
		p.AreaOf = findLabelValue(doc, areaOfRegex)
	}
	if p.Phone == "" {
		p.Phone = collapseWS(phoneRegex.FindString(collapseWS(doc.Text())))
	}
	if p.AcademicWebPage == "" {
		p.AcademicWebPage = findPersonalPage(doc)
	}
}

// findPersonalPage picks the member's personal site: a link labelled as
// such when one exists, otherwise the first external link on the page.
func findPersonalPage(doc *goquery.Document) string {
	var first, labelled string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if !httpRegex.MatchString(href) {
			return true
		}
		if first == "" {
			first = href
		}
		if pageRegex.MatchString(a.Text()) {
			labelled = href
			return false
		}
		return true
	})
	if labelled != "" {
		return labelled
	}
	return first
}

// genderFromCategory infers the member's gender from the grammatical
// ending of the Greek rank title ("Καθηγητής" / "Καθηγήτρια"). Ranks
// with no gendered form leave the field empty.
func genderFromCategory(category string) string {
	lower := strings.ToLower(category)
	switch {
	case strings.Contains(lower, "τρια"):
		return "female"
	case strings.Contains(lower, "τής") || strings.Contains(lower, "της"):
		return "male"
	default:
		return ""
	}
}

// syntheticEmail builds the placeholder address stored for members
// without a published one.
func syntheticEmail(firstName, lastName string) string {
	local := strings.Trim(slugify(firstName)+"."+slugify(lastName), ".")
	if local == "" {
		local = "unknown"
	}
	return local + config.SyntheticEmailDomain
}
