// Package professor answers faculty queries: field lookups ("Email
// Βαρλάμης"), detail cards with rating prompts and the full staff
// listing. It is also the registry's fallback module, so a plain name
// with no keyword still resolves.
package professor

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/huahelper/hua-messengerbot-go/internal/bot"
	"github.com/huahelper/hua-messengerbot-go/internal/config"
	"github.com/huahelper/hua-messengerbot-go/internal/logger"
	"github.com/huahelper/hua-messengerbot-go/internal/messenger"
	"github.com/huahelper/hua-messengerbot-go/internal/messengerutil"
	"github.com/huahelper/hua-messengerbot-go/internal/metrics"
	"github.com/huahelper/hua-messengerbot-go/internal/resolve"
	"github.com/huahelper/hua-messengerbot-go/internal/storage"
)

const moduleName = "professor"

// maxTextResults is the largest match set rendered as a plain text
// listing; anything bigger becomes a carousel.
const maxTextResults = 3

// maxListNames caps the staff listing message.
const maxListNames = 20

var (
	professorKeywords = []string{
		"καθηγητης", "καθηγητρια", "καθηγητες", "καθηγητριες",
		"διδασκων", "διδασκοντες", "professor", "professors", "prof",
		"email", "mail", "τηλεφωνο", "τηλ", "γραφειο", "ιστοσελιδα",
		"στοιχεια",
	}
	professorRegex = bot.BuildKeywordRegex(professorKeywords)

	// Filler words between a keyword and the actual name, already in
	// normalized form ("Στοιχεία για τον Βαρλάμη").
	stopWords = map[string]bool{
		"για": true, "τον": true, "την": true, "του": true, "της": true,
		"το": true, "τη": true, "ο": true, "η": true,
		"κ": true, "κα": true, "κυριο": true, "κυρια": true,
	}
)

// Store is the storage surface the module reads.
type Store interface {
	storage.ProfessorRepository
	storage.RatingRepository
}

// Handler implements bot.Handler and bot.FallbackHandler for faculty
// queries.
type Handler struct {
	db      Store
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewHandler creates a professor handler.
func NewHandler(db Store, logger *logger.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		db:      db,
		logger:  logger,
		metrics: metrics,
	}
}

// ModuleName returns the module identifier.
func (h *Handler) ModuleName() string {
	return moduleName
}

// CanHandle reports whether the text starts with a professor keyword.
func (h *Handler) CanHandle(text string) bool {
	return bot.MatchKeyword(professorRegex, text) != ""
}

// HandleMessage answers a keyword query. Field keywords (email,
// τηλέφωνο, γραφείο, ιστοσελίδα) answer that one field; the rest show
// the detail card or, with no name, the staff listing.
func (h *Handler) HandleMessage(ctx context.Context, text string) ([]messenger.Message, error) {
	log := h.logger.WithModule(moduleName)

	keyword := bot.MatchKeyword(professorRegex, text)
	if keyword == "" {
		return nil, nil
	}

	term := stripStopWords(bot.ExtractSearchTerm(text, keyword))
	log.Infof("Professor query: keyword=%q term=%q", keyword, term)

	if term == "" {
		if isListKeyword(keyword) {
			return h.listProfessors(ctx)
		}
		return []messenger.Message{messengerutil.NewTextMessage(askNameMessage)}, nil
	}

	matches, err := h.resolveName(ctx, term)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []messenger.Message{messengerutil.NewTextMessage(noMatchMessage)}, nil
	}
	if len(matches) == 1 {
		return h.answerField(ctx, matches[0].Payload, fieldForKeyword(keyword))
	}
	return h.formatMatches(matches), nil
}

// CanHandlePostback reports whether the payload carries the
// "professor$" prefix.
func (h *Handler) CanHandlePostback(data string) bool {
	return bot.OwnsPostback(moduleName, data)
}

// HandlePostback answers the detail and field buttons of a carousel
// card. Payload format: "professor$<action>$<email>".
func (h *Handler) HandlePostback(ctx context.Context, data string) ([]messenger.Message, error) {
	pb, err := bot.ParsePostback(data)
	if err != nil {
		return nil, err
	}

	email := pb.Param(0)
	if email == "" {
		return []messenger.Message{messengerutil.NewTextMessage(noMatchMessage)}, nil
	}

	prof, err := h.db.GetProfessorByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	// A cleanup or rescrape may have removed the row since the
	// carousel was sent; the repository reports that as (nil, nil).
	if prof == nil {
		return []messenger.Message{messengerutil.NewTextMessage(noMatchMessage)}, nil
	}

	return h.answerField(ctx, *prof, pb.Action)
}

// HandleFallback resolves plain-name messages that matched no module
// keyword ("Βαρλάμης", "Γιάννης Δήμου"). Returns nothing when the text
// does not look like a name or resolution misses.
func (h *Handler) HandleFallback(ctx context.Context, text string) ([]messenger.Message, error) {
	term := stripStopWords(resolve.Normalize(text))
	if !looksLikeName(term) {
		return nil, nil
	}

	matches, err := h.resolveName(ctx, term)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	if len(matches) == 1 {
		return h.answerField(ctx, matches[0].Payload, "detail")
	}
	return h.formatMatches(matches), nil
}

// resolveName runs the tiered resolver over the full professor
// snapshot.
func (h *Handler) resolveName(ctx context.Context, term string) ([]resolve.Candidate[storage.Professor], error) {
	return resolve.ResolveAll(term, func() ([]resolve.Candidate[storage.Professor], error) {
		profs, err := h.db.GetAllProfessors(ctx)
		if err != nil {
			return nil, err
		}
		candidates := make([]resolve.Candidate[storage.Professor], len(profs))
		for i, p := range profs {
			candidates[i] = resolve.Candidate[storage.Professor]{
				ID:        p.Email,
				FirstName: p.FirstName,
				LastName:  p.LastName,
				Payload:   p,
			}
		}
		return candidates, nil
	})
}

// listProfessors renders the staff listing as plain text, the way the
// source page orders it.
func (h *Handler) listProfessors(ctx context.Context) ([]messenger.Message, error) {
	profs, err := h.db.GetAllProfessors(ctx)
	if err != nil {
		return nil, err
	}
	if len(profs) == 0 {
		return []messenger.Message{messengerutil.NewTextMessage(emptyListMessage)}, nil
	}

	names := make([]string, 0, maxListNames)
	for _, p := range profs {
		if len(names) == maxListNames {
			break
		}
		names = append(names, fullName(p))
	}

	text := "Καθηγητές:\n• " + strings.Join(names, "\n• ")
	if len(profs) > maxListNames {
		text += "\n" + listHintMessage
	}
	return []messenger.Message{messengerutil.NewTextMessage(text)}, nil
}

// answerField renders one professor. The detail action gets a card and
// a text block with rating quick replies; field actions answer in one
// line.
func (h *Handler) answerField(ctx context.Context, p storage.Professor, field string) ([]messenger.Message, error) {
	name := fullName(p)

	switch field {
	case "email":
		return []messenger.Message{messengerutil.NewTextMessage(
			fmt.Sprintf("%s %s: %s", emailLabel, name, displayEmail(p.Email)),
		)}, nil
	case "phone":
		return []messenger.Message{messengerutil.NewTextMessage(
			fmt.Sprintf("%s %s: %s", phoneLabel, name, displayField(p.Phone)),
		)}, nil
	case "office":
		return []messenger.Message{messengerutil.NewTextMessage(
			fmt.Sprintf("%s %s: %s", officeLabel, name, displayField(p.Office)),
		)}, nil
	case "website":
		if !hasValue(p.AcademicWebPage) {
			return []messenger.Message{messengerutil.NewTextMessage(
				fmt.Sprintf(noWebsiteFormat, name),
			)}, nil
		}
		return []messenger.Message{messengerutil.NewTextMessage(
			fmt.Sprintf("%s %s: %s", websiteLabel, name, p.AcademicWebPage),
		)}, nil
	default:
		return h.detailMessages(ctx, p), nil
	}
}

// detailMessages builds the single-card carousel plus the detail text
// with the rating prompt.
func (h *Handler) detailMessages(ctx context.Context, p storage.Professor) []messenger.Message {
	card := h.professorCard(p)
	carousel := messengerutil.NewCarousel([]messenger.Element{card})

	lines := []string{fmt.Sprintf("Στοιχεία για %s %s:", article(p.Gender), fullName(p))}
	if p.Category != "" {
		lines = append(lines, messengerutil.FormatLabelValue("Βαθμίδα", p.Category))
	}
	if p.AreaOf != "" {
		lines = append(lines, messengerutil.FormatLabelValue("Γνωστικό αντικείμενο", p.AreaOf))
	}
	lines = append(lines,
		messengerutil.FormatLabelValue(emailLabel, displayEmail(p.Email)),
		messengerutil.FormatLabelValue(phoneLabel, displayField(p.Phone)),
		messengerutil.FormatLabelValue(officeLabel, displayField(p.Office)),
	)
	if hasValue(p.AcademicWebPage) {
		lines = append(lines, messengerutil.FormatLabelValue(websiteLabel, p.AcademicWebPage))
	}
	if summary := h.ratingLine(ctx, p.Email); summary != "" {
		lines = append(lines, summary)
	}
	lines = append(lines, "", ratingPromptMsg)

	text := messengerutil.NewTextMessage(strings.Join(lines, "\n"))
	text = messengerutil.WithQuickReplies(text, ratingQuickReplies(p.Email)...)

	return []messenger.Message{carousel, text}
}

// ratingLine formats the aggregate rating, or "" when nobody voted yet.
// A summary read failure only loses the line, never the answer.
func (h *Handler) ratingLine(ctx context.Context, email string) string {
	summary, err := h.db.GetProfessorRatingSummary(ctx, email)
	if err != nil {
		h.logger.WithModule(moduleName).WithError(err).Warnf("Failed to read rating summary for %s", email)
		return ""
	}
	if summary == nil || summary.Count == 0 {
		return ""
	}
	return fmt.Sprintf("Αξιολόγηση: %.1f/5 (%d ψήφοι)", summary.Average, summary.Count)
}

// formatMatches renders an ambiguous result set: up to three matches as
// a text listing, more as a carousel capped at the card limit.
func (h *Handler) formatMatches(matches []resolve.Candidate[storage.Professor]) []messenger.Message {
	if len(matches) <= maxTextResults {
		lines := make([]string, 0, len(matches))
		for _, m := range matches {
			p := m.Payload
			bits := []string{fullName(p)}
			if hasValue(p.Email) && !isSynthetic(p.Email) {
				bits = append(bits, emailLabel+": "+p.Email)
			}
			if hasValue(p.Phone) {
				bits = append(bits, phoneLabel+": "+p.Phone)
			}
			lines = append(lines, strings.Join(bits, " — "))
		}
		return []messenger.Message{messengerutil.NewTextMessage(
			"Αποτελέσματα:\n• " + strings.Join(lines, "\n• "),
		)}
	}

	display := matches
	if len(display) > config.MessengerMaxCarouselCards {
		display = display[:config.MessengerMaxCarouselCards]
	}
	elements := make([]messenger.Element, len(display))
	for i, m := range display {
		elements[i] = h.professorCard(m.Payload)
	}

	msgs := []messenger.Message{messengerutil.NewCarousel(elements)}
	if len(matches) > config.MessengerMaxCarouselCards {
		msgs = append(msgs, messengerutil.NewTextMessage(
			fmt.Sprintf("Βρέθηκαν %d καθηγητές, δείχνω τους πρώτους %d.", len(matches), config.MessengerMaxCarouselCards),
		))
	}
	return msgs
}

// professorCard builds the carousel element for one professor.
func (h *Handler) professorCard(p storage.Professor) messenger.Element {
	buttons := []messenger.Button{
		messengerutil.NewPostbackButton(detailButtonTitle, bot.EncodePostback(moduleName, "detail", p.Email)),
	}
	if hasValue(p.AcademicWebPage) {
		buttons = append(buttons, messengerutil.NewURLButton(pageButtonTitle, p.AcademicWebPage))
	}
	if hasValue(p.Email) && !isSynthetic(p.Email) {
		buttons = append(buttons, messengerutil.NewURLButton(emailButtonTitle, "mailto:"+p.Email))
	}

	return messengerutil.NewElement(fullName(p), subtitle(p), p.ImageURL, buttons...)
}

// ratingQuickReplies builds the 1-5 score chips. The rating module owns
// the postback.
func ratingQuickReplies(email string) []messenger.QuickReply {
	replies := make([]messenger.QuickReply, 0, 5)
	for score := 1; score <= 5; score++ {
		replies = append(replies, messengerutil.NewQuickReply(
			fmt.Sprintf("%d ⭐", score),
			bot.EncodePostback("rating", "rate", email, strconv.Itoa(score)),
		))
	}
	return replies
}

// subtitle joins email, phone and office into the card subtitle.
func subtitle(p storage.Professor) string {
	var bits []string
	if hasValue(p.Email) && !isSynthetic(p.Email) {
		bits = append(bits, emailLabel+": "+p.Email)
	}
	if hasValue(p.Phone) {
		bits = append(bits, phoneLabel+": "+p.Phone)
	}
	if hasValue(p.Office) {
		bits = append(bits, officeLabel+": "+p.Office)
	}
	if len(bits) == 0 {
		return p.Category
	}
	return strings.Join(bits, " · ")
}

func fullName(p storage.Professor) string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.Email
	}
	return name
}

// hasValue reports whether a scraped field carries real data rather
// than the placeholder the ETL stores for unsupported fields.
func hasValue(v string) bool {
	return v != "" && v != config.UnsupportedFieldValue
}

// isSynthetic reports whether the email is an ETL-generated placeholder
// that must never be shown or mailed.
func isSynthetic(email string) bool {
	return strings.HasSuffix(email, config.SyntheticEmailDomain)
}

// displayField substitutes the site's placeholder wording for missing
// values.
func displayField(v string) string {
	if !hasValue(v) {
		return config.NotProvidedBySiteMessage
	}
	return v
}

// displayEmail hides synthetic addresses behind the placeholder
// wording.
func displayEmail(email string) string {
	if !hasValue(email) || isSynthetic(email) {
		return config.NotProvidedBySiteMessage
	}
	return email
}

// fieldForKeyword maps a matched keyword to the field it asks for.
func fieldForKeyword(keyword string) string {
	switch keyword {
	case "email", "mail":
		return "email"
	case "τηλεφωνο", "τηλ":
		return "phone"
	case "γραφειο":
		return "office"
	case "ιστοσελιδα":
		return "website"
	default:
		return "detail"
	}
}

// isListKeyword reports whether a bare keyword means "list everyone".
func isListKeyword(keyword string) bool {
	switch keyword {
	case "καθηγητες", "καθηγητριες", "διδασκοντες", "professors", "professor", "καθηγητης", "prof":
		return true
	default:
		return false
	}
}

// stripStopWords removes filler words around the name.
func stripStopWords(term string) string {
	fields := strings.Fields(term)
	kept := fields[:0]
	for _, f := range fields {
		if !stopWords[f] {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

// looksLikeName accepts short all-letter phrases as candidate names.
func looksLikeName(term string) bool {
	fields := strings.Fields(term)
	if len(fields) == 0 || len(fields) > 3 {
		return false
	}
	for _, f := range fields {
		if len([]rune(f)) < 3 {
			return false
		}
		for _, r := range f {
			if !isLetter(r) {
				return false
			}
		}
	}
	return true
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'α' && r <= 'ω') || r == 'ς'
}
