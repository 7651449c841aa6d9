// Package facility answers questions about university facilities:
// working hours, location and contact details for the library, the
// registrar, the restaurant and the rest of the facilities table.
package facility

import (
	"context"
	"fmt"
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

const moduleName = "facility"

var (
	// Question keywords plus the facility nouns users type on their
	// own ("βιβλιοθήκη" with no verb is a complete question here).
	facilityKeywords = []string{
		"ωραριο", "που", "τοποθεσια", "διευθυνση",
		"βιβλιοθηκη", "γραμματεια", "εστιατοριο", "λεσχη",
		"γυμναστηριο", "erasmus",
	}
	facilityRegex = bot.BuildKeywordRegex(facilityKeywords)

	// Filler words between the keyword and the facility name.
	stopWords = map[string]bool{
		"ειναι": true, "βρισκεται": true, "ανοιγει": true, "κλεινει": true,
		"η": true, "ο": true, "το": true, "της": true, "του": true,
		"τη": true, "την": true, "τον": true, "στη": true, "στο": true,
	}

	// Keywords that are themselves facility names.
	facilityNouns = map[string]bool{
		"βιβλιοθηκη": true, "γραμματεια": true, "εστιατοριο": true,
		"λεσχη": true, "γυμναστηριο": true, "erasmus": true,
	}
)

// Handler implements bot.Handler for facility queries.
type Handler struct {
	db      storage.FacilityRepository
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewHandler creates a facility handler.
func NewHandler(db storage.FacilityRepository, logger *logger.Logger, metrics *metrics.Metrics) *Handler {
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

// CanHandle reports whether the text starts with a facility keyword or
// noun.
func (h *Handler) CanHandle(text string) bool {
	return bot.MatchKeyword(facilityRegex, text) != ""
}

// HandleMessage resolves the facility and answers the asked field:
// "ωράριο" the hours, "που"/"τοποθεσία" the location, a bare noun the
// full card.
func (h *Handler) HandleMessage(ctx context.Context, text string) ([]messenger.Message, error) {
	log := h.logger.WithModule(moduleName)

	keyword := bot.MatchKeyword(facilityRegex, text)
	if keyword == "" {
		return nil, nil
	}

	var term string
	if facilityNouns[keyword] {
		term = stripStopWords(resolve.Normalize(text))
	} else {
		term = stripStopWords(bot.ExtractSearchTerm(text, keyword))
	}
	log.Infof("Facility query: keyword=%q term=%q", keyword, term)

	if term == "" {
		return []messenger.Message{messengerutil.NewTextMessage(askNameMessage)}, nil
	}

	matches, err := h.resolveFacility(ctx, term)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []messenger.Message{messengerutil.NewTextMessage(noMatchMessage)}, nil
	}
	if len(matches) > 1 {
		return h.formatMatches(matches), nil
	}
	return h.answerField(matches[0].Payload, fieldForKeyword(keyword)), nil
}

// CanHandlePostback reports whether the payload carries the "facility$"
// prefix.
func (h *Handler) CanHandlePostback(data string) bool {
	return bot.OwnsPostback(moduleName, data)
}

// HandlePostback answers the card buttons. Payload format:
// "facility$<action>$<name>".
func (h *Handler) HandlePostback(ctx context.Context, data string) ([]messenger.Message, error) {
	pb, err := bot.ParsePostback(data)
	if err != nil {
		return nil, err
	}

	name := pb.Param(0)
	if name == "" {
		return []messenger.Message{messengerutil.NewTextMessage(noMatchMessage)}, nil
	}

	fac, err := h.db.GetFacilityByName(ctx, name)
	if err != nil {
		return nil, err
	}
	// (nil, nil) when the row expired or was renamed since the card
	// was sent.
	if fac == nil {
		return []messenger.Message{messengerutil.NewTextMessage(noMatchMessage)}, nil
	}

	return h.answerField(*fac, pb.Action), nil
}

// resolveFacility runs the tiered resolver over the facilities table.
// Facilities have no first/last split, so the name fills the last-name
// projection.
func (h *Handler) resolveFacility(ctx context.Context, term string) ([]resolve.Candidate[storage.Facility], error) {
	return resolve.ResolveAll(term, func() ([]resolve.Candidate[storage.Facility], error) {
		facilities, err := h.db.GetAllFacilities(ctx)
		if err != nil {
			return nil, err
		}
		candidates := make([]resolve.Candidate[storage.Facility], len(facilities))
		for i, f := range facilities {
			candidates[i] = resolve.Candidate[storage.Facility]{
				ID:       f.Name,
				LastName: f.Name,
				Payload:  f,
			}
		}
		return candidates, nil
	})
}

// answerField renders one facility: hours and location as one-liners,
// everything else as the full card.
func (h *Handler) answerField(f storage.Facility, field string) []messenger.Message {
	switch field {
	case "hours":
		if !hasValue(f.WorkingHours) {
			return []messenger.Message{messengerutil.NewTextMessage(
				fmt.Sprintf(emptyListFormat, "ωράριο"),
			)}
		}
		text := f.Name + " — " + messengerutil.FormatWorkingHours(f.WorkingHours)
		if hasValue(f.URL) {
			text += fmt.Sprintf(" (%s: %s)", moreLabel, f.URL)
		}
		return []messenger.Message{messengerutil.NewTextMessage(text)}
	case "location":
		if !hasValue(f.Location) {
			return []messenger.Message{messengerutil.NewTextMessage(
				fmt.Sprintf(emptyListFormat, "τοποθεσία"),
			)}
		}
		text := f.Name + " — " + f.Location
		if hasValue(f.URL) {
			text += fmt.Sprintf(" (%s: %s)", moreLabel, f.URL)
		}
		return []messenger.Message{messengerutil.NewTextMessage(text)}
	default:
		return h.detailMessages(f)
	}
}

// detailMessages builds the facility card plus the detail text.
func (h *Handler) detailMessages(f storage.Facility) []messenger.Message {
	lines := []string{f.Name}
	if hasValue(f.Location) {
		lines = append(lines, messengerutil.FormatLabelValue(locationLabel, f.Location))
	}
	if hasValue(f.WorkingHours) {
		lines = append(lines, messengerutil.FormatLabelValue(hoursLabel, messengerutil.FormatWorkingHours(f.WorkingHours)))
	}
	if hasValue(f.Email) {
		lines = append(lines, messengerutil.FormatLabelValue(emailLabel, f.Email))
	}
	if hasValue(f.Phone) {
		lines = append(lines, messengerutil.FormatLabelValue(phoneLabel, f.Phone))
	}
	if hasValue(f.Fax) {
		lines = append(lines, messengerutil.FormatLabelValue(faxLabel, f.Fax))
	}
	if hasValue(f.URL) {
		lines = append(lines, messengerutil.FormatLabelValue(moreLabel, f.URL))
	}

	return []messenger.Message{
		messengerutil.NewCarousel([]messenger.Element{h.facilityCard(f)}),
		messengerutil.NewTextMessage(strings.Join(lines, "\n")),
	}
}

// formatMatches renders an ambiguous result set as a carousel.
func (h *Handler) formatMatches(matches []resolve.Candidate[storage.Facility]) []messenger.Message {
	display := matches
	if len(display) > config.MessengerMaxCarouselCards {
		display = display[:config.MessengerMaxCarouselCards]
	}
	elements := make([]messenger.Element, len(display))
	for i, m := range display {
		elements[i] = h.facilityCard(m.Payload)
	}
	return []messenger.Message{messengerutil.NewCarousel(elements)}
}

// facilityCard builds the carousel element for one facility.
func (h *Handler) facilityCard(f storage.Facility) messenger.Element {
	buttons := []messenger.Button{
		messengerutil.NewPostbackButton(hoursButtonTitle, bot.EncodePostback(moduleName, "hours", f.Name)),
		messengerutil.NewPostbackButton(locationButtonTitle, bot.EncodePostback(moduleName, "location", f.Name)),
	}
	if hasValue(f.URL) {
		buttons = append(buttons, messengerutil.NewURLButton(pageButtonTitle, f.URL))
	}
	return messengerutil.NewElement(f.Name, subtitle(f), "", buttons...)
}

// subtitle joins location and phone into the card subtitle.
func subtitle(f storage.Facility) string {
	var bits []string
	if hasValue(f.Location) {
		bits = append(bits, f.Location)
	}
	if hasValue(f.Phone) {
		bits = append(bits, phoneLabel+": "+f.Phone)
	}
	return strings.Join(bits, " · ")
}

// fieldForKeyword maps a matched keyword to the field it asks for.
func fieldForKeyword(keyword string) string {
	switch keyword {
	case "ωραριο":
		return "hours"
	case "που", "τοποθεσια", "διευθυνση":
		return "location"
	default:
		return "detail"
	}
}

func hasValue(v string) bool {
	return v != "" && v != config.UnsupportedFieldValue
}

// stripStopWords removes filler words around the facility name.
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
