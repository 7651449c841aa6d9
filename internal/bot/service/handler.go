// Package service answers questions about student services (registrar
// desk, counseling, meals) and the e-learning platforms (e-class,
// e-studies). Platform names work as bare queries because students
// refer to them by name.
package service

import (
	"context"
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

const moduleName = "service"

var (
	serviceKeywords = []string{
		"υπηρεσια", "υπηρεσιες", "πλατφορμα", "πλατφορμες",
		"οδηγοι", "tutorials",
		"eclass", "e-class", "estudies", "e-studies", "nextcloud", "rocket.chat",
	}
	serviceRegex = bot.BuildKeywordRegex(serviceKeywords)

	// Keywords that are themselves platform names.
	platformNouns = map[string]bool{
		"eclass": true, "e-class": true, "estudies": true,
		"e-studies": true, "nextcloud": true, "rocket.chat": true,
	}
)

// Store is the storage surface the module reads.
type Store interface {
	storage.StudentServiceRepository
	storage.EPlatformRepository
}

// Handler implements bot.Handler for student services and e-platforms.
type Handler struct {
	db      Store
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewHandler creates a service handler.
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

// CanHandle reports whether the text starts with a service keyword or a
// platform name.
func (h *Handler) CanHandle(text string) bool {
	return bot.MatchKeyword(serviceRegex, text) != ""
}

// HandleMessage routes the query: bare "υπηρεσίες"/"πλατφόρμες" list,
// "οδηγοί" shows the platform carousel, anything else resolves a name.
func (h *Handler) HandleMessage(ctx context.Context, text string) ([]messenger.Message, error) {
	log := h.logger.WithModule(moduleName)

	keyword := bot.MatchKeyword(serviceRegex, text)
	if keyword == "" {
		return nil, nil
	}

	if platformNouns[keyword] {
		return h.platformDetails(ctx, keyword)
	}

	term := bot.ExtractSearchTerm(text, keyword)
	log.Infof("Service query: keyword=%q term=%q", keyword, term)

	switch keyword {
	case "οδηγοι", "tutorials":
		return h.platformCarousel(ctx)
	case "πλατφορμα", "πλατφορμες":
		if term == "" {
			return h.listPlatforms(ctx)
		}
		return h.platformDetails(ctx, term)
	default:
		if term == "" {
			return h.listServices(ctx)
		}
		return h.serviceDetails(ctx, term)
	}
}

// CanHandlePostback reports whether the payload carries the "service$"
// prefix.
func (h *Handler) CanHandlePostback(data string) bool {
	return bot.OwnsPostback(moduleName, data)
}

// HandlePostback answers carousel buttons. Payload formats:
// "service$service$<name>" and "service$platform$<name>".
func (h *Handler) HandlePostback(ctx context.Context, data string) ([]messenger.Message, error) {
	pb, err := bot.ParsePostback(data)
	if err != nil {
		return nil, err
	}

	switch pb.Action {
	case "platform":
		return h.platformDetails(ctx, pb.Param(0))
	default:
		return h.serviceDetails(ctx, pb.Param(0))
	}
}

// serviceDetails resolves one student service by name.
func (h *Handler) serviceDetails(ctx context.Context, term string) ([]messenger.Message, error) {
	matches, err := resolve.ResolveAll(term, func() ([]resolve.Candidate[storage.StudentService], error) {
		services, err := h.db.GetAllStudentServices(ctx)
		if err != nil {
			return nil, err
		}
		candidates := make([]resolve.Candidate[storage.StudentService], len(services))
		for i, s := range services {
			candidates[i] = resolve.Candidate[storage.StudentService]{
				ID:       s.Name,
				LastName: s.Name,
				Payload:  s,
			}
		}
		return candidates, nil
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []messenger.Message{messengerutil.NewTextMessage(noServiceMessage)}, nil
	}

	svc := matches[0].Payload
	lines := []string{svc.Name}
	if hasValue(svc.Description) {
		lines = append(lines, strings.TrimSpace(svc.Description))
	}
	if hasValue(svc.Email) || hasValue(svc.Phone) {
		lines = append(lines, messengerutil.FormatLabelValue(emailLabel, orDash(svc.Email))+"  "+
			messengerutil.FormatLabelValue(phoneLabel, orDash(svc.Phone)))
	}
	if hasValue(svc.URL) {
		lines = append(lines, messengerutil.FormatLabelValue(moreLabel, svc.URL))
	}
	return messengerutil.ChunkText(strings.Join(lines, "\n")), nil
}

// platformDetails resolves one e-platform by name.
func (h *Handler) platformDetails(ctx context.Context, term string) ([]messenger.Message, error) {
	matches, err := resolve.ResolveAll(term, func() ([]resolve.Candidate[storage.EPlatform], error) {
		platforms, err := h.db.GetAllEPlatforms(ctx)
		if err != nil {
			return nil, err
		}
		candidates := make([]resolve.Candidate[storage.EPlatform], len(platforms))
		for i, p := range platforms {
			candidates[i] = resolve.Candidate[storage.EPlatform]{
				ID:       p.Name,
				LastName: p.Name,
				Payload:  p,
			}
		}
		return candidates, nil
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []messenger.Message{messengerutil.NewTextMessage(noPlatformMessage)}, nil
	}

	p := matches[0].Payload
	lines := []string{p.Name}
	if hasValue(p.Description) {
		lines = append(lines, strings.TrimSpace(p.Description))
	}
	lines = append(lines, messengerutil.FormatLabelValue(linkLabel, orDash(p.URL)))

	text := messengerutil.NewTextMessage(strings.Join(lines, "\n"))
	if !hasValue(p.URL) {
		return []messenger.Message{text}, nil
	}

	card := messengerutil.NewElement(p.Name, strings.TrimSpace(p.Description), "",
		messengerutil.NewURLButton(openButtonTitle, p.URL))
	return []messenger.Message{messengerutil.NewCarousel([]messenger.Element{card}), text}, nil
}

// listServices lists the student services by name.
func (h *Handler) listServices(ctx context.Context) ([]messenger.Message, error) {
	services, err := h.db.GetAllStudentServices(ctx)
	if err != nil {
		return nil, err
	}
	if len(services) == 0 {
		return []messenger.Message{messengerutil.NewTextMessage(emptyServices)}, nil
	}

	names := make([]string, len(services))
	for i, s := range services {
		names[i] = s.Name
	}
	return messengerutil.ChunkText(servicesHeader + "\n• " + strings.Join(names, "\n• ")), nil
}

// listPlatforms lists the e-platforms with their links.
func (h *Handler) listPlatforms(ctx context.Context) ([]messenger.Message, error) {
	platforms, err := h.db.GetAllEPlatforms(ctx)
	if err != nil {
		return nil, err
	}
	if len(platforms) == 0 {
		return []messenger.Message{messengerutil.NewTextMessage(emptyPlatforms)}, nil
	}

	items := make([]string, len(platforms))
	for i, p := range platforms {
		items[i] = p.Name + " — " + orDash(p.URL)
	}
	return messengerutil.ChunkText(platformsHeader + "\n• " + strings.Join(items, "\n• ")), nil
}

// platformCarousel renders the tutorials view: one card per platform
// with an open button.
func (h *Handler) platformCarousel(ctx context.Context) ([]messenger.Message, error) {
	platforms, err := h.db.GetAllEPlatforms(ctx)
	if err != nil {
		return nil, err
	}
	if len(platforms) == 0 {
		return []messenger.Message{messengerutil.NewTextMessage(emptyPlatforms)}, nil
	}

	if len(platforms) > config.MessengerMaxCarouselCards {
		platforms = platforms[:config.MessengerMaxCarouselCards]
	}
	elements := make([]messenger.Element, len(platforms))
	for i, p := range platforms {
		var buttons []messenger.Button
		if hasValue(p.URL) {
			buttons = append(buttons, messengerutil.NewURLButton(openButtonTitle, p.URL))
		}
		buttons = append(buttons, messengerutil.NewPostbackButton(detailsButtonTitle,
			bot.EncodePostback(moduleName, "platform", p.Name)))
		elements[i] = messengerutil.NewElement(p.Name, strings.TrimSpace(p.Description), "", buttons...)
	}

	return []messenger.Message{
		messengerutil.NewCarousel(elements),
		messengerutil.NewTextMessage(platformsHintMsg),
	}, nil
}

func hasValue(v string) bool {
	return v != "" && v != config.UnsupportedFieldValue
}

func orDash(v string) string {
	if !hasValue(v) {
		return "—"
	}
	return v
}
