// Package contact answers department contact queries from the contacts
// table (address, secretariat phone and email, map link) and carries an
// emergency-numbers fast path.
package contact

import (
	"context"
	"fmt"
	"strings"

	"github.com/huahelper/hua-messengerbot-go/internal/bot"
	"github.com/huahelper/hua-messengerbot-go/internal/logger"
	"github.com/huahelper/hua-messengerbot-go/internal/messenger"
	"github.com/huahelper/hua-messengerbot-go/internal/messengerutil"
	"github.com/huahelper/hua-messengerbot-go/internal/metrics"
	"github.com/huahelper/hua-messengerbot-go/internal/resolve"
	"github.com/huahelper/hua-messengerbot-go/internal/storage"
)

const moduleName = "contact"

var (
	contactKeywords = []string{
		"επικοινωνια", "contact", "τηλεφωνα", "χαρτης",
		"εκτακτο", "επειγον", "112",
	}
	contactRegex = bot.BuildKeywordRegex(contactKeywords)

	emergencyKeywords = map[string]bool{
		"εκτακτο": true, "επειγον": true, "112": true,
	}
)

// Handler implements bot.Handler for department contact info.
type Handler struct {
	db      storage.ContactRepository
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewHandler creates a contact handler.
func NewHandler(db storage.ContactRepository, logger *logger.Logger, metrics *metrics.Metrics) *Handler {
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

// CanHandle reports whether the text starts with a contact keyword.
func (h *Handler) CanHandle(text string) bool {
	return bot.MatchKeyword(contactRegex, text) != ""
}

// HandleMessage answers contact queries. Emergency keywords short-
// circuit to the static number list; a term filters by label, no term
// lists everything.
func (h *Handler) HandleMessage(ctx context.Context, text string) ([]messenger.Message, error) {
	log := h.logger.WithModule(moduleName)

	keyword := bot.MatchKeyword(contactRegex, text)
	if keyword == "" {
		return nil, nil
	}
	if emergencyKeywords[keyword] {
		return []messenger.Message{messengerutil.NewTextMessage(emergencyText)}, nil
	}

	term := bot.ExtractSearchTerm(text, keyword)
	log.Infof("Contact query: keyword=%q term=%q", keyword, term)

	contacts, err := h.db.GetAllContacts(ctx)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return []messenger.Message{messengerutil.NewTextMessage(noContactsMessage)}, nil
	}

	if term != "" {
		filtered := filterContacts(contacts, term)
		if len(filtered) == 0 {
			return []messenger.Message{messengerutil.NewTextMessage(
				fmt.Sprintf(noMatchFormat, term),
			)}, nil
		}
		contacts = filtered
	}

	return h.formatContacts(contacts), nil
}

// CanHandlePostback reports whether the payload carries the "contact$"
// prefix.
func (h *Handler) CanHandlePostback(data string) bool {
	return bot.OwnsPostback(moduleName, data)
}

// HandlePostback answers "contact$detail$<key>".
func (h *Handler) HandlePostback(ctx context.Context, data string) ([]messenger.Message, error) {
	pb, err := bot.ParsePostback(data)
	if err != nil {
		return nil, err
	}

	contact, err := h.db.GetContactByKey(ctx, pb.Param(0))
	if err != nil {
		return nil, err
	}
	// (nil, nil) when the entry expired since the card was sent.
	if contact == nil {
		return []messenger.Message{messengerutil.NewTextMessage(noMatchMessage)}, nil
	}
	return h.formatContacts([]storage.Contact{*contact}), nil
}

// filterContacts keeps entries whose key or label matches the term.
func filterContacts(contacts []storage.Contact, term string) []storage.Contact {
	var kept []storage.Contact
	for _, c := range contacts {
		key := resolve.Normalize(strings.ReplaceAll(c.Key, "_", " "))
		label := resolve.Normalize(c.Label)
		if strings.Contains(key, term) || strings.Contains(label, term) ||
			(label != "" && strings.Contains(term, label)) {
			kept = append(kept, c)
		}
	}
	return kept
}

// formatContacts renders contact rows as one bulleted text message.
func (h *Handler) formatContacts(contacts []storage.Contact) []messenger.Message {
	lines := make([]string, 0, len(contacts))
	for _, c := range contacts {
		label := c.Label
		if label == "" {
			label = c.Key
		}
		value := c.Value
		if value == "" {
			value = "—"
		}
		line := "• " + messengerutil.FormatLabelValue(label, value)
		if c.URL != "" {
			line += " (" + c.URL + ")"
		}
		lines = append(lines, line)
	}
	return messengerutil.ChunkText(contactsHeader + "\n" + strings.Join(lines, "\n"))
}
