// Package usage implements the help module: the full Greek
// instructions message plus per-topic sections reachable from quick
// replies. The processor jumps here directly for every help keyword,
// so this module also anchors the onboarding flow.
package usage

import (
	"context"

	"github.com/huahelper/hua-messengerbot-go/internal/bot"
	"github.com/huahelper/hua-messengerbot-go/internal/logger"
	"github.com/huahelper/hua-messengerbot-go/internal/messenger"
	"github.com/huahelper/hua-messengerbot-go/internal/messengerutil"
)

const moduleName = "usage"

var (
	helpKeywords = []string{"βοηθεια", "help", "οδηγιες", "εντολες", "start"}
	helpRegex    = bot.BuildKeywordRegex(helpKeywords)

	// topicSections maps quick-reply topics to their help section.
	// Order here drives the quick-reply chip order.
	topicOrder    = []string{"professor", "course", "facility", "service", "contact"}
	topicSections = map[string]struct {
		title string
		text  string
	}{
		"professor": {"Καθηγητές 📚", professorSection},
		"course":    {"Μαθήματα 🎓", courseSection},
		"facility":  {"Δομές 🏛️", facilitySection},
		"service":   {"Υπηρεσίες 💻", serviceSection},
		"contact":   {"Επικοινωνία 📞", contactSection},
	}
)

// Handler answers help and onboarding requests.
type Handler struct {
	logger *logger.Logger
}

// NewHandler creates the help handler.
func NewHandler(log *logger.Logger) *Handler {
	return &Handler{logger: log}
}

// ModuleName returns the module identifier.
func (h *Handler) ModuleName() string {
	return moduleName
}

// CanHandle reports whether the text is a help request.
func (h *Handler) CanHandle(text string) bool {
	return bot.MatchKeyword(helpRegex, text) != ""
}

// HandleMessage returns the full instructions followed by one
// quick-reply chip per topic.
func (h *Handler) HandleMessage(_ context.Context, _ string) ([]messenger.Message, error) {
	h.logger.WithModule(moduleName).Debug("Sending help text")

	full := greetingText + "\n\n" +
		professorSection + "\n\n" +
		courseSection + "\n\n" +
		facilitySection + "\n\n" +
		serviceSection + "\n\n" +
		contactSection + "\n\n" +
		closingText

	msgs := messengerutil.ChunkText(full)
	if len(msgs) == 0 {
		return nil, nil
	}

	last := &msgs[len(msgs)-1]
	for _, topic := range topicOrder {
		section := topicSections[topic]
		last.QuickReplies = append(last.QuickReplies, messengerutil.NewQuickReply(
			section.title,
			bot.EncodePostback(moduleName, "topic", topic),
		))
	}
	return msgs, nil
}

// CanHandlePostback reports whether the payload belongs to this module.
func (h *Handler) CanHandlePostback(data string) bool {
	return bot.OwnsPostback(moduleName, data)
}

// HandlePostback answers "usage$topic$<name>" with that help section.
func (h *Handler) HandlePostback(_ context.Context, data string) ([]messenger.Message, error) {
	pb, err := bot.ParsePostback(data)
	if err != nil || pb.Action != "topic" {
		return []messenger.Message{messengerutil.NewTextMessage(unknownTopicMessage)}, nil
	}

	section, ok := topicSections[pb.Param(0)]
	if !ok {
		return []messenger.Message{messengerutil.NewTextMessage(unknownTopicMessage)}, nil
	}
	return []messenger.Message{messengerutil.NewTextMessage(section.text)}, nil
}
