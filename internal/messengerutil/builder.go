// Package messengerutil provides builders for Messenger Send API
// messages with the platform limits enforced: generic-template
// carousels are capped at 10 cards of 3 buttons each, card titles and
// subtitles are truncated to 80 characters on a rune boundary, and
// long texts are chunked at 2000 characters on word boundaries.
package messengerutil

import (
	"strings"

	"github.com/huahelper/hua-messengerbot-go/internal/config"
	"github.com/huahelper/hua-messengerbot-go/internal/messenger"
	"github.com/huahelper/hua-messengerbot-go/internal/stringutil"
)

// NewTextMessage creates a single text message, truncated to the
// platform limit when needed. Use ChunkText when the full content
// matters.
func NewTextMessage(text string) messenger.Message {
	if len(text) > config.MessengerMaxTextLength {
		text = stringutil.TruncateRunes(text, config.MessengerMaxTextLength)
	}
	return messenger.Message{Text: text}
}

// ChunkText splits text into as many messages as needed, breaking on
// word boundaries so no chunk exceeds the platform text limit. Empty
// input yields no messages.
func ChunkText(text string) []messenger.Message {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var messages []messenger.Message
	for len(text) > 0 {
		if len(text) <= config.MessengerMaxTextLength {
			messages = append(messages, messenger.Message{Text: text})
			break
		}

		cut := breakIndex(text, config.MessengerMaxTextLength)
		messages = append(messages, messenger.Message{Text: strings.TrimSpace(text[:cut])})
		text = strings.TrimSpace(text[cut:])
	}
	return messages
}

// breakIndex finds a byte offset at or below limit that ends on a
// whitespace boundary; when no whitespace exists it backs off to a
// rune boundary so multi-byte Greek text is never split mid-character.
func breakIndex(text string, limit int) int {
	cut := limit
	for cut > 0 && text[cut-1]&0xC0 == 0x80 {
		cut--
	}
	if i := strings.LastIndexAny(text[:cut], " \n\t"); i > 0 {
		return i
	}
	return cut
}

// NewCarousel creates a generic-template carousel message, keeping at
// most the configured card limit.
func NewCarousel(elements []messenger.Element) messenger.Message {
	if len(elements) > config.MessengerMaxCarouselCards {
		elements = elements[:config.MessengerMaxCarouselCards]
	}
	return messenger.Message{
		Attachment: &messenger.Attachment{
			Type: "template",
			Payload: messenger.TemplatePayload{
				TemplateType: "generic",
				Elements:     elements,
			},
		},
	}
}

// NewElement creates one carousel card with title/subtitle truncation
// and the button limit applied. The title must be non-empty per the
// platform spec; callers pass the entity name there.
func NewElement(title, subtitle, imageURL string, buttons ...messenger.Button) messenger.Element {
	if len(buttons) > config.MessengerMaxButtonsPerCard {
		buttons = buttons[:config.MessengerMaxButtonsPerCard]
	}
	return messenger.Element{
		Title:    stringutil.TruncateRunes(title, config.MessengerMaxTitleLength),
		Subtitle: stringutil.TruncateRunes(subtitle, config.MessengerMaxSubtitleLength),
		ImageURL: imageURL,
		Buttons:  buttons,
	}
}

// NewPostbackButton creates a postback button. The payload is passed
// through untouched; modules keep payloads far under the platform's
// 1000-byte limit by construction (module$action$key).
func NewPostbackButton(title, payload string) messenger.Button {
	return messenger.Button{
		Type:    messenger.ButtonTypePostback,
		Title:   stringutil.TruncateRunes(title, 20),
		Payload: payload,
	}
}

// NewURLButton creates a web_url button.
func NewURLButton(title, url string) messenger.Button {
	return messenger.Button{
		Type:  messenger.ButtonTypeWebURL,
		Title: stringutil.TruncateRunes(title, 20),
		URL:   url,
	}
}

// NewQuickReply creates one text quick reply chip.
func NewQuickReply(title, payload string) messenger.QuickReply {
	return messenger.QuickReply{
		ContentType: "text",
		Title:       stringutil.TruncateRunes(title, 20),
		Payload:     payload,
	}
}

// WithQuickReplies attaches quick reply chips to a message.
func WithQuickReplies(msg messenger.Message, replies ...messenger.QuickReply) messenger.Message {
	msg.QuickReplies = replies
	return msg
}

// FormatLabelValue renders one "Label: value" line, substituting the
// shared placeholder when the scraped pages provide no value.
func FormatLabelValue(label, value string) string {
	if strings.TrimSpace(value) == "" || value == config.UnsupportedFieldValue {
		value = config.NotProvidedBySiteMessage
	}
	return label + ": " + value
}

// FormatWorkingHours normalizes a scraped working-hours string for
// display: whitespace collapsed and the common dash spellings unified.
// Empty input maps to the shared placeholder.
func FormatWorkingHours(raw string) string {
	hours := stringutil.CollapseSpaces(raw)
	if hours == "" || hours == config.UnsupportedFieldValue {
		return config.NotProvidedBySiteMessage
	}
	hours = strings.ReplaceAll(hours, "–", "-")
	hours = strings.ReplaceAll(hours, "—", "-")
	return hours
}
