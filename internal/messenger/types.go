// Package messenger implements the Facebook Messenger Platform surface:
// the Send API client used to deliver replies and the webhook payload
// types the platform POSTs to us.
//
// Only the small slice of the Graph API this bot needs is modeled:
// text messages, generic-template carousels, quick replies and sender
// actions. Everything else in the webhook JSON is ignored on decode.
package messenger

import "fmt"

// Sender actions accepted by the Send API.
const (
	ActionMarkSeen  = "mark_seen"
	ActionTypingOn  = "typing_on"
	ActionTypingOff = "typing_off"
)

// Button types inside generic-template elements.
const (
	ButtonTypeWebURL   = "web_url"
	ButtonTypePostback = "postback"
)

// Message is one outgoing message: plain text, or a template
// attachment, optionally with quick replies. Exactly one of Text and
// Attachment must be set.
type Message struct {
	Text         string       `json:"text,omitempty"`
	Attachment   *Attachment  `json:"attachment,omitempty"`
	QuickReplies []QuickReply `json:"quick_replies,omitempty"`
}

// IsCarousel reports whether the message carries a generic template.
func (m Message) IsCarousel() bool {
	return m.Attachment != nil && m.Attachment.Payload.TemplateType == "generic"
}

// Attachment wraps a structured template payload.
type Attachment struct {
	Type    string          `json:"type"`
	Payload TemplatePayload `json:"payload"`
}

// TemplatePayload is the generic-template body.
type TemplatePayload struct {
	TemplateType string    `json:"template_type"`
	Elements     []Element `json:"elements,omitempty"`
}

// Element is one card of a generic-template carousel.
type Element struct {
	Title         string   `json:"title"`
	Subtitle      string   `json:"subtitle,omitempty"`
	ImageURL      string   `json:"image_url,omitempty"`
	DefaultAction *Button  `json:"default_action,omitempty"`
	Buttons       []Button `json:"buttons,omitempty"`
}

// Button is a web_url or postback button. URL is set for web_url
// buttons, Payload for postback buttons. A default_action carries no
// title per the platform spec.
type Button struct {
	Type    string `json:"type"`
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Payload string `json:"payload,omitempty"`
}

// QuickReply is one tappable chip under a message.
type QuickReply struct {
	ContentType string `json:"content_type"`
	Title       string `json:"title"`
	Payload     string `json:"payload"`
}

// --- Send API wire types ---

// Recipient addresses a message by page-scoped sender ID (PSID).
type Recipient struct {
	ID string `json:"id"`
}

// SendRequest is the POST body for /me/messages. Either Message or
// SenderAction is set, never both.
type SendRequest struct {
	Recipient     Recipient `json:"recipient"`
	MessagingType string    `json:"messaging_type,omitempty"`
	Message       *Message  `json:"message,omitempty"`
	SenderAction  string    `json:"sender_action,omitempty"`
}

// SendResponse is the success body of a Send API call.
type SendResponse struct {
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id"`
}

// APIError is the decoded Graph API error envelope. It implements
// error so callers can inspect Code/Subcode through errors.As.
type APIError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	Subcode   int    `json:"error_subcode,omitempty"`
	FBTraceID string `json:"fbtrace_id,omitempty"`

	httpStatus int
}

// HTTPStatus returns the HTTP status the error arrived with.
func (e *APIError) HTTPStatus() int { return e.httpStatus }

func (e *APIError) Error() string {
	return fmt.Sprintf("messenger: %s (code %d): %s", e.Type, e.Code, e.Message)
}

// errorEnvelope wraps APIError in the response JSON.
type errorEnvelope struct {
	Error *APIError `json:"error"`
}

// --- Webhook wire types ---

// WebhookEvent is the top-level POST body of a webhook delivery.
// Object must be "page" for Messenger subscriptions.
type WebhookEvent struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry groups the messaging events of one page.
type Entry struct {
	ID        string      `json:"id"`
	Time      int64       `json:"time"`
	Messaging []Messaging `json:"messaging"`
}

// Messaging is one conversational event. Exactly one of Message and
// Postback is non-nil for the events this bot subscribes to.
type Messaging struct {
	Sender    Principal      `json:"sender"`
	Recipient Principal      `json:"recipient"`
	Timestamp int64          `json:"timestamp"`
	Message   *MessageEvent  `json:"message,omitempty"`
	Postback  *PostbackEvent `json:"postback,omitempty"`
}

// Principal identifies a conversation participant by PSID.
type Principal struct {
	ID string `json:"id"`
}

// MessageEvent is an incoming user message. IsEcho marks copies of the
// page's own outgoing messages, which must be ignored.
type MessageEvent struct {
	MID        string         `json:"mid"`
	Text       string         `json:"text,omitempty"`
	IsEcho     bool           `json:"is_echo,omitempty"`
	QuickReply *QuickReplyRef `json:"quick_reply,omitempty"`
}

// QuickReplyRef carries the payload of a tapped quick reply chip.
type QuickReplyRef struct {
	Payload string `json:"payload"`
}

// PostbackEvent is a button tap on a template or the Get Started
// button.
type PostbackEvent struct {
	MID     string `json:"mid,omitempty"`
	Title   string `json:"title,omitempty"`
	Payload string `json:"payload"`
}
