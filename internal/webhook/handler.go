// Package webhook implements the Messenger Platform webhook: the GET
// verification handshake, X-Hub-Signature-256 validation of event
// deliveries, and async dispatch of messaging events to the bot
// processor.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/huahelper/hua-messengerbot-go/internal/bot"
	"github.com/huahelper/hua-messengerbot-go/internal/config"
	"github.com/huahelper/hua-messengerbot-go/internal/ctxutil"
	"github.com/huahelper/hua-messengerbot-go/internal/logger"
	"github.com/huahelper/hua-messengerbot-go/internal/messenger"
	"github.com/huahelper/hua-messengerbot-go/internal/metrics"
	"github.com/huahelper/hua-messengerbot-go/internal/ratelimit"
)

// maxBodyBytes caps webhook request bodies. Event batches are small;
// anything bigger is not Meta.
const maxBodyBytes = 1 << 20

// Sender is the Send API surface the handler needs. *messenger.Client
// implements it; tests substitute a recorder.
type Sender interface {
	SendMessage(ctx context.Context, recipientID string, msg messenger.Message) error
	SendSenderAction(ctx context.Context, recipientID, action string) error
}

// Handler handles Messenger webhook requests.
type Handler struct {
	appSecret   string
	verifyToken string
	client      Sender
	processor   *bot.Processor
	global      *ratelimit.GlobalLimiter
	metrics     *metrics.Metrics
	logger      *logger.Logger
	maxEvents   int
	wg          sync.WaitGroup
}

// HandlerConfig holds configuration for creating a new Handler.
type HandlerConfig struct {
	AppSecret   string
	VerifyToken string
	Client      Sender
	Processor   *bot.Processor
	BotConfig   *config.BotConfig
	Metrics     *metrics.Metrics
	Logger      *logger.Logger
}

// NewHandler creates a webhook handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		appSecret:   cfg.AppSecret,
		verifyToken: cfg.VerifyToken,
		client:      cfg.Client,
		processor:   cfg.Processor,
		global:      ratelimit.NewGlobalLimiter(cfg.BotConfig.GlobalRateLimitRPS, cfg.Metrics),
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		maxEvents:   cfg.BotConfig.MaxEventsPerWebhook,
	}
}

// Verify is the Gin handler for the GET verification handshake. Meta
// calls it once when the webhook URL is registered; echoing
// hub.challenge completes the subscription.
func (h *Handler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "subscribe" || token != h.verifyToken {
		h.logger.WithField("mode", mode).Warn("Webhook verification rejected")
		c.Status(http.StatusForbidden)
		return
	}

	c.String(http.StatusOK, challenge)
}

// Handle is the Gin handler for event deliveries. It acknowledges the
// batch immediately and processes the events asynchronously; Meta
// retries deliveries that are not answered with 200 within seconds.
func (h *Handler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		h.logger.WithError(err).Error("Failed to read webhook body")
		c.Status(http.StatusInternalServerError)
		return
	}

	if !ValidSignature(h.appSecret, body, c.GetHeader("X-Hub-Signature-256")) {
		h.logger.Warn("Invalid webhook signature")
		c.Status(http.StatusForbidden)
		return
	}

	var event messenger.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.WithError(err).Error("Failed to parse webhook body")
		c.Status(http.StatusBadRequest)
		return
	}

	if event.Object != "page" {
		c.Status(http.StatusNotFound)
		return
	}

	c.String(http.StatusOK, "EVENT_RECEIVED")

	start := time.Now()
	h.metrics.RecordWebhook("batch", "received", 0)

	events := flatten(event.Entry)
	if len(events) > h.maxEvents {
		h.logger.WithField("event_count", len(events)).
			WithField("limit", h.maxEvents).
			Warn("Too many events in webhook batch; truncating")
		events = events[:h.maxEvents]
	}

	h.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.WithField("panic", r).Error("Panic in async event processing")
			}
		}()

		ctx := context.Background()
		for _, ev := range events {
			h.processEvent(ctx, ev, start)
		}
	})
}

// flatten collects the messaging events of all entries in delivery
// order.
func flatten(entries []messenger.Entry) []messenger.Messaging {
	var events []messenger.Messaging
	for _, entry := range entries {
		events = append(events, entry.Messaging...)
	}
	return events
}

// processEvent handles a single messaging event.
func (h *Handler) processEvent(ctx context.Context, ev messenger.Messaging, batchStart time.Time) {
	senderID := ev.Sender.ID
	if senderID == "" {
		return
	}

	eventType, input := classify(ev)
	if eventType == "" {
		return
	}

	log := h.logger.WithField("event_type", eventType)
	if ev.Message != nil && ev.Message.MID != "" {
		ctx = ctxutil.WithMessageID(ctx, ev.Message.MID)
		log = log.WithField("mid", ev.Message.MID)
	}

	h.acknowledge(ctx, senderID, log)

	eventStart := time.Now()
	var messages []messenger.Message
	var err error
	switch eventType {
	case "message":
		messages, err = h.processor.ProcessMessage(ctx, senderID, input)
	default:
		messages, err = h.processor.ProcessPostback(ctx, senderID, input)
	}

	status := "success"
	if err != nil {
		status = "error"
		log.WithError(err).Error("Failed to handle event")
	}
	h.metrics.RecordWebhook(eventType, status, time.Since(eventStart).Seconds())

	if err == nil && len(messages) > 0 {
		h.reply(ctx, senderID, eventType, messages, log)
	}

	log.WithField("event_duration_ms", time.Since(eventStart).Milliseconds()).
		WithField("batch_duration_ms", time.Since(batchStart).Milliseconds()).
		Info("Event processed")
}

// classify maps a messaging event to its processor input. Quick reply
// taps arrive as message events but carry a postback payload; echoes
// of our own messages are dropped.
func classify(ev messenger.Messaging) (eventType, input string) {
	switch {
	case ev.Message != nil && ev.Message.IsEcho:
		return "", ""
	case ev.Message != nil && ev.Message.QuickReply != nil:
		return "quick_reply", ev.Message.QuickReply.Payload
	case ev.Message != nil && ev.Message.Text != "":
		return "message", ev.Message.Text
	case ev.Postback != nil:
		return "postback", ev.Postback.Payload
	default:
		return "", ""
	}
}

// acknowledge marks the message seen and shows the typing indicator
// while the processor works. Both are cosmetic; failures only warn.
func (h *Handler) acknowledge(ctx context.Context, senderID string, log *logger.Logger) {
	if err := h.client.SendSenderAction(ctx, senderID, messenger.ActionMarkSeen); err != nil {
		log.WithError(err).Warn("Failed to send mark_seen")
	}
	if err := h.client.SendSenderAction(ctx, senderID, messenger.ActionTypingOn); err != nil {
		log.WithError(err).Warn("Failed to send typing_on")
	}
}

// reply delivers the response messages in order, stopping on the first
// failure so the conversation never shows a gap in the middle.
func (h *Handler) reply(ctx context.Context, senderID, eventType string, messages []messenger.Message, log *logger.Logger) {
	for _, msg := range messages {
		if !h.global.Allow() {
			log.Warn("Global rate limit exceeded; waiting")
			h.global.WaitSimple()
		}
		if err := h.client.SendMessage(ctx, senderID, msg); err != nil {
			log.WithError(err).Error("Failed to send reply")
			h.metrics.RecordWebhook(eventType, "send_error", 0)
			return
		}
	}
}

// Shutdown waits for all async event processing to complete. It
// returns an error if the context is canceled before completion.
func (h *Handler) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.wg.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("webhook shutdown: %w", ctx.Err())
	}
}
