package bot

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/huahelper/hua-messengerbot-go/internal/config"
	"github.com/huahelper/hua-messengerbot-go/internal/ctxutil"
	"github.com/huahelper/hua-messengerbot-go/internal/logger"
	"github.com/huahelper/hua-messengerbot-go/internal/messenger"
	"github.com/huahelper/hua-messengerbot-go/internal/messengerutil"
	"github.com/huahelper/hua-messengerbot-go/internal/metrics"
	"github.com/huahelper/hua-messengerbot-go/internal/ratelimit"
	"github.com/huahelper/hua-messengerbot-go/internal/resolve"
)

// helpKeywords short-circuit dispatch straight to the usage module.
// Stored in normalized form; accented spellings match after
// resolve.Normalize.
var helpKeywords = []string{"βοηθεια", "help", "οδηγιες", "start"}

// Processor turns one webhook event into reply messages: sanitize,
// rate-limit per sender, dispatch through the registry, fall back to
// the shared help text.
type Processor struct {
	registry      *Registry
	senderLimiter *ratelimit.KeyedLimiter
	logger        *logger.Logger
	metrics       *metrics.Metrics
	timeout       time.Duration
}

// ProcessorConfig holds the Processor dependencies.
type ProcessorConfig struct {
	Registry      *Registry
	SenderLimiter *ratelimit.KeyedLimiter
	Logger        *logger.Logger
	Metrics       *metrics.Metrics
	BotConfig     *config.BotConfig
}

// NewProcessor creates an event processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	return &Processor{
		registry:      cfg.Registry,
		senderLimiter: cfg.SenderLimiter,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
		timeout:       cfg.BotConfig.WebhookTimeout,
	}
}

// ProcessMessage handles one incoming text message from senderID.
func (p *Processor) ProcessMessage(ctx context.Context, senderID, text string) ([]messenger.Message, error) {
	ctx = ctxutil.WithSenderID(ctx, senderID)

	if !p.allowSender(senderID) {
		return []messenger.Message{messengerutil.NewTextMessage(config.RateLimitedMessage)}, nil
	}

	text = Sanitize(text)
	if text == "" {
		return nil, nil
	}

	processCtx, cancel := context.WithTimeout(ctxutil.PreserveTracing(ctx), p.timeout)
	defer cancel()

	// Help keywords jump straight to the usage module so every spelling
	// lands on the same instructions regardless of registration order.
	if p.isHelpRequest(text) {
		if usage := p.registry.Handler("usage"); usage != nil {
			return usage.HandleMessage(processCtx, text)
		}
	}

	msgs, err := p.registry.DispatchMessage(processCtx, text)
	if err != nil {
		p.logger.WithError(err).Warn("Module failed to answer")
		return []messenger.Message{messengerutil.NewTextMessage(config.SnapshotUnavailableMessage)}, nil
	}
	if len(msgs) > 0 {
		return msgs, nil
	}

	// No keyword matched. Give name-resolving modules a second pass so
	// a bare "Βαρλάμης" still finds the professor.
	msgs, err = p.registry.DispatchFallback(processCtx, text)
	if err != nil {
		p.logger.WithError(err).Warn("Fallback resolution failed")
		return []messenger.Message{messengerutil.NewTextMessage(config.SnapshotUnavailableMessage)}, nil
	}
	if len(msgs) > 0 {
		return msgs, nil
	}

	return []messenger.Message{messengerutil.NewTextMessage(config.FallbackMessage)}, nil
}

// ProcessPostback handles one postback event from senderID.
func (p *Processor) ProcessPostback(ctx context.Context, senderID, data string) ([]messenger.Message, error) {
	ctx = ctxutil.WithSenderID(ctx, senderID)

	if !p.allowSender(senderID) {
		return []messenger.Message{messengerutil.NewTextMessage(config.RateLimitedMessage)}, nil
	}

	// Trim whitespace only; postback payloads are built by our own
	// carousels and must not be rewritten like free text.
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, nil
	}
	if len(data) > config.MessengerMaxPostbackLength {
		p.logger.WithField("bytes", len(data)).Warn("Oversized postback payload ignored")
		return nil, nil
	}

	processCtx, cancel := context.WithTimeout(ctxutil.PreserveTracing(ctx), p.timeout)
	defer cancel()

	msgs, err := p.registry.DispatchPostback(processCtx, data)
	if err != nil {
		p.logger.WithError(err).Warn("Module failed to handle postback")
		return []messenger.Message{messengerutil.NewTextMessage(config.SnapshotUnavailableMessage)}, nil
	}
	if len(msgs) > 0 {
		return msgs, nil
	}

	return []messenger.Message{messengerutil.NewTextMessage(config.FallbackMessage)}, nil
}

func (p *Processor) allowSender(senderID string) bool {
	if p.senderLimiter == nil || senderID == "" {
		return true
	}
	if p.senderLimiter.Allow(senderID) {
		return true
	}
	if p.metrics != nil {
		p.metrics.RecordRateLimiterDrop("sender")
	}
	return false
}

func (p *Processor) isHelpRequest(text string) bool {
	norm := resolve.Normalize(text)
	return slices.Contains(helpKeywords, norm)
}
