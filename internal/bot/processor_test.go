package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/huahelper/hua-messengerbot-go/internal/config"
	"github.com/huahelper/hua-messengerbot-go/internal/logger"
	"github.com/huahelper/hua-messengerbot-go/internal/messenger"
	"github.com/huahelper/hua-messengerbot-go/internal/messengerutil"
	"github.com/huahelper/hua-messengerbot-go/internal/ratelimit"
	"github.com/huahelper/hua-messengerbot-go/internal/resolve"
)

// stubHandler is a configurable Handler for dispatch tests.
type stubHandler struct {
	name     string
	keyword  string
	reply    string
	err      error
	fallback string // non-empty enables FallbackHandler behavior
}

func (s *stubHandler) ModuleName() string { return s.name }

func (s *stubHandler) CanHandle(text string) bool {
	return s.keyword != "" && strings.HasPrefix(resolve.Normalize(text), s.keyword)
}

func (s *stubHandler) HandleMessage(_ context.Context, _ string) ([]messenger.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []messenger.Message{messengerutil.NewTextMessage(s.reply)}, nil
}

func (s *stubHandler) CanHandlePostback(data string) bool {
	return OwnsPostback(s.name, data)
}

func (s *stubHandler) HandlePostback(_ context.Context, data string) ([]messenger.Message, error) {
	return []messenger.Message{messengerutil.NewTextMessage("postback:" + data)}, nil
}

type stubFallbackHandler struct {
	stubHandler
}

func (s *stubFallbackHandler) HandleFallback(_ context.Context, text string) ([]messenger.Message, error) {
	if s.fallback == "" || !strings.Contains(resolve.Normalize(text), s.fallback) {
		return nil, nil
	}
	return []messenger.Message{messengerutil.NewTextMessage("resolved:" + text)}, nil
}

func newTestProcessor(t *testing.T, handlers ...Handler) *Processor {
	t.Helper()
	registry := NewRegistry()
	for _, h := range handlers {
		registry.Register(h)
	}
	return NewProcessor(ProcessorConfig{
		Registry:  registry,
		Logger:    logger.New("error"),
		BotConfig: config.DefaultBotConfig(),
	})
}

func singleText(t *testing.T, msgs []messenger.Message) string {
	t.Helper()
	if len(msgs) != 1 {
		t.Fatalf("message count = %d, want 1", len(msgs))
	}
	return msgs[0].Text
}

func TestProcessMessageDispatch(t *testing.T) {
	p := newTestProcessor(t,
		&stubHandler{name: "course", keyword: "μαθημα", reply: "course-reply"},
		&stubHandler{name: "professor", keyword: "καθηγητης", reply: "professor-reply"},
	)

	msgs, err := p.ProcessMessage(context.Background(), "psid-1", "Καθηγητής Βαρλάμης")
	if err != nil {
		t.Fatalf("ProcessMessage() error = %v", err)
	}
	if got := singleText(t, msgs); got != "professor-reply" {
		t.Errorf("reply = %q, want professor-reply", got)
	}
}

func TestProcessMessageFirstMatchWins(t *testing.T) {
	p := newTestProcessor(t,
		&stubHandler{name: "first", keyword: "email", reply: "first-reply"},
		&stubHandler{name: "second", keyword: "email", reply: "second-reply"},
	)

	msgs, err := p.ProcessMessage(context.Background(), "psid-1", "email κάτι")
	if err != nil {
		t.Fatalf("ProcessMessage() error = %v", err)
	}
	if got := singleText(t, msgs); got != "first-reply" {
		t.Errorf("reply = %q, want first-reply", got)
	}
}

func TestProcessMessageFallbackResolution(t *testing.T) {
	h := &stubFallbackHandler{stubHandler: stubHandler{name: "professor", fallback: "βαρλαμης"}}
	p := newTestProcessor(t, h)

	msgs, err := p.ProcessMessage(context.Background(), "psid-1", "Βαρλάμης")
	if err != nil {
		t.Fatalf("ProcessMessage() error = %v", err)
	}
	if got := singleText(t, msgs); !strings.HasPrefix(got, "resolved:") {
		t.Errorf("reply = %q, want fallback resolution", got)
	}
}

func TestProcessMessageUnmatchedGetsFallbackMessage(t *testing.T) {
	p := newTestProcessor(t, &stubHandler{name: "course", keyword: "μαθημα", reply: "x"})

	msgs, err := p.ProcessMessage(context.Background(), "psid-1", "τι ώρα είναι")
	if err != nil {
		t.Fatalf("ProcessMessage() error = %v", err)
	}
	if got := singleText(t, msgs); got != config.FallbackMessage {
		t.Errorf("reply = %q, want shared fallback", got)
	}
}

func TestProcessMessageHandlerErrorBecomesFriendlyReply(t *testing.T) {
	p := newTestProcessor(t, &stubHandler{name: "course", keyword: "μαθημα", err: errors.New("db down")})

	msgs, err := p.ProcessMessage(context.Background(), "psid-1", "μάθημα Αλγόριθμοι")
	if err != nil {
		t.Fatalf("ProcessMessage() must not surface module errors, got %v", err)
	}
	if got := singleText(t, msgs); got != config.SnapshotUnavailableMessage {
		t.Errorf("reply = %q, want snapshot-unavailable message", got)
	}
}

func TestProcessMessageEmptyAfterSanitize(t *testing.T) {
	p := newTestProcessor(t)

	msgs, err := p.ProcessMessage(context.Background(), "psid-1", " ;;; !!! ")
	if err != nil {
		t.Fatalf("ProcessMessage() error = %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected no reply for punctuation-only input, got %d", len(msgs))
	}
}

func TestProcessMessageHelpRoutesToUsage(t *testing.T) {
	p := newTestProcessor(t,
		&stubHandler{name: "course", keyword: "βοηθεια", reply: "wrong"},
		&stubHandler{name: "usage", reply: "usage-reply"},
	)

	msgs, err := p.ProcessMessage(context.Background(), "psid-1", "Βοήθεια")
	if err != nil {
		t.Fatalf("ProcessMessage() error = %v", err)
	}
	if got := singleText(t, msgs); got != "usage-reply" {
		t.Errorf("reply = %q, want usage module to own help keywords", got)
	}
}

func TestProcessMessageRateLimited(t *testing.T) {
	limiter := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:       "sender",
		Burst:      1,
		RefillRate: 0.001,
	})
	t.Cleanup(limiter.Stop)

	registry := NewRegistry()
	registry.Register(&stubHandler{name: "course", keyword: "μαθημα", reply: "ok"})
	p := NewProcessor(ProcessorConfig{
		Registry:      registry,
		SenderLimiter: limiter,
		Logger:        logger.New("error"),
		BotConfig:     config.DefaultBotConfig(),
	})

	if _, err := p.ProcessMessage(context.Background(), "psid-1", "μάθημα Α"); err != nil {
		t.Fatalf("first message error = %v", err)
	}
	msgs, err := p.ProcessMessage(context.Background(), "psid-1", "μάθημα Β")
	if err != nil {
		t.Fatalf("second message error = %v", err)
	}
	if got := singleText(t, msgs); got != config.RateLimitedMessage {
		t.Errorf("reply = %q, want rate-limit message", got)
	}
}

func TestProcessPostbackDispatch(t *testing.T) {
	p := newTestProcessor(t, &stubHandler{name: "professor", keyword: "καθηγητης", reply: "x"})

	msgs, err := p.ProcessPostback(context.Background(), "psid-1", "professor$email$a@hua.gr")
	if err != nil {
		t.Fatalf("ProcessPostback() error = %v", err)
	}
	if got := singleText(t, msgs); got != "postback:professor$email$a@hua.gr" {
		t.Errorf("reply = %q", got)
	}
}

func TestProcessPostbackOversized(t *testing.T) {
	p := newTestProcessor(t, &stubHandler{name: "professor"})

	data := "professor$email$" + strings.Repeat("x", config.MessengerMaxPostbackLength)
	msgs, err := p.ProcessPostback(context.Background(), "psid-1", data)
	if err != nil {
		t.Fatalf("ProcessPostback() error = %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("oversized payload must be ignored, got %d messages", len(msgs))
	}
}

func TestRegistryMiddlewareOrder(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubHandler{name: "course", keyword: "μαθημα", reply: "ok"})

	var order []string
	registry.Use(func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, h Handler, input string) ([]messenger.Message, error) {
			order = append(order, "outer")
			return next(ctx, h, input)
		}
	})
	registry.Use(func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, h Handler, input string) ([]messenger.Message, error) {
			order = append(order, "inner")
			return next(ctx, h, input)
		}
	})

	if _, err := registry.DispatchMessage(context.Background(), "μαθημα"); err != nil {
		t.Fatalf("DispatchMessage() error = %v", err)
	}
	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("middleware order = %v, want [outer inner]", order)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	registry := NewRegistry()
	registry.Register(panicHandler{})
	registry.Use(RecoveryMiddleware(logger.New("error")))

	msgs, err := registry.DispatchMessage(context.Background(), "boom")
	if err == nil {
		t.Fatal("expected error from recovered panic")
	}
	if len(msgs) != 0 {
		t.Errorf("expected no messages after panic, got %d", len(msgs))
	}
}

type panicHandler struct{}

func (panicHandler) ModuleName() string       { return "panic" }
func (panicHandler) CanHandle(string) bool    { return true }
func (panicHandler) CanHandlePostback(string) bool { return false }

func (panicHandler) HandleMessage(context.Context, string) ([]messenger.Message, error) {
	panic("boom")
}

func (panicHandler) HandlePostback(context.Context, string) ([]messenger.Message, error) {
	return nil, nil
}
