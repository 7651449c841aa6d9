package webhook

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huahelper/hua-messengerbot-go/internal/bot"
	"github.com/huahelper/hua-messengerbot-go/internal/config"
	"github.com/huahelper/hua-messengerbot-go/internal/logger"
	"github.com/huahelper/hua-messengerbot-go/internal/messenger"
	"github.com/huahelper/hua-messengerbot-go/internal/metrics"
)

const (
	testAppSecret   = "test-app-secret"
	testVerifyToken = "test-verify-token"
)

// echoModule replies with the text it received, prefixed so tests can
// tell message dispatch from postback dispatch.
type echoModule struct{}

func (echoModule) ModuleName() string    { return "echo" }
func (echoModule) CanHandle(string) bool { return true }

func (echoModule) CanHandlePostback(data string) bool {
	return bot.OwnsPostback("echo", data)
}

func (echoModule) HandleMessage(_ context.Context, text string) ([]messenger.Message, error) {
	return []messenger.Message{{Text: "msg:" + text}}, nil
}

func (echoModule) HandlePostback(_ context.Context, data string) ([]messenger.Message, error) {
	return []messenger.Message{{Text: "pb:" + data}}, nil
}

// recordingSender captures Send API calls instead of hitting the wire.
type recordingSender struct {
	mu       sync.Mutex
	messages []sentMessage
	actions  []string
}

type sentMessage struct {
	recipientID string
	msg         messenger.Message
}

func (s *recordingSender) SendMessage(_ context.Context, recipientID string, msg messenger.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, sentMessage{recipientID: recipientID, msg: msg})
	return nil
}

func (s *recordingSender) SendSenderAction(_ context.Context, _ string, action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, action)
	return nil
}

func (s *recordingSender) sent() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMessage(nil), s.messages...)
}

func (s *recordingSender) sentActions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.actions...)
}

func newTestHandler(t *testing.T) (*Handler, *recordingSender) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.New("error")
	m := metrics.New(prometheus.NewRegistry())

	registry := bot.NewRegistry()
	registry.Register(echoModule{})

	processor := bot.NewProcessor(bot.ProcessorConfig{
		Registry:  registry,
		Logger:    log,
		Metrics:   m,
		BotConfig: config.DefaultBotConfig(),
	})

	sender := &recordingSender{}
	h := NewHandler(HandlerConfig{
		AppSecret:   testAppSecret,
		VerifyToken: testVerifyToken,
		Client:      sender,
		Processor:   processor,
		BotConfig:   config.DefaultBotConfig(),
		Metrics:     m,
		Logger:      log,
	})
	return h, sender
}

func newRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.GET("/webhook", h.Verify)
	r.POST("/webhook", h.Handle)
	return r
}

func postEvent(t *testing.T, router *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Hub-Signature-256", signature)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// waitForReplies blocks until the async event goroutine delivered n
// messages or the deadline passes.
func waitForReplies(t *testing.T, h *Handler, sender *recordingSender, n int) []sentMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.Shutdown(ctx))

	sent := sender.sent()
	require.Len(t, sent, n)
	return sent
}

func messageBody(senderID, text string) []byte {
	return []byte(`{
		"object": "page",
		"entry": [{"id": "page-1", "time": 1, "messaging": [{
			"sender": {"id": "` + senderID + `"},
			"recipient": {"id": "page-1"},
			"timestamp": 1,
			"message": {"mid": "m-1", "text": "` + text + `"}
		}]}]
	}`)
}

func TestVerifyHandshake(t *testing.T) {
	h, _ := newTestHandler(t)
	router := newRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token="+testVerifyToken+"&hub.challenge=42match", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42match", w.Body.String())
}

func TestVerifyRejectsWrongToken(t *testing.T) {
	h, _ := newTestHandler(t)
	router := newRouter(h)

	tests := []string{
		"/webhook?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=1",
		"/webhook?hub.mode=unsubscribe&hub.verify_token=" + testVerifyToken + "&hub.challenge=1",
		"/webhook",
	}
	for _, target := range tests {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, target, nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code, "target=%s", target)
	}
}

func TestHandleMessageEvent(t *testing.T) {
	h, sender := newTestHandler(t)
	router := newRouter(h)

	body := messageBody("psid-1", "hello")
	w := postEvent(t, router, body, SignBody(testAppSecret, body))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "EVENT_RECEIVED", w.Body.String())

	sent := waitForReplies(t, h, sender, 1)
	assert.Equal(t, "psid-1", sent[0].recipientID)
	assert.Equal(t, "msg:hello", sent[0].msg.Text)

	actions := sender.sentActions()
	assert.Equal(t, []string{messenger.ActionMarkSeen, messenger.ActionTypingOn}, actions)
}

func TestHandlePostbackEvent(t *testing.T) {
	h, sender := newTestHandler(t)
	router := newRouter(h)

	body := []byte(`{
		"object": "page",
		"entry": [{"id": "page-1", "time": 1, "messaging": [{
			"sender": {"id": "psid-2"},
			"recipient": {"id": "page-1"},
			"timestamp": 1,
			"postback": {"title": "More", "payload": "echo$detail$x"}
		}]}]
	}`)
	w := postEvent(t, router, body, SignBody(testAppSecret, body))
	require.Equal(t, http.StatusOK, w.Code)

	sent := waitForReplies(t, h, sender, 1)
	assert.Equal(t, "pb:echo$detail$x", sent[0].msg.Text)
}

func TestHandleQuickReplyRoutesAsPostback(t *testing.T) {
	h, sender := newTestHandler(t)
	router := newRouter(h)

	body := []byte(`{
		"object": "page",
		"entry": [{"id": "page-1", "time": 1, "messaging": [{
			"sender": {"id": "psid-3"},
			"recipient": {"id": "page-1"},
			"timestamp": 1,
			"message": {"mid": "m-3", "text": "5 ⭐", "quick_reply": {"payload": "echo$rate$5"}}
		}]}]
	}`)
	w := postEvent(t, router, body, SignBody(testAppSecret, body))
	require.Equal(t, http.StatusOK, w.Code)

	sent := waitForReplies(t, h, sender, 1)
	assert.Equal(t, "pb:echo$rate$5", sent[0].msg.Text)
}

func TestHandleSkipsEchoEvents(t *testing.T) {
	h, sender := newTestHandler(t)
	router := newRouter(h)

	body := []byte(`{
		"object": "page",
		"entry": [{"id": "page-1", "time": 1, "messaging": [{
			"sender": {"id": "page-1"},
			"recipient": {"id": "psid-4"},
			"timestamp": 1,
			"message": {"mid": "m-4", "text": "our own reply", "is_echo": true}
		}]}]
	}`)
	w := postEvent(t, router, body, SignBody(testAppSecret, body))
	require.Equal(t, http.StatusOK, w.Code)

	waitForReplies(t, h, sender, 0)
	assert.Empty(t, sender.sentActions())
}

func TestHandleRejectsBadSignature(t *testing.T) {
	h, sender := newTestHandler(t)
	router := newRouter(h)

	body := messageBody("psid-5", "hello")
	tests := []string{
		"",
		"sha256=deadbeef",
		"sha1=" + SignBody(testAppSecret, body)[len("sha256="):],
		SignBody("wrong-secret", body),
	}
	for _, sig := range tests {
		w := postEvent(t, router, body, sig)
		assert.Equal(t, http.StatusForbidden, w.Code, "signature=%q", sig)
	}
	waitForReplies(t, h, sender, 0)
}

func TestHandleRejectsNonPageObject(t *testing.T) {
	h, _ := newTestHandler(t)
	router := newRouter(h)

	body := []byte(`{"object": "instagram", "entry": []}`)
	w := postEvent(t, router, body, SignBody(testAppSecret, body))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleRejectsMalformedBody(t *testing.T) {
	h, _ := newTestHandler(t)
	router := newRouter(h)

	body := []byte(`{"object": "page", "entry": [`)
	w := postEvent(t, router, body, SignBody(testAppSecret, body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignatureRoundTrip(t *testing.T) {
	body := []byte(`{"object":"page"}`)
	sig := SignBody(testAppSecret, body)

	assert.True(t, ValidSignature(testAppSecret, body, sig))
	assert.False(t, ValidSignature(testAppSecret, []byte(`tampered`), sig))
	assert.False(t, ValidSignature("other", body, sig))
	assert.False(t, ValidSignature(testAppSecret, body, "sha256=zz"))
}
