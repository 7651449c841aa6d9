package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/huahelper/hua-messengerbot-go/internal/config"
	"github.com/huahelper/hua-messengerbot-go/internal/logger"
	"github.com/huahelper/hua-messengerbot-go/internal/metrics"
)

// Send API retry policy. The platform rate-limits at the page level
// (error code 613 / HTTP 429) and has transient 5xx hiccups; both are
// worth a short retry. 4xx validation errors are not.
const (
	sendMaxRetries    = 2
	sendRetryInitial  = 500 * time.Millisecond
	messagingResponse = "RESPONSE"
)

// Client talks to the Graph API Send API for one page.
type Client struct {
	httpClient  *http.Client
	baseURL     string // e.g. https://graph.facebook.com/v19.0
	accessToken string
	logger      *logger.Logger
	metrics     *metrics.Metrics
}

// ClientConfig holds the Client dependencies.
type ClientConfig struct {
	BaseURL     string
	AccessToken string
	Logger      *logger.Logger
	Metrics     *metrics.Metrics
}

// NewClient creates a Send API client. BaseURL is overridable so tests
// can point it at an httptest server.
func NewClient(cfg ClientConfig) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: config.SendMessage,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:     cfg.BaseURL,
		accessToken: cfg.AccessToken,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
	}
}

// SendText delivers a plain text message to the recipient.
func (c *Client) SendText(ctx context.Context, recipientID, text string) error {
	return c.SendMessage(ctx, recipientID, Message{Text: text})
}

// SendCarousel delivers a generic-template carousel. The caller is
// responsible for staying inside the platform limits (10 elements,
// 3 buttons each); messengerutil builders enforce them.
func (c *Client) SendCarousel(ctx context.Context, recipientID string, elements []Element) error {
	return c.SendMessage(ctx, recipientID, Message{
		Attachment: &Attachment{
			Type: "template",
			Payload: TemplatePayload{
				TemplateType: "generic",
				Elements:     elements,
			},
		},
	})
}

// SendMessage delivers one prepared message.
func (c *Client) SendMessage(ctx context.Context, recipientID string, msg Message) error {
	messageType := "text"
	if msg.IsCarousel() {
		messageType = "carousel"
	}

	start := time.Now()
	err := c.post(ctx, SendRequest{
		Recipient:     Recipient{ID: recipientID},
		MessagingType: messagingResponse,
		Message:       &msg,
	})

	status := "success"
	if err != nil {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordSend(messageType, status, time.Since(start).Seconds())
	}
	return err
}

// SendSenderAction fires mark_seen / typing_on / typing_off. These are
// cosmetic, so the call gets its own short timeout and no retry.
func (c *Client) SendSenderAction(ctx context.Context, recipientID, action string) error {
	ctx, cancel := context.WithTimeout(ctx, config.SenderAction)
	defer cancel()

	return c.postOnce(ctx, SendRequest{
		Recipient:    Recipient{ID: recipientID},
		SenderAction: action,
	})
}

// post sends the request with retries on 429 and 5xx responses.
func (c *Client) post(ctx context.Context, req SendRequest) error {
	var lastErr error
	delay := sendRetryInitial

	for attempt := 0; attempt <= sendMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		lastErr = c.postOnce(ctx, req)
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
		if c.logger != nil {
			c.logger.WithError(lastErr).WithField("attempt", attempt+1).Warn("Send API call failed; retrying")
		}
	}

	return lastErr
}

func (c *Client) postOnce(ctx context.Context, req SendRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	endpoint := c.baseURL + "/me/messages?access_token=" + url.QueryEscape(c.accessToken)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create send request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	return decodeAPIError(resp)
}

// decodeAPIError turns a non-2xx Send API response into an *APIError,
// falling back to a plain error when the body is not the documented
// envelope.
func decodeAPIError(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<10))
	if err != nil {
		return fmt.Errorf("send API status %d: read body: %w", resp.StatusCode, err)
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error != nil {
		envelope.Error.httpStatus = resp.StatusCode
		return envelope.Error
	}

	return fmt.Errorf("send API status %d: %s", resp.StatusCode, string(data))
}

// isRetryable reports whether the Send API failure is worth retrying:
// a transport-level failure, page-level rate limiting or a server-side
// error. Context cancellation and 4xx validation errors are final.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		// Transport-level failures (timeouts, resets).
		return true
	}
	if apiErr.httpStatus == http.StatusTooManyRequests || apiErr.httpStatus >= 500 {
		return true
	}
	// Code 613: calls-per-hour rate limit.
	return apiErr.Code == 613
}
