// Package ctxutil provides type-safe context value management.
// Uses private key types to prevent collisions.
package ctxutil

import (
	"context"
)

type contextKey string

const (
	senderIDKey  contextKey = "ctxutil.senderID"
	requestIDKey contextKey = "ctxutil.requestID"
	messageIDKey contextKey = "ctxutil.messageID"
)

// WithSenderID adds a sender ID to the context.
// The sender ID is the Messenger page-scoped user ID (PSID) from webhook
// events and is used for rate limiting and reply routing.
func WithSenderID(ctx context.Context, senderID string) context.Context {
	return context.WithValue(ctx, senderIDKey, senderID)
}

// GetSenderID retrieves the sender ID from the context.
// Returns the sender ID if found, empty string otherwise.
func GetSenderID(ctx context.Context) string {
	if v := ctx.Value(senderIDKey); v != nil {
		if senderID, ok := v.(string); ok && senderID != "" {
			return senderID
		}
	}
	return ""
}

// MustGetSenderID retrieves the sender ID from the context.
// Panics if the sender ID is not found. Use this after the webhook
// layer has attached the PSID, where its absence is a programming error.
func MustGetSenderID(ctx context.Context) string {
	senderID, ok := ctx.Value(senderIDKey).(string)
	if !ok || senderID == "" {
		panic("ctxutil: senderID not found")
	}
	return senderID
}

// WithRequestID adds a request ID to the context for tracing.
// Request ID is generated per webhook request for log correlation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
// Returns the request ID and true if found, empty string and false otherwise.
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	return requestID, ok
}

// WithMessageID adds a Messenger message ID (mid) to the context.
func WithMessageID(ctx context.Context, messageID string) context.Context {
	return context.WithValue(ctx, messageIDKey, messageID)
}

// GetMessageID retrieves the Messenger message ID from the context.
// Returns the message ID if found, empty string otherwise.
func GetMessageID(ctx context.Context) string {
	if v := ctx.Value(messageIDKey); v != nil {
		if messageID, ok := v.(string); ok && messageID != "" {
			return messageID
		}
	}
	return ""
}

// PreserveTracing creates a detached context that preserves tracing values.
// The new context is independent of the parent's cancellation and deadlines.
//
// This function creates a fresh context.Background() and copies only tracing
// values, avoiding memory leaks from retaining parent context references
// (Go issue #64478).
//
// Use for async operations that need tracing but must outlive the parent
// context, such as webhook event processing that continues after the HTTP
// 200 has been written.
func PreserveTracing(ctx context.Context) context.Context {
	newCtx := context.Background()

	if senderID := GetSenderID(ctx); senderID != "" {
		newCtx = WithSenderID(newCtx, senderID)
	}
	if requestID, ok := GetRequestID(ctx); ok && requestID != "" {
		newCtx = WithRequestID(newCtx, requestID)
	}
	if messageID := GetMessageID(ctx); messageID != "" {
		newCtx = WithMessageID(newCtx, messageID)
	}

	return newCtx
}
