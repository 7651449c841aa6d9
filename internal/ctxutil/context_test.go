package ctxutil

import (
	"context"
	"testing"
)

func TestSenderIDContext(t *testing.T) {
	t.Parallel()

	t.Run("empty context", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		if senderID := GetSenderID(ctx); senderID != "" {
			t.Errorf("Expected empty string, got %s", senderID)
		}
	})

	t.Run("with sender ID", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		expectedSenderID := "24081234567890123"
		ctx = WithSenderID(ctx, expectedSenderID)
		senderID := GetSenderID(ctx)
		if senderID != expectedSenderID {
			t.Errorf("Expected senderID %s, got %s", expectedSenderID, senderID)
		}
	})

	t.Run("must get sender ID", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		expectedSenderID := "24081234567890123"
		ctx = WithSenderID(ctx, expectedSenderID)
		senderID := MustGetSenderID(ctx)
		if senderID != expectedSenderID {
			t.Errorf("Expected senderID %s, got %s", expectedSenderID, senderID)
		}
	})
}

func TestMustGetSenderID_Panic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected MustGetSenderID to panic on empty context")
		}
	}()

	MustGetSenderID(ctx)
}

func TestRequestIDContext(t *testing.T) {
	t.Parallel()

	t.Run("empty context", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		if requestID, ok := GetRequestID(ctx); ok || requestID != "" {
			t.Error("Expected GetRequestID to return empty string and false for empty context")
		}
	})

	t.Run("with request ID", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		expectedRequestID := "req-12345"
		ctx = WithRequestID(ctx, expectedRequestID)
		requestID, ok := GetRequestID(ctx)
		if !ok {
			t.Error("Expected GetRequestID to return true")
		}
		if requestID != expectedRequestID {
			t.Errorf("Expected requestID %s, got %s", expectedRequestID, requestID)
		}
	})
}

func TestMessageIDContext(t *testing.T) {
	t.Parallel()

	t.Run("empty context", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		if messageID := GetMessageID(ctx); messageID != "" {
			t.Errorf("Expected empty string, got %s", messageID)
		}
	})

	t.Run("with message ID", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		expectedMessageID := "m_AbCdEfGh123"
		ctx = WithMessageID(ctx, expectedMessageID)
		messageID := GetMessageID(ctx)
		if messageID != expectedMessageID {
			t.Errorf("Expected messageID %s, got %s", expectedMessageID, messageID)
		}
	})

	t.Run("empty message ID returns empty", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		ctx = WithMessageID(ctx, "")
		if messageID := GetMessageID(ctx); messageID != "" {
			t.Errorf("Expected empty messageID for empty input, got %s", messageID)
		}
	})
}

func TestContextChaining(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// Chain multiple context values
	ctx = WithSenderID(ctx, "2408111")
	ctx = WithRequestID(ctx, "req-789")
	ctx = WithMessageID(ctx, "m_chain")

	// Verify all values are preserved
	if senderID := GetSenderID(ctx); senderID != "2408111" {
		t.Error("SenderID not preserved in chained context")
	}
	if requestID, ok := GetRequestID(ctx); !ok || requestID != "req-789" {
		t.Error("RequestID not preserved in chained context")
	}
	if messageID := GetMessageID(ctx); messageID != "m_chain" {
		t.Error("MessageID not preserved in chained context")
	}
}

func TestPreserveTracing(t *testing.T) {
	t.Parallel()
	t.Run("preserves all tracing values", func(t *testing.T) {
		t.Parallel()
		parentCtx := context.Background()
		parentCtx = WithSenderID(parentCtx, "sender123")
		parentCtx = WithRequestID(parentCtx, "req789")
		parentCtx = WithMessageID(parentCtx, "m_xyz")

		detachedCtx := PreserveTracing(parentCtx)

		if senderID := GetSenderID(detachedCtx); senderID != "sender123" {
			t.Errorf("Expected senderID 'sender123', got %q", senderID)
		}
		if requestID, ok := GetRequestID(detachedCtx); !ok || requestID != "req789" {
			t.Errorf("Expected requestID 'req789', got %q (ok=%v)", requestID, ok)
		}
		if messageID := GetMessageID(detachedCtx); messageID != "m_xyz" {
			t.Errorf("Expected messageID 'm_xyz', got %q", messageID)
		}
	})

	t.Run("handles partial values", func(t *testing.T) {
		t.Parallel()
		partialCtx := context.Background()
		partialCtx = WithSenderID(partialCtx, "sender_only")
		detachedPartial := PreserveTracing(partialCtx)

		if senderID := GetSenderID(detachedPartial); senderID != "sender_only" {
			t.Errorf("Expected senderID 'sender_only', got %q", senderID)
		}
		if messageID := GetMessageID(detachedPartial); messageID != "" {
			t.Errorf("Expected empty messageID, got %q", messageID)
		}
	})

	t.Run("handles empty context", func(t *testing.T) {
		t.Parallel()
		emptyDetached := PreserveTracing(context.Background())

		if senderID := GetSenderID(emptyDetached); senderID != "" {
			t.Errorf("Expected empty senderID, got %q", senderID)
		}
		if requestID, ok := GetRequestID(emptyDetached); ok || requestID != "" {
			t.Errorf("Expected empty requestID, got %q (ok=%v)", requestID, ok)
		}
	})

	t.Run("creates independent context (cancellation)", func(t *testing.T) {
		t.Parallel()
		cancelCtx, cancel := context.WithCancel(WithSenderID(context.Background(), "sender_cancel"))
		detachedCancel := PreserveTracing(cancelCtx)

		cancel() // Cancel parent

		// Parent should be canceled
		if err := cancelCtx.Err(); err == nil {
			t.Error("Expected parent context to be canceled")
		}

		// Detached child should NOT be canceled
		if err := detachedCancel.Err(); err != nil {
			t.Errorf("Expected detached context to be active, got error: %v", err)
		}

		// But values should still be preserved
		if senderID := GetSenderID(detachedCancel); senderID != "sender_cancel" {
			t.Errorf("Expected senderID 'sender_cancel', got %q", senderID)
		}
	})
}
