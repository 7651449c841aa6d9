package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestAsyncHandler_DeliversAndFlushes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	h := NewAsyncHandler(inner, AsyncOptions{BufferSize: 8})

	log := slog.New(h)
	log.Info("queued message")

	if err := h.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() = %v, want nil", err)
	}
	if !strings.Contains(buf.String(), "queued message") {
		t.Errorf("record not delivered after shutdown: %s", buf.String())
	}
}

func TestAsyncHandler_DropsWhenFull(t *testing.T) {
	t.Parallel()

	// A handler that blocks forever so the queue can never drain.
	blocked := make(chan struct{})
	inner := &blockingHandler{release: blocked}
	h := NewAsyncHandler(inner, AsyncOptions{BufferSize: 1, FlushTimeout: 50 * time.Millisecond})

	log := slog.New(h)
	for i := 0; i < 10; i++ {
		log.Info("flood")
	}

	if h.Dropped() == 0 {
		t.Error("Dropped() = 0, want records discarded when the queue is full")
	}

	close(blocked)
	_ = h.Shutdown(context.Background())
}

func TestAsyncHandler_ShutdownIdempotent(t *testing.T) {
	t.Parallel()

	h := NewAsyncHandler(slog.NewJSONHandler(bytes.NewBuffer(nil), nil), AsyncOptions{})
	if err := h.Shutdown(context.Background()); err != nil {
		t.Fatalf("first Shutdown() = %v", err)
	}
	if err := h.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown() = %v, want nil", err)
	}
}

type blockingHandler struct {
	release chan struct{}
}

func (b *blockingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (b *blockingHandler) Handle(context.Context, slog.Record) error {
	<-b.release
	return nil
}

func (b *blockingHandler) WithAttrs([]slog.Attr) slog.Handler { return b }

func (b *blockingHandler) WithGroup(string) slog.Handler { return b }
