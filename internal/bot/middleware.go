package bot

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/huahelper/hua-messengerbot-go/internal/logger"
	"github.com/huahelper/hua-messengerbot-go/internal/messenger"
	"github.com/huahelper/hua-messengerbot-go/internal/metrics"
)

// HandlerFunc is the shape of one dispatch step.
type HandlerFunc func(ctx context.Context, h Handler, input string) ([]messenger.Message, error)

// Middleware wraps a dispatch step.
type Middleware func(next HandlerFunc) HandlerFunc

// LoggingMiddleware logs handler execution with timing and outcome.
func LoggingMiddleware(log *logger.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, h Handler, input string) ([]messenger.Message, error) {
			start := time.Now()
			msgs, err := next(ctx, h, input)

			entry := log.WithModule(h.ModuleName()).
				WithField("duration_ms", time.Since(start).Milliseconds()).
				WithField("msg_count", len(msgs))
			if err != nil {
				entry.WithError(err).Warn("Handler failed")
			} else {
				entry.Debug("Handler completed")
			}
			return msgs, err
		}
	}
}

// MetricsMiddleware records per-module handler durations.
func MetricsMiddleware(m *metrics.Metrics) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, h Handler, input string) ([]messenger.Message, error) {
			start := time.Now()
			msgs, err := next(ctx, h, input)

			status := "success"
			if err != nil {
				status = "error"
			}
			if m != nil {
				m.RecordWebhook("handler_"+h.ModuleName(), status, time.Since(start).Seconds())
			}
			return msgs, err
		}
	}
}

// RecoveryMiddleware converts handler panics into errors so one broken
// module cannot kill the event worker.
func RecoveryMiddleware(log *logger.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, h Handler, input string) (msgs []messenger.Message, err error) {
			defer func() {
				if r := recover(); r != nil {
					log.WithModule(h.ModuleName()).
						WithField("panic", r).
						WithField("stack", string(debug.Stack())).
						Error("Handler panicked")
					msgs, err = nil, errHandlerPanic
				}
			}()
			return next(ctx, h, input)
		}
	}
}

var errHandlerPanic = errors.New("bot: handler panicked")
