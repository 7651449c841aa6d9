// Package logger provides structured logging utilities for the application.
// It wraps log/slog with JSON formatting, context-based log enrichment and
// optional asynchronous shipping to Better Stack.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogbetterstack "github.com/samber/slog-betterstack"
)

// Logger is the application logger
type Logger struct {
	*slog.Logger

	level    *slog.LevelVar
	shutdown func(context.Context) error
}

// New creates a new logger instance with JSON formatting
func New(level string) *Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter creates a new logger instance with JSON formatting writing to the provided writer
func NewWithWriter(level string, w io.Writer) *Logger {
	levelVar := newLevelVar(level)
	handler := slog.NewJSONHandler(w, jsonOptions(levelVar))
	return &Logger{Logger: slog.New(handler), level: levelVar}
}

// ShipOptions configures the full log pipeline used by the server binary.
type ShipOptions struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string

	// BetterstackToken enables remote shipping when non-empty.
	BetterstackToken string

	// BetterstackEndpoint overrides the default ingesting endpoint.
	BetterstackEndpoint string
}

// NewShipping creates the production logger: JSON to stdout, plus an
// asynchronous Better Stack shipper when a token is configured, both fed
// through a context handler that stamps sender, request and message IDs
// onto every record. Call Shutdown before exit to flush the shipper.
func NewShipping(opts ShipOptions) *Logger {
	levelVar := newLevelVar(opts.Level)

	handlers := []slog.Handler{
		slog.NewJSONHandler(os.Stdout, jsonOptions(levelVar)),
	}

	var shutdown func(context.Context) error
	if opts.BetterstackToken != "" {
		ship := NewAsyncHandler(slogbetterstack.Option{
			Level:    levelVar,
			Token:    opts.BetterstackToken,
			Endpoint: opts.BetterstackEndpoint,
		}.NewBetterstackHandler(), AsyncOptions{})
		handlers = append(handlers, ship)
		shutdown = ship.Shutdown
	}

	handler := NewContextHandler(NewMultiHandler(handlers...))
	return &Logger{
		Logger:   slog.New(handler),
		level:    levelVar,
		shutdown: shutdown,
	}
}

// Shutdown flushes any asynchronous shipping pipeline. It is a no-op for
// loggers built with New or NewWithWriter.
func (l *Logger) Shutdown(ctx context.Context) error {
	if l.shutdown == nil {
		return nil
	}
	return l.shutdown(ctx)
}

// GetLevel returns the current minimum log level.
func (l *Logger) GetLevel() slog.Level {
	return l.level.Level()
}

// SetLevel changes the minimum log level at runtime.
func (l *Logger) SetLevel(level string) error {
	parsed, err := parseLevel(level)
	if err != nil {
		return err
	}
	l.level.Set(parsed)
	return nil
}

// WithModule creates a new entry with module field
func (l *Logger) WithModule(module string) *Logger {
	return l.derive(l.With("module", module))
}

// WithRequestID creates a new entry with request ID field
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.derive(l.With("request_id", requestID))
}

// WithError creates a new entry with error field
func (l *Logger) WithError(err error) *Logger {
	return l.derive(l.With("error", err))
}

// WithField creates a new entry with a single field
func (l *Logger) WithField(key string, value any) *Logger {
	return l.derive(l.With(key, value))
}

// WithFields creates a new entry with multiple fields
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return l.derive(l.With(args...))
}

func (l *Logger) derive(sl *slog.Logger) *Logger {
	return &Logger{Logger: sl, level: l.level, shutdown: l.shutdown}
}

// Compatibility methods for logrus-style formatting

// Infof logs a formatted message at info level.
func (l *Logger) Infof(format string, args ...any) {
	l.Info(fmt.Sprintf(format, args...))
}

// Warnf logs a formatted message at warn level.
func (l *Logger) Warnf(format string, args ...any) {
	l.Warn(fmt.Sprintf(format, args...))
}

// Errorf logs a formatted message at error level.
func (l *Logger) Errorf(format string, args ...any) {
	l.Error(fmt.Sprintf(format, args...))
}

// Debugf logs a formatted message at debug level.
func (l *Logger) Debugf(format string, args ...any) {
	l.Debug(fmt.Sprintf(format, args...))
}

func newLevelVar(level string) *slog.LevelVar {
	v := new(slog.LevelVar)
	if parsed, err := parseLevel(level); err == nil {
		v.Set(parsed)
	} else {
		v.Set(slog.LevelInfo)
	}
	return v
}

func parseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

func jsonOptions(level slog.Leveler) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "timestamp"
				// slog uses RFC3339Nano by default, which is fine
			}
			if a.Key == slog.LevelKey {
				a.Key = "level"
				level := a.Value.String()
				if level == "WARN" {
					level = "warning"
				} else {
					level = strings.ToLower(level)
				}
				a.Value = slog.StringValue(level)
			}
			if a.Key == slog.MessageKey {
				a.Key = "message"
			}
			return a
		},
	}
}
