package bot

import (
	"context"

	"github.com/huahelper/hua-messengerbot-go/internal/messenger"
)

// Registry holds the bot modules in registration order. Dispatch is
// first-match-wins, so more specific modules register before broader
// ones (course codes before the professor name fallback).
type Registry struct {
	handlers    []Handler
	middlewares []Middleware
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a handler. Order matters.
func (r *Registry) Register(h Handler) {
	r.handlers = append(r.handlers, h)
}

// Use appends a middleware wrapping every dispatch. Middlewares run in
// registration order, outermost first.
func (r *Registry) Use(mw Middleware) {
	r.middlewares = append(r.middlewares, mw)
}

// DispatchMessage routes text to the first handler whose CanHandle
// accepts it. Returns nil messages and nil error when no module
// recognizes the text.
func (r *Registry) DispatchMessage(ctx context.Context, text string) ([]messenger.Message, error) {
	for _, h := range r.handlers {
		if h.CanHandle(text) {
			return r.invoke(ctx, h, text, Handler.HandleMessage)
		}
	}
	return nil, nil
}

// DispatchPostback routes a postback payload to the module owning its
// prefix.
func (r *Registry) DispatchPostback(ctx context.Context, data string) ([]messenger.Message, error) {
	for _, h := range r.handlers {
		if h.CanHandlePostback(data) {
			return r.invoke(ctx, h, data, Handler.HandlePostback)
		}
	}
	return nil, nil
}

// DispatchFallback gives FallbackHandler modules a second pass over
// unrecognized text, in registration order.
func (r *Registry) DispatchFallback(ctx context.Context, text string) ([]messenger.Message, error) {
	for _, h := range r.handlers {
		fb, ok := h.(FallbackHandler)
		if !ok {
			continue
		}
		msgs, err := r.invoke(ctx, h, text, func(_ Handler, ctx context.Context, text string) ([]messenger.Message, error) {
			return fb.HandleFallback(ctx, text)
		})
		if err != nil {
			return nil, err
		}
		if len(msgs) > 0 {
			return msgs, nil
		}
	}
	return nil, nil
}

// Handler returns a registered handler by module name, or nil.
func (r *Registry) Handler(name string) Handler {
	for _, h := range r.handlers {
		if h.ModuleName() == name {
			return h
		}
	}
	return nil
}

// invoke runs the middleware chain around one handler call.
func (r *Registry) invoke(ctx context.Context, h Handler, input string, call func(Handler, context.Context, string) ([]messenger.Message, error)) ([]messenger.Message, error) {
	next := func(ctx context.Context, h Handler, input string) ([]messenger.Message, error) {
		return call(h, ctx, input)
	}
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		next = r.middlewares[i](next)
	}
	return next(ctx, h, input)
}
