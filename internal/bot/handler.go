// Package bot provides the handler interface, registry and processor
// behind the Messenger webhook. Each module (professor, course,
// facility, service, contact, rating, usage) implements Handler;
// the registry dispatches sanitized user text to the first module that
// recognizes it and routes postbacks by their module prefix.
package bot

import (
	"context"

	"github.com/huahelper/hua-messengerbot-go/internal/messenger"
)

// Handler is the contract every bot module implements.
type Handler interface {
	// ModuleName returns the stable module identifier, also used as the
	// postback prefix (e.g. "professor" owns "professor$...").
	ModuleName() string

	// CanHandle reports whether the module recognizes the sanitized
	// message text.
	CanHandle(text string) bool

	// HandleMessage processes a recognized text message. An error means
	// the module could not answer (storage down, scrape failed); the
	// processor turns it into the shared fallback message and logs the
	// cause.
	HandleMessage(ctx context.Context, text string) ([]messenger.Message, error)

	// CanHandlePostback reports whether the module owns the postback
	// payload. Payload format: "module$action$param1$param2...".
	CanHandlePostback(data string) bool

	// HandlePostback processes an owned postback payload.
	HandlePostback(ctx context.Context, data string) ([]messenger.Message, error)
}

// FallbackHandler is implemented by modules that can take a second look
// at text no CanHandle recognized. The professor module uses it to
// answer plain-name queries ("Βαρλάμης") that carry no keyword.
type FallbackHandler interface {
	// HandleFallback returns no messages when the text still means
	// nothing to the module.
	HandleFallback(ctx context.Context, text string) ([]messenger.Message, error)
}
