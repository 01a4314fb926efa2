package driven

import "context"

// LLMService generates natural-language answers from a prompt and
// optional image attachment.
//
// Implementations signal transient failures (rate limits, timeouts,
// server faults) so that domain.IsTransient reports true. The answer
// synthesiser owns retry policy; adapters make exactly one attempt per
// call.
type LLMService interface {
	// Complete produces a completion for the given system and user
	// messages. When image is non-nil it is attached to the user
	// message for multimodal models.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight
	// request. Used at startup before committing to answer mode.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompletionRequest is one generation call.
type CompletionRequest struct {
	// System is the system prompt establishing grounding rules.
	System string

	// User is the user message content.
	User string

	// Image is an optional attachment included with the user message.
	Image []byte

	// ImageMIME is the media type of Image.
	ImageMIME string

	// MaxTokens caps the generated length. Zero means the adapter
	// default.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}
