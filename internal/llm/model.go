package llm

import (
	"context"
	"errors"
)

//go:generate mockgen -source=model.go -destination=mocks/mock_model_client.go -package=mocks

// ErrModelUnavailable is returned by clients that have no model to talk to.
var ErrModelUnavailable = errors.New("model unavailable")

// Turn is one prior message in a conversation, oldest first.
type Turn struct {
	Role string
	Text string
}

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// GenerateConfig carries the per-call generation settings.
type GenerateConfig struct {
	SystemInstruction string
	// Temperature is applied only when > 0.
	Temperature float32
	// MaxOutputTokens is applied only when > 0.
	MaxOutputTokens int32
	// Lite routes the call to the smaller, cheaper model. Used for
	// classification and naming calls where quality headroom is wasted.
	Lite bool
	// ThinkMode routes the call to the larger reasoning model and widens the
	// output budget.
	ThinkMode bool
	// ResponseEnum constrains the response to one of the given values.
	ResponseEnum []string
}

// ModelClient is the generation interface the chat service depends on.
// Implementations: GeminiClient (real) and DegradedClient (no API key).
type ModelClient interface {
	// GenerateContent runs a single-prompt completion and returns the full text.
	GenerateContent(ctx context.Context, prompt string, cfg GenerateConfig) (string, error)

	// GenerateContentStream runs a multi-turn completion. The final turn is
	// the new user message; earlier turns are history. Each received fragment
	// is passed to emit in order. A non-nil error from emit aborts the stream
	// and is returned unchanged.
	GenerateContentStream(ctx context.Context, turns []Turn, cfg GenerateConfig, emit func(chunk string) error) error
}
