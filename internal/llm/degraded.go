package llm

import "context"

const degradedMessage = "AI responses are currently unavailable because no model API key is configured. Your message was received, but no answer can be generated."

// DegradedClient is the ModelClient used when no API key is configured. The
// server still starts and serves everything that does not need generation.
type DegradedClient struct{}

func NewDegradedClient() *DegradedClient {
	return &DegradedClient{}
}

func (c *DegradedClient) GenerateContent(ctx context.Context, prompt string, cfg GenerateConfig) (string, error) {
	return "", ErrModelUnavailable
}

// GenerateContentStream emits the fixed unavailability notice as a normal
// response so the client-side rendering path stays identical.
func (c *DegradedClient) GenerateContentStream(ctx context.Context, turns []Turn, cfg GenerateConfig, emit func(chunk string) error) error {
	return emit(degradedMessage)
}
