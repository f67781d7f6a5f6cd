package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GeminiClient implements ModelClient against the Gemini API.
type GeminiClient struct {
	client     *genai.Client
	chatModel  string
	liteModel  string
	thinkModel string
}

func NewGeminiClient(ctx context.Context, apiKey, chatModel, liteModel, thinkModel string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{
		client:     client,
		chatModel:  chatModel,
		liteModel:  liteModel,
		thinkModel: thinkModel,
	}, nil
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}

func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string, cfg GenerateConfig) (string, error) {
	model := c.model(cfg)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	return textFromResponse(resp), nil
}

func (c *GeminiClient) GenerateContentStream(ctx context.Context, turns []Turn, cfg GenerateConfig, emit func(chunk string) error) error {
	if len(turns) == 0 {
		return fmt.Errorf("no turns to send")
	}
	model := c.model(cfg)

	cs := model.StartChat()
	for _, turn := range turns[:len(turns)-1] {
		cs.History = append(cs.History, &genai.Content{
			Role:  turn.Role,
			Parts: []genai.Part{genai.Text(turn.Text)},
		})
	}

	iter := cs.SendMessageStream(ctx, genai.Text(turns[len(turns)-1].Text))
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return fmt.Errorf("gemini stream failed: %w", err)
		}
		chunk := textFromResponse(resp)
		if chunk == "" {
			continue
		}
		if err := emit(chunk); err != nil {
			return err
		}
	}
}

// model builds a configured model handle for one call. Think mode selects the
// larger model and widens the output budget; the Go SDK exposes no separate
// thinking-budget knob.
func (c *GeminiClient) model(cfg GenerateConfig) *genai.GenerativeModel {
	name := c.chatModel
	switch {
	case cfg.ThinkMode:
		name = c.thinkModel
	case cfg.Lite:
		name = c.liteModel
	}

	model := c.client.GenerativeModel(name)
	if cfg.SystemInstruction != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(cfg.SystemInstruction)},
		}
	}
	if cfg.Temperature > 0 {
		temp := cfg.Temperature
		model.Temperature = &temp
	}
	maxTokens := cfg.MaxOutputTokens
	if maxTokens == 0 && cfg.ThinkMode {
		maxTokens = 8192
	}
	if maxTokens > 0 {
		model.MaxOutputTokens = &maxTokens
	}
	if len(cfg.ResponseEnum) > 0 {
		model.ResponseMIMEType = "text/x.enum"
		model.ResponseSchema = &genai.Schema{
			Type:   genai.TypeString,
			Format: "enum",
			Enum:   cfg.ResponseEnum,
		}
	}
	return model
}

func textFromResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}
