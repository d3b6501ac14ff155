package integration

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ASH1998/AI-Task-Tracker/pkg/models"
)

// TextCompleter issues one text completion and returns the trimmed response.
type TextCompleter interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type openAITextCompleter struct {
	client chatCompleter
	model  string
}

// NewTextCompleter creates a TextCompleter for the configured provider. It
// uses the text model (not the vision model); on Azure the same deployment
// serves both.
func NewTextCompleter(cfg models.ProviderConfig) (TextCompleter, error) {
	client, model, err := newChatClient(cfg, cfg.TextModel)
	if err != nil {
		return nil, fmt.Errorf("creating text client: %w", err)
	}
	return &openAITextCompleter{client: client, model: model}, nil
}

// Complete sends a system + user message pair with a low temperature so
// repeated calls stay consistent.
func (c *openAITextCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   50,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("calling text model: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("text model returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
