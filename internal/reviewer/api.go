package reviewer

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// APIReviewer calls the Anthropic API directly. Unlike the CLI backend it has
// no tool access, so it reviews the diff as presented.
type APIReviewer struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewAPIReviewer creates an API-backed reviewer with the given key and model.
func NewAPIReviewer(apiKey, model string) *APIReviewer {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &APIReviewer{
		api:   &client,
		model: anthropic.Model(model),
	}
}

func (c *APIReviewer) Review(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 8192,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call: %w", err)
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in API response")
}
