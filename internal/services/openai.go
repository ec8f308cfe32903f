package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MegaGrindStone/shopbuddy-web-ui/internal/models"
	goopenai "github.com/sashabaranov/go-openai"
)

// OpenAI implements the TitleGenerator interface with an OpenAI, or OpenAI-compatible, chat model.
type OpenAI struct {
	model        string
	systemPrompt string

	client *goopenai.Client

	logger *slog.Logger
}

// NewOpenAI creates a new OpenAI instance. An empty baseURL selects the OpenAI API.
func NewOpenAI(apiKey, baseURL, model, systemPrompt string, logger *slog.Logger) OpenAI {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if systemPrompt == "" {
		systemPrompt = DefaultTitlePrompt
	}

	return OpenAI{
		model:        model,
		systemPrompt: systemPrompt,
		client:       goopenai.NewClientWithConfig(cfg),
		logger:       logger.With(slog.String("module", "openai")),
	}
}

// GenerateTitle asks the model for a title summarizing the first two user messages. The context can be used
// to cancel the request.
func (o OpenAI) GenerateTitle(ctx context.Context, messages []models.Message) (string, error) {
	input, err := titleInput(messages)
	if err != nil {
		return "", err
	}

	resp, err := o.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: o.model,
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role:    goopenai.ChatMessageRoleSystem,
				Content: o.systemPrompt,
			},
			{
				Role:    goopenai.ChatMessageRoleUser,
				Content: input,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no choices found")
	}

	title := resp.Choices[0].Message.Content
	o.logger.Debug("Generated title", slog.String("title", title))

	return cleanTitle(title), nil
}
