package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/MegaGrindStone/shopbuddy-web-ui/internal/models"
	"github.com/ollama/ollama/api"
)

// Ollama implements the TitleGenerator interface with a model served by an Ollama instance.
type Ollama struct {
	model        string
	systemPrompt string

	client *api.Client

	logger *slog.Logger
}

// NewOllama creates a new Ollama instance with the specified host URL and model name. The host parameter
// should be a valid URL pointing to an Ollama server.
func NewOllama(host, model, systemPrompt string, logger *slog.Logger) (Ollama, error) {
	u, err := url.Parse(host)
	if err != nil {
		return Ollama{}, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	if systemPrompt == "" {
		systemPrompt = DefaultTitlePrompt
	}

	return Ollama{
		model:        model,
		systemPrompt: systemPrompt,
		client:       api.NewClient(u, &http.Client{}),
		logger:       logger.With(slog.String("module", "ollama")),
	}, nil
}

// GenerateTitle asks the model for a title summarizing the first two user messages. The context can be used
// to cancel the request.
func (o Ollama) GenerateTitle(ctx context.Context, messages []models.Message) (string, error) {
	input, err := titleInput(messages)
	if err != nil {
		return "", err
	}

	f := false
	req := api.ChatRequest{
		Model: o.model,
		Messages: []api.Message{
			{
				Role:    "system",
				Content: o.systemPrompt,
			},
			{
				Role:    "user",
				Content: input,
			},
		},
		Stream: &f,
	}

	var title string
	if err := o.client.Chat(ctx, &req, func(res api.ChatResponse) error {
		title += res.Message.Content
		return nil
	}); err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}

	o.logger.Debug("Generated title", slog.String("title", title))

	return cleanTitle(title), nil
}
