package services

import (
	"context"
	"errors"
	"strings"

	"github.com/MegaGrindStone/shopbuddy-web-ui/internal/models"
)

// Summarizer implements the TitleGenerator interface with the local heuristic of models.SummarizeTitle.
// It never calls out and never fails.
type Summarizer struct{}

// DefaultTitlePrompt is the system prompt of the LLM-backed title generators.
const DefaultTitlePrompt = "You name shopping conversations. Reply with a title of at most five words " +
	"describing what the shopper is looking for. Reply with the title only, without quotes."

var errNoUserMessages = errors.New("no user messages to summarize")

// GenerateTitle returns models.SummarizeTitle(messages).
func (Summarizer) GenerateTitle(_ context.Context, messages []models.Message) (string, error) {
	return models.SummarizeTitle(messages), nil
}

// titleInput joins the first two user messages the way the local heuristic does, for LLM prompts.
func titleInput(messages []models.Message) (string, error) {
	users := models.UserMessages(messages)
	if len(users) > 2 {
		users = users[:2]
	}
	texts := make([]string, 0, len(users))
	for _, msg := range users {
		if strings.TrimSpace(msg.Content) != "" {
			texts = append(texts, msg.Content)
		}
	}
	if len(texts) == 0 {
		return "", errNoUserMessages
	}
	return strings.Join(texts, ". "), nil
}

// cleanTitle strips what models tend to wrap titles in and applies the sidebar length limit.
func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	title = strings.Trim(title, "\"'*")
	return models.TruncateTitle(title)
}
