package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	titleWords    = 5
	titleMaxRunes = 35
)

// SummarizeTitle derives a short conversation title from the first two user messages: their contents are
// joined with ". ", the first five words are kept and the result is cut to 35 characters with a trailing
// "..." when longer. It returns DefaultTitle when there is nothing to summarize.
func SummarizeTitle(messages []Message) string {
	users := UserMessages(messages)
	if len(users) > 2 {
		users = users[:2]
	}
	texts := make([]string, len(users))
	for i, msg := range users {
		texts[i] = msg.Content
	}

	words := strings.Fields(strings.Join(texts, ". "))
	if len(words) > titleWords {
		words = words[:titleWords]
	}
	return TruncateTitle(strings.Join(words, " "))
}

// TruncateTitle cuts title to 35 characters, appending "..." when it was longer. Blank titles become
// DefaultTitle.
func TruncateTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return DefaultTitle
	}
	runes := []rune(title)
	if len(runes) > titleMaxRunes {
		return string(runes[:titleMaxRunes]) + "..."
	}
	return title
}

// FormatTimestamp renders t relative to now the way the conversation list shows it: "Just now", minutes,
// hours or days ago, and the plain date after a week.
func FormatTimestamp(now, t time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff/time.Hour))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff/(24*time.Hour)))
	}
	return t.Format("1/2/2006")
}
