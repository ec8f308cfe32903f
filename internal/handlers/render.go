package handlers

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/MegaGrindStone/shopbuddy-web-ui/internal/models"
	"github.com/tmaxmax/go-sse"
)

type chat struct {
	ID    string
	Title string
	Time  string

	Active bool
}

type message struct {
	ID        string
	ChatID    string
	Role      string
	Segments  []segment
	Timestamp time.Time

	StreamingState string
}

type segment struct {
	Type    string
	HTML    template.HTML
	Product models.Product
}

// SSE event types for real-time updates.
var (
	chatsSSEType        = sse.Type("chats")
	messagesSSEType     = sse.Type("messages")
	closeMessageSSEType = sse.Type("closeMessage")
)

func messageView(chatID string, msg models.Message, streamingState string) message {
	segs := models.MessageSegments(msg)
	views := make([]segment, 0, len(segs))
	for _, seg := range segs {
		if seg.Type == models.SegmentTypeProduct {
			views = append(views, segment{
				Type:    string(seg.Type),
				Product: seg.Product,
			})
			continue
		}
		formatted := models.FormatText(seg.Text)
		if strings.TrimSpace(formatted) == "" {
			continue
		}
		views = append(views, segment{
			Type: string(seg.Type),
			// FormatText escapes the text before inserting its own markup.
			HTML: template.HTML(formatted),
		})
	}

	return message{
		ID:             msg.ID,
		ChatID:         chatID,
		Role:           string(msg.Role),
		Segments:       views,
		Timestamp:      msg.Timestamp,
		StreamingState: streamingState,
	}
}

func messageViews(conv models.Conversation) []message {
	msgs := make([]message, len(conv.Messages))
	for i, msg := range conv.Messages {
		msgs[i] = messageView(conv.ID, msg, models.StreamingStateEnded)
	}
	return msgs
}

func chatViews(sess *models.Session, now time.Time) []chat {
	convs := sess.Conversations()
	activeID := sess.ActiveID()

	chats := make([]chat, len(convs))
	for i, conv := range convs {
		chats[i] = chat{
			ID:     conv.ID,
			Title:  conv.Title,
			Time:   models.FormatTimestamp(now, conv.CreatedAt),
			Active: conv.ID == activeID,
		}
	}
	return chats
}

func (m Main) chatDivs(sess *models.Session) (string, error) {
	var sb strings.Builder
	for _, ch := range chatViews(sess, time.Now()) {
		if err := m.templates.ExecuteTemplate(&sb, "chat_title", ch); err != nil {
			return "", fmt.Errorf("failed to execute chat_title template: %w", err)
		}
	}
	return sb.String(), nil
}

func (m Main) publish(sess *models.Session, typ sse.EventType, data string) error {
	msg := sse.Message{
		Type: typ,
	}
	msg.AppendData(data)
	return m.sseSrv.Publish(&msg, sessionTopic(sess.ID))
}
