package models

import (
	"errors"
	"time"
)

// Conversation represents a titled thread of messages between the shopper and the assistant. Messages are
// append-only and their order is the render order.
type Conversation struct {
	ID        string
	Title     string
	CreatedAt time.Time
	Messages  []Message

	// Titled reports whether the title has already been derived from the user's messages.
	Titled bool
}

// Message represents an individual entry within a conversation. A user message may carry an ImageURL
// pointing at an image the shopper uploaded for visual search.
type Message struct {
	ID        string
	Role      Role
	Content   string
	ImageURL  string
	Timestamp time.Time
}

// User is the shopper identified at the login gate. There is no authentication, only a name and an
// email forwarded to the backend.
type User struct {
	FullName string
	Email    string
}

// ChatRequest is the body of a chat call to the shopping backend.
type ChatRequest struct {
	Message  string `json:"message"`
	ImageURL string `json:"image_url,omitempty"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Email    string `json:"email"`
}

// Role represents the role of a message participant.
type Role string

const (
	// RoleUser represents a message typed or uploaded by the shopper.
	RoleUser Role = "user"
	// RoleAssistant represents a message produced by the backend, or a synthetic error notice.
	RoleAssistant Role = "assistant"

	// DefaultTitle is the title of every conversation until it is summarized.
	DefaultTitle = "New Chat"
)

var (
	// ErrBackendStatus is wrapped by backend calls that completed with a non-success HTTP status.
	ErrBackendStatus = errors.New("unexpected backend status")
	// ErrConversationNotFound is returned when a conversation id is unknown to the session.
	ErrConversationNotFound = errors.New("conversation not found")
)

// UserMessages returns the messages authored by the shopper, in order.
func UserMessages(messages []Message) []Message {
	var res []Message
	for _, msg := range messages {
		if msg.Role == RoleUser {
			res = append(res, msg)
		}
	}
	return res
}
