package models

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is the complete UI state of one signed-in shopper: their identity, their conversations, the
// active conversation and the images they uploaded. Nothing in it outlives the session; signing out
// discards it as a whole.
//
// Session is safe for concurrent use. Accessors return copies.
type Session struct {
	ID   string
	User User

	mu            sync.Mutex
	conversations map[string]*Conversation
	order         []string
	activeID      string
	pending       bool
	blobs         map[string]Blob
	blobOrder     []string
}

// Blob is an image uploaded by the shopper, kept in memory so the chat can show it while the backend is
// still processing it.
type Blob struct {
	ContentType string
	Data        []byte
}

// MaxSessionBlobs is how many uploaded images a session keeps. Storing more drops the oldest.
const MaxSessionBlobs = 10

const (
	firstGreeting = "Hi %s! How can I help you today?"
	greeting      = "Hi! How can I help you today?"
)

// NewSession creates the session of user with a first, active conversation greeting them by name.
func NewSession(id string, user User, now time.Time) *Session {
	s := &Session{
		ID:            id,
		User:          user,
		conversations: make(map[string]*Conversation),
		blobs:         make(map[string]Blob),
	}
	s.activeID = s.addConversation(fmt.Sprintf(firstGreeting, user.FullName), now)
	return s
}

// NewConversation starts a new conversation, makes it active and returns its id.
func (s *Session) NewConversation(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeID = s.addConversation(greeting, now)
	return s.activeID
}

func (s *Session) addConversation(greeting string, now time.Time) string {
	id := uuid.New().String()
	s.conversations[id] = &Conversation{
		ID:        id,
		Title:     DefaultTitle,
		CreatedAt: now,
		Messages: []Message{
			{
				ID:        uuid.New().String(),
				Role:      RoleAssistant,
				Content:   greeting,
				Timestamp: now,
			},
		},
	}
	s.order = append(s.order, id)
	return id
}

// Conversations returns all conversations, newest first.
func (s *Session) Conversations() []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make([]Conversation, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		res = append(res, copyConversation(s.conversations[s.order[i]]))
	}
	return res
}

// Conversation returns the conversation with the given id.
func (s *Session) Conversation(id string) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok {
		return Conversation{}, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	return copyConversation(c), nil
}

// ActiveID returns the id of the conversation shown in the chat window.
func (s *Session) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.activeID
}

// Activate switches the chat window to the conversation with the given id.
func (s *Session) Activate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	s.activeID = id
	return nil
}

// AppendMessage appends msg to a conversation and returns it with its id and timestamp filled in.
func (s *Session) AppendMessage(conversationID string, msg Message) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[conversationID]
	if !ok {
		return Message{}, fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	c.Messages = append(c.Messages, msg)
	return msg, nil
}

// Untitled returns the messages of a conversation that is due for its title: it has not been titled yet
// and holds exactly two user messages.
func (s *Session) Untitled(conversationID string) ([]Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[conversationID]
	if !ok || c.Titled || len(UserMessages(c.Messages)) != 2 {
		return nil, false
	}
	return slices.Clone(c.Messages), true
}

// SetTitle sets the title of a conversation. A conversation is titled only once.
func (s *Session) SetTitle(conversationID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[conversationID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}
	if c.Titled {
		return nil
	}
	c.Title = title
	c.Titled = true
	return nil
}

// Begin marks a backend request as outstanding. It returns false if one already is, in which case the
// caller must not start another.
func (s *Session) Begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending {
		return false
	}
	s.pending = true
	return true
}

// End marks the outstanding backend request as finished.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = false
}

// Pending reports whether a backend request is outstanding.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pending
}

// PutBlob stores an uploaded image and returns its id. Once the session holds MaxSessionBlobs images, the
// oldest one is dropped and its preview is no longer served.
func (s *Session) PutBlob(b Blob) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.blobOrder) >= MaxSessionBlobs {
		delete(s.blobs, s.blobOrder[0])
		s.blobOrder = slices.Delete(s.blobOrder, 0, 1)
	}

	id := uuid.New().String()
	s.blobs[id] = b
	s.blobOrder = append(s.blobOrder, id)
	return id
}

// Blob returns the uploaded image with the given id.
func (s *Session) Blob(id string) (Blob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.blobs[id]
	return b, ok
}

func copyConversation(c *Conversation) Conversation {
	res := *c
	res.Messages = slices.Clone(c.Messages)
	return res
}
