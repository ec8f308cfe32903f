package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MegaGrindStone/shopbuddy-web-ui/internal/models"
)

const (
	maxUploadBytes = 10 << 20

	imageUploadedMessage = "[Image Uploaded] Finding similar items..."
	visualSearchPrompt   = "Find products like this"

	connectionErrorMessage = "Connection error. Please check if the backend is running."
	imageErrorMessage      = "Failed to process image. Please try again."
)

// HandleChats sends a shopper's message to the backend. It accepts the message through the "message" form
// field and an optional "chat_id" field, defaulting to the active conversation.
//
// The handler renders the user message followed by a loading placeholder, and answers asynchronously: the
// assistant message is pushed through Server-Sent Events once the backend replies. Only one request per
// session can be outstanding, a second one is rejected with 409 Conflict.
func (m Main) HandleChats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, ok := m.session(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	msg := strings.TrimSpace(r.FormValue("message"))
	if msg == "" {
		m.logger.Error("Message is required")
		http.Error(w, "Message is required", http.StatusBadRequest)
		return
	}

	chatID, err := m.requestChatID(sess, r.FormValue("chat_id"))
	if err != nil {
		m.logger.Error("Failed to get chat",
			slog.String("chatID", chatID),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), conversationStatus(err))
		return
	}

	if !sess.Begin() {
		http.Error(w, "A request is already in progress", http.StatusConflict)
		return
	}

	um, err := sess.AppendMessage(chatID, models.Message{
		Role:      models.RoleUser,
		Content:   msg,
		Timestamp: time.Now(),
	})
	if err != nil {
		sess.End()
		m.logger.Error("Failed to add user message",
			slog.String("chatID", chatID),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), conversationStatus(err))
		return
	}

	go m.chat(sess, chatID, models.ChatRequest{
		Message:  msg,
		UserID:   sess.User.Email,
		UserName: sess.User.FullName,
		Email:    sess.User.Email,
	})

	m.renderExchange(w, chatID, um)
}

// HandleUploads starts a visual search with the image in the "file" multipart field. The image is shown
// in the conversation right away from the session's blobs, while it is uploaded to the backend and the
// backend is asked for similar products asynchronously.
func (m Main) HandleUploads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, ok := m.session(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		m.logger.Error("Failed to parse upload", slog.String(errLoggerKey, err.Error()))
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "Image is too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid upload", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Image is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		http.Error(w, "Only images can be uploaded", http.StatusBadRequest)
		return
	}

	if header.Size > maxUploadBytes {
		http.Error(w, "Image is too large", http.StatusRequestEntityTooLarge)
		return
	}
	data, err := readUpload(file, header.Size)
	if err != nil {
		m.logger.Error("Failed to read upload", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	chatID, err := m.requestChatID(sess, r.FormValue("chat_id"))
	if err != nil {
		http.Error(w, err.Error(), conversationStatus(err))
		return
	}

	if !sess.Begin() {
		http.Error(w, "A request is already in progress", http.StatusConflict)
		return
	}

	blob := models.Blob{
		ContentType: contentType,
		Data:        data,
	}
	blobID := sess.PutBlob(blob)

	um, err := sess.AppendMessage(chatID, models.Message{
		Role:      models.RoleUser,
		Content:   imageUploadedMessage,
		ImageURL:  "/blobs/" + blobID,
		Timestamp: time.Now(),
	})
	if err != nil {
		sess.End()
		http.Error(w, err.Error(), conversationStatus(err))
		return
	}

	go m.visualSearch(sess, chatID, header.Filename, blob)

	m.renderExchange(w, chatID, um)
}

// readUpload reads an uploaded file of the given size into a slice of exactly that size, since the blob
// stays in memory for the whole session.
func readUpload(r io.Reader, size int64) ([]byte, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return data, nil
}

// HandleBlob serves an image the shopper uploaded in this session.
func (m Main) HandleBlob(w http.ResponseWriter, r *http.Request) {
	sess, ok := m.session(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	blob, ok := sess.Blob(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	_, _ = w.Write(blob.Data)
}

func (m Main) requestChatID(sess *models.Session, chatID string) (string, error) {
	if chatID == "" {
		return sess.ActiveID(), nil
	}
	if _, err := sess.Conversation(chatID); err != nil {
		return chatID, err
	}
	return chatID, nil
}

// renderExchange renders the user message, then the placeholder of the answer to come.
func (m Main) renderExchange(w http.ResponseWriter, chatID string, um models.Message) {
	err := m.templates.ExecuteTemplate(w, "user_message", messageView(chatID, um, models.StreamingStateEnded))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	err = m.templates.ExecuteTemplate(w, "ai_message", message{
		ChatID:         chatID,
		Role:           string(models.RoleAssistant),
		Timestamp:      time.Now(),
		StreamingState: models.StreamingStateLoading,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (m Main) chat(sess *models.Session, chatID string, req models.ChatRequest) {
	defer m.endRequest(sess)

	content, err := m.backend.SendMessage(context.Background(), req)
	if err != nil {
		m.logger.Error("Failed to send message",
			slog.String("chatID", chatID),
			slog.String(errLoggerKey, err.Error()))
		content = connectionErrorMessage
		// The backend answered, but without an answer to show.
		if errors.Is(err, models.ErrBackendStatus) {
			content = ""
		}
	}

	m.reply(sess, chatID, content)

	if err == nil {
		m.startChatTitle(sess, chatID)
	}
}

func (m Main) visualSearch(sess *models.Session, chatID, filename string, blob models.Blob) {
	defer m.endRequest(sess)

	ctx := context.Background()

	imageURL, err := m.backend.Upload(ctx, filename, blob.ContentType, bytes.NewReader(blob.Data))
	if err != nil {
		m.logger.Error("Failed to upload image",
			slog.String("chatID", chatID),
			slog.String(errLoggerKey, err.Error()))
		m.reply(sess, chatID, imageErrorMessage)
		return
	}

	content, err := m.backend.SendMessage(ctx, models.ChatRequest{
		Message:  visualSearchPrompt,
		ImageURL: imageURL,
		UserID:   sess.User.Email,
		UserName: sess.User.FullName,
		Email:    sess.User.Email,
	})
	if err != nil {
		m.logger.Error("Failed to send visual search",
			slog.String("chatID", chatID),
			slog.String("imageURL", imageURL),
			slog.String(errLoggerKey, err.Error()))
		content = imageErrorMessage
		if errors.Is(err, models.ErrBackendStatus) {
			content = ""
		}
	}

	m.reply(sess, chatID, content)

	if err == nil {
		m.startChatTitle(sess, chatID)
	}
}

// reply appends the assistant message to the conversation and pushes it to the shopper's browser.
func (m Main) reply(sess *models.Session, chatID, content string) {
	am, err := sess.AppendMessage(chatID, models.Message{
		Role:      models.RoleAssistant,
		Content:   content,
		Timestamp: time.Now(),
	})
	if err != nil {
		m.logger.Error("Failed to add AI message",
			slog.String("chatID", chatID),
			slog.String(errLoggerKey, err.Error()))
		return
	}

	var sb strings.Builder
	if err := m.templates.ExecuteTemplate(&sb, "ai_message", messageView(chatID, am, models.StreamingStateEnded)); err != nil {
		m.logger.Error("Failed to render AI message",
			slog.String("message", fmt.Sprintf("%+v", am)),
			slog.String(errLoggerKey, err.Error()))
		return
	}

	if err := m.publish(sess, messagesSSEType, sb.String()); err != nil {
		m.logger.Error("Failed to publish message",
			slog.String("chatID", chatID),
			slog.String(errLoggerKey, err.Error()))
	}
}

// endRequest clears the pending flag and tells the browser to enable its inputs again.
func (m Main) endRequest(sess *models.Session) {
	sess.End()

	if err := m.publish(sess, closeMessageSSEType, "bye"); err != nil {
		m.logger.Error("Failed to publish close message", slog.String(errLoggerKey, err.Error()))
	}
}

// startChatTitle titles the conversation in the background if it is due. It must run before the request
// ends, so that the messages are taken while no other message can be sent.
func (m Main) startChatTitle(sess *models.Session, chatID string) {
	messages, ok := sess.Untitled(chatID)
	if !ok {
		return
	}
	go m.generateChatTitle(sess, chatID, messages)
}

func (m Main) generateChatTitle(sess *models.Session, chatID string, messages []models.Message) {
	title, err := m.titleGenerator.GenerateTitle(context.Background(), messages)
	if err != nil || strings.TrimSpace(title) == "" {
		if err != nil {
			m.logger.Error("Error generating chat title",
				slog.String("chatID", chatID),
				slog.String(errLoggerKey, err.Error()))
		}
		title = models.SummarizeTitle(messages)
	}

	if err := sess.SetTitle(chatID, title); err != nil {
		m.logger.Error("Failed to update chat title",
			slog.String(errLoggerKey, err.Error()))
		return
	}

	divs, err := m.chatDivs(sess)
	if err != nil {
		m.logger.Error("Failed to generate chat divs",
			slog.String(errLoggerKey, err.Error()))
		return
	}

	if err := m.publish(sess, chatsSSEType, divs); err != nil {
		m.logger.Error("Failed to publish chats",
			slog.String(errLoggerKey, err.Error()))
	}
}
