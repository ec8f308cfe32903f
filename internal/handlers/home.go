package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MegaGrindStone/shopbuddy-web-ui/internal/models"
)

type homePageData struct {
	User          models.User
	CurrentChatID string
	Chats         []chat
	Messages      []message
	Orders        []models.Order
	Pending       bool
}

type loginPageData struct {
	FullName string
	Email    string
	Error    string
}

// HandleHome renders the login gate for anonymous visitors, and the chat page for signed-in shoppers.
// The optional "chat_id" query parameter switches the chat window to another conversation.
func (m Main) HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, ok := m.session(r)
	if !ok {
		m.renderLogin(w, http.StatusOK, loginPageData{})
		return
	}

	if chatID := r.URL.Query().Get("chat_id"); chatID != "" {
		if err := sess.Activate(chatID); err != nil {
			m.logger.Error("Failed to switch chat",
				slog.String("chatID", chatID),
				slog.String(errLoggerKey, err.Error()))
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
	}

	conv, err := sess.Conversation(sess.ActiveID())
	if err != nil {
		m.logger.Error("Failed to get active chat", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// The orders panel is secondary; the chat still renders without it.
	orders, err := m.orders.Orders(r.Context(), sess.User.Email)
	if err != nil {
		m.logger.Error("Failed to get orders",
			slog.String("email", sess.User.Email),
			slog.String(errLoggerKey, err.Error()))
		orders = nil
	}

	data := homePageData{
		User:          sess.User,
		CurrentChatID: conv.ID,
		Chats:         chatViews(sess, time.Now()),
		Messages:      messageViews(conv),
		Orders:        orders,
		Pending:       sess.Pending(),
	}
	if err := m.templates.ExecuteTemplate(w, "home.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// HandleLogin signs a shopper in with the "full_name" and "email" form fields, both required, and starts
// their session with a greeting conversation.
func (m Main) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user := models.User{
		FullName: strings.TrimSpace(r.FormValue("full_name")),
		Email:    strings.TrimSpace(r.FormValue("email")),
	}
	if user.FullName == "" || user.Email == "" {
		m.renderLogin(w, http.StatusBadRequest, loginPageData{
			FullName: user.FullName,
			Email:    user.Email,
			Error:    "Please enter your name and email.",
		})
		return
	}

	sess := m.sessions.create(user)
	m.logger.Info("Shopper signed in", slog.String("sessionID", sess.ID))

	setSessionCookie(w, sess.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout discards the shopper's session, with its conversations and uploaded images, and returns to
// the login gate.
func (m Main) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if sess, ok := m.session(r); ok {
		m.sessions.remove(sess.ID)
		m.logger.Info("Shopper signed out", slog.String("sessionID", sess.ID))
	}

	clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleNewChat starts a new conversation and switches the chat window to it.
func (m Main) HandleNewChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, ok := m.session(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	chatID := sess.NewConversation(time.Now())
	http.Redirect(w, r, "/?chat_id="+url.QueryEscape(chatID), http.StatusSeeOther)
}

func (m Main) renderLogin(w http.ResponseWriter, status int, data loginPageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := m.templates.ExecuteTemplate(w, "login.html", data); err != nil {
		m.logger.Error("Failed to render login page", slog.String(errLoggerKey, err.Error()))
	}
}

func conversationStatus(err error) int {
	if errors.Is(err, models.ErrConversationNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
