package handlers

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	shopbuddy "github.com/MegaGrindStone/shopbuddy-web-ui"
	"github.com/MegaGrindStone/shopbuddy-web-ui/internal/models"
	"github.com/tmaxmax/go-sse"
)

// Backend represents the shopping backend. It uploads images for visual search, returning the absolute
// URL of the stored image, and answers chat messages. Errors wrapping models.ErrBackendStatus mean the
// backend answered with a non-success status; any other error is a transport failure.
type Backend interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
	SendMessage(ctx context.Context, req models.ChatRequest) (string, error)
}

// OrderStore provides the orders of a shopper, identified by email, and cancels them. CancelOrder must
// return models.ErrInvalidTransition, leaving the order untouched, for orders that can no longer be
// cancelled, and models.ErrOrderNotFound for unknown ids.
type OrderStore interface {
	Orders(ctx context.Context, email string) ([]models.Order, error)
	Order(ctx context.Context, email string, id int64) (models.Order, error)
	CancelOrder(ctx context.Context, email string, id int64) (models.Order, error)
}

// TitleGenerator names a conversation from its messages. It is called once per conversation, when the
// shopper has sent two messages.
type TitleGenerator interface {
	GenerateTitle(ctx context.Context, messages []models.Message) (string, error)
}

// Main handles the core functionality of the shopping chat, managing the shoppers' sessions, server-sent
// events, HTML templates, and the interactions with the backend, the order store and the title generator.
type Main struct {
	sseSrv    *sse.Server
	templates *template.Template

	backend        Backend
	orders         OrderStore
	titleGenerator TitleGenerator

	sessions  *sessions
	stopSweep context.CancelFunc

	logger *slog.Logger
}

const errLoggerKey = "err"

var templateFuncs = template.FuncMap{
	"price":       renderPrice,
	"statusClass": statusClass,
}

// NewMain creates a new Main instance with the provided Backend, OrderStore and TitleGenerator. It
// initializes the SSE server and parses the required HTML templates from the embedded filesystem. Every
// SSE client is subscribed to the topic of its own session.
func NewMain(backend Backend, orders OrderStore, titleGenerator TitleGenerator, logger *slog.Logger) (Main, error) {
	// We parse templates from three distinct directories to separate layout, pages, and partial views
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(
		shopbuddy.TemplateFS,
		"templates/layout/*.html",
		"templates/pages/*.html",
		"templates/partials/*.html",
	)
	if err != nil {
		return Main{}, err
	}

	logger = logger.With(slog.String("module", "handlers"))

	sessions := newSessions(sessionIdleTTL)
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go sessions.sweep(sweepCtx, sessionSweepInterval, logger)

	return Main{
		sseSrv: &sse.Server{
			OnSession: func(s *sse.Session) (sse.Subscription, bool) {
				topics := []string{sse.DefaultTopic}

				if sessionID := sessionIDFromRequest(s.Req); sessionID != "" {
					topics = append(topics, sessionTopic(sessionID))
				}

				return sse.Subscription{
					Client:      s,
					LastEventID: s.LastEventID,
					Topics:      topics,
				}, true
			},
		},
		templates:      tmpl,
		backend:        backend,
		orders:         orders,
		titleGenerator: titleGenerator,
		sessions:       sessions,
		stopSweep:      stopSweep,
		logger:         logger,
	}, nil
}

func sessionTopic(sessionID string) string {
	return fmt.Sprintf("session-%s", sessionID)
}

// HandleSSE streams the events of the caller's session: rendered answers, conversation list updates and
// the end of outstanding requests.
func (m Main) HandleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := m.session(r); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	m.sseSrv.ServeHTTP(w, r)
}

// Shutdown gracefully terminates the Main instance's SSE server. It broadcasts a close message to all
// connected clients and waits up to 5 seconds for connections to terminate. After the timeout, any
// remaining connections are forcefully closed. It also stops the eviction of idle sessions.
func (m Main) Shutdown(ctx context.Context) error {
	m.stopSweep()

	e := &sse.Message{Type: sse.Type("closeChat")}
	// SSE events without data are not dispatched by browsers
	e.AppendData("bye")

	// We ignore the error here since we're shutting down anyway
	_ = m.sseSrv.Publish(e)

	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	return m.sseSrv.Shutdown(ctx)
}

func renderPrice(price float64) string {
	return "$" + strconv.FormatFloat(price, 'f', -1, 64)
}

func statusClass(status models.OrderStatus) string {
	return strings.ToLower(string(status))
}
