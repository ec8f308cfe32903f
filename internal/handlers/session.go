package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/MegaGrindStone/shopbuddy-web-ui/internal/models"
	"github.com/google/uuid"
)

const sessionCookieName = "shopbuddy_session"

const (
	sessionIdleTTL       = 2 * time.Hour
	sessionSweepInterval = 10 * time.Minute
)

// sessions holds the signed-in shoppers by session id. Sessions live in memory only, and are dropped once
// they have not been used for ttl.
type sessions struct {
	mu sync.Mutex
	m  map[string]*sessionEntry

	ttl time.Duration
	now func() time.Time
}

type sessionEntry struct {
	session  *models.Session
	lastSeen time.Time
}

func newSessions(ttl time.Duration) *sessions {
	return &sessions{
		m:   make(map[string]*sessionEntry),
		ttl: ttl,
		now: time.Now,
	}
}

func (s *sessions) create(user models.User) *models.Session {
	now := s.now()
	sess := models.NewSession(uuid.New().String(), user, now)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.m[sess.ID] = &sessionEntry{
		session:  sess,
		lastSeen: now,
	}
	return sess
}

// get returns the session with the given id and records the access.
func (s *sessions) get(id string) (*models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.m[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = s.now()
	return e.session, true
}

func (s *sessions) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.m, id)
}

// evictIdle drops the sessions unused for longer than the ttl, along with their conversations and blobs,
// and returns how many were dropped. Sessions with an outstanding backend request are kept.
func (s *sessions) evictIdle() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	evicted := 0
	for id, e := range s.m {
		if e.lastSeen.Before(cutoff) && !e.session.Pending() {
			delete(s.m, id)
			evicted++
		}
	}
	return evicted
}

// sweep evicts idle sessions every interval until ctx is done.
func (s *sessions) sweep(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.evictIdle(); n > 0 {
				logger.Info("Evicted idle sessions", slog.Int("count", n))
			}
		}
	}
}

func sessionIDFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// session returns the session of the shopper making the request, if they are signed in.
func (m Main) session(r *http.Request) (*models.Session, bool) {
	id := sessionIDFromRequest(r)
	if id == "" {
		return nil, false
	}
	return m.sessions.get(id)
}

func setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
