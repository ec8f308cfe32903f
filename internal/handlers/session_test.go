package handlers

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/MegaGrindStone/shopbuddy-web-ui/internal/models"
)

func TestSessionsEvictIdle(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newSessions(time.Hour)
	s.now = func() time.Time { return now }

	idle := s.create(models.User{FullName: "Idle", Email: "idle@example.com"})
	active := s.create(models.User{FullName: "Active", Email: "active@example.com"})
	busy := s.create(models.User{FullName: "Busy", Email: "busy@example.com"})
	busy.PutBlob(models.Blob{ContentType: "image/png", Data: make([]byte, 1<<20)})
	if !busy.Begin() {
		t.Fatal("Begin() = false")
	}

	now = now.Add(50 * time.Minute)
	if _, ok := s.get(active.ID); !ok {
		t.Fatal("get(active) not found")
	}

	now = now.Add(20 * time.Minute)
	if n := s.evictIdle(); n != 1 {
		t.Errorf("evictIdle() = %d, want 1", n)
	}
	if _, ok := s.get(idle.ID); ok {
		t.Error("get(idle) found, want it evicted")
	}
	if _, ok := s.get(active.ID); !ok {
		t.Error("get(active) not found, want it kept")
	}
	if _, ok := s.get(busy.ID); !ok {
		t.Error("get(busy) not found, want a session with a pending request kept")
	}

	busy.End()
	now = now.Add(2 * time.Hour)
	if n := s.evictIdle(); n != 2 {
		t.Errorf("evictIdle() = %d, want 2", n)
	}
	if len(s.m) != 0 {
		t.Errorf("sessions left = %d, want 0", len(s.m))
	}
}

func TestSessionsSweep(t *testing.T) {
	s := newSessions(time.Nanosecond)
	sess := s.create(models.User{FullName: "Ada", Email: "ada@example.com"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.sweep(ctx, time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		s.mu.Lock()
		_, ok := s.m[sess.ID]
		s.mu.Unlock()
		if !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("idle session was not evicted")
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not stop")
	}
}
