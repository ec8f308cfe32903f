package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MegaGrindStone/shopbuddy-web-ui/internal/models"
	"github.com/MegaGrindStone/shopbuddy-web-ui/internal/services"
)

var titleMessages = []models.Message{
	{Role: models.RoleAssistant, Content: "Hi! How can I help you today?"},
	{Role: models.RoleUser, Content: "I want a red dress"},
	{Role: models.RoleAssistant, Content: "Sure"},
	{Role: models.RoleUser, Content: "size medium please"},
}

func TestSummarizer(t *testing.T) {
	title, err := services.Summarizer{}.GenerateTitle(context.Background(), titleMessages)
	if err != nil {
		t.Fatalf("GenerateTitle() error = %v", err)
	}
	if title != "I want a red dress." {
		t.Errorf("GenerateTitle() = %q", title)
	}
}

func TestOllamaGenerateTitle(t *testing.T) {
	var prompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) == 2 {
			prompt = req.Messages[1].Content
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":"\"Red Medium Dress\""},"done":true}` + "\n"))
	}))
	defer srv.Close()

	o, err := services.NewOllama(srv.URL, "llama3", "", newTestLogger())
	if err != nil {
		t.Fatal(err)
	}
	title, err := o.GenerateTitle(context.Background(), titleMessages)
	if err != nil {
		t.Fatalf("GenerateTitle() error = %v", err)
	}
	if title != "Red Medium Dress" {
		t.Errorf("GenerateTitle() = %q", title)
	}
	if prompt != "I want a red dress. size medium please" {
		t.Errorf("prompt = %q", prompt)
	}
}

func TestOpenAIGenerateTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "A very long title that goes on and on about dresses"},
				"finish_reason": "stop"
			}]
		}`))
	}))
	defer srv.Close()

	o := services.NewOpenAI("key", srv.URL+"/v1", "gpt-4o-mini", "", newTestLogger())
	title, err := o.GenerateTitle(context.Background(), titleMessages)
	if err != nil {
		t.Fatalf("GenerateTitle() error = %v", err)
	}
	if title != "A very long title that goes on and ..." {
		t.Errorf("GenerateTitle() = %q", title)
	}
}

func TestLLMTitleWithoutUserMessages(t *testing.T) {
	o := services.NewOpenAI("key", "http://127.0.0.1:0/v1", "gpt-4o-mini", "", newTestLogger())
	msgs := []models.Message{{Role: models.RoleAssistant, Content: "Hi!"}}
	if _, err := o.GenerateTitle(context.Background(), msgs); err == nil {
		t.Error("GenerateTitle() error = nil")
	}
}
