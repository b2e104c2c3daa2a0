package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clcruickshank2/datenight/internal/config"
	"github.com/clcruickshank2/datenight/internal/ports"
)

func TestNewChatGPTClientWithoutKey(t *testing.T) {
	t.Parallel()

	client := NewChatGPTClient(config.ChatGPTConfig{Model: "gpt-4o-mini"})
	if client != nil {
		t.Fatalf("expected nil client without api key")
	}

	_, err := client.Complete(context.Background(), ports.Prompt{User: "hi"})
	if !errors.Is(err, ports.ErrLLMUnavailable) {
		t.Fatalf("expected ErrLLMUnavailable, got %v", err)
	}
}

func TestChatGPTClientComplete(t *testing.T) {
	t.Parallel()

	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  {\"ok\":true}  "}}]}`))
	}))
	defer server.Close()

	client := NewChatGPTClient(config.ChatGPTConfig{Endpoint: server.URL, Model: "m", APIKey: "secret"})
	text, err := client.Complete(context.Background(), ports.Prompt{System: "sys", User: "usr", MaxTokens: 50})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if text != `{"ok":true}` {
		t.Fatalf("unexpected text %q", text)
	}
	if got.Model != "m" || got.MaxTokens != 50 {
		t.Fatalf("unexpected request %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "usr" {
		t.Fatalf("unexpected messages %+v", got.Messages)
	}
}

func TestChatGPTClientErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewChatGPTClient(config.ChatGPTConfig{Endpoint: server.URL, APIKey: "k"})
	_, err := client.Complete(context.Background(), ports.Prompt{User: "x"})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status error, got %v", err)
	}
}
