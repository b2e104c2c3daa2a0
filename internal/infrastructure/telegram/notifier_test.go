package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestPublishDigest(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		texts []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottoken/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("chat_id") != "42" {
			t.Errorf("unexpected chat id %s", r.PostForm.Get("chat_id"))
		}
		mu.Lock()
		texts = append(texts, r.PostForm.Get("text"))
		mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	n := NewNotifier(server.URL, "token", "42")
	if err := n.PublishDigest(context.Background(), "*Trending in Denver*\n1. Ash'Kara"); err != nil {
		t.Fatalf("PublishDigest error: %v", err)
	}
	if len(texts) != 1 || !strings.Contains(texts[0], "Ash'Kara") {
		t.Fatalf("unexpected messages %v", texts)
	}
}

func TestPublishDigestErrors(t *testing.T) {
	t.Parallel()

	if err := NewNotifier("", "", "42").PublishDigest(context.Background(), "x"); err == nil {
		t.Fatalf("expected misconfigured error")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer server.Close()

	err := NewNotifier(server.URL, "token", "1").PublishDigest(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected telegram description in error, got %v", err)
	}
}

func TestSplitMessage(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("line of text\n", 10)
	chunks := splitMessage(text, 30)
	if strings.Join(chunks, "") != text {
		t.Fatalf("chunks must reassemble the message")
	}
	for _, c := range chunks {
		if len([]rune(c)) > 30 {
			t.Fatalf("chunk over limit: %q", c)
		}
	}

	long := strings.Repeat("x", 70)
	if got := splitMessage(long, 30); len(got) != 3 || got[2] != strings.Repeat("x", 10) {
		t.Fatalf("unexpected hard split %v", got)
	}
}
