package anthropic_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"kebbi/internal/infra/anthropic"
)

func TestClaudeClient_Generate(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.Header.Get("x-api-key") != "test-key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		response := map[string]any{
			"content": []map[string]string{
				{"type": "text", "text": "記錄物品"},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := anthropic.NewClaudeClientWithURL("test-key", "claude-test", server.URL, 1)

	text, err := client.Generate(context.Background(), "請判斷：我的鑰匙放在玄關")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	if text != "記錄物品" {
		t.Errorf("text: got %q, want 記錄物品", text)
	}

	if got.Model != "claude-test" {
		t.Errorf("model: got %s, want claude-test", got.Model)
	}

	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.Messages[0].Content != "請判斷：我的鑰匙放在玄關" {
		t.Errorf("messages: got %+v", got.Messages)
	}
}

func TestClaudeClient_GenerateEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[]}`))
	}))
	defer server.Close()

	client := anthropic.NewClaudeClientWithURL("test-key", "claude-test", server.URL, 1)

	if _, err := client.Generate(context.Background(), "hi"); err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestClaudeClient_SingleAttemptByDefault(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := anthropic.NewClaudeClientWithURL("test-key", "claude-test", server.URL, 0)

	if _, err := client.Generate(context.Background(), "hi"); err == nil {
		t.Fatal("expected error on 503")
	}

	if n := calls.Load(); n != 1 {
		t.Errorf("calls: got %d, want 1", n)
	}
}

func TestClaudeClient_RetriesWhenConfigured(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[{"type":"text","text":"好的"}]}`))
	}))
	defer server.Close()

	client := anthropic.NewClaudeClientWithURL("test-key", "claude-test", server.URL, 2)

	text, err := client.Generate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if text != "好的" {
		t.Errorf("text: got %q", text)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("calls: got %d, want 2", n)
	}
}
