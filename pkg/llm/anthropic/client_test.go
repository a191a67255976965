package anthropic

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ramizpolic/agenthost/pkg/llm"
)

func TestCreateMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("X-Api-Key = %q", r.Header.Get("X-Api-Key"))
		}
		if r.Header.Get("Anthropic-Version") != apiVersion {
			t.Errorf("Anthropic-Version = %q", r.Header.Get("Anthropic-Version"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "msg_abc",
			"role": "assistant",
			"content": [{"type": "text", "text": "hi"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 3}
		}`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, 5*time.Second)
	msg, err := client.CreateMessage(context.Background(), CreateRequest{
		Model:     "claude-sonnet-4-20250514",
		MaxTokens: 100,
		Messages:  []MessageParam{{Role: "user", Content: []ContentBlock{{Type: "text", Text: "hello"}}}},
	})
	if err != nil {
		t.Fatalf("CreateMessage() error = %v", err)
	}
	if msg.Content[0].Text != "hi" {
		t.Errorf("content = %+v", msg.Content)
	}
	if msg.Usage.InputTokens != 12 || msg.Usage.OutputTokens != 3 {
		t.Errorf("usage = %+v", msg.Usage)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		retryAfter string
		body       string
		check      func(t *testing.T, err error)
	}{
		{
			name:   "authentication error",
			status: http.StatusUnauthorized,
			body:   `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`,
			check: func(t *testing.T, err error) {
				var creds *llm.CredentialsError
				if !errors.As(err, &creds) {
					t.Errorf("error = %v, want CredentialsError", err)
				}
			},
		},
		{
			name:       "rate limit with retry-after",
			status:     http.StatusTooManyRequests,
			retryAfter: "7",
			body:       `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`,
			check: func(t *testing.T, err error) {
				var limited *llm.RateLimitError
				if !errors.As(err, &limited) {
					t.Fatalf("error = %v, want RateLimitError", err)
				}
				if limited.RetryAfter != 7*time.Second {
					t.Errorf("RetryAfter = %v, want 7s", limited.RetryAfter)
				}
			},
		},
		{
			name:   "overloaded maps to rate limit",
			status: 529,
			body:   `{"type":"error","error":{"type":"overloaded_error","message":"overloaded"}}`,
			check: func(t *testing.T, err error) {
				var limited *llm.RateLimitError
				if !errors.As(err, &limited) {
					t.Errorf("error = %v, want RateLimitError", err)
				}
			},
		},
		{
			name:   "invalid request",
			status: http.StatusBadRequest,
			body:   `{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens required"}}`,
			check: func(t *testing.T, err error) {
				var reqErr *llm.RequestError
				if !errors.As(err, &reqErr) {
					t.Fatalf("error = %v, want RequestError", err)
				}
				if reqErr.StatusCode != http.StatusBadRequest {
					t.Errorf("StatusCode = %d", reqErr.StatusCode)
				}
			},
		},
		{
			name:   "unknown envelope falls back to status",
			status: http.StatusInternalServerError,
			body:   `upstream exploded`,
			check: func(t *testing.T, err error) {
				var provErr *llm.ProviderError
				if !errors.As(err, &provErr) {
					t.Fatalf("error = %v, want ProviderError", err)
				}
				if provErr.RawMessage != "upstream exploded" {
					t.Errorf("RawMessage = %q", provErr.RawMessage)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.retryAfter != "" {
					w.Header().Set("Retry-After", tt.retryAfter)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient("k", server.URL, 5*time.Second)
			_, err := client.CreateMessage(context.Background(), CreateRequest{Model: "m", MaxTokens: 1})
			if err == nil {
				t.Fatal("CreateMessage() returned no error")
			}
			tt.check(t, err)
		})
	}
}
