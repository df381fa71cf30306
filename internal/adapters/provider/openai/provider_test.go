package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jbctechsolutions/docsmith/internal/application/ports"
	domainErrors "github.com/jbctechsolutions/docsmith/internal/domain/errors"
	"github.com/jbctechsolutions/docsmith/internal/infrastructure/config"
)

// chatRequest is the subset of the wire request the tests inspect.
type chatRequest struct {
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   *int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// newTestServer creates a test HTTP server with the given handler.
func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Provider) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg := Config{
		APIKey:     "test-api-key",
		BaseURL:    server.URL,
		Timeout:    5 * time.Second,
		MaxRetries: 0,
	}
	return server, NewProvider(cfg)
}

func writeCompletion(w http.ResponseWriter, model, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"created": 1714564800,
		"model":   model,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"logprobs":      nil,
			"message": map[string]any{
				"role":    "assistant",
				"content": content,
				"refusal": nil,
			},
		}},
		"usage": map[string]any{
			"prompt_tokens":     42,
			"completion_tokens": 17,
			"total_tokens":      59,
		},
	})
}

func TestProvider_Info(t *testing.T) {
	provider := NewProviderWithAPIKey("test-key")
	info := provider.Info()

	if info.Name != "openai" {
		t.Errorf("expected name 'openai', got %q", info.Name)
	}
	if info.IsLocal {
		t.Error("expected IsLocal to be false")
	}
	if info.BaseURL != DefaultBaseURL {
		t.Errorf("expected default BaseURL, got %q", info.BaseURL)
	}
}

func TestFromConfig(t *testing.T) {
	tests := []struct {
		name string
		in   config.ProviderConfig
		want Config
	}{
		{
			name: "defaults",
			in:   config.ProviderConfig{APIKey: "k"},
			want: Config{APIKey: "k", BaseURL: DefaultBaseURL, Timeout: 60 * time.Second, MaxRetries: 2},
		},
		{
			name: "custom endpoint and timeout",
			in:   config.ProviderConfig{APIKey: "k", BaseURL: "http://localhost:8080/v1", Timeout: 5 * time.Second},
			want: Config{APIKey: "k", BaseURL: "http://localhost:8080/v1", Timeout: 5 * time.Second, MaxRetries: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromConfig(tt.in); got != tt.want {
				t.Errorf("FromConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestProvider_Complete(t *testing.T) {
	var got chatRequest
	_, provider := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("expected /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-api-key" {
			t.Errorf("unexpected Authorization header %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		writeCompletion(w, "gpt-4-turbo-2024-04-09", "Adds two numbers.")
	})

	resp, err := provider.Complete(context.Background(), ports.CompletionRequest{
		ModelID:      ModelGPT4Turbo,
		MaxTokens:    4096,
		Temperature:  0,
		SystemPrompt: "You write docstrings.",
		Messages:     []ports.Message{{Role: "user", Content: "Document add"}},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if resp.Content != "Adds two numbers." {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.InputTokens != 42 || resp.OutputTokens != 17 {
		t.Errorf("tokens = %d/%d, want 42/17", resp.InputTokens, resp.OutputTokens)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("FinishReason = %q", resp.FinishReason)
	}
	if resp.ModelUsed != "gpt-4-turbo-2024-04-09" {
		t.Errorf("ModelUsed = %q", resp.ModelUsed)
	}

	if got.Model != ModelGPT4Turbo {
		t.Errorf("request model = %q", got.Model)
	}
	if got.Temperature == nil || *got.Temperature != 0 {
		t.Errorf("temperature = %v, want explicit 0", got.Temperature)
	}
	if got.MaxTokens == nil || *got.MaxTokens != 4096 {
		t.Errorf("max_tokens = %v, want 4096", got.MaxTokens)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Errorf("messages = %+v, want system then user", got.Messages)
	}
}

func TestProvider_CompleteRequiresModel(t *testing.T) {
	var calls atomic.Int32
	_, provider := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := provider.Complete(context.Background(), ports.CompletionRequest{
		Messages: []ports.Message{{Role: "user", Content: "hi"}},
	})
	if !errors.Is(err, domainErrors.ErrModelRequired) {
		t.Errorf("error = %v, want ErrModelRequired", err)
	}
	if calls.Load() != 0 {
		t.Error("request sent without a model")
	}
}

func TestProvider_EmptyChoices(t *testing.T) {
	_, provider := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","model":"gpt-4","choices":[]}`))
	})

	_, err := provider.Complete(context.Background(), ports.CompletionRequest{
		ModelID:  ModelGPT4,
		Messages: []ports.Message{{Role: "user", Content: "hi"}},
	})
	if !errors.Is(err, domainErrors.ErrEmptyResponse) {
		t.Errorf("error = %v, want ErrEmptyResponse", err)
	}
}

func TestProvider_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   domainErrors.ErrorCode
	}{
		{"unauthorized", http.StatusUnauthorized, domainErrors.CodeConfiguration},
		{"model not found", http.StatusNotFound, domainErrors.CodeNotFound},
		{"rate limited", http.StatusTooManyRequests, domainErrors.CodeProvider},
		{"server error", http.StatusInternalServerError, domainErrors.CodeProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, provider := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"invalid_request_error"}}`))
			})

			_, err := provider.Complete(context.Background(), ports.CompletionRequest{
				ModelID:  ModelGPT4,
				Messages: []ports.Message{{Role: "user", Content: "hi"}},
			})
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := domainErrors.CodeOf(err); got != tt.code {
				t.Errorf("CodeOf() = %q, want %q (err: %v)", got, tt.code, err)
			}
		})
	}
}

func TestProvider_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	provider := NewProvider(Config{APIKey: "k", BaseURL: url, Timeout: time.Second})
	_, err := provider.Complete(context.Background(), ports.CompletionRequest{
		ModelID:  ModelGPT4,
		Messages: []ports.Message{{Role: "user", Content: "hi"}},
	})
	if !errors.Is(err, domainErrors.ErrProviderUnreachable) {
		t.Errorf("error = %v, want ErrProviderUnreachable", err)
	}
}

func TestProvider_ContextCanceled(t *testing.T) {
	_, provider := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeCompletion(w, "gpt-4", "late")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider.Complete(ctx, ports.CompletionRequest{
		ModelID:  ModelGPT4,
		Messages: []ports.Message{{Role: "user", Content: "hi"}},
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
