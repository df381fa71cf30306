package ports

import (
	"context"
	"time"
)

// Message roles understood by chat completion providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ProviderInfo describes the completion service behind the model.
type ProviderInfo struct {
	Name        string
	Description string
	BaseURL     string
	IsLocal     bool
}

// Message is one turn of a chat conversation.
type Message struct {
	Role    string
	Content string
}

// CompletionRequest is a single prompt sent to a provider. Docsmith sends
// one user message per request; history is never replayed.
type CompletionRequest struct {
	ModelID      string
	Messages     []Message
	MaxTokens    int // 0 leaves the provider default
	Temperature  float32
	SystemPrompt string
}

// UserPrompt returns the content of the last user message.
func (r CompletionRequest) UserPrompt() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].Content
		}
	}
	return ""
}

// CompletionResponse is a provider's answer with the usage it reported.
// Token counts are zero when the provider reports no usage.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	FinishReason string
	ModelUsed    string // the model that answered, which may be a dated snapshot
	Duration     time.Duration
}

// ProviderPort is the completion service the prompt cache sits in front of.
type ProviderPort interface {
	Info() ProviderInfo
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
