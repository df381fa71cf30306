package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/jbctechsolutions/docsmith/internal/application/ports"
	domainErrors "github.com/jbctechsolutions/docsmith/internal/domain/errors"
)

// Provider implements the ports.ProviderPort interface for OpenAI and
// OpenAI-compatible endpoints.
type Provider struct {
	client openai.Client
	config Config
}

// Ensure Provider implements ProviderPort at compile time.
var _ ports.ProviderPort = (*Provider)(nil)

// NewProvider creates a new OpenAI provider with the given configuration.
// Extra request options are appended after the ones derived from config.
func NewProvider(config Config, opts ...option.RequestOption) *Provider {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	clientOpts := []option.RequestOption{
		option.WithBaseURL(config.BaseURL),
		option.WithMaxRetries(config.MaxRetries),
	}
	if config.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(config.APIKey))
	}
	if config.Timeout > 0 {
		clientOpts = append(clientOpts, option.WithRequestTimeout(config.Timeout))
	}
	clientOpts = append(clientOpts, opts...)

	return &Provider{
		client: openai.NewClient(clientOpts...),
		config: config,
	}
}

// NewProviderWithAPIKey creates a new OpenAI provider with default configuration.
func NewProviderWithAPIKey(apiKey string) *Provider {
	return NewProvider(DefaultConfig(apiKey))
}

// Info returns metadata about this provider.
func (p *Provider) Info() ports.ProviderInfo {
	return ports.ProviderInfo{
		Name:        "openai",
		Description: "OpenAI Chat Completions API (GPT-4 family)",
		BaseURL:     p.config.BaseURL,
		IsLocal:     false,
	}
}

// Complete sends a completion request and returns the response.
func (p *Provider) Complete(ctx context.Context, req ports.CompletionRequest) (*ports.CompletionResponse, error) {
	if req.ModelID == "" {
		return nil, domainErrors.NewError(domainErrors.CodeValidation, "completion request has no model", domainErrors.ErrModelRequired)
	}

	startTime := time.Now()

	resp, err := p.client.Chat.Completions.New(ctx, buildParams(req))
	if err != nil {
		return nil, classifyError(req.ModelID, err)
	}
	if len(resp.Choices) == 0 {
		return nil, domainErrors.NewError(domainErrors.CodeProvider, "empty completion", domainErrors.ErrEmptyResponse)
	}

	choice := resp.Choices[0]
	return &ports.CompletionResponse{
		Content:      choice.Message.Content,
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
		FinishReason: string(choice.FinishReason),
		ModelUsed:    resp.Model,
		Duration:     time.Since(startTime),
	}, nil
}

// buildParams converts a ports.CompletionRequest to SDK parameters.
// Temperature is always sent; zero is the deterministic setting prompts
// are cached under.
func buildParams(req ports.CompletionRequest) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)

	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case ports.RoleSystem:
			if req.SystemPrompt != "" {
				continue
			}
			messages = append(messages, openai.SystemMessage(msg.Content))
		case ports.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(req.ModelID),
		Messages:    messages,
		Temperature: openai.Float(float64(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	return params
}

// classifyError maps SDK errors onto domain error codes.
func classifyError(model string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return domainErrors.NewError(domainErrors.CodeProvider, "request failed",
			fmt.Errorf("%w: %w", domainErrors.ErrProviderUnreachable, err))
	}

	var e *domainErrors.DocsmithError
	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		e = domainErrors.NewError(domainErrors.CodeConfiguration, "authentication failed; check OPENAI_API_KEY", err)
	case http.StatusNotFound:
		e = domainErrors.NewError(domainErrors.CodeNotFound, "model not found", err)
	case http.StatusTooManyRequests:
		e = domainErrors.NewError(domainErrors.CodeProvider, "rate limit exceeded", err)
	default:
		e = domainErrors.NewError(domainErrors.CodeProvider, fmt.Sprintf("HTTP %d", apiErr.StatusCode), err)
	}
	return domainErrors.WithContext(e, "model", model)
}
