// Package openai provides an adapter for the OpenAI Chat Completions API
// built on the official openai-go SDK.
package openai

import (
	"time"

	"github.com/jbctechsolutions/docsmith/internal/infrastructure/config"
)

// DefaultBaseURL is the public OpenAI API endpoint.
const DefaultBaseURL = "https://api.openai.com/v1"

// Config holds configuration for the OpenAI provider.
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// DefaultConfig returns a Config for the public API.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:     apiKey,
		BaseURL:    DefaultBaseURL,
		Timeout:    60 * time.Second,
		MaxRetries: 2,
	}
}

// FromConfig builds a Config from the application provider section.
func FromConfig(pc config.ProviderConfig) Config {
	cfg := DefaultConfig(pc.APIKey)
	if pc.BaseURL != "" {
		cfg.BaseURL = pc.BaseURL
	}
	if pc.Timeout > 0 {
		cfg.Timeout = pc.Timeout
	}
	return cfg
}

// Models the pricing table knows about.
const (
	ModelGPT4      = "gpt-4"
	ModelGPT4Turbo = "gpt-4-turbo"
	ModelGPT4o     = "gpt-4o"
	ModelGPT4oMini = "gpt-4o-mini"
	ModelGPT35     = "gpt-3.5-turbo"
)
