// Package oracle wraps the language-model calls the pipeline depends on:
// scene code generation, code validation and code repair.
package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/lucasnoah/manimator/internal/config"
)

// ErrMissingAPIKey is returned when a remote provider has no credential.
var ErrMissingAPIKey = errors.New("api key missing")

// Prompt is one completion request.
type Prompt struct {
	System      string
	User        string
	Temperature float64
	JSON        bool // ask the backend for a JSON object response
}

// Client sends a prompt and returns the raw completion text.
type Client interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// NewClient builds the Client selected by cfg.LLM.Provider.
func NewClient(ctx context.Context, cfg *config.Config) (Client, error) {
	switch cfg.LLM.Provider {
	case config.ProviderMock:
		return NewMockClient(), nil
	case config.ProviderGemini:
		key := cfg.APIKey()
		if key == "" {
			return nil, fmt.Errorf("%w: set %s", ErrMissingAPIKey, cfg.LLM.APIKeyEnv)
		}
		return NewGeminiClient(ctx, cfg.LLM.Model, key)
	case config.ProviderOpenRouter, config.ProviderOpenAI, config.ProviderDeepSeek:
		key := cfg.APIKey()
		if key == "" {
			return nil, fmt.Errorf("%w: set %s", ErrMissingAPIKey, cfg.LLM.APIKeyEnv)
		}
		return NewOpenAIClient(cfg.LLM.Model, key, cfg.LLM.BaseURL)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}
