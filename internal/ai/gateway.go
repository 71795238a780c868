// Package ai provides the outbound LLM client: two wire-compatible provider
// implementations behind one Provider interface, plus JSON extraction for
// structured model output.
package ai

import (
	"context"
	"fmt"

	"github.com/edforge/edforge/internal/platform/config"
)

// ResponseFormat controls whether the provider is asked for free text or a
// strict JSON object.
type ResponseFormat string

const (
	FormatText ResponseFormat = "text"
	FormatJSON ResponseFormat = "json"
)

// Defaults applied when a completion request leaves a knob unset.
const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 2000
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to an LLM completion.
type CompletionRequest struct {
	Messages       []Message      `json:"messages"`
	Temperature    float64        `json:"temperature,omitempty"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	ResponseFormat ResponseFormat `json:"response_format,omitempty"`
}

// Usage reports token consumption for a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResponse is the output from an LLM completion.
type CompletionResponse struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

// Provider is the interface both LLM backends implement. Which backend is
// in use is fixed at construction; it is not switchable per call.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

// New constructs the provider selected by cfg. The selected provider's
// credential is checked here so a misconfigured deployment fails at startup
// rather than on the first agent invocation.
func New(cfg config.AIConfig) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai API key is required")
		}
		opts := []OpenAIOption{WithModel(cfg.OpenAIModel), WithTimeout(cfg.TimeoutSeconds)}
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.OpenAIBaseURL))
		}
		return NewOpenAIProvider(cfg.OpenAIAPIKey, opts...), nil
	case config.ProviderAnthropic:
		return NewAnthropicProvider(cfg.AnthropicAPIKey,
			WithAnthropicModel(cfg.AnthropicModel),
			WithAnthropicTimeout(cfg.TimeoutSeconds),
		)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}
