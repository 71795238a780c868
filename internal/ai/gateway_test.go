package ai

import (
	"testing"

	"github.com/edforge/edforge/internal/platform/config"
)

func TestNew_SelectsProvider(t *testing.T) {
	p, err := New(config.AIConfig{
		Provider:       config.ProviderOpenAI,
		OpenAIAPIKey:   "key",
		TimeoutSeconds: 30,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := p.(*OpenAIProvider); !ok {
		t.Errorf("New() = %T, want *OpenAIProvider", p)
	}

	p, err = New(config.AIConfig{
		Provider:        config.ProviderAnthropic,
		AnthropicAPIKey: "key",
		TimeoutSeconds:  30,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := p.(*AnthropicProvider); !ok {
		t.Errorf("New() = %T, want *AnthropicProvider", p)
	}
}

func TestNew_MissingCredential(t *testing.T) {
	if _, err := New(config.AIConfig{Provider: config.ProviderOpenAI}); err == nil {
		t.Error("New() should fail without the selected provider's key")
	}
	if _, err := New(config.AIConfig{Provider: config.ProviderAnthropic}); err == nil {
		t.Error("New() should fail without the selected provider's key")
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	if _, err := New(config.AIConfig{Provider: "gemini"}); err == nil {
		t.Error("New() should reject providers outside the closed set")
	}
}
