package config

import (
	"os"
	"path/filepath"
	"testing"
)

// clearEnv unsets all EDFORGE_ environment variables for a clean test.
func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"EDFORGE_SERVER_PORT",
		"EDFORGE_SERVER_HOST",
		"EDFORGE_DATABASE_URL",
		"EDFORGE_DATABASE_MAX_CONNS",
		"EDFORGE_DATABASE_MIN_CONNS",
		"EDFORGE_CACHE_URL",
		"EDFORGE_AI_PROVIDER",
		"EDFORGE_AI_OPENAI_API_KEY",
		"EDFORGE_AI_OPENAI_BASE_URL",
		"EDFORGE_AI_OPENAI_MODEL",
		"EDFORGE_AI_ANTHROPIC_API_KEY",
		"EDFORGE_AI_ANTHROPIC_MODEL",
		"EDFORGE_AI_TIMEOUT_SECONDS",
		"EDFORGE_LOG_LEVEL",
		"EDFORGE_LOG_FORMAT",
		"EDFORGE_CONFIG",
	}
	for _, v := range envVars {
		_ = os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.AI.Provider != ProviderOpenAI {
		t.Errorf("AI.Provider = %q, want openai", cfg.AI.Provider)
	}
	if cfg.AI.TimeoutSeconds != 60 {
		t.Errorf("AI.TimeoutSeconds = %d, want 60", cfg.AI.TimeoutSeconds)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("EDFORGE_SERVER_PORT", "9090")
	t.Setenv("EDFORGE_AI_PROVIDER", "anthropic")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.AI.Provider != ProviderAnthropic {
		t.Errorf("AI.Provider = %q, want anthropic", cfg.AI.Provider)
	}
}

func TestLoad_YAMLOverlay(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  port: 7070\nai:\n  provider: anthropic\n  anthropic_api_key: file-key\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EDFORGE_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.AI.AnthropicAPIKey != "file-key" {
		t.Errorf("AI.AnthropicAPIKey = %q, want file-key", cfg.AI.AnthropicAPIKey)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidate_MissingSelectedProviderKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("EDFORGE_AI_PROVIDER", "anthropic")
	t.Setenv("EDFORGE_AI_OPENAI_API_KEY", "key-for-the-wrong-provider")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail when the selected provider has no credential")
	}
}

func TestValidate_UnknownProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("EDFORGE_AI_PROVIDER", "bard")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject an unknown provider")
	}
}
