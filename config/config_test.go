package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("expected sqlite default, got %q", cfg.Storage.Backend)
	}
	if cfg.Timeout != 60 {
		t.Errorf("expected default timeout 60, got %d", cfg.Timeout)
	}
	if len(cfg.Providers) != 4 {
		t.Errorf("expected 4 default providers, got %v", cfg.Providers)
	}
}

func TestLoadMergesOntoDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
providers: [groq]
groq:
  api_key: gsk_file
  model: llama-3.1-8b-instant
storage:
  backend: json
  path: ./sessions
system_prompt: Be terse.
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Providers) != 1 || cfg.Providers[0] != "groq" {
		t.Errorf("expected providers [groq], got %v", cfg.Providers)
	}
	if cfg.Groq.APIKey != "gsk_file" {
		t.Errorf("expected groq key from file, got %q", cfg.Groq.APIKey)
	}
	if cfg.Storage.Backend != "json" || cfg.Storage.Path != "./sessions" {
		t.Errorf("unexpected storage config: %+v", cfg.Storage)
	}
	// Untouched sections keep their defaults.
	if cfg.Timeout != 60 {
		t.Errorf("expected default timeout, got %d", cfg.Timeout)
	}
	if cfg.Reader.ChunkSize != 3000 {
		t.Errorf("expected default chunk size, got %d", cfg.Reader.ChunkSize)
	}
	if cfg.System != "Be terse." {
		t.Errorf("unexpected system prompt: %q", cfg.System)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	original := &Config{
		Providers: []string{"openai"},
		OpenAI:    OpenAIConfig{APIKey: "sk_test", Model: "gpt-4o"},
	}
	if err := Save(original, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.OpenAI.APIKey != "sk_test" || loaded.OpenAI.Model != "gpt-4o" {
		t.Errorf("round trip lost data: %+v", loaded.OpenAI)
	}
}

func TestProviderConfigEnvOverrides(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_env")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("XAI_API_KEY", "")

	cfg := &Config{
		Groq:   GroqConfig{APIKey: "gsk_file"},
		OpenAI: OpenAIConfig{APIKey: "sk_file"},
	}
	pc := ProviderConfig(cfg)
	if pc.GroqAPIKey != "gsk_env" {
		t.Errorf("expected env to win, got %q", pc.GroqAPIKey)
	}
	if pc.OpenAIAPIKey != "sk_file" {
		t.Errorf("expected file value to survive empty env, got %q", pc.OpenAIAPIKey)
	}
}
