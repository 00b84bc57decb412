package llm

import "testing"

func clearProviderEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("XAI_API_KEY", "")
}

func TestResolveUsesConfiguredDefaults(t *testing.T) {
	clearProviderEnv(t)
	registry := NewProviderRegistry(&ProviderConfig{
		GroqAPIKey: "gsk_test",
		GroqModel:  "llama-3.1-8b-instant",
	}, []string{ProviderGroq})

	key, err := registry.Resolve(ProviderGroq, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key.Model != "llama-3.1-8b-instant" {
		t.Errorf("expected configured model, got %s", key.Model)
	}
	if key.APIKey != "gsk_test" {
		t.Errorf("expected configured key, got %s", key.APIKey)
	}
}

func TestResolveModelOverrideWins(t *testing.T) {
	clearProviderEnv(t)
	registry := NewProviderRegistry(&ProviderConfig{
		OpenAIAPIKey: "sk_test",
		OpenAIModel:  "gpt-4o-mini",
	}, []string{ProviderOpenAI})

	key, err := registry.Resolve(ProviderOpenAI, "gpt-4o")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key.Model != "gpt-4o" {
		t.Errorf("expected override model, got %s", key.Model)
	}
}

func TestResolveBuiltinDefaultModel(t *testing.T) {
	clearProviderEnv(t)
	registry := NewProviderRegistry(&ProviderConfig{
		DeepSeekAPIKey: "ds_test",
	}, []string{ProviderDeepSeek})

	key, err := registry.Resolve(ProviderDeepSeek, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key.Model != DefaultDeepSeekModel {
		t.Errorf("expected %s, got %s", DefaultDeepSeekModel, key.Model)
	}
}

func TestResolveDisabledProvider(t *testing.T) {
	clearProviderEnv(t)
	registry := NewProviderRegistry(&ProviderConfig{XAIAPIKey: "xai_test"}, []string{ProviderOpenAI})

	if _, err := registry.Resolve(ProviderXAI, ""); err == nil {
		t.Error("expected error for disabled provider")
	}
}

func TestResolveMissingAPIKey(t *testing.T) {
	clearProviderEnv(t)
	registry := NewProviderRegistry(&ProviderConfig{}, []string{ProviderOpenAI})

	if _, err := registry.Resolve(ProviderOpenAI, ""); err == nil {
		t.Error("expected error when no API key is configured")
	}
}

func TestAPIKeyEnvFallback(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk_from_env")
	registry := NewProviderRegistry(&ProviderConfig{}, []string{ProviderGroq})

	if !registry.IsProviderConfigured(ProviderGroq) {
		t.Fatal("expected provider to be configured from environment")
	}
	key, err := registry.Resolve(ProviderGroq, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key.APIKey != "gsk_from_env" {
		t.Errorf("expected env key, got %s", key.APIKey)
	}
}

func TestResolveFirstAvailable(t *testing.T) {
	clearProviderEnv(t)
	registry := NewProviderRegistry(&ProviderConfig{
		DeepSeekAPIKey: "ds_test",
	}, []string{ProviderOpenAI, ProviderDeepSeek})

	// openai is enabled but has no key; deepseek should win.
	key, err := registry.ResolveFirstAvailable([]string{ProviderOpenAI, ProviderDeepSeek, ProviderXAI})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key.Provider != ProviderDeepSeek {
		t.Errorf("expected deepseek, got %s", key.Provider)
	}
}

func TestResolveFirstAvailableNone(t *testing.T) {
	clearProviderEnv(t)
	registry := NewProviderRegistry(&ProviderConfig{}, []string{ProviderOpenAI})

	if _, err := registry.ResolveFirstAvailable([]string{ProviderOpenAI, ProviderGroq}); err == nil {
		t.Error("expected error when nothing is available")
	}
}
