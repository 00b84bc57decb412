package xai

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/modelrelay/modelrelay/llm"
	"github.com/modelrelay/modelrelay/llm/openai"
)

func TestNewSetsProviderAndDefaults(t *testing.T) {
	adapter := New(openai.Config{APIKey: "xai-test", Logger: zerolog.Nop()})

	if adapter.Provider() != llm.ProviderXAI {
		t.Errorf("expected xai provider, got %s", adapter.Provider())
	}
	if adapter.Model() != llm.DefaultXAIModel {
		t.Errorf("expected default model, got %s", adapter.Model())
	}
}
