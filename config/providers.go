package config

import (
	"os"

	"github.com/modelrelay/modelrelay/llm"
)

// ProviderConfig flattens the per-provider blocks into the shape the llm
// registry resolves from. Environment variables override file values for
// API keys and OpenAI connection settings.
func ProviderConfig(cfg *Config) *llm.ProviderConfig {
	pc := &llm.ProviderConfig{}
	if cfg != nil {
		pc.OpenAIAPIKey = cfg.OpenAI.APIKey
		pc.OpenAIBaseURL = cfg.OpenAI.BaseURL
		pc.OpenAIModel = cfg.OpenAI.Model
		pc.OpenAIOrg = cfg.OpenAI.Organization
		pc.GroqAPIKey = cfg.Groq.APIKey
		pc.GroqBaseURL = cfg.Groq.BaseURL
		pc.GroqModel = cfg.Groq.Model
		pc.DeepSeekAPIKey = cfg.DeepSeek.APIKey
		pc.DeepSeekModel = cfg.DeepSeek.Model
		pc.XAIAPIKey = cfg.XAI.APIKey
		pc.XAIModel = cfg.XAI.Model
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		pc.OpenAIAPIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		pc.OpenAIBaseURL = v
	}
	if v := os.Getenv("OPENAI_ORG_ID"); v != "" {
		pc.OpenAIOrg = v
	}
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		pc.GroqAPIKey = v
	}
	if v := os.Getenv("DEEPSEEK_API_KEY"); v != "" {
		pc.DeepSeekAPIKey = v
	}
	if v := os.Getenv("XAI_API_KEY"); v != "" {
		pc.XAIAPIKey = v
	}

	return pc
}

// NewRegistry builds a provider registry from the configuration.
func NewRegistry(cfg *Config) *llm.ProviderRegistry {
	return llm.NewProviderRegistry(ProviderConfig(cfg), cfg.Providers)
}
