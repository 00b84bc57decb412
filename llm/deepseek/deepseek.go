// Package deepseek provides an adapter for DeepSeek's chat API. DeepSeek is
// OpenAI-compatible, so the adapter is the openai machinery pointed at
// DeepSeek's endpoint.
package deepseek

import (
	"github.com/modelrelay/modelrelay/llm"
	"github.com/modelrelay/modelrelay/llm/openai"
)

const defaultBaseURL = "https://api.deepseek.com"

// New constructs a DeepSeek adapter. Config fields follow openai.Config;
// Provider and BaseURL are fixed here.
func New(cfg openai.Config) *openai.Adapter {
	cfg.Provider = llm.ProviderDeepSeek
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = llm.DefaultDeepSeekModel
	}
	return openai.New(cfg)
}
