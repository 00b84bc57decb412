// Package xai provides an adapter for xAI's chat API. xAI is
// OpenAI-compatible, so the adapter is the openai machinery pointed at xAI's
// endpoint.
package xai

import (
	"github.com/modelrelay/modelrelay/llm"
	"github.com/modelrelay/modelrelay/llm/openai"
)

const defaultBaseURL = "https://api.x.ai/v1"

// New constructs an xAI adapter. Config fields follow openai.Config;
// Provider and BaseURL are fixed here.
func New(cfg openai.Config) *openai.Adapter {
	cfg.Provider = llm.ProviderXAI
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = llm.DefaultXAIModel
	}
	return openai.New(cfg)
}
