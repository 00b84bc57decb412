package llm

import (
	"fmt"
	"os"
	"sync"
)

const (
	ProviderOpenAI   = "openai"
	ProviderGroq     = "groq"
	ProviderDeepSeek = "deepseek"
	ProviderXAI      = "xai"
)

// Default models per provider, used when neither the caller nor the config
// names one.
const (
	DefaultOpenAIModel   = "gpt-4o-mini"
	DefaultGroqModel     = "llama-3.3-70b-versatile"
	DefaultDeepSeekModel = "deepseek-chat"
	DefaultXAIModel      = "grok-2-latest"
)

// ClientKey uniquely identifies a resolved adapter configuration.
type ClientKey struct {
	Provider     string
	Model        string
	APIKey       string
	BaseURL      string
	Organization string // OpenAI only
}

// ProviderConfig holds the per-provider settings the registry resolves from.
// This mirrors the config package without importing it, to avoid a cycle.
type ProviderConfig struct {
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OpenAIModel    string
	OpenAIOrg      string
	GroqAPIKey     string
	GroqBaseURL    string
	GroqModel      string
	DeepSeekAPIKey string
	DeepSeekModel  string
	XAIAPIKey      string
	XAIModel       string
}

// ProviderRegistry manages provider selection and configuration resolution.
type ProviderRegistry struct {
	enabledProviders map[string]bool
	mu               sync.RWMutex
	config           *ProviderConfig
}

// NewProviderRegistry creates a registry with the given config and enabled
// provider names.
func NewProviderRegistry(providerConfig *ProviderConfig, enabledProviders []string) *ProviderRegistry {
	enabledMap := make(map[string]bool)
	for _, p := range enabledProviders {
		enabledMap[p] = true
	}
	return &ProviderRegistry{
		enabledProviders: enabledMap,
		config:           providerConfig,
	}
}

// IsProviderEnabled checks if a provider is in the enabled providers list.
func (r *ProviderRegistry) IsProviderEnabled(provider string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabledProviders[provider]
}

// IsProviderConfigured checks if a provider has an API key available, from
// config or from the conventional environment variable.
func (r *ProviderRegistry) IsProviderConfigured(provider string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.apiKeyFor(provider) != ""
}

// Resolve returns a ClientKey for the given provider, using modelOverride when
// set and the configured or built-in default model otherwise.
func (r *ProviderRegistry) Resolve(provider, modelOverride string) (*ClientKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.enabledProviders[provider] {
		return nil, fmt.Errorf("provider %s is not enabled", provider)
	}

	key := &ClientKey{Provider: provider, Model: modelOverride}
	key.APIKey = r.apiKeyFor(provider)
	if key.APIKey == "" {
		return nil, fmt.Errorf("provider %s has no API key configured", provider)
	}

	switch provider {
	case ProviderOpenAI:
		key.BaseURL = r.config.OpenAIBaseURL
		key.Organization = r.config.OpenAIOrg
		if key.Model == "" {
			key.Model = r.config.OpenAIModel
		}
		if key.Model == "" {
			key.Model = DefaultOpenAIModel
		}
	case ProviderGroq:
		key.BaseURL = r.config.GroqBaseURL
		if key.Model == "" {
			key.Model = r.config.GroqModel
		}
		if key.Model == "" {
			key.Model = DefaultGroqModel
		}
	case ProviderDeepSeek:
		if key.Model == "" {
			key.Model = r.config.DeepSeekModel
		}
		if key.Model == "" {
			key.Model = DefaultDeepSeekModel
		}
	case ProviderXAI:
		if key.Model == "" {
			key.Model = r.config.XAIModel
		}
		if key.Model == "" {
			key.Model = DefaultXAIModel
		}
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}

	return key, nil
}

// ResolveFirstAvailable walks the preference list in order and returns a key
// for the first enabled, configured provider.
func (r *ProviderRegistry) ResolveFirstAvailable(preferences []string) (*ClientKey, error) {
	var attempted []string
	for _, provider := range preferences {
		attempted = append(attempted, provider)
		if !r.IsProviderEnabled(provider) || !r.IsProviderConfigured(provider) {
			continue
		}
		return r.Resolve(provider, "")
	}
	return nil, fmt.Errorf("no available provider from preferences %v", attempted)
}

// apiKeyFor returns the API key for a provider from config, falling back to
// the conventional environment variable. Must be called with r.mu held.
func (r *ProviderRegistry) apiKeyFor(provider string) string {
	switch provider {
	case ProviderOpenAI:
		if r.config.OpenAIAPIKey != "" {
			return r.config.OpenAIAPIKey
		}
		return os.Getenv("OPENAI_API_KEY")
	case ProviderGroq:
		if r.config.GroqAPIKey != "" {
			return r.config.GroqAPIKey
		}
		return os.Getenv("GROQ_API_KEY")
	case ProviderDeepSeek:
		if r.config.DeepSeekAPIKey != "" {
			return r.config.DeepSeekAPIKey
		}
		return os.Getenv("DEEPSEEK_API_KEY")
	case ProviderXAI:
		if r.config.XAIAPIKey != "" {
			return r.config.XAIAPIKey
		}
		return os.Getenv("XAI_API_KEY")
	default:
		return ""
	}
}
