package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// OpenAIConfig configures the OpenAI provider.
type OpenAIConfig struct {
	APIKey       string `yaml:"api_key,omitempty"`
	BaseURL      string `yaml:"base_url,omitempty"`
	Model        string `yaml:"model,omitempty"`
	Organization string `yaml:"organization,omitempty"`
}

// GroqConfig configures the Groq provider.
type GroqConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

// DeepSeekConfig configures the DeepSeek provider.
type DeepSeekConfig struct {
	APIKey string `yaml:"api_key,omitempty"`
	Model  string `yaml:"model,omitempty"`
}

// XAIConfig configures the xAI provider.
type XAIConfig struct {
	APIKey string `yaml:"api_key,omitempty"`
	Model  string `yaml:"model,omitempty"`
}

// StorageConfig selects and configures the session store.
type StorageConfig struct {
	// Backend is "sqlite" or "json".
	Backend string `yaml:"backend,omitempty"`
	// Path is the database file for sqlite, or the session directory for
	// json.
	Path string `yaml:"path,omitempty"`
	// MigrationsPath is the directory holding schema migrations, used by
	// the sqlite backend.
	MigrationsPath string `yaml:"migrations_path,omitempty"`
}

// ReaderConfig configures document readers.
type ReaderConfig struct {
	Chunk     bool `yaml:"chunk,omitempty"`
	ChunkSize int  `yaml:"chunk_size,omitempty"`
}

// Config is the top-level configuration.
type Config struct {
	// Providers lists enabled provider names in preference order.
	Providers []string `yaml:"providers,omitempty"`

	OpenAI   OpenAIConfig   `yaml:"openai,omitempty"`
	Groq     GroqConfig     `yaml:"groq,omitempty"`
	DeepSeek DeepSeekConfig `yaml:"deepseek,omitempty"`
	XAI      XAIConfig      `yaml:"xai,omitempty"`

	Storage StorageConfig `yaml:"storage,omitempty"`
	Reader  ReaderConfig  `yaml:"reader,omitempty"`

	// System is the default system prompt for new sessions.
	System string `yaml:"system_prompt,omitempty"`
	// Timeout in seconds for provider requests (default: 60).
	Timeout int `yaml:"timeout,omitempty"`
}

// GetConfigPath returns the default config file path. Can be overridden via
// the MODELRELAY_CONFIG_PATH environment variable.
func GetConfigPath() string {
	if envPath := os.Getenv("MODELRELAY_CONFIG_PATH"); envPath != "" {
		return expandPath(envPath)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./.modelrelay/config.yaml"
	}
	return filepath.Join(homeDir, ".modelrelay", "config.yaml")
}

// Load loads configuration from the given path, merged onto defaults. A
// missing file returns the defaults.
func Load(path string) (*Config, error) {
	defaults := Config{
		Providers: []string{"openai", "groq", "deepseek", "xai"},
		Storage: StorageConfig{
			Backend:        "sqlite",
			Path:           "modelrelay.db",
			MigrationsPath: "./migrations",
		},
		Reader: ReaderConfig{
			ChunkSize: 3000,
		},
		Timeout: 60,
	}

	expandedPath := expandPath(path)
	if _, err := os.Stat(expandedPath); err != nil {
		return &defaults, nil
	}

	data, err := os.ReadFile(expandedPath) //#nosec 304 -- intentional file read for config
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", expandedPath, err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := mergo.Merge(&defaults, loaded, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}

	return &defaults, nil
}

// Save writes the configuration to the specified path, creating parent
// directories as needed.
func Save(cfg *Config, path string) error {
	expandedPath := expandPath(path)

	if err := os.MkdirAll(filepath.Dir(expandedPath), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(expandedPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
