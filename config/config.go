// Package config loads deployment configuration from a YAML file with
// sensible defaults. Sub-agent descriptors are deliberately not configured
// here; they are static code-level declarations wired at startup.
package config

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Supported model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ServerConfig holds HTTP serving settings.
type ServerConfig struct {
	// Addr is the listen address, host:port.
	Addr string `yaml:"addr"`
}

// ModelConfig selects and parameterizes the foundation model.
type ModelConfig struct {
	// Provider is "openai" or "anthropic".
	Provider string `yaml:"provider"`
	// Name is the model identifier passed to the provider.
	Name string `yaml:"name"`
	// BaseURL points the client at an OpenAI/Anthropic-compatible serving
	// endpoint. Empty uses the provider default.
	BaseURL string `yaml:"base_url"`
	// APIKeyEnv names the environment variable holding the credential. The
	// key itself never appears in the config file.
	APIKeyEnv string `yaml:"api_key_env"`
	// Streaming fixes the streaming mode at construction time.
	Streaming bool `yaml:"streaming"`
}

// APIKey reads the credential from the configured environment variable.
func (m ModelConfig) APIKey() string {
	if m.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(m.APIKeyEnv)
}

// LimitsConfig caps per-invocation resource usage. Zero values keep the
// built-in defaults.
type LimitsConfig struct {
	MaxModelCalls     int `yaml:"max_model_calls"`
	EvictionThreshold int `yaml:"eviction_threshold"`
	TokenBudget       int `yaml:"token_budget"`
	KeepMessages      int `yaml:"keep_messages"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
	// Format is json or text.
	Format string `yaml:"format"`
}

// Config is the full deployment configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Model   ModelConfig   `yaml:"model"`
	Limits  LimitsConfig  `yaml:"limits"`
	Logging LoggingConfig `yaml:"logging"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Model: ModelConfig{
			Provider:  ProviderOpenAI,
			Name:      "gpt-4o",
			APIKeyEnv: "STEWARD_API_KEY",
		},
		Limits: LimitsConfig{
			MaxModelCalls: 100,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return cfg, fmt.Errorf("load config from %q: %w", path, err)
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return cfg, fmt.Errorf("parse config from %q: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate rejects configurations that cannot produce a working process.
func (c Config) Validate() error {
	switch c.Model.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unsupported model provider %q", c.Model.Provider)
	}
	if c.Model.Name == "" {
		return fmt.Errorf("model name must not be empty")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr must not be empty")
	}
	return nil
}
