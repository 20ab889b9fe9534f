// Package config loads debatecoach settings from defaults, an optional YAML
// file and DEBATECOACH_ environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/lorenzotomasdiez/debate-coach/internal/debate/persona"
)

// Sentinel error kinds for this package.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

const (
	envPrefix = "DEBATECOACH_"
	// FileEnv names the environment variable holding the YAML config path.
	FileEnv = envPrefix + "CONFIG"

	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// Config holds the process configuration.
type Config struct {
	// Provider selects the model backend: gemini or openrouter.
	Provider string `koanf:"provider"`
	APIKey   string `koanf:"api_key"`
	// Model is the provider model name. Empty picks a provider default.
	Model   string `koanf:"model"`
	BaseURL string `koanf:"base_url"`

	Topic string `koanf:"topic"`
	Mode  string `koanf:"mode"`
	Voice bool   `koanf:"voice"`

	// SpeechCommand is the synthesizer command line. Empty means detect.
	SpeechCommand string `koanf:"speech_command"`

	RequestTimeoutSeconds int    `koanf:"request_timeout_seconds"`
	LogLevel              string `koanf:"log_level"`
	Addr                  string `koanf:"addr"`
	OutputDir             string `koanf:"output_dir"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Provider:              ProviderGemini,
		Topic:                 "Artificial Intelligence in Education",
		Mode:                  string(persona.Coach),
		Voice:                 true,
		RequestTimeoutSeconds: 30,
		LogLevel:              "info",
		Addr:                  ":8080",
		OutputDir:             "output",
	}
}

// Load layers defaults, the file named by DEBATECOACH_CONFIG and
// DEBATECOACH_* variables, then validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(FileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: %w: reading %s: %v", ErrLoadConfig, path, err)
		}
	}

	// DEBATECOACH_REQUEST_TIMEOUT_SECONDS -> request_timeout_seconds
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("config: %w: %v", ErrLoadConfig, err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("config: %w: %v", ErrLoadConfig, err)
	}

	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.APIKey == "" {
		cfg.APIKey = ProviderKey(cfg.Provider)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ProviderKey returns the provider's conventional API key variable.
func ProviderKey(provider string) string {
	switch provider {
	case ProviderOpenRouter:
		return os.Getenv("OPENROUTER_API_KEY")
	default:
		return os.Getenv("GEMINI_API_KEY")
	}
}

// Validate checks field values. It does not require an API key; see
// RequireAPIKey.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOpenRouter:
	default:
		return fmt.Errorf("config: %w: provider must be %q or %q, got %q",
			ErrInvalidConfig, ProviderGemini, ProviderOpenRouter, c.Provider)
	}
	if _, err := persona.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("config: %w: %v", ErrInvalidConfig, err)
	}
	if strings.TrimSpace(c.Topic) == "" {
		return fmt.Errorf("config: %w: topic must not be empty", ErrInvalidConfig)
	}
	if c.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("config: %w: request_timeout_seconds must be >= 0, got %d",
			ErrInvalidConfig, c.RequestTimeoutSeconds)
	}
	if c.Addr == "" {
		return fmt.Errorf("config: %w: addr must not be empty", ErrInvalidConfig)
	}
	return nil
}

// RequireAPIKey reports a missing key for the configured provider.
func (c *Config) RequireAPIKey() error {
	if c.APIKey != "" {
		return nil
	}
	name := "GEMINI_API_KEY"
	if c.Provider == ProviderOpenRouter {
		name = "OPENROUTER_API_KEY"
	}
	return fmt.Errorf("config: %w: %s or %sAPI_KEY is required", ErrInvalidConfig, name, envPrefix)
}

// PersonaMode returns the parsed mode. Call Validate first.
func (c *Config) PersonaMode() persona.Mode {
	m, err := persona.ParseMode(c.Mode)
	if err != nil {
		return persona.Coach
	}
	return m
}

// RequestTimeout returns the model call bound.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// LoadDotEnv reads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: %w: reading %s: %v", ErrLoadConfig, path, err)
	}
	return nil
}
