// Package config handles configuration loading and validation for reviewdesk.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sprite-ai/reviewdesk/internal/model"
)

// EnvAPIURL overrides the review service base URL.
const EnvAPIURL = "REVIEWDESK_API_URL"

// DefaultAPIURL is the local development address of the review service.
const DefaultAPIURL = "http://localhost:8000"

// Probe kinds for the connectivity monitor.
const (
	ProbeHTTP = "http"
	ProbeDial = "dial"
)

// Reviewer backends for the companion service.
const (
	ReviewerHeuristic = "heuristic"
	ReviewerChat      = "chat"
)

// Config holds the application configuration.
type Config struct {
	APIURL          string             `yaml:"api_url"`
	DefaultLanguage string             `yaml:"default_language"`
	RequestTimeout  time.Duration      `yaml:"request_timeout"`
	LogLevel        string             `yaml:"log_level"`
	Connectivity    ConnectivityConfig `yaml:"connectivity"`
	Server          ServerConfig       `yaml:"server"`
}

// ConnectivityConfig controls how online/offline state is detected.
type ConnectivityConfig struct {
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
	Probe    string        `yaml:"probe"` // http or dial
}

// ServerConfig configures `reviewdesk serve`.
type ServerConfig struct {
	Addr          string     `yaml:"addr"`
	Reviewer      string     `yaml:"reviewer"` // heuristic or chat
	MaxCodeLength int        `yaml:"max_code_length"`
	Chat          ChatConfig `yaml:"chat"`
}

// ChatConfig configures the OpenAI-compatible chat reviewer.
type ChatConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Timeout   time.Duration `yaml:"timeout"`
}

// APIKey resolves the key from the configured environment variable.
func (c ChatConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		APIURL:          DefaultAPIURL,
		DefaultLanguage: string(model.DefaultLanguage),
		LogLevel:        "info",
		Connectivity: ConnectivityConfig{
			Interval: 5 * time.Second,
			Timeout:  3 * time.Second,
			Probe:    ProbeHTTP,
		},
		Server: ServerConfig{
			Addr:          "127.0.0.1:8000",
			Reviewer:      ReviewerHeuristic,
			MaxCodeLength: 10000,
			Chat: ChatConfig{
				BaseURL:   "https://openrouter.ai/api/v1",
				Model:     "meta-llama/llama-2-7b-chat",
				APIKeyEnv: "OPENROUTER_API_KEY",
				Timeout:   2 * time.Minute,
			},
		},
	}
}

// DefaultConfigPath returns the config location using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "reviewdesk", "config.yaml")
}

// Load reads configuration from the given path. A missing file yields the
// defaults. The REVIEWDESK_API_URL environment variable overrides api_url.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.APIURL = v
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.APIURL == "" {
		c.APIURL = defaults.APIURL
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = defaults.DefaultLanguage
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.Connectivity.Interval == 0 {
		c.Connectivity.Interval = defaults.Connectivity.Interval
	}
	if c.Connectivity.Timeout == 0 {
		c.Connectivity.Timeout = defaults.Connectivity.Timeout
	}
	if c.Connectivity.Probe == "" {
		c.Connectivity.Probe = defaults.Connectivity.Probe
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.Reviewer == "" {
		c.Server.Reviewer = defaults.Server.Reviewer
	}
	if c.Server.MaxCodeLength == 0 {
		c.Server.MaxCodeLength = defaults.Server.MaxCodeLength
	}
	if c.Server.Chat.BaseURL == "" {
		c.Server.Chat.BaseURL = defaults.Server.Chat.BaseURL
	}
	if c.Server.Chat.Model == "" {
		c.Server.Chat.Model = defaults.Server.Chat.Model
	}
	if c.Server.Chat.Timeout == 0 {
		c.Server.Chat.Timeout = defaults.Server.Chat.Timeout
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := validateBaseURL(c.APIURL); err != nil {
		return fmt.Errorf("api_url: %w", err)
	}

	if _, err := model.ParseLanguage(c.DefaultLanguage); err != nil {
		return fmt.Errorf("default_language: %w", err)
	}

	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout cannot be negative")
	}

	if c.Connectivity.Interval <= 0 {
		return fmt.Errorf("connectivity.interval must be positive")
	}

	switch c.Connectivity.Probe {
	case ProbeHTTP, ProbeDial:
	default:
		return fmt.Errorf("connectivity.probe %q must be %q or %q", c.Connectivity.Probe, ProbeHTTP, ProbeDial)
	}

	switch c.Server.Reviewer {
	case ReviewerHeuristic, ReviewerChat:
	default:
		return fmt.Errorf("server.reviewer %q must be %q or %q", c.Server.Reviewer, ReviewerHeuristic, ReviewerChat)
	}

	if c.Server.MaxCodeLength < 1 {
		return fmt.Errorf("server.max_code_length must be at least 1")
	}

	if c.Server.Reviewer == ReviewerChat {
		if err := validateBaseURL(c.Server.Chat.BaseURL); err != nil {
			return fmt.Errorf("server.chat.base_url: %w", err)
		}
	}

	return nil
}

// Language returns the parsed default language.
func (c *Config) Language() model.Language {
	l, err := model.ParseLanguage(c.DefaultLanguage)
	if err != nil {
		return model.DefaultLanguage
	}
	return l
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
