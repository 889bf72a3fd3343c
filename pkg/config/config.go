// Package config loads distill settings from ~/.distill/config.yaml and
// resolves LLM settings with the precedence CLI flags > environment >
// config file > defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/distill/pkg/summarize"
)

// Config is the on-disk configuration.
type Config struct {
	// LLM configures the generated-summary backend.
	LLM LLMConfig `yaml:"llm" json:"llm"`

	// Mode is the default summarization mode: rule, llm or auto.
	Mode string `yaml:"mode" json:"mode"`

	// OutputDir receives compressed_context_<mode>.json files and reports.
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// LLMConfig selects and configures a summarization backend.
type LLMConfig struct {
	Provider string        `yaml:"provider" json:"provider"`
	Model    string        `yaml:"model" json:"model"`
	BaseURL  string        `yaml:"base_url" json:"base_url"`
	APIKey   string        `yaml:"api_key" json:"api_key"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`

	// MaxTokens caps the generated summary length; zero keeps the
	// provider default.
	MaxTokens int64 `yaml:"max_tokens" json:"max_tokens"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls logging level: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`
}

// Supported providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: ProviderOpenAI,
			Timeout:  summarize.DefaultTimeout,
		},
		Mode:      string(summarize.ModeAuto),
		OutputDir: "output",
		Logging: LoggingConfig{
			Verbosity: "normal",
		},
	}
}

// DefaultPath returns ~/.distill/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".distill", "config.yaml"), nil
}

// Load reads the config file at path over DefaultConfig and validates it.
// With an empty path the default location is used, and a missing default
// file is not an error. An explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate validates the configuration and fills empty fields with
// defaults.
func (c *Config) Validate() error {
	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderOpenAI
	}
	if !validProvider(c.LLM.Provider) {
		return fmt.Errorf("invalid llm provider: %s (must be 'openai', 'anthropic' or 'gemini')", c.LLM.Provider)
	}

	if c.LLM.Timeout < 0 {
		return fmt.Errorf("llm timeout cannot be negative")
	}
	if c.LLM.MaxTokens < 0 {
		return fmt.Errorf("llm max_tokens cannot be negative")
	}

	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = summarize.DefaultTimeout
	}

	if c.Mode == "" {
		c.Mode = string(summarize.ModeAuto)
	}
	if _, err := summarize.ParseMode(c.Mode); err != nil {
		return err
	}

	if c.OutputDir == "" {
		c.OutputDir = "output"
	}

	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = "normal"
	}
	validLevels := map[string]bool{
		"quiet":   true,
		"normal":  true,
		"verbose": true,
		"debug":   true,
	}
	if !validLevels[c.Logging.Verbosity] {
		return fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", c.Logging.Verbosity)
	}

	return nil
}

func validProvider(p string) bool {
	switch p {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
		return true
	}
	return false
}
