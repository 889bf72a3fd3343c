package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/entrhq/distill/pkg/llm"
	"github.com/entrhq/distill/pkg/llm/anthropic"
	"github.com/entrhq/distill/pkg/llm/gemini"
	"github.com/entrhq/distill/pkg/llm/openai"
)

// Overrides carries LLM settings given on the command line. Empty fields
// are unset.
type Overrides struct {
	Provider  string
	Model     string
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	MaxTokens int64
}

var (
	apiKeyEnv = map[string][]string{
		ProviderOpenAI:    {"OPENAI_API_KEY"},
		ProviderAnthropic: {"ANTHROPIC_API_KEY"},
		ProviderGemini:    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	}
	baseURLEnv = map[string][]string{
		ProviderOpenAI:    {"OPENAI_BASE_URL"},
		ProviderAnthropic: {"ANTHROPIC_BASE_URL"},
		ProviderGemini:    {"GOOGLE_GEMINI_BASE_URL"},
	}
	defaultModels = map[string]string{
		ProviderOpenAI:    openai.DefaultModel,
		ProviderAnthropic: anthropic.DefaultModel,
		ProviderGemini:    gemini.DefaultModel,
	}
)

// ResolveLLM merges cli over the environment over the file settings in c.
// The provider may come from DISTILL_LLM_PROVIDER and the model from
// DISTILL_LLM_MODEL. The returned API key is empty when no source
// supplies one.
func (c *Config) ResolveLLM(cli Overrides) (LLMConfig, error) {
	r := LLMConfig{
		Provider: first(cli.Provider, os.Getenv("DISTILL_LLM_PROVIDER"), c.LLM.Provider, ProviderOpenAI),
	}
	if !validProvider(r.Provider) {
		return LLMConfig{}, fmt.Errorf("invalid llm provider: %s (must be 'openai', 'anthropic' or 'gemini')", r.Provider)
	}

	r.APIKey = first(cli.APIKey, firstEnv(apiKeyEnv[r.Provider]), c.LLM.APIKey)
	r.BaseURL = first(cli.BaseURL, firstEnv(baseURLEnv[r.Provider]), c.LLM.BaseURL)
	r.Model = first(cli.Model, os.Getenv("DISTILL_LLM_MODEL"), c.LLM.Model, defaultModels[r.Provider])

	r.Timeout = c.LLM.Timeout
	if cli.Timeout > 0 {
		r.Timeout = cli.Timeout
	}
	if r.Timeout <= 0 {
		r.Timeout = DefaultConfig().LLM.Timeout
	}

	r.MaxTokens = c.LLM.MaxTokens
	if cli.MaxTokens > 0 {
		r.MaxTokens = cli.MaxTokens
	}
	return r, nil
}

// BuildGenerator creates the generator for resolved settings. A missing
// API key is not an error: the generator reports HasCredential() == false
// and the summarizer treats the service as unavailable.
func BuildGenerator(ctx context.Context, r LLMConfig) (llm.Generator, error) {
	switch r.Provider {
	case ProviderOpenAI:
		p, err := openai.NewProvider(r.APIKey,
			openai.WithModel(r.Model),
			openai.WithBaseURL(r.BaseURL),
			openai.WithMaxTokens(r.MaxTokens),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM provider: %w", err)
		}
		return p, nil
	case ProviderAnthropic:
		return anthropic.New(r.APIKey,
			anthropic.WithModel(r.Model),
			anthropic.WithBaseURL(r.BaseURL),
			anthropic.WithMaxTokens(r.MaxTokens),
		), nil
	case ProviderGemini:
		opts := []gemini.Option{gemini.WithModel(r.Model), gemini.WithMaxTokens(r.MaxTokens)}
		if r.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(r.BaseURL))
		}
		g, err := gemini.New(ctx, r.APIKey, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM provider: %w", err)
		}
		return g, nil
	default:
		return nil, fmt.Errorf("invalid llm provider: %s", r.Provider)
	}
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstEnv(names []string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}
