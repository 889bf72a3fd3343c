// Package anthropic provides a summary generator backed by the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/entrhq/distill/pkg/llm"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "claude-sonnet-4-5"

	defaultMaxTokens = 1024
)

// Generator streams a summary from Claude and accumulates it.
type Generator struct {
	client    anthropic.Client
	apiKey    string
	model     string
	maxTokens int64
}

// Option configures a Generator.
type Option func(*config)

type config struct {
	model      string
	baseURL    string
	maxTokens  int64
	httpClient *http.Client
}

// WithModel sets the model.
func WithModel(model string) Option {
	return func(c *config) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at a different endpoint.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithMaxTokens caps the summary length.
func WithMaxTokens(n int64) Option {
	return func(c *config) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *config) { c.httpClient = h }
}

// New creates a generator. An empty apiKey falls back to ANTHROPIC_API_KEY.
// Retries are disabled so each summary is a single attempt.
func New(apiKey string, opts ...Option) *Generator {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	cfg := &config{model: DefaultModel, maxTokens: defaultMaxTokens}
	for _, opt := range opts {
		opt(cfg)
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.httpClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(cfg.httpClient))
	}

	return &Generator{
		client:    anthropic.NewClient(clientOpts...),
		apiKey:    apiKey,
		model:     cfg.model,
		maxTokens: cfg.maxTokens,
	}
}

// HasCredential reports whether an API key is configured.
func (g *Generator) HasCredential() bool {
	return g.apiKey != ""
}

// Name returns "anthropic:<model>".
func (g *Generator) Name() string {
	return "anthropic:" + g.model
}

// GenerateSummary implements llm.Generator.
func (g *Generator) GenerateSummary(ctx context.Context, conversationText, instruction string) (string, error) {
	if !g.HasCredential() {
		return "", llm.Unavailable(llm.ErrNoCredential)
	}

	stream := g.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: g.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: instruction},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(conversationText)),
		},
	})
	defer stream.Close()

	message := anthropic.Message{}
	for stream.Next() {
		if err := message.Accumulate(stream.Current()); err != nil {
			return "", fmt.Errorf("failed to accumulate stream: %w", err)
		}
	}
	if err := stream.Err(); err != nil {
		return "", classify(err)
	}

	var summary strings.Builder
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			summary.WriteString(text.Text)
		}
	}

	text := strings.TrimSpace(summary.String())
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

func classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500 {
			return llm.Unavailable(err)
		}
		return err
	}
	return llm.ClassifyTransportError(err)
}
