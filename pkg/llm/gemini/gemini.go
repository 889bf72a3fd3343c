// Package gemini provides a summary generator backed by the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/entrhq/distill/pkg/llm"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Generator calls GenerateContent once per summary.
type Generator struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

// Option configures a Generator.
type Option func(*genai.ClientConfig, *Generator)

// WithModel sets the model.
func WithModel(model string) Option {
	return func(_ *genai.ClientConfig, g *Generator) {
		if model != "" {
			g.model = model
		}
	}
}

// WithBaseURL points the client at a different endpoint.
func WithBaseURL(url string) Option {
	return func(c *genai.ClientConfig, _ *Generator) {
		c.HTTPOptions.BaseURL = url
	}
}

// WithMaxTokens caps the output length. Zero leaves the model default.
func WithMaxTokens(n int64) Option {
	return func(_ *genai.ClientConfig, g *Generator) {
		if n > 0 && n <= math.MaxInt32 {
			g.maxTokens = int32(n)
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *genai.ClientConfig, _ *Generator) {
		c.HTTPClient = h
	}
}

// New creates a generator. An empty apiKey falls back to GEMINI_API_KEY and
// then GOOGLE_API_KEY. Without any key the generator is returned without a
// client and reports HasCredential() == false.
func New(ctx context.Context, apiKey string, opts ...Option) (*Generator, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}

	g := &Generator{model: DefaultModel}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cfg, g)
	}
	if apiKey == "" {
		return g, nil
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	g.client = client
	return g, nil
}

// HasCredential reports whether an API key is configured.
func (g *Generator) HasCredential() bool {
	return g.client != nil
}

// Name returns "gemini:<model>".
func (g *Generator) Name() string {
	return "gemini:" + g.model
}

// GenerateSummary implements llm.Generator.
func (g *Generator) GenerateSummary(ctx context.Context, conversationText, instruction string) (string, error) {
	if !g.HasCredential() {
		return "", llm.Unavailable(llm.ErrNoCredential)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(conversationText), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
		MaxOutputTokens:   g.maxTokens,
	})
	if err != nil {
		return "", classify(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500 {
			return llm.Unavailable(err)
		}
		return err
	}
	return llm.ClassifyTransportError(err)
}
