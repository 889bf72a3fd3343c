// Package openai provides a summary generator for OpenAI-compatible chat
// completion APIs.
//
// Example usage:
//
//	gen, err := openai.NewProvider(
//	    os.Getenv("OPENAI_API_KEY"),
//	    openai.WithModel("gpt-4o"),
//	)
//	if err != nil {
//	    panic(err)
//	}
//
//	text, err := gen.GenerateSummary(ctx, conversation.Text(), instruction)
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/openai/openai-go"

	"github.com/entrhq/distill/pkg/llm"
	"github.com/entrhq/distill/pkg/llm/parser"
)

const (
	// DefaultBaseURL is the default OpenAI API base URL
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is used when no model is configured.
	DefaultModel = string(openai.ChatModelGPT4o)
)

// Provider generates summaries through an OpenAI-compatible endpoint.
// Responses are streamed over SSE and reasoning blocks are dropped.
type Provider struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int64
}

// ProviderOption is a function that configures a Provider.
type ProviderOption func(*Provider)

// WithModel sets the model to use for completions.
func WithModel(model string) ProviderOption {
	return func(p *Provider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithBaseURL sets a custom base URL for OpenAI-compatible APIs such as
// Azure OpenAI or a local model server.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		if baseURL != "" {
			p.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithMaxTokens caps the completion length. Zero leaves the server default.
func WithMaxTokens(n int64) ProviderOption {
	return func(p *Provider) {
		if n > 0 {
			p.maxTokens = n
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// NewProvider creates a provider. An empty apiKey falls back to the
// OPENAI_API_KEY environment variable; when neither is set the provider is
// still returned but reports HasCredential() == false and every call fails
// with a service-unavailable error.
//
// If baseURL is not provided via WithBaseURL, OPENAI_BASE_URL is consulted.
func NewProvider(apiKey string, opts ...ProviderOption) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	p := &Provider{
		model:      DefaultModel,
		apiKey:     apiKey,
		httpClient: &http.Client{},
		baseURL:    DefaultBaseURL,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.baseURL == DefaultBaseURL {
		if envBaseURL := os.Getenv("OPENAI_BASE_URL"); envBaseURL != "" {
			p.baseURL = strings.TrimRight(envBaseURL, "/")
		}
	}

	return p, nil
}

// HasCredential reports whether an API key is configured.
func (p *Provider) HasCredential() bool {
	return p.apiKey != ""
}

// Name returns "openai:<model>".
func (p *Provider) Name() string {
	return "openai:" + p.model
}

// GetModel returns the model name being used.
func (p *Provider) GetModel() string {
	return p.model
}

// GetBaseURL returns the base URL being used.
func (p *Provider) GetBaseURL() string {
	return p.baseURL
}

// GenerateSummary sends the instruction as the system message and the
// conversation as the user message, then accumulates the streamed answer.
func (p *Provider) GenerateSummary(ctx context.Context, conversationText, instruction string) (string, error) {
	if !p.HasCredential() {
		return "", llm.Unavailable(llm.ErrNoCredential)
	}

	stream, err := p.StreamCompletion(ctx, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(instruction),
		openai.UserMessage(conversationText),
	})
	if err != nil {
		return "", err
	}

	var content strings.Builder
	for chunk := range stream {
		if chunk.IsError() {
			return "", chunk.Error
		}
		if chunk.Type == llm.ContentTypeThinking {
			continue
		}
		content.WriteString(chunk.Content)
	}

	text := strings.TrimSpace(content.String())
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

// StreamCompletion sends messages and streams back response chunks. The
// channel is closed when streaming completes or fails.
//
// Raw HTTP is used so that SSE comments and minor format variations from
// compatible servers are tolerated.
func (p *Provider) StreamCompletion(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (<-chan *llm.StreamChunk, error) {
	resp, err := p.sendStreamRequest(ctx, messages)
	if err != nil {
		return nil, err
	}

	chunks := make(chan *llm.StreamChunk, 10)
	go p.processStreamResponse(ctx, resp, chunks)
	return chunks, nil
}

func (p *Provider) sendStreamRequest(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (*http.Response, error) {
	reqBody := map[string]interface{}{
		"model":    p.model,
		"messages": messages,
		"stream":   true,
	}
	if p.maxTokens > 0 {
		reqBody["max_tokens"] = p.maxTokens
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, llm.ClassifyTransportError(fmt.Errorf("failed to send request: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			body = []byte(fmt.Sprintf("(failed to read error body: %v)", readErr))
		}
		return nil, llm.ClassifyStatus(resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return resp, nil
}

func (p *Provider) processStreamResponse(ctx context.Context, resp *http.Response, chunks chan<- *llm.StreamChunk) {
	defer close(chunks)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	filter := parser.NewReasoningFilter()

	for scanner.Scan() {
		line := scanner.Text()
		if !isDataLine(line) {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			p.flush(ctx, filter, chunks)
			send(ctx, &llm.StreamChunk{Finished: true}, chunks)
			return
		}

		if !p.processSSEChunk(ctx, data, filter, chunks) {
			return
		}
	}

	p.flush(ctx, filter, chunks)

	if err := scanner.Err(); err != nil {
		send(ctx, &llm.StreamChunk{Error: llm.ClassifyTransportError(fmt.Errorf("stream read error: %w", err))}, chunks)
	}
}

func isDataLine(line string) bool {
	return line != "" && !strings.HasPrefix(line, ":") && strings.HasPrefix(line, "data: ")
}

func (p *Provider) flush(ctx context.Context, filter *parser.ReasoningFilter, chunks chan<- *llm.StreamChunk) {
	reasoning, message := filter.Flush()
	send(ctx, reasoning, chunks)
	send(ctx, message, chunks)
}

// send delivers chunk unless ctx is done. It reports whether the stream
// should continue.
func send(ctx context.Context, chunk *llm.StreamChunk, chunks chan<- *llm.StreamChunk) bool {
	if chunk == nil {
		return true
	}
	select {
	case chunks <- chunk:
		return true
	case <-ctx.Done():
		select {
		case chunks <- &llm.StreamChunk{Error: llm.ClassifyTransportError(ctx.Err())}:
		default:
		}
		return false
	}
}

func (p *Provider) processSSEChunk(ctx context.Context, data string, filter *parser.ReasoningFilter, chunks chan<- *llm.StreamChunk) bool {
	var chunk struct {
		Choices []struct {
			Delta struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"delta"`
			FinishReason *string `json:"finish_reason"`
		} `json:"choices"`
	}

	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return true // malformed chunks are skipped
	}
	if len(chunk.Choices) == 0 {
		return true
	}

	choice := chunk.Choices[0]
	if choice.Delta.Content != "" {
		reasoning, message := filter.Parse(choice.Delta.Content)
		if !send(ctx, reasoning, chunks) || !send(ctx, message, chunks) {
			return false
		}
	}

	if choice.FinishReason != nil && *choice.FinishReason == "stop" {
		return send(ctx, &llm.StreamChunk{Finished: true, Role: choice.Delta.Role}, chunks)
	}
	return true
}
