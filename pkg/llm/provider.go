// Package llm defines the boundary to external generative-summarization
// services.
//
// Example usage:
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//	    "os"
//
//	    "github.com/entrhq/distill/pkg/llm/openai"
//	)
//
//	func main() {
//	    gen, err := openai.NewProvider(os.Getenv("OPENAI_API_KEY"), openai.WithModel("gpt-4o"))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    summary, err := gen.GenerateSummary(context.Background(), "user: hi", "Summarize.")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(summary)
//	}
package llm

import "context"

// Generator produces a summary for a rendered conversation.
//
// Implementations must classify failures: a missing credential, a network
// failure, a timeout or a service-side outage is reported by wrapping
// types.ErrServiceUnavailable. Any other failure (malformed request,
// rejected content, empty response) is returned unwrapped so callers can
// tell the two apart.
type Generator interface {
	// GenerateSummary sends the conversation text with the given instruction
	// and returns the generated summary text. A single attempt is made.
	GenerateSummary(ctx context.Context, conversationText, instruction string) (string, error)

	// HasCredential reports whether the generator was configured with a
	// credential. Callers check it before attempting a call.
	HasCredential() bool

	// Name identifies the backend and model, e.g. "openai:gpt-4o".
	Name() string
}

// ContentType distinguishes reasoning output from the actual answer in a
// streamed response.
type ContentType string

const (
	ContentTypeMessage  ContentType = "message"
	ContentTypeThinking ContentType = "thinking"
)

// StreamChunk is one piece of a streamed completion.
type StreamChunk struct {
	Content  string
	Type     ContentType
	Role     string
	Finished bool
	Error    error
}

// IsError reports whether the chunk carries a stream error.
func (c *StreamChunk) IsError() bool {
	return c.Error != nil
}
