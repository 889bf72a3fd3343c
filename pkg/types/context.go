package types

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// WindowSize is the number of trailing turns kept verbatim in every
// compressed context. It is fixed so that different summarization
// strategies are always compared under the same recency conditions.
const WindowSize = 4

// CompressedContext is the terminal artifact of the pipeline.
type CompressedContext struct {
	Memory      []Fact    `json:"memory"`
	Summary     Summary   `json:"summary"`
	RecentTurns []Turn    `json:"recent_turns"`
	GeneratedAt time.Time `json:"generated_at"`
	SourceMode  string    `json:"source_mode"`
}

// CombinedText joins every textual layer of the context (memory, summary,
// recent turns) into one newline separated string.
func (c *CompressedContext) CombinedText() string {
	parts := make([]string, 0, len(c.Memory)+len(c.RecentTurns)+1)
	for _, f := range c.Memory {
		parts = append(parts, f.Text)
	}
	parts = append(parts, c.Summary.Text)
	for _, t := range c.RecentTurns {
		parts = append(parts, t.Text)
	}
	return strings.Join(parts, "\n")
}

// MarshalCompact serializes v as compact JSON without HTML escaping, the
// representation used for character-based size estimates.
func MarshalCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
