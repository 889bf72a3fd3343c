// Package store reads conversations and ground truth from disk and
// persists compressed contexts as JSON.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/distill/pkg/types"
)

// ErrNotFound is returned when a requested artifact does not exist.
var ErrNotFound = errors.New("store: not found")

// record accepts both speaker/text and role/content field names.
type record struct {
	Speaker string  `json:"speaker"`
	Role    string  `json:"role"`
	Text    *string `json:"text"`
	Content *string `json:"content"`
}

// LoadConversation reads a conversation file. See ParseConversation.
func LoadConversation(path string) (types.Conversation, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("store: read conversation %s: %w", path, err)
	}
	conv, err := ParseConversation(b)
	if err != nil {
		return nil, fmt.Errorf("store: %s: %w", path, err)
	}
	return conv, nil
}

// ParseConversation decodes either {"messages": [...]} or a bare array.
// Each record names its speaker with "speaker" or "role" and its text with
// "text" or "content". An unknown speaker fails with
// types.ErrInvalidArgument; a record without text is kept with empty text
// so that turn indexes stay aligned with the source.
func ParseConversation(data []byte) (types.Conversation, error) {
	data = bytes.TrimSpace(data)
	var records []record
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("%w: decode conversation: %v", types.ErrInvalidArgument, err)
		}
	} else {
		var wrapper struct {
			Messages []record `json:"messages"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("%w: decode conversation: %v", types.ErrInvalidArgument, err)
		}
		records = wrapper.Messages
	}

	conv := make(types.Conversation, 0, len(records))
	for i, r := range records {
		label := r.Speaker
		if label == "" {
			label = r.Role
		}
		speaker, err := types.ParseSpeaker(label)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		var text string
		switch {
		case r.Text != nil:
			text = *r.Text
		case r.Content != nil:
			text = *r.Content
		}
		conv = append(conv, types.Turn{Speaker: speaker, Text: text, Index: i})
	}
	return conv, nil
}

// SaveContext writes cc to path as indented JSON. The write is atomic: the
// file is written under a temporary name and renamed into place. Parent
// directories are created as needed.
func SaveContext(path string, cc *types.CompressedContext) error {
	if cc == nil {
		return fmt.Errorf("%w: compressed context is nil", types.ErrMissingLayer)
	}
	return WriteJSON(path, cc)
}

// LoadContext reads a context written by SaveContext.
func LoadContext(path string) (*types.CompressedContext, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}
	var cc types.CompressedContext
	if err := json.Unmarshal(b, &cc); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", path, err)
	}
	return &cc, nil
}

// WriteJSON atomically writes v as indented JSON without HTML escaping.
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("store: encode %s: %w", path, err)
	}
	return WriteFile(path, buf.Bytes())
}

// WriteFile writes b to path via a temporary file and rename.
func WriteFile(path string, b []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("store: create directory %s: %w", dir, err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("store: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("store: atomic rename %s: %w", path, err)
	}
	return nil
}

// LoadGroundTruth reads ground-truth items from YAML or JSON. The file may
// hold a bare list or an object with an "items" list. Tiers are validated.
func LoadGroundTruth(path string) (types.GroundTruth, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("store: read ground truth %s: %w", path, err)
	}
	gt, err := ParseGroundTruth(b, strings.EqualFold(filepath.Ext(path), ".json"))
	if err != nil {
		return nil, fmt.Errorf("store: %s: %w", path, err)
	}
	return gt, nil
}

// ParseGroundTruth decodes ground truth from JSON when isJSON is set and
// from YAML otherwise.
func ParseGroundTruth(data []byte, isJSON bool) (types.GroundTruth, error) {
	unmarshal := yaml.Unmarshal
	if isJSON {
		unmarshal = json.Unmarshal
	}

	var gt types.GroundTruth
	if err := unmarshal(data, &gt); err != nil {
		var wrapper struct {
			Items types.GroundTruth `json:"items" yaml:"items"`
		}
		if werr := unmarshal(data, &wrapper); werr != nil {
			return nil, fmt.Errorf("%w: decode ground truth: %v", types.ErrInvalidArgument, err)
		}
		gt = wrapper.Items
	}

	if err := gt.Validate(); err != nil {
		return nil, err
	}
	return gt, nil
}
