// Package parser separates model reasoning blocks from answer text.
//
// Some models emit their chain of thought inline, wrapped in <thinking> or
// <think> tags, before the actual answer. A summary must never carry that
// reasoning, so generators route their output through a ReasoningFilter.
package parser

import (
	"strings"

	"github.com/entrhq/distill/pkg/llm"
)

var openTags = map[string]string{
	"<thinking>": "</thinking>",
	"<think>":    "</think>",
}

// ReasoningFilter splits streamed content into reasoning and answer text.
// It keeps state across chunks so that tags split between two chunks are
// still recognized.
type ReasoningFilter struct {
	buffer   strings.Builder
	tag      strings.Builder
	inTag    bool
	closeTag string
}

// NewReasoningFilter creates an empty filter.
func NewReasoningFilter() *ReasoningFilter {
	return &ReasoningFilter{}
}

// Parse consumes one chunk of content. Either return value may be nil.
func (f *ReasoningFilter) Parse(content string) (reasoning, message *llm.StreamChunk) {
	for _, ch := range content {
		switch {
		case ch == '<':
			if f.inTag {
				reasoning, message = f.merge(reasoning, message, f.chunk(f.tag.String()))
			}
			reasoning, message = f.merge(reasoning, message, f.drain())
			f.inTag = true
			f.tag.Reset()
			f.tag.WriteRune(ch)
		case ch == '>' && f.inTag:
			f.tag.WriteRune(ch)
			tag := f.tag.String()
			f.tag.Reset()
			f.inTag = false
			if f.consumeTag(strings.ToLower(tag)) {
				continue
			}
			reasoning, message = f.merge(reasoning, message, f.chunk(tag))
		case f.inTag:
			f.tag.WriteRune(ch)
		default:
			f.buffer.WriteRune(ch)
		}
	}
	return f.merge(reasoning, message, f.drain())
}

// Flush emits anything still buffered, including a dangling partial tag.
func (f *ReasoningFilter) Flush() (reasoning, message *llm.StreamChunk) {
	if f.inTag {
		reasoning, message = f.merge(reasoning, message, f.chunk(f.tag.String()))
		f.tag.Reset()
		f.inTag = false
	}
	return f.merge(reasoning, message, f.drain())
}

// InReasoning reports whether the filter is inside a reasoning block.
func (f *ReasoningFilter) InReasoning() bool {
	return f.closeTag != ""
}

// Reset clears all state.
func (f *ReasoningFilter) Reset() {
	f.buffer.Reset()
	f.tag.Reset()
	f.inTag = false
	f.closeTag = ""
}

func (f *ReasoningFilter) consumeTag(tag string) bool {
	if f.closeTag != "" {
		if tag == f.closeTag {
			f.closeTag = ""
			return true
		}
		return false
	}
	if closing, ok := openTags[tag]; ok {
		f.closeTag = closing
		return true
	}
	return false
}

func (f *ReasoningFilter) drain() *llm.StreamChunk {
	if f.buffer.Len() == 0 {
		return nil
	}
	c := f.chunk(f.buffer.String())
	f.buffer.Reset()
	return c
}

func (f *ReasoningFilter) chunk(text string) *llm.StreamChunk {
	if text == "" {
		return nil
	}
	t := llm.ContentTypeMessage
	if f.InReasoning() {
		t = llm.ContentTypeThinking
	}
	return &llm.StreamChunk{Content: text, Type: t}
}

func (f *ReasoningFilter) merge(reasoning, message, c *llm.StreamChunk) (*llm.StreamChunk, *llm.StreamChunk) {
	if c == nil {
		return reasoning, message
	}
	if c.Type == llm.ContentTypeThinking {
		if reasoning == nil {
			return c, message
		}
		reasoning.Content += c.Content
		return reasoning, message
	}
	if message == nil {
		return reasoning, c
	}
	message.Content += c.Content
	return reasoning, message
}

// StripReasoning returns text with every reasoning block removed and
// surrounding whitespace trimmed.
func StripReasoning(text string) string {
	f := NewReasoningFilter()
	var out strings.Builder
	_, msg := f.Parse(text)
	if msg != nil {
		out.WriteString(msg.Content)
	}
	_, msg = f.Flush()
	if msg != nil {
		out.WriteString(msg.Content)
	}
	return strings.TrimSpace(out.String())
}
