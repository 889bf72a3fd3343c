// Package types defines the values that flow through the compression pipeline:
// conversation turns, extracted facts, summaries and the assembled context.
package types

import (
	"fmt"
	"strings"
)

// Speaker identifies who produced a conversation turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// ParseSpeaker maps a raw speaker/role label onto a Speaker.
func ParseSpeaker(s string) (Speaker, error) {
	switch Speaker(strings.ToLower(strings.TrimSpace(s))) {
	case SpeakerUser:
		return SpeakerUser, nil
	case SpeakerAssistant:
		return SpeakerAssistant, nil
	default:
		return "", fmt.Errorf("%w: unknown speaker %q", ErrInvalidArgument, s)
	}
}

// Valid reports whether s is one of the known speakers.
func (s Speaker) Valid() bool {
	return s == SpeakerUser || s == SpeakerAssistant
}

// Turn is a single utterance in a conversation. Index is the 0-based
// position of the turn within its conversation.
type Turn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
	Index   int     `json:"index"`
}

// Usable reports whether the turn carries text from a known speaker.
func (t Turn) Usable() bool {
	return t.Speaker.Valid() && strings.TrimSpace(t.Text) != ""
}

// Conversation is a chronologically ordered sequence of turns.
type Conversation []Turn

// NewConversation builds a conversation from speaker/text pairs, assigning
// indexes in order.
func NewConversation(pairs ...[2]string) (Conversation, error) {
	conv := make(Conversation, 0, len(pairs))
	for i, p := range pairs {
		speaker, err := ParseSpeaker(p[0])
		if err != nil {
			return nil, fmt.Errorf("turn %d: %w", i, err)
		}
		conv = append(conv, Turn{Speaker: speaker, Text: p[1], Index: i})
	}
	return conv, nil
}

// Text renders the conversation as "speaker: text" lines, the form handed
// to external summarizers.
func (c Conversation) Text() string {
	var b strings.Builder
	for i, t := range c {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(t.Speaker))
		b.WriteString(": ")
		b.WriteString(t.Text)
	}
	return b.String()
}

// Tail returns a copy of the last n turns in original order. It never pads:
// a shorter conversation yields all of its turns.
func (c Conversation) Tail(n int) []Turn {
	if n <= 0 {
		return []Turn{}
	}
	start := len(c) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(c)-start)
	copy(out, c[start:])
	return out
}
