package summarize

import (
	"fmt"
	"strings"

	"github.com/entrhq/distill/pkg/types"
)

// Mode selects how a summary is produced.
type Mode string

const (
	// ModeRule always uses the deterministic template.
	ModeRule Mode = "rule"
	// ModeLLM always delegates to the generator and fails if it is unavailable.
	ModeLLM Mode = "llm"
	// ModeAuto prefers the generator and falls back to the template when the
	// service is unavailable.
	ModeAuto Mode = "auto"
)

// Modes lists the accepted modes in display order.
var Modes = []Mode{ModeRule, ModeLLM, ModeAuto}

// ParseMode validates a user-supplied mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: unknown summarization mode %q (want rule, llm or auto)", types.ErrInvalidArgument, s)
	}
	return m, nil
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeRule, ModeLLM, ModeAuto:
		return true
	}
	return false
}

func (m Mode) String() string {
	return string(m)
}
