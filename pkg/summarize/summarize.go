// Package summarize produces the narrative layer of a compressed context.
//
// Two strategies exist: a deterministic rule template and a generated
// summary from an external service. ModeAuto tries the service and falls
// back to the template only when the service is unavailable; every other
// failure is surfaced to the caller.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/entrhq/distill/pkg/llm"
	"github.com/entrhq/distill/pkg/llm/parser"
	"github.com/entrhq/distill/pkg/logging"
	"github.com/entrhq/distill/pkg/types"
)

// DefaultTimeout bounds a single generated-summary call.
const DefaultTimeout = 60 * time.Second

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("summarize")
	if err != nil {
		debugLog.Warnf("Failed to initialize summarize logger, using stderr fallback: %v", err)
	}
}

// Summarizer dispatches on Mode. It holds no per-call state and is safe
// for concurrent use.
type Summarizer struct {
	generator  llm.Generator
	timeout    time.Duration
	onFallback func(cause error)
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(s *Summarizer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithFallbackHook registers fn to be called when ModeAuto falls back to
// the rule template. fn receives the unavailability cause.
func WithFallbackHook(fn func(cause error)) Option {
	return func(s *Summarizer) {
		s.onFallback = fn
	}
}

// New creates a Summarizer. generator may be nil, in which case the llm
// strategy always reports the service as unavailable.
func New(generator llm.Generator, opts ...Option) *Summarizer {
	s := &Summarizer{
		generator: generator,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize produces a summary of conv using mode. An unknown mode fails
// with types.ErrInvalidArgument before any work is done.
func (s *Summarizer) Summarize(ctx context.Context, conv types.Conversation, mode Mode) (*types.Summary, error) {
	switch mode {
	case ModeRule:
		return Rule(conv), nil
	case ModeLLM:
		return s.generate(ctx, conv)
	case ModeAuto:
		summary, err := s.generate(ctx, conv)
		if err == nil {
			return summary, nil
		}
		if !errors.Is(err, types.ErrServiceUnavailable) {
			return nil, err
		}
		debugLog.Warnf("summarization service unavailable, falling back to rule template: %v", err)
		if s.onFallback != nil {
			s.onFallback(err)
		}
		return Rule(conv), nil
	default:
		return nil, fmt.Errorf("%w: unknown summarization mode %q", types.ErrInvalidArgument, mode)
	}
}

// generate makes exactly one call to the generator, bounded by the
// configured timeout.
func (s *Summarizer) generate(ctx context.Context, conv types.Conversation) (*types.Summary, error) {
	if s.generator == nil || !s.generator.HasCredential() {
		return nil, llm.Unavailable(llm.ErrNoCredential)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	text, err := s.generator.GenerateSummary(ctx, conv.Text(), instruction)
	if err != nil {
		debugLog.Debugf("generator %s failed after %s: %v", s.generator.Name(), time.Since(start), err)
		return nil, llm.ClassifyTransportError(err)
	}
	debugLog.Debugf("generator %s answered in %s", s.generator.Name(), time.Since(start))

	text = parser.StripReasoning(text)
	if text == "" {
		return nil, llm.ErrEmptyResponse
	}
	return &types.Summary{Text: text, StrategyUsed: types.StrategyLLM}, nil
}
