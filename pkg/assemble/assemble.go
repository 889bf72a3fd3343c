// Package assemble joins the memory, summary and recent-window layers into
// a CompressedContext.
package assemble

import (
	"fmt"
	"time"

	"github.com/entrhq/distill/pkg/types"
)

type options struct {
	sourceMode string
	now        func() time.Time
}

// Option configures Assemble.
type Option func(*options)

// WithSourceMode records the summarization mode the context was built with.
func WithSourceMode(mode string) Option {
	return func(o *options) { o.sourceMode = mode }
}

// WithClock overrides the clock used for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Assemble builds a context from facts, summary and the last
// types.WindowSize turns of conv. Both layers are required: a nil facts
// slice or a nil summary fails with types.ErrMissingLayer and no context.
// An empty, non-nil facts slice is a valid memory layer.
//
// Facts keep their order and turns are copied, so the result shares no
// backing storage with the inputs.
func Assemble(facts []types.Fact, summary *types.Summary, conv types.Conversation, opts ...Option) (*types.CompressedContext, error) {
	if facts == nil {
		return nil, fmt.Errorf("%w: memory layer (facts) is nil", types.ErrMissingLayer)
	}
	if summary == nil {
		return nil, fmt.Errorf("%w: summary layer is nil", types.ErrMissingLayer)
	}

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	memory := make([]types.Fact, len(facts))
	copy(memory, facts)

	sourceMode := o.sourceMode
	if sourceMode == "" {
		sourceMode = string(summary.StrategyUsed)
	}

	return &types.CompressedContext{
		Memory:      memory,
		Summary:     *summary,
		RecentTurns: conv.Tail(types.WindowSize),
		GeneratedAt: o.now().UTC(),
		SourceMode:  sourceMode,
	}, nil
}
