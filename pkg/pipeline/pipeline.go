// Package pipeline runs the compression stages end to end: fact
// extraction and summarization run concurrently on the same immutable
// conversation and are joined by assembly.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/entrhq/distill/pkg/assemble"
	"github.com/entrhq/distill/pkg/extract"
	"github.com/entrhq/distill/pkg/llm"
	"github.com/entrhq/distill/pkg/logging"
	"github.com/entrhq/distill/pkg/summarize"
	"github.com/entrhq/distill/pkg/types"
)

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("pipeline")
	if err != nil {
		debugLog.Warnf("Failed to initialize pipeline logger, using stderr fallback: %v", err)
	}
}

// Observer receives progress events. Calls are serialized.
type Observer func(*types.Event)

// Compressor turns conversations into compressed contexts. It keeps no
// state between runs and may be used concurrently.
type Compressor struct {
	generator llm.Generator
	timeout   time.Duration
	observer  Observer
	clock     func() time.Time

	mu sync.Mutex
}

// Option configures a Compressor.
type Option func(*Compressor)

// WithObserver registers fn for progress events.
func WithObserver(fn Observer) Option {
	return func(c *Compressor) { c.observer = fn }
}

// WithTimeout bounds each generated-summary call.
func WithTimeout(d time.Duration) Option {
	return func(c *Compressor) { c.timeout = d }
}

// WithClock overrides the clock used to stamp contexts.
func WithClock(now func() time.Time) Option {
	return func(c *Compressor) { c.clock = now }
}

// New creates a Compressor. generator may be nil when only the rule mode
// will be used.
func New(generator llm.Generator, opts ...Option) *Compressor {
	c := &Compressor{
		generator: generator,
		timeout:   summarize.DefaultTimeout,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compress runs the pipeline for one mode. The mode is validated before
// any stage starts. Stage failures are returned as *types.StageError
// wrapping the underlying sentinel; no partial context is returned.
func (c *Compressor) Compress(ctx context.Context, conv types.Conversation, mode summarize.Mode) (*types.CompressedContext, error) {
	if !mode.Valid() {
		return nil, types.WrapStage(types.StageSummarize, fmt.Errorf("%w: unknown summarization mode %q", types.ErrInvalidArgument, mode))
	}

	summarizer := summarize.New(c.generator,
		summarize.WithTimeout(c.timeout),
		summarize.WithFallbackHook(func(cause error) {
			c.emit(types.NewSummaryFallbackEvent(cause))
		}),
	)

	var (
		facts   []types.Fact
		summary *types.Summary
	)

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		c.emit(types.NewStageStartEvent(types.StageExtract))
		start := time.Now()
		facts = extract.Extract(conv)
		c.emit(types.NewStageCompleteEvent(types.StageExtract, time.Since(start), fmt.Sprintf("%d facts", len(facts))))
		return nil
	})

	eg.Go(func() error {
		c.emit(types.NewStageStartEvent(types.StageSummarize))
		start := time.Now()
		s, err := summarizer.Summarize(egCtx, conv, mode)
		if err != nil {
			c.emit(types.NewStageErrorEvent(types.StageSummarize, err))
			return types.WrapStage(types.StageSummarize, err)
		}
		summary = s
		c.emit(types.NewStageCompleteEvent(types.StageSummarize, time.Since(start), string(s.StrategyUsed)))
		return nil
	})

	if err := eg.Wait(); err != nil {
		debugLog.Warnf("compression in %s mode failed: %v", mode, err)
		return nil, err
	}

	c.emit(types.NewStageStartEvent(types.StageAssemble))
	start := time.Now()
	cc, err := assemble.Assemble(facts, summary, conv,
		assemble.WithSourceMode(string(mode)),
		assemble.WithClock(c.clock),
	)
	if err != nil {
		c.emit(types.NewStageErrorEvent(types.StageAssemble, err))
		return nil, types.WrapStage(types.StageAssemble, err)
	}
	c.emit(types.NewStageCompleteEvent(types.StageAssemble, time.Since(start),
		fmt.Sprintf("%d facts, %d recent turns", len(cc.Memory), len(cc.RecentTurns))))

	debugLog.Infof("compressed %d turns in %s mode (summary strategy %s)", len(conv), mode, cc.Summary.StrategyUsed)
	return cc, nil
}

// CompressAll runs Compress once per mode, stopping at the first failure.
func (c *Compressor) CompressAll(ctx context.Context, conv types.Conversation, modes ...summarize.Mode) ([]*types.CompressedContext, error) {
	for _, m := range modes {
		if !m.Valid() {
			return nil, types.WrapStage(types.StageSummarize, fmt.Errorf("%w: unknown summarization mode %q", types.ErrInvalidArgument, m))
		}
	}
	out := make([]*types.CompressedContext, 0, len(modes))
	for _, m := range modes {
		cc, err := c.Compress(ctx, conv, m)
		if err != nil {
			return nil, err
		}
		out = append(out, cc)
	}
	return out, nil
}

func (c *Compressor) emit(e *types.Event) {
	if c.observer == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer(e)
}
