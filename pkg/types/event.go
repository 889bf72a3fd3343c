package types

import "time"

// EventType defines the kind of progress event emitted by the pipeline.
type EventType string

const (
	EventTypeStageStart      EventType = "stage_start"      // a stage began executing
	EventTypeStageComplete   EventType = "stage_complete"   // a stage finished successfully
	EventTypeStageError      EventType = "stage_error"      // a stage failed
	EventTypeSummaryFallback EventType = "summary_fallback" // auto mode fell back to the rule strategy
)

// Stage names used in events.
const (
	StageExtract   = "extract"
	StageSummarize = "summarize"
	StageAssemble  = "assemble"
)

// Event is a progress notification from the pipeline.
type Event struct {
	Type     EventType
	Stage    string
	Duration time.Duration
	Error    error

	// Detail carries stage specific information such as the fact count or
	// the strategy that produced the summary.
	Detail string
}

// NewStageStartEvent creates an event marking the start of a stage.
func NewStageStartEvent(stage string) *Event {
	return &Event{Type: EventTypeStageStart, Stage: stage}
}

// NewStageCompleteEvent creates an event marking the successful end of a stage.
func NewStageCompleteEvent(stage string, d time.Duration, detail string) *Event {
	return &Event{Type: EventTypeStageComplete, Stage: stage, Duration: d, Detail: detail}
}

// NewStageErrorEvent creates an event for a failed stage.
func NewStageErrorEvent(stage string, err error) *Event {
	return &Event{Type: EventTypeStageError, Stage: stage, Error: err}
}

// NewSummaryFallbackEvent creates an event recording an auto-mode fallback.
func NewSummaryFallbackEvent(cause error) *Event {
	return &Event{Type: EventTypeSummaryFallback, Stage: StageSummarize, Error: cause}
}
