package types

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every stage. Match them with errors.Is.
var (
	// ErrServiceUnavailable means the external summarizer could not be used:
	// no credential, network failure or timeout. Recoverable in auto mode.
	ErrServiceUnavailable = errors.New("summarization service unavailable")

	// ErrInvalidArgument covers unknown modes, speakers and ground-truth tiers.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMissingLayer means assembly was attempted without facts or summary.
	ErrMissingLayer = errors.New("missing context layer")

	// ErrDegenerateInput means a scoring call had nothing to score against.
	ErrDegenerateInput = errors.New("degenerate input")
)

// StageError records which pipeline operation failed.
type StageError struct {
	// Op is the failing operation, e.g. "assemble" or "summarize".
	Op string

	// Err is the underlying error.
	Err error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s failed", e.Op)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *StageError) Unwrap() error {
	return e.Err
}

// WrapStage wraps err with operation context. If err is nil, returns nil.
func WrapStage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Op: op, Err: err}
}
