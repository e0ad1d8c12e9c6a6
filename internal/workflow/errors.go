package workflow

import (
	"fmt"

	"github.com/agora-quant/agora/internal/models"
)

// WorkflowError reports a node failure. Snapshot holds the last state that
// was fully applied before the failing node ran.
type WorkflowError struct {
	Node     string
	Snapshot *models.TradingState
	Err      error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("workflow node %s: %v", e.Node, e.Err)
}

func (e *WorkflowError) Unwrap() error { return e.Err }

// ValidationError reports missing mandatory state before an irreversible
// stage.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// TimeoutError reports that the run deadline expired. Stage names the node
// that was executing; Snapshot holds the last fully applied state.
type TimeoutError struct {
	Stage    string
	Snapshot *models.TradingState
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("workflow timed out during %s: %v", e.Stage, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }
