package snippet

import (
	"errors"
	"fmt"

	"github.com/dshills/snipstorm/internal/engine/buffer"
)

// Snippet errors.
var (
	// ErrInvalidPosition indicates a position with a negative component.
	ErrInvalidPosition = buffer.ErrInvalidPosition

	// ErrSpanOverlap indicates two sibling regions overlap after a reflow.
	// It signals a bug in the update algorithm, never bad user input.
	ErrSpanOverlap = errors.New("sibling spans overlap")

	// ErrNoActiveStop indicates an edit was routed to an instance with no
	// selected stop.
	ErrNoActiveStop = errors.New("no active stop")

	// ErrExpression indicates the host failed to evaluate an expression.
	ErrExpression = errors.New("host expression failed")

	// ErrEmptyTrigger indicates a snippet was registered without a trigger.
	ErrEmptyTrigger = errors.New("empty trigger")
)

// SnippetError records a failed operation on a snippet.
type SnippetError struct {
	Op      string // Operation name (e.g., "launch", "update", "select")
	Trigger string // Trigger of the snippet involved
	Err     error  // Underlying error
}

func newError(op, trigger string, err error) *SnippetError {
	return &SnippetError{Op: op, Trigger: trigger, Err: err}
}

func (e *SnippetError) Error() string {
	if e == nil {
		return ""
	}
	if e.Trigger != "" {
		return fmt.Sprintf("snippet %s %q: %v", e.Op, e.Trigger, e.Err)
	}
	return fmt.Sprintf("snippet %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *SnippetError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
