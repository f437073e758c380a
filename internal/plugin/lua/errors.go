package lua

import "errors"

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when an expression runs past its deadline.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrCallLimit is returned when an expression calls host functions more
	// often than the sandbox allows.
	ErrCallLimit = errors.New("lua host call limit exceeded")

	// ErrUnsupportedResult is returned when an expression yields a value
	// that has no text form.
	ErrUnsupportedResult = errors.New("unsupported lua result")
)
