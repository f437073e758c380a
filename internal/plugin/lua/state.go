package lua

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// Default limits for Lua state.
const (
	DefaultExecutionTimeout = 2 * time.Second // Deadline for one evaluation
	DefaultCallLimit        = 10_000          // Host function calls per evaluation
)

// State wraps gopher-lua with the limits used for snippet expressions.
//
// gopher-lua's LState is not goroutine-safe. The mutex serializes every use
// of the underlying state from Go.
type State struct {
	L *lua.LState

	mu sync.Mutex

	executionTimeout time.Duration
	callLimit        int64

	sandbox *Sandbox

	closed bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithExecutionTimeout sets the deadline for a single evaluation.
// A zero or negative duration disables the deadline.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.executionTimeout = d
	}
}

// WithCallLimit sets the maximum number of host function calls per
// evaluation. A zero or negative limit disables counting.
func WithCallLimit(limit int64) StateOption {
	return func(s *State) {
		s.callLimit = limit
	}
}

// NewState creates a new sandboxed Lua state.
func NewState(opts ...StateOption) (*State, error) {
	state := &State{
		executionTimeout: DefaultExecutionTimeout,
		callLimit:        DefaultCallLimit,
	}
	for _, opt := range opts {
		opt(state)
	}

	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	state.L = L

	openSafeLibraries(L)

	state.sandbox = NewSandbox(L, state.callLimit)
	state.sandbox.Install()

	return state, nil
}

// openSafeLibraries opens only the libraries an expression needs.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenPackage(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// io, os and debug stay closed.
}

// DoString executes a Lua chunk.
func (s *State) DoString(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	_, err := s.runLocked(func() error {
		return s.L.DoString(code)
	})
	return err
}

// Eval evaluates code and returns its first result.
// code is tried as an expression first and then as a chunk, so both
// "1 + 2" and "local x = 2 return x * 2" work.
func (s *State) Eval(code string) (lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil, ErrStateClosed
	}

	fn, err := s.L.LoadString("return " + code)
	if err != nil {
		fn, err = s.L.LoadString(code)
		if err != nil {
			return lua.LNil, fmt.Errorf("compile: %w", err)
		}
	}

	return s.runLocked(func() error {
		s.L.Push(fn)
		return s.L.PCall(0, 1, nil)
	})
}

// runLocked runs fn under the deadline and call budget and returns the value
// left on top of the stack.
func (s *State) runLocked(fn func() error) (result lua.LValue, err error) {
	s.sandbox.ResetCallCount()

	top := s.L.GetTop()
	defer s.L.SetTop(top)

	ctx := context.Background()
	if s.executionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.executionTimeout)
		defer cancel()
	}
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			result, err = lua.LNil, fmt.Errorf("lua panic: %v", r)
		}
	}()

	if err := fn(); err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return lua.LNil, ErrExecutionTimeout
		case s.sandbox.Exceeded():
			return lua.LNil, ErrCallLimit
		}
		return lua.LNil, err
	}

	if s.L.GetTop() > top {
		return s.L.Get(-1), nil
	}
	return lua.LNil, nil
}

// RegisterModule registers a global table of Go functions. Every call into
// one of them counts against the call limit.
func (s *State) RegisterModule(name string, funcs map[string]lua.LGFunction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	counted := make(map[string]lua.LGFunction, len(funcs))
	for fname, fn := range funcs {
		counted[fname] = s.sandbox.Counted(fn)
	}
	mod := s.L.SetFuncs(s.L.NewTable(), counted)
	s.L.SetGlobal(name, mod)
}

// GetGlobal returns a global variable value.
func (s *State) GetGlobal(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// SetGlobal sets a global variable.
func (s *State) SetGlobal(name string, value lua.LValue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.L.SetGlobal(name, value)
}

// Sandbox returns the sandbox guarding this state.
func (s *State) Sandbox() *Sandbox {
	return s.sandbox
}

// IsClosed returns true if the state has been closed.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases all resources associated with the Lua state.
// After Close is called, all other methods will return ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.L.Close()
	s.closed = true
	return nil
}
