package lua

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/snipstorm/internal/logging"
)

// ModuleName is the global table holding the host functions available to
// expressions.
const ModuleName = "snip"

// Evaluator runs snippet host expressions in a sandboxed Lua state.
// It satisfies engine.Evaluator.
type Evaluator struct {
	state  *State
	bridge *Bridge

	stateOpts []StateOption
	vars      map[string]any
	clock     func() time.Time
	getenv    func(string) string
	logger    *log.Logger
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithStateOptions passes options to the underlying State.
func WithStateOptions(opts ...StateOption) EvaluatorOption {
	return func(e *Evaluator) {
		e.stateOpts = append(e.stateOpts, opts...)
	}
}

// WithVars exposes Go values to expressions as globals.
func WithVars(vars map[string]any) EvaluatorOption {
	return func(e *Evaluator) {
		for k, v := range vars {
			e.vars[k] = v
		}
	}
}

// WithClock sets the time source used by snip.date.
func WithClock(clock func() time.Time) EvaluatorOption {
	return func(e *Evaluator) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithGetenv sets the environment lookup used by snip.env.
func WithGetenv(getenv func(string) string) EvaluatorOption {
	return func(e *Evaluator) {
		if getenv != nil {
			e.getenv = getenv
		}
	}
}

// WithLogger sets the logger for evaluation traces.
func WithLogger(logger *log.Logger) EvaluatorOption {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEvaluator creates an evaluator with its own Lua state.
func NewEvaluator(opts ...EvaluatorOption) (*Evaluator, error) {
	e := &Evaluator{
		vars:   make(map[string]any),
		clock:  time.Now,
		getenv: os.Getenv,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	state, err := NewState(e.stateOpts...)
	if err != nil {
		return nil, err
	}
	e.state = state
	e.bridge = NewBridge(state.L)

	state.RegisterModule(ModuleName, map[string]lua.LGFunction{
		"date": e.luaDate,
		"env":  e.luaEnv,
	})
	for name, v := range e.vars {
		state.SetGlobal(name, e.bridge.ToLuaValue(v))
	}
	return e, nil
}

// Evaluate runs code and returns its result as text.
func (e *Evaluator) Evaluate(code string) (string, error) {
	v, err := e.state.Eval(code)
	if err != nil {
		e.logger.Debug("expression failed", "code", code, logging.FieldError, err)
		return "", fmt.Errorf("evaluate %q: %w", code, err)
	}
	text, err := e.bridge.ToText(v)
	if err != nil {
		return "", fmt.Errorf("evaluate %q: %w", code, err)
	}
	e.logger.Debug("expression evaluated", "code", code, logging.FieldText, text)
	return text, nil
}

// Close releases the Lua state.
func (e *Evaluator) Close() error {
	return e.state.Close()
}

// luaDate formats the current time with a Go layout.
// snip.date() uses time.DateOnly.
func (e *Evaluator) luaDate(L *lua.LState) int {
	layout := L.OptString(1, time.DateOnly)
	L.Push(lua.LString(e.clock().Format(layout)))
	return 1
}

// luaEnv returns an environment variable or nil when unset.
func (e *Evaluator) luaEnv(L *lua.LState) int {
	v := e.getenv(L.CheckString(1))
	if v == "" {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(v))
	return 1
}
