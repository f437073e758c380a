package lua

import (
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// Sandbox restricts Lua execution to side-effect free operations.
type Sandbox struct {
	L *lua.LState

	callLimit int64
	callCount int64
}

// NewSandbox creates a new sandbox for the Lua state.
func NewSandbox(L *lua.LState, callLimit int64) *Sandbox {
	return &Sandbox{
		L:         L,
		callLimit: callLimit,
	}
}

// Install removes the loaders that reach the filesystem and replaces
// require with a whitelist.
func (s *Sandbox) Install() {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		s.L.SetGlobal(name, lua.LNil)
	}
	s.installSafeRequire()
}

// installSafeRequire clears the package search paths and only lets the
// built-in pure modules through.
func (s *Sandbox) installSafeRequire() {
	if pkg, ok := s.L.GetGlobal("package").(*lua.LTable); ok {
		s.L.SetField(pkg, "path", lua.LString(""))
		s.L.SetField(pkg, "cpath", lua.LString(""))
	}

	safeModules := map[string]bool{
		"string": true,
		"table":  true,
		"math":   true,
	}

	originalRequire := s.L.GetGlobal("require")

	s.L.SetGlobal("require", s.L.NewFunction(func(L *lua.LState) int {
		modName := L.CheckString(1)
		if !safeModules[modName] {
			// RaiseError does not return.
			L.RaiseError("module %q is not available", modName)
			return 0
		}
		L.Push(originalRequire)
		L.Push(lua.LString(modName))
		L.Call(1, 1)
		return 1
	}))
}

// Counted wraps fn so each call is charged against the call limit.
func (s *Sandbox) Counted(fn lua.LGFunction) lua.LGFunction {
	return func(L *lua.LState) int {
		if s.IncrementCalls(1) {
			L.RaiseError("%s", ErrCallLimit.Error())
			return 0
		}
		return fn(L)
	}
}

// ResetCallCount resets the call counter.
func (s *Sandbox) ResetCallCount() {
	atomic.StoreInt64(&s.callCount, 0)
}

// CallCount returns the number of host calls made by the current evaluation.
func (s *Sandbox) CallCount() int64 {
	return atomic.LoadInt64(&s.callCount)
}

// IncrementCalls adds to the call count and returns true if the limit is exceeded.
func (s *Sandbox) IncrementCalls(n int64) bool {
	if s.callLimit <= 0 {
		return false
	}
	count := atomic.AddInt64(&s.callCount, n)
	return count > s.callLimit
}

// Exceeded reports whether the current evaluation ran over the limit.
func (s *Sandbox) Exceeded() bool {
	return s.callLimit > 0 && s.CallCount() > s.callLimit
}
