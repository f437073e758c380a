// Package lua evaluates the host expressions embedded in snippet bodies.
//
// This package wraps the gopher-lua library to provide:
//   - Sandboxed Lua state management
//   - Go-Lua value conversion
//   - Execution deadlines and host call limits
//
// # State
//
// The State type manages a Lua runtime with only the base, string, table,
// math and package libraries opened:
//
//	state, err := lua.NewState(
//	    lua.WithExecutionTimeout(500 * time.Millisecond),
//	    lua.WithCallLimit(1000),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer state.Close()
//
//	v, err := state.Eval("1 + 2")
//
// # Sandbox
//
// The Sandbox removes dofile, loadfile, load and loadstring, restricts
// require to the pure built-in modules, and counts calls into host
// functions.
//
// # Evaluator
//
// The Evaluator turns an expression into snippet text and is installed in
// the engine with engine.WithEvaluator:
//
//	ev, err := lua.NewEvaluator()
//	eng := engine.New(engine.WithEvaluator(ev))
//
// Expressions see a "snip" table with:
//   - snip.date([layout]): the current time in a Go time layout
//   - snip.env(name): an environment variable, or nil
package lua
