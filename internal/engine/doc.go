// Package engine provides the reference editing surface for snipstorm.
//
// The engine package serves as the main facade, combining a line buffer,
// a cursor with selection, undo/redo and change tracking into a unified,
// thread-safe API. It satisfies the host contract the snippet package
// expands into, so the CLI, the terminal playground and the tests all drive
// snippets through the same code path.
//
// # Architecture
//
// The engine is built on two sub-packages:
//
//   - buffer: line-oriented text model with rune columns and edits
//   - tracking: ring buffer of applied changes keyed by revision
//
// # Thread Safety
//
// All Engine operations are thread-safe. The engine uses a read-write mutex
// to allow concurrent reads while serializing writes.
//
// # Basic Usage
//
//	e := engine.New(engine.WithContent("hello"))
//	e.MoveCursor(engine.Point{Line: 0, Column: 5})
//	e.InsertText(", world")
//	text := e.Text() // "hello, world"
//
// # Selections
//
// SelectRange places the cursor at the anchor and selects the following
// runes. The next InsertText replaces the selection, which is how a
// placeholder's default text gets overwritten when the user starts typing.
//
// # Change Tracking
//
// Every write, including writes made by a snippet instance, is recorded
// with the revision it produced:
//
//	rev := e.Revision()
//	e.InsertText("x")
//	for _, c := range e.ChangesSince(rev) {
//	    manager.ApplyEdit(c.Edit())
//	}
//
// # Expressions
//
// WithEvaluator installs the evaluator used for host expressions embedded
// in snippet bodies. Without one, Evaluate returns ErrNoEvaluator.
package engine
