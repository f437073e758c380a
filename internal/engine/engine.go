package engine

import (
	"fmt"
	"io"
	"sync"

	"github.com/dshills/snipstorm/internal/engine/buffer"
	"github.com/dshills/snipstorm/internal/engine/tracking"
)

// Re-export commonly used types for convenience.
type (
	// Point represents a line/column position.
	Point = buffer.Point

	// PointRange represents a span between two points.
	PointRange = buffer.PointRange

	// Edit represents an edit operation.
	Edit = buffer.Edit

	// RevisionID uniquely identifies a buffer revision.
	RevisionID = buffer.RevisionID

	// Change represents a tracked change.
	Change = tracking.Change

	// ChangeType categorizes changes.
	ChangeType = tracking.ChangeType
)

// Re-export constants.
const (
	ChangeInsert  = tracking.ChangeInsert
	ChangeDelete  = tracking.ChangeDelete
	ChangeReplace = tracking.ChangeReplace
)

// Engine is the reference editing surface.
// It combines a line buffer, a single cursor with selection, undo/redo,
// change tracking and an optional expression evaluator behind one
// thread-safe API.
type Engine struct {
	mu sync.RWMutex

	// Core components
	buf     *buffer.Buffer
	sel     Selection
	tracker *tracking.Tracker

	// Each undo entry is the list of changes one user action produced, in
	// the order they were applied.
	undoStack [][]Change
	redoStack [][]Change

	// Open undo group; edits recorded while groupDepth > 0 share one entry.
	groupDepth int
	group      []Change

	evaluator Evaluator

	// Configuration
	tabWidth       int
	maxUndoEntries int
	maxChanges     int
	readOnly       bool

	// Initialization
	initContent string
}

// New creates a new Engine with the given options.
func New(opts ...Option) *Engine {
	e := &Engine{
		tabWidth:       DefaultTabWidth,
		maxUndoEntries: DefaultMaxUndoEntries,
		maxChanges:     DefaultMaxChanges,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.buf = buffer.NewBufferFromString(e.initContent, buffer.WithTabWidth(e.tabWidth))
	e.tracker = tracking.NewTracker(tracking.WithMaxChanges(e.maxChanges))

	return e
}

// NewFromReader creates an Engine from an io.Reader.
func NewFromReader(r io.Reader, opts ...Option) (*Engine, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return New(append(opts, WithContent(string(data)))...), nil
}

// ============================================================================
// Read Operations
// ============================================================================

// Text returns the full buffer content.
func (e *Engine) Text() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.Text()
}

// LineCount returns the number of lines.
func (e *Engine) LineCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.LineCount()
}

// LineText returns the text of a line without its terminator.
func (e *Engine) LineText(line int) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.LineText(line)
}

// LineLen returns the rune length of a line.
func (e *Engine) LineLen(line int) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.LineLen(line)
}

// ReadRange returns the lines covered by [start, end).
func (e *Engine) ReadRange(start, end Point) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.TextRange(start, end)
}

// Lines returns a copy of every line.
func (e *Engine) Lines() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.Lines()
}

// ============================================================================
// Write Operations
// ============================================================================

// ReplaceRange replaces [start, end) with lines and returns the end of the
// new text. The cursor follows the edit and any selection is dropped.
func (e *Engine) ReplaceRange(start, end Point, lines []string) (Point, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	change, err := e.applyLocked(buffer.NewEdit(buffer.NewPointRange(start, end), buffer.JoinLines(lines)), true)
	if err != nil {
		return Point{}, err
	}
	e.sel = NewCursorSelection(change.Edit().Transform(e.sel.Head))
	return change.NewRange.End, nil
}

// ApplyEdit applies a single edit and moves the cursor to its end.
func (e *Engine) ApplyEdit(edit Edit) (Change, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	change, err := e.applyLocked(edit, true)
	if err != nil {
		return Change{}, err
	}
	e.sel = NewCursorSelection(change.NewRange.End)
	return change, nil
}

// InsertText types text at the cursor, replacing the selection if any.
func (e *Engine) InsertText(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	change, err := e.applyLocked(buffer.NewEdit(e.sel.Range(), text), true)
	if err != nil {
		return err
	}
	e.sel = NewCursorSelection(change.NewRange.End)
	return nil
}

// Newline splits the line at the cursor.
func (e *Engine) Newline() error {
	return e.InsertText("\n")
}

// Backspace deletes the selection, or the rune before the cursor.
// At the start of a line it joins the line with the previous one.
// At the start of the buffer it does nothing.
func (e *Engine) Backspace() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r := e.sel.Range()
	if r.IsEmpty() {
		head := e.sel.Head
		switch {
		case head.Column > 0:
			r.Start = Point{Line: head.Line, Column: head.Column - 1}
		case head.Line > 0:
			r.Start = Point{Line: head.Line - 1, Column: e.buf.LineLen(head.Line - 1)}
		default:
			return nil
		}
	}

	change, err := e.applyLocked(buffer.NewDelete(r.Start, r.End), true)
	if err != nil {
		return err
	}
	e.sel = NewCursorSelection(change.NewRange.End)
	return nil
}

// applyLocked applies an edit, records it, and optionally pushes it for undo.
func (e *Engine) applyLocked(edit Edit, recordUndo bool) (Change, error) {
	if e.readOnly {
		return Change{}, ErrReadOnly
	}

	result, err := e.buf.ApplyEdit(edit)
	if err != nil {
		return Change{}, err
	}

	change := tracking.NewChange(result, buffer.JoinLines(edit.Lines()), e.buf.RevisionID())
	e.tracker.RecordChange(change)

	if recordUndo {
		e.redoStack = nil
		if e.groupDepth > 0 {
			e.group = append(e.group, change)
		} else {
			e.pushUndoLocked([]Change{change})
		}
	}
	return change, nil
}

func (e *Engine) pushUndoLocked(entry []Change) {
	e.undoStack = append(e.undoStack, entry)
	if len(e.undoStack) > e.maxUndoEntries {
		e.undoStack = e.undoStack[len(e.undoStack)-e.maxUndoEntries:]
	}
}

// BeginUndoGroup starts collecting edits into a single undo entry until the
// matching EndUndoGroup. Groups nest; only the outermost one is pushed.
func (e *Engine) BeginUndoGroup() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.groupDepth++
}

// EndUndoGroup closes the group opened by BeginUndoGroup. A group that
// recorded no edits leaves the history untouched.
func (e *Engine) EndUndoGroup() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.groupDepth == 0 {
		return
	}
	e.groupDepth--
	if e.groupDepth == 0 && len(e.group) > 0 {
		e.pushUndoLocked(e.group)
		e.group = nil
	}
}

// UndoGroup runs fn inside an undo group, so everything it edits is undone
// and redone as one step.
func (e *Engine) UndoGroup(fn func() error) error {
	e.BeginUndoGroup()
	defer e.EndUndoGroup()
	return fn()
}

// ============================================================================
// Undo/Redo
// ============================================================================

// Undo reverts the most recent edit or undo group.
func (e *Engine) Undo() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.undoStack) == 0 {
		return ErrNothingToUndo
	}
	last := e.undoStack[len(e.undoStack)-1]

	reverted, err := e.revertLocked(last)
	if err != nil {
		return err
	}
	e.undoStack = e.undoStack[:len(e.undoStack)-1]
	e.redoStack = append(e.redoStack, reverted)
	return nil
}

// Redo re-applies the most recently undone edit or undo group.
func (e *Engine) Redo() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.redoStack) == 0 {
		return ErrNothingToRedo
	}
	last := e.redoStack[len(e.redoStack)-1]

	reverted, err := e.revertLocked(last)
	if err != nil {
		return err
	}
	e.redoStack = e.redoStack[:len(e.redoStack)-1]
	e.undoStack = append(e.undoStack, reverted)
	return nil
}

// revertLocked applies the inverse of every change in entry, last first,
// and returns the applied inverses in application order. Reverting that
// result restores entry. The cursor ends after the last applied inverse.
func (e *Engine) revertLocked(entry []Change) ([]Change, error) {
	out := make([]Change, 0, len(entry))
	for i := len(entry) - 1; i >= 0; i-- {
		change, err := e.applyLocked(entry[i].Invert().Edit(), false)
		if err != nil {
			return nil, err
		}
		out = append(out, change)
		e.sel = NewCursorSelection(change.NewRange.End)
	}
	return out, nil
}

// CanUndo returns true if there are edits to undo.
func (e *Engine) CanUndo() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.undoStack) > 0
}

// CanRedo returns true if there are edits to redo.
func (e *Engine) CanRedo() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.redoStack) > 0
}

// ============================================================================
// Cursor and Selection
// ============================================================================

// Cursor returns the cursor position.
func (e *Engine) Cursor() Point {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sel.Head
}

// SetCursor moves the cursor and clears the selection.
// The point must lie inside the buffer.
func (e *Engine) SetCursor(p Point) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPointLocked(p); err != nil {
		return err
	}
	e.sel = NewCursorSelection(p)
	return nil
}

// MoveCursor moves the cursor, clamping the point into the buffer.
func (e *Engine) MoveCursor(p Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sel = NewCursorSelection(e.buf.ClampPoint(p))
}

// MoveLeft moves the cursor one rune left, wrapping to the previous line.
func (e *Engine) MoveLeft() {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.sel.Head
	switch {
	case p.Column > 0:
		p.Column--
	case p.Line > 0:
		p = Point{Line: p.Line - 1, Column: e.buf.LineLen(p.Line - 1)}
	}
	e.sel = NewCursorSelection(p)
}

// MoveRight moves the cursor one rune right, wrapping to the next line.
func (e *Engine) MoveRight() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sel = NewCursorSelection(e.advanceLocked(e.sel.Head, 1))
}

// MoveUp moves the cursor one line up, clamping the column.
func (e *Engine) MoveUp() {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.sel.Head
	e.sel = NewCursorSelection(e.buf.ClampPoint(Point{Line: p.Line - 1, Column: p.Column}))
}

// MoveDown moves the cursor one line down, clamping the column.
func (e *Engine) MoveDown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.sel.Head
	e.sel = NewCursorSelection(e.buf.ClampPoint(Point{Line: p.Line + 1, Column: p.Column}))
}

// SelectRange selects length runes starting at anchor. A line break counts
// as one rune. The cursor is left at anchor; typing replaces the selection.
func (e *Engine) SelectRange(anchor Point, length int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if length < 0 {
		return fmt.Errorf("%w: negative selection length %d", buffer.ErrRangeInvalid, length)
	}
	if err := e.checkPointLocked(anchor); err != nil {
		return err
	}
	e.sel = Selection{Anchor: e.advanceLocked(anchor, length), Head: anchor}
	return nil
}

// Selection returns the current selection.
func (e *Engine) Selection() Selection {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sel
}

// SelectedText returns the selected text, or "" without a selection.
func (e *Engine) SelectedText() string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.sel.IsEmpty() {
		return ""
	}
	r := e.sel.Range()
	lines, err := e.buf.TextRange(r.Start, r.End)
	if err != nil {
		return ""
	}
	return buffer.JoinLines(lines)
}

func (e *Engine) checkPointLocked(p Point) error {
	if !p.Valid() || e.buf.ClampPoint(p) != p {
		return fmt.Errorf("%w: %s", buffer.ErrPointOutOfRange, p)
	}
	return nil
}

// advanceLocked walks n runes forward from p, stopping at the buffer end.
func (e *Engine) advanceLocked(p Point, n int) Point {
	lineCount := e.buf.LineCount()
	for n > 0 {
		remaining := e.buf.LineLen(p.Line) - p.Column
		if n <= remaining {
			p.Column += n
			return p
		}
		if p.Line+1 >= lineCount {
			p.Column += remaining
			return p
		}
		n -= remaining + 1
		p = Point{Line: p.Line + 1}
	}
	return p
}

// ============================================================================
// Change Tracking
// ============================================================================

// Revision returns the current buffer revision.
func (e *Engine) Revision() RevisionID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.RevisionID()
}

// ChangesSince returns every recorded change after rev, oldest first.
func (e *Engine) ChangesSince(rev RevisionID) []Change {
	return e.tracker.ChangesSince(rev)
}

// LatestChanges returns the n most recent changes.
func (e *Engine) LatestChanges(n int) []Change {
	return e.tracker.LatestChanges(n)
}

// ChangeCount returns the number of retained changes.
func (e *Engine) ChangeCount() int {
	return e.tracker.ChangeCount()
}

// ============================================================================
// Expressions
// ============================================================================

// Evaluate runs code through the configured evaluator.
func (e *Engine) Evaluate(code string) (string, error) {
	e.mu.RLock()
	ev := e.evaluator
	e.mu.RUnlock()

	if ev == nil {
		return "", ErrNoEvaluator
	}
	return ev.Evaluate(code)
}

// ============================================================================
// Configuration
// ============================================================================

// TabWidth returns the tab width.
func (e *Engine) TabWidth() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tabWidth
}

// IsReadOnly returns true if the engine rejects writes.
func (e *Engine) IsReadOnly() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.readOnly
}

// Snapshot returns a read-only snapshot of the current buffer state.
func (e *Engine) Snapshot() *buffer.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.Snapshot()
}

// SetContent replaces all content and resets history, tracking and cursor.
func (e *Engine) SetContent(content string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.readOnly {
		return ErrReadOnly
	}

	e.buf = buffer.NewBufferFromString(content, buffer.WithTabWidth(e.tabWidth))
	e.sel = Selection{}
	e.undoStack = nil
	e.redoStack = nil
	e.group = nil
	e.tracker.Clear()
	return nil
}
