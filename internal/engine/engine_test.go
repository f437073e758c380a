package engine

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/dshills/snipstorm/internal/engine/buffer"
)

func pt(line, col int) Point {
	return Point{Line: line, Column: col}
}

// ============================================================================
// Basic Operations
// ============================================================================

func TestNew(t *testing.T) {
	e := New()
	if e.Text() != "" {
		t.Errorf("expected empty text, got %q", e.Text())
	}
	if e.LineCount() != 1 {
		t.Errorf("expected 1 line, got %d", e.LineCount())
	}
	if e.Cursor() != pt(0, 0) {
		t.Errorf("expected cursor at origin, got %s", e.Cursor())
	}
}

func TestNewFromReader(t *testing.T) {
	e, err := NewFromReader(strings.NewReader("a\nb"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Text() != "a\nb" {
		t.Errorf("expected %q, got %q", "a\nb", e.Text())
	}
}

func TestInsertText(t *testing.T) {
	e := New()

	if err := e.InsertText("Hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := e.InsertText(", World"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Text() != "Hello, World" {
		t.Errorf("expected %q, got %q", "Hello, World", e.Text())
	}
	if e.Cursor() != pt(0, 12) {
		t.Errorf("expected cursor (0,12), got %s", e.Cursor())
	}
}

func TestInsertTextReplacesSelection(t *testing.T) {
	e := New(WithContent("foo bar baz"))
	if err := e.SelectRange(pt(0, 4), 3); err != nil {
		t.Fatalf("SelectRange: %v", err)
	}
	if got := e.SelectedText(); got != "bar" {
		t.Fatalf("expected selection %q, got %q", "bar", got)
	}

	if err := e.InsertText("X"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Text() != "foo X baz" {
		t.Errorf("expected %q, got %q", "foo X baz", e.Text())
	}
	if !e.Selection().IsEmpty() {
		t.Error("selection should collapse after typing")
	}
	if e.Cursor() != pt(0, 5) {
		t.Errorf("expected cursor (0,5), got %s", e.Cursor())
	}
}

func TestNewline(t *testing.T) {
	e := New(WithContent("abcd"))
	e.MoveCursor(pt(0, 2))

	if err := e.Newline(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Text() != "ab\ncd" {
		t.Errorf("expected %q, got %q", "ab\ncd", e.Text())
	}
	if e.Cursor() != pt(1, 0) {
		t.Errorf("expected cursor (1,0), got %s", e.Cursor())
	}
}

func TestBackspace(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		cursor     Point
		wantText   string
		wantCursor Point
	}{
		{"middle of line", "abc", pt(0, 2), "ac", pt(0, 1)},
		{"joins lines", "ab\ncd", pt(1, 0), "abcd", pt(0, 2)},
		{"start of buffer", "abc", pt(0, 0), "abc", pt(0, 0)},
		{"unicode", "aéb", pt(0, 2), "ab", pt(0, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(WithContent(tt.content))
			e.MoveCursor(tt.cursor)
			if err := e.Backspace(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if e.Text() != tt.wantText {
				t.Errorf("expected %q, got %q", tt.wantText, e.Text())
			}
			if e.Cursor() != tt.wantCursor {
				t.Errorf("expected cursor %s, got %s", tt.wantCursor, e.Cursor())
			}
		})
	}
}

func TestBackspaceDeletesSelection(t *testing.T) {
	e := New(WithContent("one\ntwo"))
	if err := e.SelectRange(pt(0, 2), 3); err != nil {
		t.Fatalf("SelectRange: %v", err)
	}
	if err := e.Backspace(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Text() != "onwo" {
		t.Errorf("expected %q, got %q", "onwo", e.Text())
	}
}

// ============================================================================
// Host Operations
// ============================================================================

func TestReplaceRange(t *testing.T) {
	e := New(WithContent("hello world\nnext"))
	e.MoveCursor(pt(1, 2))

	end, err := e.ReplaceRange(pt(0, 6), pt(0, 11), []string{"big", "wide"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if end != pt(1, 4) {
		t.Errorf("expected end (1,4), got %s", end)
	}
	if e.Text() != "hello big\nwide\nnext" {
		t.Errorf("unexpected text %q", e.Text())
	}
	if e.Cursor() != pt(2, 2) {
		t.Errorf("cursor should follow the edit, got %s", e.Cursor())
	}
}

func TestReadRange(t *testing.T) {
	e := New(WithContent("abc\ndef\nghi"))
	lines, err := e.ReadRange(pt(0, 1), pt(2, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"bc", "def", "gh"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("expected %v, got %v", want, lines)
	}
}

func TestSetCursorRejectsOutOfRange(t *testing.T) {
	e := New(WithContent("abc"))
	if err := e.SetCursor(pt(0, 4)); !errors.Is(err, buffer.ErrPointOutOfRange) {
		t.Errorf("expected ErrPointOutOfRange, got %v", err)
	}
	if err := e.SetCursor(pt(0, 3)); err != nil {
		t.Errorf("end of line should be valid: %v", err)
	}
}

func TestSelectRangeAcrossLines(t *testing.T) {
	e := New(WithContent("ab\ncd\nef"))
	if err := e.SelectRange(pt(0, 1), 4); err != nil {
		t.Fatalf("SelectRange: %v", err)
	}
	sel := e.Selection()
	if sel.Head != pt(0, 1) {
		t.Errorf("cursor should stay at anchor, got %s", sel.Head)
	}
	if sel.End() != pt(1, 2) {
		t.Errorf("expected selection end (1,2), got %s", sel.End())
	}
	if got := e.SelectedText(); got != "b\ncd" {
		t.Errorf("expected %q, got %q", "b\ncd", got)
	}

	if err := e.SelectRange(pt(0, 0), -1); err == nil {
		t.Error("expected error for negative length")
	}
}

func TestCursorMovement(t *testing.T) {
	e := New(WithContent("ab\nlonger\nc"))

	e.MoveCursor(pt(1, 5))
	e.MoveUp()
	if e.Cursor() != pt(0, 2) {
		t.Errorf("MoveUp should clamp column, got %s", e.Cursor())
	}
	e.MoveRight()
	if e.Cursor() != pt(1, 0) {
		t.Errorf("MoveRight should wrap, got %s", e.Cursor())
	}
	e.MoveLeft()
	if e.Cursor() != pt(0, 2) {
		t.Errorf("MoveLeft should wrap, got %s", e.Cursor())
	}
	e.MoveDown()
	e.MoveDown()
	if e.Cursor() != pt(2, 1) {
		t.Errorf("MoveDown should clamp column, got %s", e.Cursor())
	}
	e.MoveCursor(pt(-3, 99))
	if e.Cursor() != pt(0, 2) {
		t.Errorf("MoveCursor should clamp, got %s", e.Cursor())
	}
}

// ============================================================================
// Undo/Redo
// ============================================================================

func TestUndoRedo(t *testing.T) {
	e := New()
	_ = e.InsertText("Hello")
	_ = e.InsertText(" World")

	if err := e.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if e.Text() != "Hello" {
		t.Errorf("expected %q after undo, got %q", "Hello", e.Text())
	}
	if err := e.Redo(); err != nil {
		t.Fatalf("redo: %v", err)
	}
	if e.Text() != "Hello World" {
		t.Errorf("expected %q after redo, got %q", "Hello World", e.Text())
	}

	_ = e.Undo()
	_ = e.Undo()
	if err := e.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("expected ErrNothingToUndo, got %v", err)
	}
	_ = e.InsertText("x")
	if err := e.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("new edit should clear redo, got %v", err)
	}
}

func TestUndoGroup(t *testing.T) {
	e := New(WithContent("k=k"))
	e.MoveCursor(pt(0, 0))

	err := e.UndoGroup(func() error {
		if err := e.InsertText("a"); err != nil {
			return err
		}
		// Nested groups join the outer entry.
		return e.UndoGroup(func() error {
			_, err := e.ReplaceRange(pt(0, 0), pt(0, 4), []string{"a=a"})
			return err
		})
	})
	if err != nil {
		t.Fatalf("UndoGroup: %v", err)
	}
	if e.Text() != "a=a" {
		t.Fatalf("expected %q, got %q", "a=a", e.Text())
	}

	if err := e.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if e.Text() != "k=k" {
		t.Errorf("one undo should revert the whole group, got %q", e.Text())
	}
	if e.CanUndo() {
		t.Error("expected a single undo entry for the group")
	}

	if err := e.Redo(); err != nil {
		t.Fatalf("redo: %v", err)
	}
	if e.Text() != "a=a" {
		t.Errorf("expected %q after redo, got %q", "a=a", e.Text())
	}
	if err := e.Undo(); err != nil || e.Text() != "k=k" {
		t.Errorf("undo after redo = %q, %v", e.Text(), err)
	}
}

func TestEmptyUndoGroup(t *testing.T) {
	e := New()
	_ = e.InsertText("a")
	_ = e.UndoGroup(func() error { return nil })
	e.EndUndoGroup() // unbalanced end is ignored

	_ = e.Undo()
	if e.Text() != "" || e.CanUndo() {
		t.Errorf("empty group should not add history, text %q", e.Text())
	}
}

func TestMaxUndoEntries(t *testing.T) {
	e := New(WithMaxUndoEntries(2))
	for _, s := range []string{"a", "b", "c"} {
		_ = e.InsertText(s)
	}
	_ = e.Undo()
	_ = e.Undo()
	if e.CanUndo() {
		t.Error("expected undo history to be capped at 2")
	}
	if e.Text() != "a" {
		t.Errorf("expected %q, got %q", "a", e.Text())
	}
}

// ============================================================================
// Change Tracking
// ============================================================================

func TestChangesSince(t *testing.T) {
	e := New(WithContent("abc"))
	rev := e.Revision()

	e.MoveCursor(pt(0, 3))
	_ = e.InsertText("d")
	_ = e.Backspace()

	changes := e.ChangesSince(rev)
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}
	if changes[0].Type != ChangeInsert || changes[0].NewText != "d" {
		t.Errorf("unexpected first change %v", changes[0])
	}
	if changes[1].Type != ChangeDelete || changes[1].OldText != "d" {
		t.Errorf("unexpected second change %v", changes[1])
	}
	if changes[1].Range != buffer.NewPointRange(pt(0, 3), pt(0, 4)) {
		t.Errorf("delete range should be in old coordinates, got %s", changes[1].Range)
	}
	if got := e.ChangesSince(e.Revision()); len(got) != 0 {
		t.Errorf("expected no changes since current revision, got %d", len(got))
	}
}

func TestReadOnly(t *testing.T) {
	e := New(WithContent("abc"), WithReadOnly())
	if err := e.InsertText("x"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
	if _, err := e.ReplaceRange(pt(0, 0), pt(0, 1), []string{"z"}); !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
	if !e.IsReadOnly() {
		t.Error("expected read-only engine")
	}
}

func TestSetContent(t *testing.T) {
	e := New(WithContent("old"))
	_ = e.InsertText("x")
	if err := e.SetContent("new\ntext"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Text() != "new\ntext" {
		t.Errorf("unexpected text %q", e.Text())
	}
	if e.CanUndo() || e.ChangeCount() != 0 {
		t.Error("history and tracking should be reset")
	}
}

// ============================================================================
// Expressions
// ============================================================================

func TestEvaluate(t *testing.T) {
	e := New()
	if _, err := e.Evaluate("1"); !errors.Is(err, ErrNoEvaluator) {
		t.Errorf("expected ErrNoEvaluator, got %v", err)
	}

	e = New(WithEvaluator(EvaluatorFunc(func(code string) (string, error) {
		return strings.ToUpper(code), nil
	})))
	got, err := e.Evaluate("abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ABC" {
		t.Errorf("expected %q, got %q", "ABC", got)
	}
}

// ============================================================================
// Concurrency
// ============================================================================

func TestConcurrentAccess(t *testing.T) {
	e := New()
	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = e.InsertText("x")
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = e.Text()
				_ = e.Cursor()
			}
		}()
	}
	wg.Wait()

	if got := len(e.Text()); got != 200 {
		t.Errorf("expected 200 characters, got %d", got)
	}
}
