package buffer

import (
	"fmt"
	"strings"
)

// Edit represents a text edit operation.
// It specifies a range to replace and the new text.
type Edit struct {
	Range   PointRange // The range to replace, in pre-edit coordinates
	NewText string     // The replacement text (may contain '\n')
}

// NewEdit creates a new Edit.
func NewEdit(r PointRange, newText string) Edit {
	return Edit{Range: r, NewText: newText}
}

// NewInsert creates an Edit that inserts text at a position.
func NewInsert(at Point, text string) Edit {
	return Edit{Range: PointRange{Start: at, End: at}, NewText: text}
}

// NewDelete creates an Edit that deletes a range of text.
func NewDelete(start, end Point) Edit {
	return Edit{Range: PointRange{Start: start, End: end}}
}

// String returns a human-readable representation of the edit.
func (e Edit) String() string {
	if e.Range.IsEmpty() {
		return fmt.Sprintf("Insert(%s, %q)", e.Range.Start, e.NewText)
	}
	if e.NewText == "" {
		return fmt.Sprintf("Delete%s", e.Range.String())
	}
	return fmt.Sprintf("Replace%s with %q", e.Range.String(), e.NewText)
}

// IsInsert returns true if this is a pure insertion (empty range).
func (e Edit) IsInsert() bool {
	return e.Range.IsEmpty() && e.NewText != ""
}

// IsDelete returns true if this is a pure deletion (empty replacement).
func (e Edit) IsDelete() bool {
	return !e.Range.IsEmpty() && e.NewText == ""
}

// IsReplace returns true if this replaces existing text with new text.
func (e Edit) IsReplace() bool {
	return !e.Range.IsEmpty() && e.NewText != ""
}

// IsNoOp returns true if this edit does nothing.
func (e Edit) IsNoOp() bool {
	return e.Range.IsEmpty() && e.NewText == ""
}

// Lines returns the replacement text split into lines.
func (e Edit) Lines() []string {
	return SplitLines(e.NewText)
}

// EndAfter returns the end of the inserted text once the edit is applied.
func (e Edit) EndAfter() Point {
	return EndOf(e.Range.Start, e.Lines())
}

// SplitLines splits text on '\n' after dropping carriage returns.
// Unlike strings.Split on a trimmed string, a trailing newline yields a
// trailing empty line, and empty text yields one empty line.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r", "")
	return strings.Split(text, "\n")
}

// JoinLines is the inverse of SplitLines.
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// EndOf returns the position just past lines when they are written at start.
func EndOf(start Point, lines []string) Point {
	if len(lines) == 0 {
		return start
	}
	last := lines[len(lines)-1]
	if len(lines) == 1 {
		return Point{Line: start.Line, Column: start.Column + RuneLen(last)}
	}
	return Point{Line: start.Line + len(lines) - 1, Column: RuneLen(last)}
}

// Transform maps a point in pre-edit coordinates to post-edit coordinates.
// Points before the edit are unchanged, points inside the replaced range
// collapse to the end of the new text, and points at or after the range end
// move with the text that follows it.
func (e Edit) Transform(p Point) Point {
	if p.Before(e.Range.Start) {
		return p
	}
	newEnd := e.EndAfter()
	if p.Before(e.Range.End) {
		return newEnd
	}
	if p.Line == e.Range.End.Line {
		return Point{Line: newEnd.Line, Column: newEnd.Column + p.Column - e.Range.End.Column}
	}
	return Point{Line: p.Line + newEnd.Line - e.Range.End.Line, Column: p.Column}
}
