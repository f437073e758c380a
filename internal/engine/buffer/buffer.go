package buffer

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Errors returned by buffer operations.
var (
	ErrPointOutOfRange = errors.New("point out of range")
	ErrRangeInvalid    = errors.New("invalid range")
)

// Buffer is a line-oriented text model.
// Lines never contain '\n'; carriage returns are dropped on input.
// All methods are thread-safe.
type Buffer struct {
	mu         sync.RWMutex
	lines      []string
	revisionID RevisionID
	tabWidth   int
}

// NewBuffer creates a new buffer holding a single empty line.
func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{
		lines:      []string{""},
		revisionID: NewRevisionID(),
		tabWidth:   4,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// NewBufferFromString creates a buffer with initial content.
func NewBufferFromString(s string, opts ...Option) *Buffer {
	b := NewBuffer(opts...)
	b.lines = SplitLines(s)
	return b
}

// NewBufferFromReader creates a buffer from an io.Reader.
func NewBufferFromReader(r io.Reader, opts ...Option) (*Buffer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewBufferFromString(string(data), opts...), nil
}

// Read Operations

// Text returns the full buffer content joined with '\n'.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return JoinLines(b.lines)
}

// String implements fmt.Stringer.
func (b *Buffer) String() string {
	return b.Text()
}

// Lines returns a copy of all lines.
func (b *Buffer) Lines() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// LineCount returns the number of lines (always at least 1).
func (b *Buffer) LineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines)
}

// LineText returns the text of a specific line.
func (b *Buffer) LineText(line int) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if line < 0 || line >= len(b.lines) {
		return "", fmt.Errorf("%w: line %d of %d", ErrPointOutOfRange, line, len(b.lines))
	}
	return b.lines[line], nil
}

// LineLen returns the rune length of a line, or 0 when out of range.
func (b *Buffer) LineLen(line int) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if line < 0 || line >= len(b.lines) {
		return 0
	}
	return RuneLen(b.lines[line])
}

// End returns the position just past the last rune.
func (b *Buffer) End() Point {
	b.mu.RLock()
	defer b.mu.RUnlock()
	last := len(b.lines) - 1
	return Point{Line: last, Column: RuneLen(b.lines[last])}
}

// TextRange returns the lines covered by [start, end).
// The first and last entries are partial lines.
func (b *Buffer) TextRange(start, end Point) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.textRangeLocked(start, end)
}

func (b *Buffer) textRangeLocked(start, end Point) ([]string, error) {
	if err := b.checkRangeLocked(start, end); err != nil {
		return nil, err
	}
	if start.Line == end.Line {
		return []string{RuneSlice(b.lines[start.Line], start.Column, end.Column)}, nil
	}
	out := make([]string, 0, end.Line-start.Line+1)
	out = append(out, RuneTail(b.lines[start.Line], start.Column))
	out = append(out, b.lines[start.Line+1:end.Line]...)
	out = append(out, RuneHead(b.lines[end.Line], end.Column))
	return out, nil
}

// ClampPoint clamps p into the document.
func (b *Buffer) ClampPoint(p Point) Point {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.clampLocked(p)
}

func (b *Buffer) clampLocked(p Point) Point {
	if p.Line < 0 {
		p.Line = 0
	}
	if p.Line >= len(b.lines) {
		p.Line = len(b.lines) - 1
	}
	if p.Column < 0 {
		p.Column = 0
	}
	if n := RuneLen(b.lines[p.Line]); p.Column > n {
		p.Column = n
	}
	return p
}

// Write Operations

// Replace substitutes the text in [start, end) with content and returns
// the end of the inserted text. The part of the start line before start and
// the part of the end line after end are kept.
func (b *Buffer) Replace(start, end Point, content []string) (Point, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.replaceLocked(start, end, content)
}

func (b *Buffer) replaceLocked(start, end Point, content []string) (Point, error) {
	if err := b.checkRangeLocked(start, end); err != nil {
		return Point{}, err
	}
	head := RuneHead(b.lines[start.Line], start.Column)
	tail := RuneTail(b.lines[end.Line], end.Column)
	b.spliceLocked(start.Line, end.Line, head, tail, content)
	b.revisionID = NewRevisionID()
	return EndOf(start, normalizeContent(content)), nil
}

// ReplaceLines rewrites whole lines [first, last] with head+content+tail.
// It is the primitive for adapters that keep their own line context.
func (b *Buffer) ReplaceLines(first, last int, head, tail string, content []string) (Point, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if first < 0 || last < first || last >= len(b.lines) {
		return Point{}, fmt.Errorf("%w: lines %d..%d of %d", ErrRangeInvalid, first, last, len(b.lines))
	}
	b.spliceLocked(first, last, head, tail, content)
	b.revisionID = NewRevisionID()
	return EndOf(Point{Line: first, Column: RuneLen(head)}, normalizeContent(content)), nil
}

// Insert inserts text at the given point.
// Returns the end position of the inserted text.
func (b *Buffer) Insert(at Point, text string) (Point, error) {
	return b.Replace(at, at, SplitLines(text))
}

// Delete removes text in the given range.
func (b *Buffer) Delete(start, end Point) error {
	_, err := b.Replace(start, end, []string{""})
	return err
}

// ApplyEdit applies a single edit to the buffer.
func (b *Buffer) ApplyEdit(edit Edit) (EditResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	old, err := b.textRangeLocked(edit.Range.Start, edit.Range.End)
	if err != nil {
		return EditResult{}, err
	}
	newEnd, err := b.replaceLocked(edit.Range.Start, edit.Range.End, edit.Lines())
	if err != nil {
		return EditResult{}, err
	}
	return EditResult{
		OldRange: edit.Range,
		NewRange: PointRange{Start: edit.Range.Start, End: newEnd},
		OldText:  JoinLines(old),
	}, nil
}

// EditResult contains information about an applied edit.
type EditResult struct {
	OldRange PointRange // The original range that was modified
	NewRange PointRange // The resulting range after the edit
	OldText  string     // The text that was replaced (if any)
}

// Buffer State

// RevisionID returns the current revision ID.
func (b *Buffer) RevisionID() RevisionID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revisionID
}

// IsEmpty returns true if the buffer holds a single empty line.
func (b *Buffer) IsEmpty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines) == 1 && b.lines[0] == ""
}

// TabWidth returns the buffer's tab width.
func (b *Buffer) TabWidth() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.tabWidth
}

func (b *Buffer) checkRangeLocked(start, end Point) error {
	if !start.Valid() || !end.Valid() || end.Before(start) {
		return fmt.Errorf("%w: %s", ErrRangeInvalid, NewPointRange(start, end))
	}
	if err := b.checkPointLocked(start); err != nil {
		return err
	}
	return b.checkPointLocked(end)
}

func (b *Buffer) checkPointLocked(p Point) error {
	if p.Line >= len(b.lines) || p.Column > RuneLen(b.lines[p.Line]) {
		return fmt.Errorf("%w: %s", ErrPointOutOfRange, p)
	}
	return nil
}

// spliceLocked replaces lines [first, last] with the stitched content.
func (b *Buffer) spliceLocked(first, last int, head, tail string, content []string) {
	content = normalizeContent(content)
	repl := make([]string, len(content))
	copy(repl, content)
	repl[0] = head + repl[0]
	repl[len(repl)-1] += tail

	lines := make([]string, 0, len(b.lines)-(last-first+1)+len(repl))
	lines = append(lines, b.lines[:first]...)
	lines = append(lines, repl...)
	lines = append(lines, b.lines[last+1:]...)
	b.lines = lines
}

// normalizeContent guarantees at least one line and strips embedded
// newlines by splitting them into separate lines.
func normalizeContent(content []string) []string {
	if len(content) == 0 {
		return []string{""}
	}
	for _, l := range content {
		if strings.ContainsAny(l, "\n\r") {
			return SplitLines(JoinLines(content))
		}
	}
	return content
}
