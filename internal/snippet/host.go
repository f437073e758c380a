package snippet

import (
	"github.com/dshills/snipstorm/internal/engine/buffer"
)

// Host is the editing surface a snippet expands into.
//
// Positions are zero-based with rune columns. ReplaceRange replaces
// [start, end) and returns the end of the inserted text. SelectRange selects
// length runes from anchor, counting a line break as one rune, so the next
// typed text replaces the selection.
type Host interface {
	LineText(line int) (string, error)
	ReadRange(start, end buffer.Point) ([]string, error)
	ReplaceRange(start, end buffer.Point, lines []string) (buffer.Point, error)
	Cursor() buffer.Point
	SetCursor(p buffer.Point) error
	SelectRange(anchor buffer.Point, length int) error
	Evaluate(code string) (string, error)
}

// textSink replaces a span of text and reports where the new text ends.
type textSink interface {
	replaceText(start, end buffer.Point, lines []string) (buffer.Point, error)
}

// textAdapter writes into an in-memory line model. A child region renders
// into its parent's text through one of these.
type textAdapter struct {
	buf *buffer.Buffer
}

func (a textAdapter) replaceText(start, end buffer.Point, lines []string) (buffer.Point, error) {
	return a.buf.Replace(start, end, lines)
}

// hostAdapter writes the root region into the live host.
// It rewrites whole lines from start.Line through end.Line and restores the
// line context captured at launch around the snippet text.
type hostAdapter struct {
	host   Host
	before string
	after  string
}

func (a hostAdapter) replaceText(start, end buffer.Point, lines []string) (buffer.Point, error) {
	last, err := a.host.LineText(end.Line)
	if err != nil {
		return buffer.Point{}, err
	}
	if len(lines) == 0 {
		lines = []string{""}
	}

	content := make([]string, len(lines))
	copy(content, lines)
	content[0] = a.before + content[0]
	content[len(content)-1] += a.after

	from := buffer.Point{Line: start.Line}
	to := buffer.Point{Line: end.Line, Column: buffer.RuneLen(last)}
	if _, err := a.host.ReplaceRange(from, to, content); err != nil {
		return buffer.Point{}, err
	}
	return buffer.EndOf(buffer.Point{Line: start.Line, Column: buffer.RuneLen(a.before)}, lines), nil
}
