package backend

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
)

// Cell is one screen position: a grapheme cluster and its style.
type Cell struct {
	Text  string
	Width int
	Style tcell.Style
}

// EmptyCell returns a blank cell in the default style.
func EmptyCell() Cell {
	return Cell{Text: " ", Width: 1, Style: tcell.StyleDefault}
}

// Runes splits the cell text in the primary and combining runes tcell expects.
func (c Cell) Runes() (rune, []rune) {
	rs := []rune(c.Text)
	if len(rs) == 0 {
		return ' ', nil
	}
	return rs[0], rs[1:]
}

// Graphemes splits s into cells of one grapheme cluster each. Zero-width
// clusters are dropped.
func Graphemes(s string, style tcell.Style) []Cell {
	var cells []Cell
	state := -1
	for len(s) > 0 {
		var cluster string
		var width int
		cluster, s, width, state = uniseg.FirstGraphemeClusterInString(s, state)
		if width == 0 {
			continue
		}
		cells = append(cells, Cell{Text: cluster, Width: width, Style: style})
	}
	return cells
}

// StringWidth returns the number of terminal columns s occupies.
func StringWidth(s string) int {
	return uniseg.StringWidth(s)
}
