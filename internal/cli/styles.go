package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/dshills/snipstorm/internal/app"
	"github.com/dshills/snipstorm/internal/engine"
)

// styles renders an expansion with its stops highlighted.
type styles struct {
	Stop   lipgloss.Style
	Mirror lipgloss.Style
	Text   lipgloss.Style
}

// newStyles creates styles bound to w. Without color every style renders
// the text unchanged.
func newStyles(w io.Writer, colorEnabled bool) styles {
	r := lipgloss.NewRenderer(w)
	if !colorEnabled {
		r.SetColorProfile(termenv.Ascii)
		plain := r.NewStyle().TabWidth(lipgloss.NoTabConversion)
		return styles{Stop: plain, Mirror: plain, Text: plain}
	}

	r.SetColorProfile(termenv.ANSI256)
	base := r.NewStyle().TabWidth(lipgloss.NoTabConversion)
	return styles{
		Stop:   base.Foreground(lipgloss.Color("12")).Bold(true).Underline(true),
		Mirror: base.Foreground(lipgloss.Color("13")).Underline(true),
		Text:   base,
	}
}

// colorEnabled resolves a --color mode for w.
func colorEnabled(mode string, w io.Writer) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto", "":
		f, ok := w.(*os.File)
		return ok && isatty.IsTerminal(f.Fd()), nil
	}
	return false, fmt.Errorf("%w: %q (want auto, always or never)", ErrInvalidColor, mode)
}

type spanClass int

const (
	classText spanClass = iota
	classStop
	classMirror
)

func classify(v app.View, p engine.Point) spanClass {
	if !v.HasStop {
		return classText
	}
	if v.StopSpan.Contains(p) {
		return classStop
	}
	for _, m := range v.Mirrors {
		if m.Contains(p) {
			return classMirror
		}
	}
	return classText
}

// render draws the document of v, styling runs of runes by the region they
// fall in.
func (st styles) render(v app.View) string {
	out := make([]string, len(v.Lines))
	for y, line := range v.Lines {
		var b strings.Builder
		rs := []rune(line)
		for start := 0; start < len(rs); {
			class := classify(v, engine.Point{Line: y, Column: start})
			end := start + 1
			for end < len(rs) && classify(v, engine.Point{Line: y, Column: end}) == class {
				end++
			}
			b.WriteString(st.style(class).Render(string(rs[start:end])))
			start = end
		}
		out[y] = b.String()
	}
	return strings.Join(out, "\n")
}

func (st styles) style(c spanClass) lipgloss.Style {
	switch c {
	case classStop:
		return st.Stop
	case classMirror:
		return st.Mirror
	}
	return st.Text
}
