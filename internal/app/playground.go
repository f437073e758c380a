package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/snipstorm/internal/engine"
	"github.com/dshills/snipstorm/internal/logging"
	"github.com/dshills/snipstorm/internal/renderer/backend"
)

const playgroundHelp = "Tab expand/next  S-Tab prev  Esc leave  C-z undo  C-r reload  C-q quit"

// Playground draws a session on a terminal backend and routes keys to it.
type Playground struct {
	session *Session
	backend backend.Backend
	logger  *log.Logger

	textStyle      tcell.Style
	stopStyle      tcell.Style
	mirrorStyle    tcell.Style
	statusStyle    tcell.Style
	selectionStyle tcell.Style

	message string
}

// NewPlayground creates a playground for s on b.
func NewPlayground(s *Session, b backend.Backend) *Playground {
	return &Playground{
		session:        s,
		backend:        b,
		logger:         s.logger,
		textStyle:      tcell.StyleDefault,
		stopStyle:      tcell.StyleDefault.Underline(true).Bold(true),
		mirrorStyle:    tcell.StyleDefault.Underline(true),
		statusStyle:    tcell.StyleDefault.Reverse(true),
		selectionStyle: tcell.StyleDefault.Reverse(true),
	}
}

// Run initializes the backend and processes events until quit, until the
// backend stops delivering events, or until ctx is done.
func (p *Playground) Run(ctx context.Context) error {
	if err := p.backend.Init(); err != nil {
		return NewComponentError("backend", "init", err)
	}

	stop := context.AfterFunc(ctx, p.backend.Shutdown)
	defer func() {
		if stop() {
			p.backend.Shutdown()
		}
	}()

	for {
		p.Render()
		ev := p.backend.PollEvent()
		if ev.Type == backend.EventNone {
			return ctx.Err()
		}
		if err := p.HandleEvent(ev); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			p.logger.Debug("playground key failed", logging.FieldError, err)
			p.message = err.Error()
		}
	}
}

// HandleEvent applies one backend event. It returns ErrQuit for the quit keys.
func (p *Playground) HandleEvent(ev backend.Event) error {
	if ev.Type != backend.EventKey {
		return nil
	}
	p.message = ""

	s := p.session
	switch ev.Key {
	case backend.KeyCtrlQ, backend.KeyCtrlC:
		return ErrQuit
	case backend.KeyRune:
		return s.Type(string(ev.Rune))
	case backend.KeyTab:
		return s.Tab(ev.Mod.Has(backend.ModShift))
	case backend.KeyBacktab:
		return s.Tab(true)
	case backend.KeyBackspace:
		return s.Backspace()
	case backend.KeyEnter:
		return s.Newline()
	case backend.KeyEscape:
		s.Escape()
	case backend.KeyCtrlZ:
		return s.Undo()
	case backend.KeyCtrlY:
		return s.Redo()
	case backend.KeyCtrlR:
		if err := s.Reload(); err != nil {
			return err
		}
		p.message = "snippets reloaded"
	case backend.KeyLeft:
		s.Move((*engine.Engine).MoveLeft)
	case backend.KeyRight:
		s.Move((*engine.Engine).MoveRight)
	case backend.KeyUp:
		s.Move((*engine.Engine).MoveUp)
	case backend.KeyDown:
		s.Move((*engine.Engine).MoveDown)
	case backend.KeyHome:
		s.Move(func(e *engine.Engine) {
			e.MoveCursor(engine.Point{Line: e.Cursor().Line})
		})
	case backend.KeyEnd:
		s.Move(func(e *engine.Engine) {
			line := e.Cursor().Line
			e.MoveCursor(engine.Point{Line: line, Column: e.LineLen(line)})
		})
	}
	return nil
}

// Render draws the document and the status line.
func (p *Playground) Render() {
	b := p.backend
	width, height := b.Size()
	if width <= 0 || height <= 0 {
		return
	}
	b.Clear()

	v := p.session.View()
	tabWidth := p.session.engine.TabWidth()
	cursorX, cursorY := -1, -1

	for y := 0; y < height-1 && y < len(v.Lines); y++ {
		x := 0
		rs := []rune(v.Lines[y])
		for col := 0; col <= len(rs); col++ {
			pos := engine.Point{Line: y, Column: col}
			if pos == v.Cursor {
				cursorX, cursorY = x, y
			}
			if col == len(rs) || x >= width {
				break
			}
			style := p.styleAt(v, pos)
			if rs[col] == '\t' {
				n := tabWidth - x%tabWidth
				x += b.SetString(x, y, strings.Repeat(" ", n), style)
				continue
			}
			x += b.SetString(x, y, string(rs[col]), style)
		}
	}

	b.SetString(0, height-1, padRight(p.status(v), width), p.statusStyle)

	if cursorX >= 0 && cursorX < width {
		b.ShowCursor(cursorX, cursorY)
	} else {
		b.HideCursor()
	}
	b.Show()
}

func (p *Playground) styleAt(v View, pos engine.Point) tcell.Style {
	switch {
	case v.Selection.Contains(pos):
		return p.selectionStyle
	case v.HasStop && v.StopSpan.Contains(pos):
		return p.stopStyle
	}
	for _, m := range v.Mirrors {
		if m.Contains(pos) {
			return p.mirrorStyle
		}
	}
	return p.textStyle
}

func (p *Playground) status(v View) string {
	var parts []string
	switch {
	case v.Trigger == "":
		parts = append(parts, "no snippet")
	case v.HasStop:
		parts = append(parts, fmt.Sprintf("%s: stop %d", v.Trigger, v.Stop))
	default:
		parts = append(parts, v.Trigger)
	}
	if v.Depth > 1 {
		parts = append(parts, fmt.Sprintf("depth %d", v.Depth))
	}
	parts = append(parts, fmt.Sprintf("%d:%d", v.Cursor.Line+1, v.Cursor.Column+1))
	if p.message != "" {
		parts = append(parts, p.message)
	} else {
		parts = append(parts, playgroundHelp)
	}
	return " " + strings.Join(parts, "  |  ")
}

func padRight(s string, width int) string {
	if n := width - backend.StringWidth(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}
