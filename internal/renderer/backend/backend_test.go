package backend

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
)

func TestGraphemes(t *testing.T) {
	tests := []struct {
		in     string
		texts  []string
		widths []int
	}{
		{"ab", []string{"a", "b"}, []int{1, 1}},
		{"日本", []string{"日", "本"}, []int{2, 2}},
		{"éx", []string{"é", "x"}, []int{1, 1}},
		{"", nil, nil},
	}

	for _, tt := range tests {
		cells := Graphemes(tt.in, tcell.StyleDefault)
		if len(cells) != len(tt.texts) {
			t.Fatalf("Graphemes(%q) = %d cells, want %d", tt.in, len(cells), len(tt.texts))
		}
		for i, c := range cells {
			if c.Text != tt.texts[i] || c.Width != tt.widths[i] {
				t.Errorf("Graphemes(%q)[%d] = %q/%d, want %q/%d", tt.in, i, c.Text, c.Width, tt.texts[i], tt.widths[i])
			}
		}
	}

	if got := StringWidth("a日"); got != 3 {
		t.Errorf("StringWidth() = %d, want 3", got)
	}
}

func TestNullBackendSetString(t *testing.T) {
	b := NewNullBackend(6, 2)
	if err := b.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if n := b.SetString(0, 0, "a日b", tcell.StyleDefault); n != 4 {
		t.Errorf("SetString() = %d columns, want 4", n)
	}
	if got := b.Row(0); got != "a日b  " {
		t.Errorf("Row(0) = %q, want %q", got, "a日b  ")
	}

	// Clipped at the right edge.
	if n := b.SetString(4, 1, "xyz", tcell.StyleDefault); n != 2 {
		t.Errorf("clipped SetString() = %d columns, want 2", n)
	}
	if got := b.Row(1); got != "    xy" {
		t.Errorf("Row(1) = %q", got)
	}

	b.Clear()
	if got := b.Row(0); got != strings.Repeat(" ", 6) {
		t.Errorf("Row(0) after Clear = %q", got)
	}
}

func TestNullBackendEvents(t *testing.T) {
	b := NewNullBackend(10, 2)
	b.Init()

	if ev := b.PollEvent(); ev.Type != EventNone {
		t.Errorf("PollEvent() on empty queue = %v, want EventNone", ev.Type)
	}
	b.PostEvent(Event{Type: EventKey, Key: KeyTab})
	if ev := b.PollEvent(); ev.Key != KeyTab {
		t.Errorf("PollEvent() = %+v, want tab", ev)
	}

	b.ShowCursor(3, 1)
	if x, y, ok := b.CursorPosition(); x != 3 || y != 1 || !ok {
		t.Errorf("CursorPosition() = %d, %d, %v", x, y, ok)
	}
	b.HideCursor()
	if _, _, ok := b.CursorPosition(); ok {
		t.Error("cursor should be hidden")
	}
}

func TestConvertKey(t *testing.T) {
	tests := []struct {
		in   tcell.Key
		want Key
	}{
		{tcell.KeyTab, KeyTab},
		{tcell.KeyBacktab, KeyBacktab},
		{tcell.KeyBackspace, KeyBackspace},
		{tcell.KeyBackspace2, KeyBackspace},
		{tcell.KeyEnter, KeyEnter},
		{tcell.KeyCtrlQ, KeyCtrlQ},
		{tcell.KeyF5, KeyNone},
	}
	for _, tt := range tests {
		if got := convertKey(tt.in); got != tt.want {
			t.Errorf("convertKey(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, k := range []Key{KeyTab, KeyBacktab, KeyBackspace, KeyEnter, KeyLeft, KeyCtrlZ} {
		if got := convertKey(convertToTcellKey(k)); got != k {
			t.Errorf("round trip of %v = %v", k, got)
		}
	}

	if got := convertMod(convertToTcellMod(ModShift | ModAlt)); got != ModShift|ModAlt {
		t.Errorf("modifier round trip = %v", got)
	}
}

func TestSimulationTerminal(t *testing.T) {
	term := NewSimulationTerminal(20, 4)
	if err := term.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer term.Shutdown()

	if w, h := term.Size(); w != 20 || h != 4 {
		t.Errorf("Size() = %d, %d; want 20, 4", w, h)
	}

	style := tcell.StyleDefault.Reverse(true)
	if n := term.SetString(1, 2, "日x", style); n != 3 {
		t.Errorf("SetString() = %d, want 3", n)
	}
	term.Show()

	cell := term.GetCell(1, 2)
	if cell.Text != "日" || cell.Width != 2 {
		t.Errorf("GetCell(1, 2) = %+v, want 日 of width 2", cell)
	}
	if cell.Style != style {
		t.Errorf("GetCell style = %v, want %v", cell.Style, style)
	}
	if got := term.GetCell(3, 2).Text; got != "x" {
		t.Errorf("GetCell(3, 2) = %q, want x", got)
	}

	events := make(chan Event, 1)
	go func() {
		for {
			ev := term.PollEvent()
			if ev.Type == EventKey || ev.Type == EventNone {
				events <- ev
				return
			}
		}
	}()
	term.PostEvent(Event{Type: EventKey, Key: KeyRune, Rune: 'q'})

	select {
	case ev := <-events:
		if ev.Key != KeyRune || ev.Rune != 'q' {
			t.Errorf("PollEvent() = %+v, want rune q", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for posted event")
	}
}
