package app

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseKeys(t *testing.T) {
	tests := []struct {
		script string
		want   []Keystroke
	}{
		{"", nil},
		{"abc", []Keystroke{{Kind: KeyText, Text: "abc"}}},
		{"fn<tab>main<TAB>", []Keystroke{
			{Kind: KeyText, Text: "fn"},
			{Kind: KeyTab},
			{Kind: KeyText, Text: "main"},
			{Kind: KeyTab},
		}},
		{"<s-tab><bs><cr><esc><undo>", []Keystroke{
			{Kind: KeyBacktab},
			{Kind: KeyBackspace},
			{Kind: KeyEnter},
			{Kind: KeyEscape},
			{Kind: KeyUndo},
		}},
		{"a<lt>b", []Keystroke{{Kind: KeyText, Text: "a<b"}}},
		{"x < y", []Keystroke{{Kind: KeyText, Text: "x < y"}}},
		{"<>", []Keystroke{{Kind: KeyText, Text: "<>"}}},
		{"if a<b {", []Keystroke{{Kind: KeyText, Text: "if a<b {"}}},
		{"<<tab>", []Keystroke{{Kind: KeyText, Text: "<"}, {Kind: KeyTab}}},
	}

	for _, tt := range tests {
		t.Run(tt.script, func(t *testing.T) {
			got, err := ParseKeys(tt.script)
			if err != nil {
				t.Fatalf("ParseKeys(%q) error = %v", tt.script, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseKeys(%q) = %+v, want %+v", tt.script, got, tt.want)
			}
		})
	}
}

func TestParseKeysUnknown(t *testing.T) {
	if _, err := ParseKeys("a<f1>"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("ParseKeys(<f1>) error = %v, want ErrUnknownKey", err)
	}
}

func TestReplay(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"expand and fill", "fn<tab>main<tab>x int<tab>return<tab>after", "func main(x int) {\n\treturnafter\n}"},
		{"defaults kept", "fn<tab><tab><tab>", "func name() {\n\t\n}"},
		{"backwards", "fn<tab>a<tab>b<s-tab>c", "func c(b) {\n\t\n}"},
		{"mirror", "pair<tab>ab<bs>z", "az=az"},
		{"undo", "abc<undo>", ""},
		{"newline outside snippet", "a<cr>b", "a\nb"},
		{"plain tab", "x<tab>", "x\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t)
			keys, err := ParseKeys(tt.script)
			if err != nil {
				t.Fatal(err)
			}
			if err := s.Replay(keys); err != nil {
				t.Fatalf("Replay(%q) error = %v", tt.script, err)
			}
			if got := s.Text(); got != tt.want {
				t.Errorf("Replay(%q) text = %q, want %q", tt.script, got, tt.want)
			}
		})
	}
}

func TestReplayError(t *testing.T) {
	s := newTestSession(t)
	s.Close()

	err := s.Replay([]Keystroke{{Kind: KeyText, Text: "a"}})
	if !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("Replay() error = %v, want ErrSessionClosed", err)
	}
	if err.Error() != "key 1: "+ErrSessionClosed.Error() {
		t.Errorf("Replay() error = %q", err)
	}
}
