package app

import (
	"fmt"
	"strings"
)

// Keystroke is one step of a key script.
type Keystroke struct {
	Kind KeyKind
	Text string // for KeyText
}

// KeyKind identifies a key script step.
type KeyKind int

const (
	KeyText KeyKind = iota
	KeyTab
	KeyBacktab
	KeyBackspace
	KeyEnter
	KeyEscape
	KeyUndo
)

var keyNames = map[string]KeyKind{
	"tab":   KeyTab,
	"s-tab": KeyBacktab,
	"bs":    KeyBackspace,
	"cr":    KeyEnter,
	"esc":   KeyEscape,
	"undo":  KeyUndo,
}

// ParseKeys parses a key script: literal text mixed with <tab>, <s-tab>,
// <bs>, <cr>, <esc> and <undo>. <lt> types a literal "<". A "<" that does
// not start a bracketed name is literal too.
func ParseKeys(script string) ([]Keystroke, error) {
	var keys []Keystroke
	var text strings.Builder

	flush := func() {
		if text.Len() > 0 {
			keys = append(keys, Keystroke{Kind: KeyText, Text: text.String()})
			text.Reset()
		}
	}

	for len(script) > 0 {
		if script[0] != '<' {
			text.WriteByte(script[0])
			script = script[1:]
			continue
		}
		end := strings.IndexByte(script, '>')
		if end < 0 || strings.ContainsAny(script[1:end], "< \t\n") || end == 1 {
			text.WriteByte('<')
			script = script[1:]
			continue
		}

		name := strings.ToLower(script[1:end])
		script = script[end+1:]
		if name == "lt" {
			text.WriteByte('<')
			continue
		}
		kind, ok := keyNames[name]
		if !ok {
			return nil, fmt.Errorf("%w: <%s>", ErrUnknownKey, name)
		}
		flush()
		keys = append(keys, Keystroke{Kind: kind})
	}
	flush()
	return keys, nil
}

// Press applies one keystroke to the session.
func (s *Session) Press(k Keystroke) error {
	switch k.Kind {
	case KeyText:
		return s.Type(k.Text)
	case KeyTab:
		return s.Tab(false)
	case KeyBacktab:
		return s.Tab(true)
	case KeyBackspace:
		return s.Backspace()
	case KeyEnter:
		return s.Newline()
	case KeyEscape:
		s.Escape()
		return nil
	case KeyUndo:
		return s.Undo()
	}
	return fmt.Errorf("%w: kind %d", ErrUnknownKey, k.Kind)
}

// Replay presses keys in order and stops at the first error.
func (s *Session) Replay(keys []Keystroke) error {
	for i, k := range keys {
		if err := s.Press(k); err != nil {
			return fmt.Errorf("key %d: %w", i+1, err)
		}
	}
	return nil
}
