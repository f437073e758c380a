package snippet

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/dshills/snipstorm/internal/engine/buffer"
)

type tokenKind uint8

const (
	tokenLiteral    tokenKind = iota // plain text
	tokenStop                        // ${N:default}
	tokenReference                   // $N
	tokenExpression                  // `!v code`
)

type token struct {
	kind   tokenKind
	text   string // literal text, default text or expression code
	number int
}

// scan splits a template into tokens in a single forward pass.
// Anything that does not form a complete marker is literal text.
func scan(template string) []token {
	var (
		tokens []token
		lit    strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, token{kind: tokenLiteral, text: lit.String()})
			lit.Reset()
		}
	}

	rs := []rune(template)
	for i := 0; i < len(rs); {
		if tok, n, ok := scanMarker(rs, i); ok {
			flush()
			tokens = append(tokens, tok)
			i += n
			continue
		}
		lit.WriteRune(rs[i])
		i++
	}
	flush()
	return tokens
}

// scanMarker tries to read a marker at rs[i] and returns it with the number
// of runes it covers.
func scanMarker(rs []rune, i int) (token, int, bool) {
	switch rs[i] {
	case '$':
		return scanDollar(rs, i)
	case '`':
		return scanExpression(rs, i)
	}
	return token{}, 0, false
}

func scanDollar(rs []rune, i int) (token, int, bool) {
	j := i + 1
	braced := j < len(rs) && rs[j] == '{'
	if braced {
		j++
	}

	k := j
	for k < len(rs) && rs[k] >= '0' && rs[k] <= '9' {
		k++
	}
	if k == j {
		return token{}, 0, false
	}
	number, err := strconv.Atoi(string(rs[j:k]))
	if err != nil {
		return token{}, 0, false
	}

	if !braced {
		return token{kind: tokenReference, number: number}, k - i, true
	}
	if k >= len(rs) || rs[k] != ':' {
		return token{}, 0, false
	}
	// The default ends at the first closing brace.
	for end := k + 1; end < len(rs); end++ {
		if rs[end] == '}' {
			return token{kind: tokenStop, number: number, text: string(rs[k+1 : end])}, end + 1 - i, true
		}
	}
	return token{}, 0, false
}

func scanExpression(rs []rune, i int) (token, int, bool) {
	const prefix = "`!v"
	j := i + len(prefix)
	if j >= len(rs) || string(rs[i:j]) != prefix || !unicode.IsSpace(rs[j]) {
		return token{}, 0, false
	}
	for k := j; k < len(rs); k++ {
		if rs[k] == '\\' && k+1 < len(rs) && rs[k+1] == '`' {
			k++
			continue
		}
		if rs[k] == '`' {
			code := strings.TrimSpace(strings.ReplaceAll(string(rs[j:k]), "\\`", "`"))
			return token{kind: tokenExpression, text: code}, k + 1 - i, true
		}
	}
	return token{}, 0, false
}

// parse materializes the markers of template as children of owner and
// returns owner's text with every marker removed. Each child starts where
// its marker stood in that text.
func (t *tree) parse(owner NodeID, template string) string {
	var (
		out strings.Builder
		pos buffer.Point
	)

	for _, tok := range scan(template) {
		switch tok.kind {
		case tokenLiteral:
			out.WriteString(tok.text)
			pos = buffer.EndOf(pos, buffer.SplitLines(tok.text))

		case tokenStop:
			id := t.add(&node{kind: KindTabStop, start: pos, end: pos, parent: owner, number: tok.number, source: noNode})
			t.nodes[id].text = buffer.NewBufferFromString(t.parse(id, tok.text))
			t.declare(owner, tok.number, id)

		case tokenReference:
			if src, ok := t.lookup(owner, tok.number); ok {
				t.add(&node{kind: KindMirror, start: pos, end: pos, parent: owner, source: src})
				continue
			}
			id := t.add(&node{kind: KindTabStop, start: pos, end: pos, parent: owner, number: tok.number, source: noNode})
			t.declare(owner, tok.number, id)

		case tokenExpression:
			t.add(&node{kind: KindExpression, start: pos, end: pos, parent: owner, code: tok.text, source: noNode})
		}
	}
	return out.String()
}
