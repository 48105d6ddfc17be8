package flatobj

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLBrace
	tokRBrace
	tokLBracket
	tokColon
	tokComma
	tokString
	tokWord
)

type token struct {
	kind   tokenKind
	text   string
	offset int
}

// tokenizer splits a body into punctuation, quoted strings and bare words.
// Bare words are runs of letters, digits, '.', '+' and '-'.
type tokenizer struct {
	data []byte
	pos  int
}

func newTokenizer(data []byte) *tokenizer {
	return &tokenizer{data: data}
}

func (t *tokenizer) next() (token, error) {
	for t.pos < len(t.data) && isSpace(t.data[t.pos]) {
		t.pos++
	}
	if t.pos >= len(t.data) {
		return token{kind: tokEOF, offset: t.pos}, nil
	}

	start := t.pos
	c := t.data[t.pos]
	switch c {
	case '{':
		t.pos++
		return token{kind: tokLBrace, offset: start}, nil
	case '}':
		t.pos++
		return token{kind: tokRBrace, offset: start}, nil
	case '[':
		t.pos++
		return token{kind: tokLBracket, offset: start}, nil
	case ':':
		t.pos++
		return token{kind: tokColon, offset: start}, nil
	case ',':
		t.pos++
		return token{kind: tokComma, offset: start}, nil
	case '"':
		return t.quoted()
	}

	if !isWordByte(c) {
		return token{}, fmt.Errorf("%w: unexpected character %q at offset %d", ErrSyntax, c, start)
	}
	for t.pos < len(t.data) && isWordByte(t.data[t.pos]) {
		t.pos++
	}
	return token{kind: tokWord, text: string(t.data[start:t.pos]), offset: start}, nil
}

var unescapes = map[byte]byte{'"': '"', '\\': '\\', 'n': '\n', 'r': '\r', 't': '\t'}

// quoted reads a string token. The escapes are \" \\ \n \r and \t; any
// other backslash is kept literally.
func (t *tokenizer) quoted() (token, error) {
	start := t.pos
	t.pos++ // opening quote

	var sb strings.Builder
	for t.pos < len(t.data) {
		c := t.data[t.pos]
		switch {
		case c == '"':
			t.pos++
			return token{kind: tokString, text: sb.String(), offset: start}, nil
		case c == '\\' && t.pos+1 < len(t.data) && unescapes[t.data[t.pos+1]] != 0:
			sb.WriteByte(unescapes[t.data[t.pos+1]])
			t.pos += 2
		case c == '\n' || c == '\r':
			return token{}, fmt.Errorf("%w: line break in string at offset %d", ErrSyntax, t.pos)
		default:
			sb.WriteByte(c)
			t.pos++
		}
	}
	return token{}, fmt.Errorf("%w: unterminated string at offset %d", ErrSyntax, start)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isWordByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
		c == '.' || c == '+' || c == '-'
}
