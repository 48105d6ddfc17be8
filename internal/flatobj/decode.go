package flatobj

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Decoding errors. Use errors.Is to check for them.
var (
	ErrEmpty       = errors.New("flatobj: empty input")
	ErrSyntax      = errors.New("flatobj: syntax error")
	ErrTooDeep     = errors.New("flatobj: nesting too deep")
	ErrUnsupported = errors.New("flatobj: unsupported construct")
)

// maxDepth is the deepest object allowed. The status snapshot carries one
// nested group, so requests and snapshots both fit.
const maxDepth = 2

// Kind is the type of a scalar value.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindNull
	KindWord
)

// Value is a decoded scalar.
type Value struct {
	Kind Kind
	Raw  string
}

// Object is a decoded flat object. Keys of a nested group are joined with a
// dot ("network.ip").
type Object map[string]Value

// Decode parses a flat object. Whitespace between tokens is ignored.
func Decode(data []byte) (Object, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrEmpty
	}

	d := &decoder{tz: newTokenizer(data), obj: make(Object)}
	tok, err := d.tz.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokLBrace {
		return nil, syntaxErr(tok, "expected '{'")
	}
	if err := d.object("", 1); err != nil {
		return nil, err
	}

	tok, err = d.tz.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokEOF {
		return nil, syntaxErr(tok, "trailing data after object")
	}
	return d.obj, nil
}

type decoder struct {
	tz  *tokenizer
	obj Object
}

// object consumes members after an opening brace up to the closing brace.
func (d *decoder) object(prefix string, depth int) error {
	tok, err := d.tz.next()
	if err != nil {
		return err
	}
	if tok.kind == tokRBrace {
		return nil
	}

	for {
		if tok.kind != tokString {
			return syntaxErr(tok, "expected quoted key")
		}
		key := tok.text
		if prefix != "" {
			key = prefix + "." + key
		}

		colon, err := d.tz.next()
		if err != nil {
			return err
		}
		if colon.kind != tokColon {
			return syntaxErr(colon, "expected ':'")
		}

		val, err := d.tz.next()
		if err != nil {
			return err
		}
		switch val.kind {
		case tokString:
			d.obj[key] = Value{Kind: KindString, Raw: val.text}
		case tokWord:
			d.obj[key] = classify(val.text)
		case tokLBrace:
			if depth >= maxDepth {
				return fmt.Errorf("%w: at offset %d", ErrTooDeep, val.offset)
			}
			if err := d.object(key, depth+1); err != nil {
				return err
			}
		case tokLBracket:
			return fmt.Errorf("%w: array at offset %d", ErrUnsupported, val.offset)
		default:
			return syntaxErr(val, "expected value")
		}

		sep, err := d.tz.next()
		if err != nil {
			return err
		}
		switch sep.kind {
		case tokComma:
			if tok, err = d.tz.next(); err != nil {
				return err
			}
		case tokRBrace:
			return nil
		default:
			return syntaxErr(sep, "expected ',' or '}'")
		}
	}
}

func classify(word string) Value {
	switch word {
	case "true", "false":
		return Value{Kind: KindBool, Raw: word}
	case "null":
		return Value{Kind: KindNull, Raw: word}
	}
	if _, err := strconv.ParseFloat(word, 64); err == nil {
		return Value{Kind: KindNumber, Raw: word}
	}
	return Value{Kind: KindWord, Raw: word}
}

func syntaxErr(tok token, msg string) error {
	if tok.kind == tokEOF {
		return fmt.Errorf("%w: %s, got end of input", ErrSyntax, msg)
	}
	return fmt.Errorf("%w: %s at offset %d", ErrSyntax, msg, tok.offset)
}

// Has reports whether key is present.
func (o Object) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// String returns the raw text of key, or "" when absent.
func (o Object) String(key string) string {
	return o[key].Raw
}

// Int returns key as an integer. Fractional or non-numeric values are
// reported as not ok.
func (o Object) Int(key string) (int64, bool) {
	v, ok := o[key]
	if !ok || v.Kind != KindNumber {
		return 0, false
	}
	n, err := strconv.ParseInt(v.Raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Bool returns key as a boolean.
func (o Object) Bool(key string) (bool, bool) {
	v, ok := o[key]
	if !ok || v.Kind != KindBool {
		return false, false
	}
	return v.Raw == "true", true
}

// DurationSeconds returns the integral value of key, or fallback when the key
// is absent or not an integer.
func DurationSeconds(o Object, key string, fallback int64) int64 {
	if n, ok := o.Int(key); ok {
		return n
	}
	return fallback
}
