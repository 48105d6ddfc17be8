package flatobj

import (
	"strconv"
	"strings"
)

// Encoder builds a flat object in insertion order. Begin/End open and close
// a single nested group.
type Encoder struct {
	sb    strings.Builder
	first []bool
}

// NewEncoder returns an encoder with the outer object already opened.
func NewEncoder() *Encoder {
	e := &Encoder{}
	e.sb.WriteByte('{')
	e.first = []bool{true}
	return e
}

func (e *Encoder) key(k string) {
	top := len(e.first) - 1
	if !e.first[top] {
		e.sb.WriteByte(',')
	}
	e.first[top] = false
	e.sb.WriteByte('"')
	e.sb.WriteString(quote(k))
	e.sb.WriteString(`":`)
}

// String writes a quoted string member.
func (e *Encoder) String(k, v string) *Encoder {
	e.key(k)
	e.sb.WriteByte('"')
	e.sb.WriteString(quote(v))
	e.sb.WriteByte('"')
	return e
}

// Int writes a numeric member.
func (e *Encoder) Int(k string, v int64) *Encoder {
	e.key(k)
	e.sb.WriteString(strconv.FormatInt(v, 10))
	return e
}

// Bool writes a boolean member.
func (e *Encoder) Bool(k string, v bool) *Encoder {
	e.key(k)
	e.sb.WriteString(strconv.FormatBool(v))
	return e
}

// Begin opens a nested group under k.
func (e *Encoder) Begin(k string) *Encoder {
	e.key(k)
	e.sb.WriteByte('{')
	e.first = append(e.first, true)
	return e
}

// End closes the current nested group.
func (e *Encoder) End() *Encoder {
	if len(e.first) > 1 {
		e.sb.WriteByte('}')
		e.first = e.first[:len(e.first)-1]
	}
	return e
}

// Bytes closes any open groups and the outer object and returns the result.
// The encoder must not be used afterwards.
func (e *Encoder) Bytes() []byte {
	for len(e.first) > 1 {
		e.End()
	}
	e.sb.WriteByte('}')
	return []byte(e.sb.String())
}

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

// quote escapes s for a string token. Other control bytes become '?'.
func quote(s string) string {
	s = strings.Map(func(r rune) rune {
		if (r < 0x20 && r != '\n' && r != '\r' && r != '\t') || r == 0x7f {
			return '?'
		}
		return r
	}, s)
	return escaper.Replace(s)
}
