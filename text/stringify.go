package text

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/koda-format/koda/errs"
	"github.com/koda-format/koda/internal/options"
	"github.com/koda-format/koda/value"
)

// stringifyConfig holds the serializer output settings.
type stringifyConfig struct {
	indent  string
	newline string
}

// StringifyOption configures Stringify.
type StringifyOption = options.Option[*stringifyConfig]

// WithIndent enables indented output using the given indentation unit.
// An empty string keeps the compact form.
func WithIndent(indent string) StringifyOption {
	return options.NoError(func(c *stringifyConfig) {
		c.indent = indent
	})
}

// WithIndentWidth enables indented output using n spaces per level.
func WithIndentWidth(n int) StringifyOption {
	return options.New(func(c *stringifyConfig) error {
		if n < 0 {
			return fmt.Errorf("indent width must not be negative: %d", n)
		}
		c.indent = strings.Repeat(" ", n)

		return nil
	})
}

// WithNewline sets the line terminator for indented output. Only "\n" and
// "\r\n" are accepted.
func WithNewline(nl string) StringifyOption {
	return options.New(func(c *stringifyConfig) error {
		if nl != "\n" && nl != "\r\n" {
			return fmt.Errorf("newline must be \"\\n\" or \"\\r\\n\"")
		}
		c.newline = nl

		return nil
	})
}

// Stringify serializes a Value as .koda text.
//
// The output parses back to a Value structurally equal to the input.
// Object members are emitted in their in-memory order. Keys and string
// values are left unquoted when they are identifier-shaped and not a
// keyword; everything else is double-quoted. Non-finite floats have no
// text form and are rejected.
func Stringify(v value.Value, opts ...StringifyOption) (string, error) {
	cfg := &stringifyConfig{newline: "\n"}
	if err := options.Apply(cfg, opts...); err != nil {
		return "", err
	}

	w := &textWriter{cfg: cfg}
	if err := w.writeValue(v, 0); err != nil {
		return "", err
	}

	return w.b.String(), nil
}

type textWriter struct {
	b   strings.Builder
	cfg *stringifyConfig
}

func (w *textWriter) indented() bool {
	return w.cfg.indent != ""
}

func (w *textWriter) newline(depth int) {
	w.b.WriteString(w.cfg.newline)
	for i := 0; i < depth; i++ {
		w.b.WriteString(w.cfg.indent)
	}
}

func (w *textWriter) writeValue(v value.Value, depth int) error {
	switch v.Kind() {
	case value.KindNull:
		w.b.WriteString("null")
	case value.KindBool:
		if v.BoolVal() {
			w.b.WriteString("true")
		} else {
			w.b.WriteString("false")
		}
	case value.KindInt:
		w.b.WriteString(strconv.FormatInt(v.IntVal(), 10))
	case value.KindFloat:
		return w.writeFloat(v.FloatVal())
	case value.KindString:
		return w.writeString(v.StringVal())
	case value.KindArray:
		return w.writeArray(v, depth)
	case value.KindObject:
		return w.writeObject(v, depth)
	}

	return nil
}

// writeFloat emits the shortest decimal form that re-parses to the same
// binary64, forcing a '.' or exponent so the literal stays a Float on
// re-parse. NaN and infinities have no text syntax.
func (w *textWriter) writeFloat(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return errs.ErrNonFiniteFloat
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	w.b.WriteString(s)

	return nil
}

// writeString emits s unquoted when identifier-shaped and not a keyword,
// double-quoted otherwise.
func (w *textWriter) writeString(s string) error {
	if !utf8.ValidString(s) {
		return errs.ErrInvalidUTF8
	}
	if isIdentifier(s) {
		w.b.WriteString(s)
		return nil
	}
	w.b.WriteString(quote(s))

	return nil
}

func (w *textWriter) writeArray(v value.Value, depth int) error {
	n := v.Len()
	if n == 0 {
		w.b.WriteString("[]")
		return nil
	}
	w.b.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			w.b.WriteByte(',')
			if !w.indented() {
				w.b.WriteByte(' ')
			}
		}
		if w.indented() {
			w.newline(depth + 1)
		}
		if err := w.writeValue(v.Elem(i), depth+1); err != nil {
			return err
		}
	}
	if w.indented() {
		w.newline(depth)
	}
	w.b.WriteByte(']')

	return nil
}

func (w *textWriter) writeObject(v value.Value, depth int) error {
	n := v.Len()
	if n == 0 {
		w.b.WriteString("{}")
		return nil
	}
	w.b.WriteByte('{')
	for i := 0; i < n; i++ {
		if i > 0 {
			w.b.WriteByte(',')
			if !w.indented() {
				w.b.WriteByte(' ')
			}
		}
		if w.indented() {
			w.newline(depth + 1)
		}
		m := v.Member(i)
		if !utf8.ValidString(m.Key) {
			return errs.ErrInvalidUTF8
		}
		if isIdentifier(m.Key) {
			w.b.WriteString(m.Key)
		} else {
			w.b.WriteString(quote(m.Key))
		}
		w.b.WriteString(": ")
		if err := w.writeValue(m.Value, depth+1); err != nil {
			return err
		}
	}
	if w.indented() {
		w.newline(depth)
	}
	w.b.WriteByte('}')

	return nil
}

// isIdentifier reports whether s can be emitted without quotes: it matches
// [A-Za-z_][A-Za-z0-9_-]* and is not a keyword.
func isIdentifier(s string) bool {
	if s == "" || !identStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !identPart(s[i]) {
			return false
		}
	}
	switch s {
	case "true", "false", "null":
		return false
	}

	return true
}

// quote emits s as a double-quoted string. Control characters outside the
// short escapes use \u00XX; everything else is emitted as raw UTF-8.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04X`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')

	return b.String()
}
