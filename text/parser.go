// Package text implements the .koda text syntax: a parser producing Value
// trees with positioned errors, and a serializer emitting compact or
// indented text that parses back to a structurally equal Value.
package text

import (
	"github.com/koda-format/koda/errs"
	"github.com/koda-format/koda/format"
	"github.com/koda-format/koda/internal/options"
	"github.com/koda-format/koda/value"
)

// parseConfig holds the parser resource bounds.
type parseConfig struct {
	maxDepth       int
	maxInputLength int // 0 means unbounded
}

// Option configures Parse.
type Option = options.Option[*parseConfig]

// WithMaxDepth bounds container nesting. Parsing rejects documents whose
// depth exceeds n. Default 256.
func WithMaxDepth(n int) Option {
	return options.New(func(c *parseConfig) error {
		if n <= 0 {
			return errs.ErrDepthExceeded
		}
		c.maxDepth = n

		return nil
	})
}

// WithMaxInputLength rejects inputs longer than n bytes before parsing.
// Zero means unbounded, the default.
func WithMaxInputLength(n int) Option {
	return options.NoError(func(c *parseConfig) {
		c.maxInputLength = n
	})
}

// Parse parses one .koda document into a Value.
//
// A document is exactly one top-level value; a document that starts with a
// key and a colon is parsed as an object body without surrounding braces.
// All failures return a *ParseError carrying the line, column, and byte
// offset of the first offending byte.
func Parse(input []byte, opts ...Option) (value.Value, error) {
	cfg := &parseConfig{maxDepth: format.DefaultMaxDepth}
	if err := options.Apply(cfg, opts...); err != nil {
		return value.Value{}, err
	}
	if cfg.maxInputLength > 0 && len(input) > cfg.maxInputLength {
		doc := &posDoc{}
		return value.Value{}, doc.errAtf(0, errs.ErrInputTooLarge, "(%d > %d bytes)", len(input), cfg.maxInputLength)
	}

	p := &parser{s: newScanner(input), cfg: cfg}

	return p.parseDocument()
}

type parser struct {
	s   *scanner
	cfg *parseConfig
}

func (p *parser) doc() *posDoc {
	return p.s.doc
}

// parseDocument parses the single top-level value, allowing the braceless
// object form, and verifies nothing but separators follows it.
func (p *parser) parseDocument() (value.Value, error) {
	first, err := p.s.next()
	if err != nil {
		return value.Value{}, err
	}
	if first.typ == tEOF {
		return value.Value{}, p.doc().errAt(first.off, errs.ErrUnexpectedEOF)
	}

	// A key-shaped token followed by ':' opens a braceless top-level
	// object; anything else is an ordinary value document.
	if first.typ == tString || first.typ == tIdent {
		second, err := p.s.next()
		if err != nil {
			return value.Value{}, err
		}
		if second.typ == tColon {
			return p.parseObjectBody(first, tEOF, 1)
		}
		p.s.push(second)
	}

	v, err := p.parseValue(first, 1)
	if err != nil {
		return value.Value{}, err
	}

	tok, err := p.s.next()
	if err != nil {
		return value.Value{}, err
	}
	if tok.typ != tEOF {
		return value.Value{}, p.doc().errAt(tok.off, errs.ErrTrailingContent)
	}

	return v, nil
}

// parseValue parses the value beginning at tok. depth is the value's own
// depth, 1 for the document root.
func (p *parser) parseValue(tok token, depth int) (value.Value, error) {
	if depth > p.cfg.maxDepth {
		return value.Value{}, p.doc().errAtf(tok.off, errs.ErrDepthExceeded, "(limit %d)", p.cfg.maxDepth)
	}
	switch tok.typ {
	case tLBrace:
		key, err := p.s.next()
		if err != nil {
			return value.Value{}, err
		}
		if key.typ == tRBrace {
			return value.Object(), nil
		}
		colon, err := p.s.next()
		if err != nil {
			return value.Value{}, err
		}
		if colon.typ != tColon {
			return value.Value{}, p.doc().errAtf(colon.off, errs.ErrUnexpectedToken, "%s, expected ':'", colon.typ)
		}

		return p.parseObjectBody(key, tRBrace, depth)
	case tLBracket:
		return p.parseArrayBody(depth)
	case tString:
		return value.String(tok.str), nil
	case tIdent:
		switch tok.str {
		case "true":
			return value.Bool(true), nil
		case "false":
			return value.Bool(false), nil
		case "null":
			return value.Null(), nil
		default:
			return value.String(tok.str), nil
		}
	case tInt:
		return value.Int(tok.i), nil
	case tFloat:
		return value.Float(tok.f), nil
	case tEOF:
		return value.Value{}, p.doc().errAt(tok.off, errs.ErrUnexpectedEOF)
	default:
		return value.Value{}, p.doc().errAtf(tok.off, errs.ErrUnexpectedToken, "%s", tok.typ)
	}
}

// keyString converts a key-position token to its key text. true, false,
// and null are permitted as keys; context disambiguates them from value
// position.
func (p *parser) keyString(tok token) (string, error) {
	switch tok.typ {
	case tString, tIdent:
		return tok.str, nil
	default:
		return "", p.doc().errAtf(tok.off, errs.ErrUnexpectedToken, "%s, expected key", tok.typ)
	}
}

// parseObjectBody parses pairs after the first key token until the
// terminator (tRBrace for braced objects, tEOF for the braceless form).
// The first key's ':' has already been consumed. depth is the object's own
// depth; its values sit one level deeper.
func (p *parser) parseObjectBody(firstKey token, term tokenType, depth int) (value.Value, error) {
	var members []value.Member
	seen := make(map[string]struct{})

	keyTok := firstKey
	for {
		key, err := p.keyString(keyTok)
		if err != nil {
			return value.Value{}, err
		}
		if _, dup := seen[key]; dup {
			return value.Value{}, p.doc().errAtf(keyTok.off, errs.ErrDuplicateKey, "%q", key)
		}
		seen[key] = struct{}{}

		valTok, err := p.s.next()
		if err != nil {
			return value.Value{}, err
		}
		v, err := p.parseValue(valTok, depth+1)
		if err != nil {
			return value.Value{}, err
		}
		members = append(members, value.Member{Key: key, Value: v})

		tok, err := p.nextElement(term)
		if err != nil {
			return value.Value{}, err
		}
		if tok.typ == term {
			return value.Object(members...), nil
		}

		colon, err := p.s.next()
		if err != nil {
			return value.Value{}, err
		}
		if colon.typ != tColon {
			return value.Value{}, p.doc().errAtf(colon.off, errs.ErrUnexpectedToken, "%s, expected ':'", colon.typ)
		}
		keyTok = tok
	}
}

// parseArrayBody parses elements after '[' until ']'. depth is the
// array's own depth.
func (p *parser) parseArrayBody(depth int) (value.Value, error) {
	var elems []value.Value

	tok, err := p.s.next()
	if err != nil {
		return value.Value{}, err
	}
	if tok.typ == tRBracket {
		return value.Array(), nil
	}
	for {
		v, err := p.parseValue(tok, depth+1)
		if err != nil {
			return value.Value{}, err
		}
		elems = append(elems, v)

		tok, err = p.nextElement(tRBracket)
		if err != nil {
			return value.Value{}, err
		}
		if tok.typ == tRBracket {
			return value.Array(elems...), nil
		}
	}
}

// nextElement consumes the separator run after an element: at most one
// comma, in any mix with whitespace and comments (the scanner swallows
// those). It returns the terminator or the first token of the next
// element; a trailing comma before the terminator is allowed.
func (p *parser) nextElement(term tokenType) (token, error) {
	tok, err := p.s.next()
	if err != nil {
		return token{}, err
	}
	if tok.typ == tComma {
		tok, err = p.s.next()
		if err != nil {
			return token{}, err
		}
		if tok.typ == tComma {
			return token{}, p.doc().errAtf(tok.off, errs.ErrUnexpectedToken, "','")
		}
	}
	if tok.typ == tEOF && term != tEOF {
		return token{}, p.doc().errAt(tok.off, errs.ErrUnexpectedEOF)
	}

	return tok, nil
}
