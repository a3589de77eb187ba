package text

import (
	"fmt"
	"sort"
)

// ParseError is the error type returned by Parse. It carries the 1-based
// line and column and the 0-based byte offset of the first offending byte,
// and wraps one of the sentinel values in the errs package.
type ParseError struct {
	Line   int
	Col    int
	Offset int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at line %d:%d (byte %d)", e.Err.Error(), e.Line, e.Col, e.Offset)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// posDoc maps byte offsets to line/column positions. Newline offsets are
// recorded as the scanner passes them, so any offset at or before the
// scan point can be resolved.
type posDoc struct {
	nl []int
}

// mark records a newline at byte offset i. Offsets must arrive in
// ascending order; repeats are ignored.
func (p *posDoc) mark(i int) {
	if n := len(p.nl); n > 0 && p.nl[n-1] >= i {
		return
	}
	p.nl = append(p.nl, i)
}

// lineCol resolves a byte offset to a 1-based line and column.
func (p *posDoc) lineCol(off int) (int, int) {
	n := len(p.nl)
	di := sort.Search(n, func(i int) bool {
		return p.nl[i] >= off
	})
	if di == 0 {
		return 1, off + 1
	}

	return di + 1, off - p.nl[di-1]
}

// errAt builds a ParseError for the given byte offset.
func (p *posDoc) errAt(off int, err error) *ParseError {
	line, col := p.lineCol(off)
	return &ParseError{Line: line, Col: col, Offset: off, Err: err}
}

// errAtf is errAt with detail text appended after the sentinel message,
// e.g. errAtf(off, errs.ErrDuplicateKey, "%q", key) yields
// `duplicate key "id" at line 3:5 (byte 12)`.
func (p *posDoc) errAtf(off int, sentinel error, format string, args ...any) *ParseError {
	return p.errAt(off, fmt.Errorf("%w %s", sentinel, fmt.Sprintf(format, args...)))
}
