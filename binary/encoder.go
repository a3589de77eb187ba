// Package binary implements the canonical .kod encoding: a deterministic,
// big-endian byte layout with a sorted key dictionary. Structurally equal
// Values encode to byte-identical output on every platform.
package binary

import (
	"math"
	"unicode/utf8"

	"github.com/koda-format/koda/errs"
	"github.com/koda-format/koda/format"
	"github.com/koda-format/koda/internal/dict"
	"github.com/koda-format/koda/internal/options"
	"github.com/koda-format/koda/internal/pool"
	"github.com/koda-format/koda/value"
)

// encodeConfig holds the encoder bounds.
type encodeConfig struct {
	maxDepth int
}

// EncodeOption configures Encode.
type EncodeOption = options.Option[*encodeConfig]

// WithEncodeMaxDepth bounds container nesting during encoding. Default 256.
func WithEncodeMaxDepth(n int) EncodeOption {
	return options.New(func(c *encodeConfig) error {
		if n <= 0 {
			return errs.ErrDepthExceeded
		}
		c.maxDepth = n

		return nil
	})
}

// Encode serializes a Value into the canonical binary form.
//
// The layout is magic "KODA", version 0x01, the sorted key dictionary,
// then one encoded value. Object pairs are emitted in ascending dictionary
// index order regardless of in-memory order, and every NaN collapses to
// the canonical quiet-NaN pattern, so two structurally equal Values always
// produce byte-identical output.
//
// The input tree is only borrowed; it is never mutated.
func Encode(v value.Value, opts ...EncodeOption) ([]byte, error) {
	cfg := &encodeConfig{maxDepth: format.DefaultMaxDepth}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	e := &encoder{
		cfg:  cfg,
		dict: dict.NewBuilder(math.MaxUint32),
	}

	// First pass: validate the tree and collect object keys.
	if err := e.collect(v, 1); err != nil {
		return nil, err
	}
	names := e.dict.Finish()

	buf := pool.GetEncodeBuffer()
	defer pool.PutEncodeBuffer(buf)

	buf.MustWrite(format.Magic[:])
	buf.B = append(buf.B, format.Version)
	buf.B = wire.AppendUint32(buf.B, uint32(len(names)))
	for _, name := range names {
		buf.B = wire.AppendUint32(buf.B, uint32(len(name)))
		buf.MustWrite([]byte(name))
	}

	e.emit(buf, v)

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())

	return out, nil
}

type encoder struct {
	cfg  *encodeConfig
	dict *dict.Builder
}

// collect walks the tree in pre-order, enforcing the depth bound,
// validating UTF-8 and key uniqueness, and interning every object key.
// depth is the value's own depth, 1 at the root.
func (e *encoder) collect(v value.Value, depth int) error {
	if depth > e.cfg.maxDepth {
		return encodeErr(errs.ErrDepthExceeded, "(limit %d)", e.cfg.maxDepth)
	}
	switch v.Kind() {
	case value.KindFloat:
		// Every float64 is a binary64; NaN and infinities are encodable.
		return nil
	case value.KindString:
		if !utf8.ValidString(v.StringVal()) {
			return encodeErr(errs.ErrInvalidUTF8, "in string value")
		}
		if uint64(len(v.StringVal())) > math.MaxUint32 {
			return encodeErr(errs.ErrValueTooLarge, "(string of %d bytes)", len(v.StringVal()))
		}

		return nil
	case value.KindArray:
		if uint64(v.Len()) > math.MaxUint32 {
			return encodeErr(errs.ErrValueTooLarge, "(array of %d elements)", v.Len())
		}
		for _, elem := range v.Elems() {
			if err := e.collect(elem, depth+1); err != nil {
				return err
			}
		}

		return nil
	case value.KindObject:
		if uint64(v.Len()) > math.MaxUint32 {
			return encodeErr(errs.ErrValueTooLarge, "(object of %d pairs)", v.Len())
		}
		seen := make(map[string]struct{}, v.Len())
		for _, m := range v.Members() {
			if !utf8.ValidString(m.Key) {
				return encodeErr(errs.ErrInvalidUTF8, "in object key")
			}
			if _, dup := seen[m.Key]; dup {
				return encodeErr(errs.ErrDuplicateKey, "%q", m.Key)
			}
			seen[m.Key] = struct{}{}
			if err := e.dict.Intern(m.Key); err != nil {
				return encodeErr(err, "")
			}
			if err := e.collect(m.Value, depth+1); err != nil {
				return err
			}
		}

		return nil
	default:
		return nil
	}
}

// emit writes the already-validated value. Objects are reordered into
// ascending dictionary-index order on the way out; the Value itself keeps
// its insertion order.
func (e *encoder) emit(buf *pool.ByteBuffer, v value.Value) {
	switch v.Kind() {
	case value.KindNull:
		buf.B = append(buf.B, byte(format.TagNull))
	case value.KindBool:
		if v.BoolVal() {
			buf.B = append(buf.B, byte(format.TagTrue))
		} else {
			buf.B = append(buf.B, byte(format.TagFalse))
		}
	case value.KindInt:
		buf.B = append(buf.B, byte(format.TagInt))
		buf.B = wire.AppendUint64(buf.B, uint64(v.IntVal()))
	case value.KindFloat:
		buf.B = append(buf.B, byte(format.TagFloat))
		buf.B = wire.AppendUint64(buf.B, floatBits(v.FloatVal()))
	case value.KindString:
		s := v.StringVal()
		buf.B = append(buf.B, byte(format.TagString))
		buf.B = wire.AppendUint32(buf.B, uint32(len(s)))
		buf.MustWrite([]byte(s))
	case value.KindArray:
		buf.B = append(buf.B, byte(format.TagArray))
		buf.B = wire.AppendUint32(buf.B, uint32(v.Len()))
		for _, elem := range v.Elems() {
			e.emit(buf, elem)
		}
	case value.KindObject:
		buf.B = append(buf.B, byte(format.TagObject))
		buf.B = wire.AppendUint32(buf.B, uint32(v.Len()))
		for _, m := range e.canonicalOrder(v) {
			id, _ := e.dict.ID(m.Key)
			buf.B = wire.AppendUint32(buf.B, id)
			e.emit(buf, m.Value)
		}
	}
}

// canonicalOrder returns the object's members sorted by dictionary index.
// Sorting happens once per encode and is never stored on the Value.
func (e *encoder) canonicalOrder(v value.Value) []value.Member {
	members := v.Members()
	ordered := make([]value.Member, len(members))
	copy(ordered, members)
	// Insertion sort by dictionary ID; objects are small in practice.
	for i := 1; i < len(ordered); i++ {
		m := ordered[i]
		id, _ := e.dict.ID(m.Key)
		j := i - 1
		for j >= 0 {
			jid, _ := e.dict.ID(ordered[j].Key)
			if jid <= id {
				break
			}
			ordered[j+1] = ordered[j]
			j--
		}
		ordered[j+1] = m
	}

	return ordered
}

// floatBits returns the wire bit pattern of f: every NaN collapses to the
// canonical quiet NaN, signed zeros and infinities keep their patterns.
func floatBits(f float64) uint64 {
	if math.IsNaN(f) {
		return format.CanonicalNaN
	}

	return math.Float64bits(f)
}
