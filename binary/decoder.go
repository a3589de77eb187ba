package binary

import (
	"math"
	"unicode/utf8"

	"github.com/koda-format/koda/endian"
	"github.com/koda-format/koda/errs"
	"github.com/koda-format/koda/format"
	"github.com/koda-format/koda/internal/options"
	"github.com/koda-format/koda/value"
)

// wire is the byte order of the .kod format. Hosts of either endianness
// swap at this boundary.
var wire = endian.Wire()

// decodeConfig holds the decoder resource bounds.
type decodeConfig struct {
	maxDepth          int
	maxDictionarySize int
	maxStringLength   int
}

// DecodeOption configures Decode.
type DecodeOption = options.Option[*decodeConfig]

// WithMaxDepth bounds container nesting during decoding. Default 256.
func WithMaxDepth(n int) DecodeOption {
	return options.New(func(c *decodeConfig) error {
		if n <= 0 {
			return errs.ErrDepthExceeded
		}
		c.maxDepth = n

		return nil
	})
}

// WithMaxDictionarySize bounds the dictionary entry count. Default 65536.
func WithMaxDictionarySize(n int) DecodeOption {
	return options.NoError(func(c *decodeConfig) {
		c.maxDictionarySize = n
	})
}

// WithMaxStringLength bounds each dictionary key and string value, in
// bytes. Default 1,000,000.
func WithMaxStringLength(n int) DecodeOption {
	return options.NoError(func(c *decodeConfig) {
		c.maxStringLength = n
	})
}

// Decode validates data as a canonical .kod document and reconstructs its
// Value.
//
// Validation is fail-fast and strict: bad magic or version, an unsorted
// or oversized dictionary, unknown tags (including the reserved Binary
// tag), out-of-range or out-of-order key indices, invalid UTF-8, truncated
// bodies, and trailing bytes all reject with a *DecodeError carrying the
// byte offset of the violation. Allocation stays proportional to the
// validated portion of the input; length fields are checked against the
// remaining bytes before any allocation sized from them.
func Decode(data []byte, opts ...DecodeOption) (value.Value, error) {
	cfg := &decodeConfig{
		maxDepth:          format.DefaultMaxDepth,
		maxDictionarySize: format.DefaultMaxDictionarySize,
		maxStringLength:   format.DefaultMaxStringLength,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return value.Value{}, err
	}

	d := &decoder{data: data, cfg: cfg}

	if err := d.header(); err != nil {
		return value.Value{}, err
	}
	if err := d.dictionary(); err != nil {
		return value.Value{}, err
	}
	v, err := d.value(1)
	if err != nil {
		return value.Value{}, err
	}
	if d.off != len(d.data) {
		return value.Value{}, decodeErrf(d.off, errs.ErrTrailingBytes, "(%d bytes)", len(d.data)-d.off)
	}

	return v, nil
}

type decoder struct {
	data []byte
	off  int
	cfg  *decodeConfig
	keys []string
}

// need verifies n more bytes are available.
func (d *decoder) need(n int) error {
	if len(d.data)-d.off < n {
		return decodeErr(d.off, errs.ErrTruncatedValue)
	}

	return nil
}

func (d *decoder) u32() (uint32, error) {
	if err := d.need(4); err != nil {
		return 0, err
	}
	v := wire.Uint32(d.data[d.off:])
	d.off += 4

	return v, nil
}

func (d *decoder) u64() (uint64, error) {
	if err := d.need(8); err != nil {
		return 0, err
	}
	v := wire.Uint64(d.data[d.off:])
	d.off += 8

	return v, nil
}

// header verifies the magic bytes and format version.
func (d *decoder) header() error {
	if len(d.data) < format.HeaderSize {
		return decodeErr(len(d.data), errs.ErrTruncatedValue)
	}
	for i, c := range format.Magic {
		if d.data[i] != c {
			return decodeErr(i, errs.ErrBadMagic)
		}
	}
	if d.data[4] != format.Version {
		return decodeErrf(4, errs.ErrBadVersion, "0x%02X", d.data[4])
	}
	d.off = format.HeaderSize

	return nil
}

// dictionary reads the key table and verifies it is strictly ascending in
// UTF-8 byte order, which is what makes canonical input canonical.
func (d *decoder) dictionary() error {
	count, err := d.u32()
	if err != nil {
		return err
	}
	if int64(count) > int64(d.cfg.maxDictionarySize) {
		return decodeErrf(d.off-4, errs.ErrDictionaryTooLarge, "(%d > %d)", count, d.cfg.maxDictionarySize)
	}

	d.keys = make([]string, 0, min(int(count), 1024))
	for i := uint32(0); i < count; i++ {
		entryOff := d.off
		length, err := d.u32()
		if err != nil {
			return err
		}
		if int64(length) > int64(d.cfg.maxStringLength) {
			return decodeErrf(entryOff, errs.ErrStringTooLong, "(%d > %d)", length, d.cfg.maxStringLength)
		}
		if err := d.need(int(length)); err != nil {
			return err
		}
		raw := d.data[d.off : d.off+int(length)]
		if bad := firstInvalidUTF8(raw); bad >= 0 {
			return decodeErr(d.off+bad, errs.ErrInvalidUTF8)
		}
		key := string(raw)
		d.off += int(length)

		if i > 0 && d.keys[i-1] >= key {
			return decodeErrf(entryOff, errs.ErrDictionaryNotSorted, "at index %d", i)
		}
		d.keys = append(d.keys, key)
	}

	return nil
}

// value reads one encoded value. depth is the value's own depth, 1 at the
// root.
func (d *decoder) value(depth int) (value.Value, error) {
	if depth > d.cfg.maxDepth {
		return value.Value{}, decodeErrf(d.off, errs.ErrDepthExceeded, "(limit %d)", d.cfg.maxDepth)
	}
	tagOff := d.off
	if err := d.need(1); err != nil {
		return value.Value{}, err
	}
	tag := format.TypeTag(d.data[d.off])
	d.off++

	switch tag {
	case format.TagNull:
		return value.Null(), nil
	case format.TagFalse:
		return value.Bool(false), nil
	case format.TagTrue:
		return value.Bool(true), nil
	case format.TagInt:
		bits, err := d.u64()
		if err != nil {
			return value.Value{}, err
		}

		return value.Int(int64(bits)), nil
	case format.TagFloat:
		// The read bit pattern is preserved, including NaN payloads;
		// only the encoder canonicalizes NaN.
		bits, err := d.u64()
		if err != nil {
			return value.Value{}, err
		}

		return value.Float(math.Float64frombits(bits)), nil
	case format.TagString:
		return d.stringValue()
	case format.TagArray:
		return d.arrayValue(depth)
	case format.TagObject:
		return d.objectValue(depth)
	default:
		return value.Value{}, decodeErrf(tagOff, errs.ErrUnknownTag, "0x%02X", byte(tag))
	}
}

func (d *decoder) stringValue() (value.Value, error) {
	lenOff := d.off
	length, err := d.u32()
	if err != nil {
		return value.Value{}, err
	}
	if int64(length) > int64(d.cfg.maxStringLength) {
		return value.Value{}, decodeErrf(lenOff, errs.ErrStringTooLong, "(%d > %d)", length, d.cfg.maxStringLength)
	}
	if err := d.need(int(length)); err != nil {
		return value.Value{}, err
	}
	raw := d.data[d.off : d.off+int(length)]
	if bad := firstInvalidUTF8(raw); bad >= 0 {
		return value.Value{}, decodeErr(d.off+bad, errs.ErrInvalidUTF8)
	}
	d.off += int(length)

	return value.String(string(raw)), nil
}

func (d *decoder) arrayValue(depth int) (value.Value, error) {
	count, err := d.u32()
	if err != nil {
		return value.Value{}, err
	}
	// Elements are consumed progressively; the count alone never sizes an
	// allocation beyond the remaining input.
	elems := make([]value.Value, 0, min(int(count), 1024))
	for i := uint32(0); i < count; i++ {
		elem, err := d.value(depth + 1)
		if err != nil {
			return value.Value{}, err
		}
		elems = append(elems, elem)
	}

	return value.Array(elems...), nil
}

func (d *decoder) objectValue(depth int) (value.Value, error) {
	count, err := d.u32()
	if err != nil {
		return value.Value{}, err
	}
	members := make([]value.Member, 0, min(int(count), 1024))
	prev := int64(-1)
	for i := uint32(0); i < count; i++ {
		idxOff := d.off
		idx, err := d.u32()
		if err != nil {
			return value.Value{}, err
		}
		if int(idx) >= len(d.keys) {
			return value.Value{}, decodeErrf(idxOff, errs.ErrKeyIndexRange, "(%d >= %d)", idx, len(d.keys))
		}
		// Strictly ascending indices both reject duplicates and pin the
		// canonical pair order.
		if int64(idx) <= prev {
			return value.Value{}, decodeErrf(idxOff, errs.ErrKeyIndexOrder, "(%d after %d)", idx, prev)
		}
		prev = int64(idx)

		v, err := d.value(depth + 1)
		if err != nil {
			return value.Value{}, err
		}
		members = append(members, value.Member{Key: d.keys[idx], Value: v})
	}

	return value.Object(members...), nil
}

// firstInvalidUTF8 returns the index of the first invalid byte, or -1 if
// the slice is well-formed UTF-8.
func firstInvalidUTF8(b []byte) int {
	i := 0
	for i < len(b) {
		if b[i] < utf8.RuneSelf {
			i++
			continue
		}
		r, sz := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && sz == 1 {
			return i
		}
		i += sz
	}

	return -1
}
