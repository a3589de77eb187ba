package binary

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/koda-format/koda/errs"
	"github.com/koda-format/koda/value"
)

// kod builds a document from raw section bytes: magic+version, then body.
func kod(body ...byte) []byte {
	data := []byte{0x4B, 0x4F, 0x44, 0x41, 0x01}
	return append(data, body...)
}

func decodeErrAt(t *testing.T, data []byte, sentinel error, offset int, opts ...DecodeOption) {
	t.Helper()
	_, err := Decode(data, opts...)
	require.Error(t, err)
	require.ErrorIs(t, err, sentinel)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.Equal(t, offset, de.Offset)
}

func TestDecode_EmptyObject(t *testing.T) {
	v, err := Decode(kod(
		0x00, 0x00, 0x00, 0x00, // dictionary count 0
		0x11, 0x00, 0x00, 0x00, 0x00, // object, 0 pairs
	))
	require.NoError(t, err)
	require.Equal(t, value.KindObject, v.Kind())
	require.Equal(t, 0, v.Len())
}

func TestDecode_TwoKeyObject(t *testing.T) {
	v, err := Decode(kod(
		0x00, 0x00, 0x00, 0x02,
		0x00, 0x00, 0x00, 0x01, 0x61, // "a"
		0x00, 0x00, 0x00, 0x01, 0x62, // "b"
		0x11, 0x00, 0x00, 0x00, 0x02,
		0x00, 0x00, 0x00, 0x00,
		0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x01,
		0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02,
	))
	require.NoError(t, err)
	require.Equal(t, 2, v.Len())
	a, _ := v.Get("a")
	require.Equal(t, int64(1), a.IntVal())
	b, _ := v.Get("b")
	require.Equal(t, int64(2), b.IntVal())
}

func TestDecode_ShortInput(t *testing.T) {
	for _, data := range [][]byte{nil, {0x4B}, {0x4B, 0x4F, 0x44, 0x41}} {
		_, err := Decode(data)
		require.ErrorIs(t, err, errs.ErrTruncatedValue)
	}
}

func TestDecode_BadMagic(t *testing.T) {
	data := []byte{0x4B, 0x4F, 0x44, 0x42, 0x01, 0, 0, 0, 0, 0x01}
	decodeErrAt(t, data, errs.ErrBadMagic, 3)
}

func TestDecode_BadVersion(t *testing.T) {
	// Unknown versions are rejected, not tolerated.
	data := kod(0, 0, 0, 0, 0x01)
	data[4] = 0x02
	decodeErrAt(t, data, errs.ErrBadVersion, 4)
}

func TestDecode_DictionaryNotSorted(t *testing.T) {
	// Keys "b" then "a": the violation is at the second entry.
	data := kod(
		0x00, 0x00, 0x00, 0x02,
		0x00, 0x00, 0x00, 0x01, 0x62, // "b"
		0x00, 0x00, 0x00, 0x01, 0x61, // "a"
		0x01, // null data
	)
	decodeErrAt(t, data, errs.ErrDictionaryNotSorted, 14)
}

func TestDecode_DictionaryDuplicate(t *testing.T) {
	// Equal adjacent keys are not strictly ascending either.
	data := kod(
		0x00, 0x00, 0x00, 0x02,
		0x00, 0x00, 0x00, 0x01, 0x61,
		0x00, 0x00, 0x00, 0x01, 0x61,
		0x01,
	)
	decodeErrAt(t, data, errs.ErrDictionaryNotSorted, 14)
}

func TestDecode_DictionaryTooLarge(t *testing.T) {
	data := kod(0x00, 0x00, 0x00, 0x03, 0x01)
	decodeErrAt(t, data, errs.ErrDictionaryTooLarge, 5, WithMaxDictionarySize(2))
}

func TestDecode_DictionaryKeyTooLong(t *testing.T) {
	data := kod(
		0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x05, 'a', 'b', 'c', 'd', 'e',
		0x01,
	)
	decodeErrAt(t, data, errs.ErrStringTooLong, 9, WithMaxStringLength(4))
}

func TestDecode_DictionaryInvalidUTF8(t *testing.T) {
	data := kod(
		0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x02, 'a', 0xFF,
		0x01,
	)
	// Offset of the first bad byte.
	decodeErrAt(t, data, errs.ErrInvalidUTF8, 14)
}

func TestDecode_UnknownTag(t *testing.T) {
	data := kod(0, 0, 0, 0, 0xAB)
	decodeErrAt(t, data, errs.ErrUnknownTag, 9)
}

func TestDecode_ReservedBinaryTag(t *testing.T) {
	// Tag 0x07 is reserved in v1 and must be rejected, not skipped.
	data := kod(0, 0, 0, 0, 0x07, 0, 0, 0, 0)
	decodeErrAt(t, data, errs.ErrUnknownTag, 9)
}

func TestDecode_TrailingBytes(t *testing.T) {
	data := kod(0, 0, 0, 0, 0x01, 0xFF)
	decodeErrAt(t, data, errs.ErrTrailingBytes, 10)
}

func TestDecode_StringValue(t *testing.T) {
	v, err := Decode(kod(0, 0, 0, 0, 0x06, 0, 0, 0, 2, 'h', 'i'))
	require.NoError(t, err)
	require.Equal(t, "hi", v.StringVal())

	// Length beyond the remaining bytes.
	decodeErrAt(t, kod(0, 0, 0, 0, 0x06, 0, 0, 0, 9, 'h', 'i'), errs.ErrTruncatedValue, 14)

	// Length beyond the string bound.
	decodeErrAt(t, kod(0, 0, 0, 0, 0x06, 0, 0, 0, 5, 'a', 'b', 'c', 'd', 'e'),
		errs.ErrStringTooLong, 10, WithMaxStringLength(4))

	// Invalid UTF-8 names the first bad byte.
	decodeErrAt(t, kod(0, 0, 0, 0, 0x06, 0, 0, 0, 2, 'h', 0xFE), errs.ErrInvalidUTF8, 15)
}

func TestDecode_IntValue(t *testing.T) {
	v, err := Decode(kod(0, 0, 0, 0, 0x04, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF))
	require.NoError(t, err)
	require.Equal(t, value.KindInt, v.Kind())
	require.Equal(t, int64(-1), v.IntVal())

	decodeErrAt(t, kod(0, 0, 0, 0, 0x04, 0x01), errs.ErrTruncatedValue, 10)
}

func TestDecode_FloatPreservesNaNPayload(t *testing.T) {
	v, err := Decode(kod(0, 0, 0, 0, 0x05, 0x7F, 0xF8, 0, 0, 0, 0, 0, 0x01))
	require.NoError(t, err)
	require.Equal(t, uint64(0x7FF8000000000001), math.Float64bits(v.FloatVal()))
}

func TestDecode_KeyIndexOutOfRange(t *testing.T) {
	data := kod(
		0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x01, 0x61,
		0x11, 0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x05, // index 5, dictionary has 1
		0x01,
	)
	decodeErrAt(t, data, errs.ErrKeyIndexRange, 19)
}

func TestDecode_KeyIndexOrder(t *testing.T) {
	// Indices 1 then 0: must be strictly ascending.
	data := kod(
		0x00, 0x00, 0x00, 0x02,
		0x00, 0x00, 0x00, 0x01, 0x61,
		0x00, 0x00, 0x00, 0x01, 0x62,
		0x11, 0x00, 0x00, 0x00, 0x02,
		0x00, 0x00, 0x00, 0x01, 0x01,
		0x00, 0x00, 0x00, 0x00, 0x01,
	)
	decodeErrAt(t, data, errs.ErrKeyIndexOrder, 29)

	// A repeated index is a duplicate key.
	dup := kod(
		0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x01, 0x61,
		0x11, 0x00, 0x00, 0x00, 0x02,
		0x00, 0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x00, 0x01,
	)
	decodeErrAt(t, dup, errs.ErrKeyIndexOrder, 19+5)
}

func TestDecode_DepthBound(t *testing.T) {
	// [[1]] has depth 3.
	data := kod(
		0, 0, 0, 0,
		0x10, 0, 0, 0, 1,
		0x10, 0, 0, 0, 1,
		0x04, 0, 0, 0, 0, 0, 0, 0, 1,
	)
	_, err := Decode(data, WithMaxDepth(3))
	require.NoError(t, err)
	decodeErrAt(t, data, errs.ErrDepthExceeded, 19, WithMaxDepth(2))
}

func TestDecode_ArrayTruncated(t *testing.T) {
	// Count 2 but only one element present.
	data := kod(0, 0, 0, 0, 0x10, 0, 0, 0, 2, 0x01)
	decodeErrAt(t, data, errs.ErrTruncatedValue, 15)

	// A huge count cannot force a huge allocation; it fails on the first
	// missing element.
	data = kod(0, 0, 0, 0, 0x10, 0xFF, 0xFF, 0xFF, 0xFF)
	decodeErrAt(t, data, errs.ErrTruncatedValue, 14)
}

func TestRoundTrip(t *testing.T) {
	values := []value.Value{
		value.Null(),
		value.Bool(true),
		value.Bool(false),
		value.Int(0),
		value.Int(math.MinInt64),
		value.Int(math.MaxInt64),
		value.Float(3.14159),
		value.Float(math.Inf(1)),
		value.Float(math.Copysign(0, -1)),
		value.String(""),
		value.String("héllo 𝄞"),
		value.Array(),
		value.Array(value.Int(1), value.String("x"), value.Null()),
		value.Object(),
		value.Object(
			value.Member{Key: "z", Value: value.Int(26)},
			value.Member{Key: "a", Value: value.Array(
				value.Object(value.Member{Key: "inner", Value: value.Float(1.0)}),
			)},
			value.Member{Key: "m", Value: value.String("middle")},
		),
	}
	for _, v := range values {
		data, err := Encode(v)
		require.NoError(t, err)
		back, err := Decode(data)
		require.NoError(t, err)
		require.True(t, value.Equal(v, back))
	}
}

// An Int beyond 2^53 survives the round trip as an Int, bit for bit.
func TestRoundTrip_LargeIntPreserved(t *testing.T) {
	v := value.Int(1<<62 + 12345)
	data, err := Encode(v)
	require.NoError(t, err)
	back, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, value.KindInt, back.Kind())
	require.Equal(t, int64(1<<62+12345), back.IntVal())
}

// Canonicalization is idempotent: re-encoding a decoded document yields
// the same bytes.
func TestRoundTrip_Idempotent(t *testing.T) {
	v := value.Object(
		value.Member{Key: "b", Value: value.Int(2)},
		value.Member{Key: "a", Value: value.Float(math.NaN())},
	)
	first, err := Encode(v)
	require.NoError(t, err)

	decoded, err := Decode(first)
	require.NoError(t, err)
	second, err := Encode(decoded)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
