package text

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/koda-format/koda/errs"
	"github.com/koda-format/koda/value"
)

func TestStringify_Scalars(t *testing.T) {
	tests := []struct {
		name string
		v    value.Value
		want string
	}{
		{"null", value.Null(), "null"},
		{"true", value.Bool(true), "true"},
		{"false", value.Bool(false), "false"},
		{"int", value.Int(42), "42"},
		{"negative int", value.Int(-7), "-7"},
		{"identifier string", value.String("my-app"), "my-app"},
		{"quoted string", value.String("two words"), `"two words"`},
		{"keyword-shaped string", value.String("true"), `"true"`},
		{"digit-leading string", value.String("123"), `"123"`},
		{"empty string", value.String(""), `""`},
		{"float", value.Float(1.5), "1.5"},
		{"integral float keeps a point", value.Float(1.0), "1.0"},
		{"negative zero", value.Float(math.Copysign(0, -1)), "-0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Stringify(tt.v)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestStringify_Compact(t *testing.T) {
	v := value.Object(
		value.Member{Key: "name", Value: value.String("my-app")},
		value.Member{Key: "tags", Value: value.Array(value.Int(1), value.Int(2))},
	)
	got, err := Stringify(v)
	require.NoError(t, err)
	require.Equal(t, "{name: my-app, tags: [1, 2]}", got)
}

func TestStringify_KeyOrderPreserved(t *testing.T) {
	v := value.Object(
		value.Member{Key: "b", Value: value.Int(2)},
		value.Member{Key: "a", Value: value.Int(1)},
	)
	got, err := Stringify(v)
	require.NoError(t, err)
	require.Equal(t, "{b: 2, a: 1}", got)
}

func TestStringify_KeyQuoting(t *testing.T) {
	v := value.Object(
		value.Member{Key: "plain_key", Value: value.Int(1)},
		value.Member{Key: "needs quoting", Value: value.Int(2)},
		value.Member{Key: "null", Value: value.Int(3)},
	)
	got, err := Stringify(v)
	require.NoError(t, err)
	require.Equal(t, `{plain_key: 1, "needs quoting": 2, "null": 3}`, got)
}

func TestStringify_Indented(t *testing.T) {
	v := value.Object(
		value.Member{Key: "a", Value: value.Int(1)},
		value.Member{Key: "b", Value: value.Array(value.Int(1), value.Int(2))},
	)
	got, err := Stringify(v, WithIndentWidth(2))
	require.NoError(t, err)
	require.Equal(t, "{\n  a: 1,\n  b: [\n    1,\n    2\n  ]\n}", got)

	got, err = Stringify(v, WithIndent("\t"), WithNewline("\r\n"))
	require.NoError(t, err)
	require.Equal(t, "{\r\n\ta: 1,\r\n\tb: [\r\n\t\t1,\r\n\t\t2\r\n\t]\r\n}", got)
}

func TestStringify_EmptyContainers(t *testing.T) {
	got, err := Stringify(value.Object(), WithIndentWidth(2))
	require.NoError(t, err)
	require.Equal(t, "{}", got)

	got, err = Stringify(value.Array(), WithIndentWidth(2))
	require.NoError(t, err)
	require.Equal(t, "[]", got)
}

func TestStringify_BadNewline(t *testing.T) {
	_, err := Stringify(value.Int(1), WithNewline("\r"))
	require.Error(t, err)
}

func TestStringify_NonFiniteFloats(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Stringify(value.Float(f))
		require.ErrorIs(t, err, errs.ErrNonFiniteFloat)
	}
}

func TestStringify_InvalidUTF8(t *testing.T) {
	_, err := Stringify(value.String("a\xffb"))
	require.ErrorIs(t, err, errs.ErrInvalidUTF8)

	_, err = Stringify(value.Object(value.Member{Key: "a\xff", Value: value.Int(1)}))
	require.ErrorIs(t, err, errs.ErrInvalidUTF8)
}

func TestStringify_ControlCharEscapes(t *testing.T) {
	got, err := Stringify(value.String("a\nb\tc\x01d"))
	require.NoError(t, err)
	require.Equal(t, "\"a\\nb\\tc\\u0001d\"", got)
}

// Text round-trip: parse(stringify(V)) is structurally equal to V for all
// values without non-finite floats.
func TestStringify_RoundTrip(t *testing.T) {
	values := []value.Value{
		value.Null(),
		value.Bool(true),
		value.Int(0),
		value.Int(-9223372036854775808),
		value.Int(9223372036854775807),
		value.Float(0.1),
		value.Float(1.0),
		value.Float(-2e300),
		value.Float(5e-324),
		value.Float(math.Copysign(0, -1)),
		value.String(""),
		value.String("identifier-ish"),
		value.String("true"),
		value.String("line\nbreak \"and\" quotes"),
		value.String("unicode: 𝄞 é"),
		value.Array(),
		value.Array(value.Int(1), value.String("two"), value.Null()),
		value.Object(
			value.Member{Key: "z", Value: value.Int(1)},
			value.Member{Key: "a", Value: value.Array(value.Float(2.5))},
			value.Member{Key: "nested", Value: value.Object(
				value.Member{Key: "true", Value: value.Bool(false)},
			)},
		),
	}
	for _, v := range values {
		for _, opts := range [][]StringifyOption{nil, {WithIndentWidth(4)}} {
			s, err := Stringify(v, opts...)
			require.NoError(t, err)
			back, err := Parse([]byte(s))
			require.NoError(t, err, "input: %s", s)
			require.True(t, value.Equal(v, back), "round trip of %s", s)
		}
	}
}

// Int and Float survive a text round trip as distinct kinds.
func TestStringify_KindPreservation(t *testing.T) {
	s, err := Stringify(value.Float(3.0))
	require.NoError(t, err)
	back, err := Parse([]byte(s))
	require.NoError(t, err)
	require.Equal(t, value.KindFloat, back.Kind())

	s, err = Stringify(value.Int(3))
	require.NoError(t, err)
	back, err = Parse([]byte(s))
	require.NoError(t, err)
	require.Equal(t, value.KindInt, back.Kind())
}
