// Package format defines the wire-level constants of the koda binary
// format: the file magic, the format version, the value type tags, and the
// compression types accepted by the file helpers.
package format

// Magic is the 4-byte prefix of every encoded document ("KODA").
var Magic = [4]byte{0x4B, 0x4F, 0x44, 0x41}

// Version is the only binary format version this module produces or accepts.
const Version byte = 0x01

// HeaderSize is the byte length of magic plus version.
const HeaderSize = 5

// TypeTag identifies the variant of an encoded value.
type TypeTag uint8

const (
	TagNull   TypeTag = 0x01 // TagNull has an empty body.
	TagFalse  TypeTag = 0x02 // TagFalse has an empty body.
	TagTrue   TypeTag = 0x03 // TagTrue has an empty body.
	TagInt    TypeTag = 0x04 // TagInt is followed by 8 bytes, signed big-endian.
	TagFloat  TypeTag = 0x05 // TagFloat is followed by 8 bytes, IEEE-754 binary64 big-endian.
	TagString TypeTag = 0x06 // TagString is followed by u32 length + UTF-8 bytes.
	TagBinary TypeTag = 0x07 // TagBinary is reserved; never emitted, rejected on decode.
	TagArray  TypeTag = 0x10 // TagArray is followed by u32 count + encoded elements.
	TagObject TypeTag = 0x11 // TagObject is followed by u32 pair count + (u32 key index, value) pairs.
)

func (t TypeTag) String() string {
	switch t {
	case TagNull:
		return "Null"
	case TagFalse:
		return "False"
	case TagTrue:
		return "True"
	case TagInt:
		return "Int"
	case TagFloat:
		return "Float"
	case TagString:
		return "String"
	case TagBinary:
		return "Binary"
	case TagArray:
		return "Array"
	case TagObject:
		return "Object"
	default:
		return "Unknown"
	}
}

// CanonicalNaN is the single quiet-NaN bit pattern the encoder emits for
// every NaN input. Decoders preserve whatever pattern they read.
const CanonicalNaN uint64 = 0x7FF8000000000000

// Default resource bounds. Each is configurable per call; exceeding a bound
// is a hard error, never a silent truncation.
const (
	DefaultMaxDepth          = 256
	DefaultMaxDictionarySize = 65536
	DefaultMaxStringLength   = 1000000
	DefaultMaxFrameSize      = 1024 * 1024 // 1MiB
)

// CompressionType selects the codec applied by the archival file helpers.
// Compression wraps the canonical encoded bytes; it is never part of the
// canonical format itself.
type CompressionType uint8

const (
	CompressionNone CompressionType = 0x1 // CompressionNone stores canonical bytes as-is.
	CompressionZstd CompressionType = 0x2 // CompressionZstd applies Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 applies S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 applies LZ4 block compression.
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
