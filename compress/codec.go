// Package compress provides the codecs behind the compressed archival
// file helpers.
//
// Compression always wraps the canonical encoded bytes: a compressed
// `.kod` payload decompresses to exactly the bit-exact canonical form,
// so the canonical format itself never changes.
package compress

import (
	"fmt"

	"github.com/koda-format/koda/format"
)

// Compressor compresses one complete encoded document.
//
// The returned slice is newly allocated and owned by the caller; the
// input is never modified.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses Compressor. It validates the compressed framing
// and errors on corrupted or mismatched input.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions. All built-in codecs are stateless and
// safe for concurrent use.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec returns the built-in Codec for the given compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}
