// Package koda implements KODA (Compact Object Data Architecture), a
// structured data format with two faces: a human-authorable text syntax
// (.koda) and a canonical, deterministic binary encoding (.kod).
//
// KODA competes with JSON on size and with MessagePack on determinism and
// key deduplication. It targets bulk storage, archival payloads, and
// interchange between backend services.
//
// # Core Properties
//
//   - Canonical binary encoding: structurally equal values encode to
//     byte-identical output on every platform (big-endian wire format,
//     sorted key dictionary, canonical NaN)
//   - Key dictionary: object keys are deduplicated once per document and
//     referenced by index
//   - Strict decoding: unknown tags, non-canonical dictionaries, trailing
//     bytes, and invalid UTF-8 are all hard errors with byte offsets
//   - Bounded resources: depth, dictionary size, string length, and frame
//     size limits are enforced, never silently truncated
//   - Length-prefixed streaming: LEB128-framed records over byte streams
//     with incremental reassembly
//
// # Basic Usage
//
// Parsing text and encoding binary:
//
//	import "github.com/koda-format/koda"
//
//	v, err := koda.Parse([]byte(`name: my-app, version: 1`))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	data, err := koda.Encode(v)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	back, err := koda.Decode(data)
//
// Streaming a sequence of values:
//
//	w, _ := stream.NewWriter(conn)
//	for _, v := range values {
//	    if err := w.WriteValue(v); err != nil {
//	        return err
//	    }
//	}
//
// # Package Structure
//
// This package provides top-level wrappers around the value, text, binary,
// and stream packages, which can also be used directly.
package koda

import (
	"github.com/koda-format/koda/binary"
	"github.com/koda-format/koda/text"
	"github.com/koda-format/koda/value"
)

// Parse parses one .koda text document into a Value.
//
// Failures return a *text.ParseError with the line, column, and byte
// offset of the first offending byte.
//
// Example:
//
//	v, err := koda.Parse([]byte("x: 1e0"), text.WithMaxDepth(64))
func Parse(input []byte, opts ...text.Option) (value.Value, error) {
	return text.Parse(input, opts...)
}

// Stringify serializes a Value as .koda text. The output parses back to a
// structurally equal Value; object member order is preserved.
//
// Example:
//
//	s, err := koda.Stringify(v, text.WithIndentWidth(2))
func Stringify(v value.Value, opts ...text.StringifyOption) (string, error) {
	return text.Stringify(v, opts...)
}

// Encode serializes a Value into the canonical .kod binary form.
//
// Two calls with structurally equal Values produce byte-identical output,
// regardless of object member order or host endianness.
func Encode(v value.Value, opts ...binary.EncodeOption) ([]byte, error) {
	return binary.Encode(v, opts...)
}

// Decode validates a .kod document and reconstructs its Value
// synchronously on the caller's goroutine.
//
// Failures return a *binary.DecodeError carrying the byte offset of the
// violation. For off-thread decoding use DecodeAsync or a DecoderPool.
func Decode(data []byte, opts ...binary.DecodeOption) (value.Value, error) {
	return binary.Decode(data, opts...)
}
