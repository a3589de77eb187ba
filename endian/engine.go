// Package endian provides the byte order engine used by the koda binary
// codec.
//
// The package combines the ByteOrder and AppendByteOrder interfaces of
// Go's standard encoding/binary package into a single EndianEngine
// interface, so encoders can use the faster append-style operations and
// decoders the read-style operations through one value.
//
// The koda wire format is big-endian regardless of host byte order, so
// nearly all callers want Wire:
//
//	engine := endian.Wire()
//	buf = engine.AppendUint32(buf, n)
//	n := engine.Uint32(data)
//
// Byte swapping on little-endian hosts happens at this boundary; values
// are never stored in on-wire form in memory.
//
// All returned engines are immutable and safe for concurrent use.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines the ByteOrder and AppendByteOrder interfaces from
// encoding/binary. It is satisfied by binary.BigEndian and
// binary.LittleEndian.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Wire returns the big-endian engine, the byte order of the koda wire
// format.
func Wire() EndianEngine {
	return binary.BigEndian
}

// Native returns the host's byte order, determined by probing a fixed
// integer value. Useful in tests that assert wire output is independent of
// host endianness.
func Native() binary.ByteOrder {
	// 0x0100 is 256. On a big-endian host the MSB (0x01) sits at the
	// lowest address.
	var i uint16 = 0x0100
	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}
