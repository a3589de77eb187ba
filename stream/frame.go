// Package stream composes encoded values into a length-prefixed byte
// stream and reassembles them on the way back.
//
// Each record on the wire is one frame: the payload byte count as an
// unsigned LEB128 varint, followed by the payload, which is exactly the
// canonical encoding of one Value. Frames carry no alignment or padding.
//
// The decode side is a push-style state machine (ChunkDecoder) that
// accepts arbitrary byte chunks: a frame length and its payload may be
// split across any number of chunks, and the document decoder runs exactly
// once per frame, only when the full frame has arrived. Reader and Writer
// wrap the state machine for io.Reader/io.Writer plumbing, where
// backpressure is the blocking call itself.
package stream

import (
	"fmt"

	"github.com/koda-format/koda/binary"
	"github.com/koda-format/koda/errs"
	"github.com/koda-format/koda/format"
	"github.com/koda-format/koda/internal/options"
	"github.com/koda-format/koda/value"
)

// maxVarintBytes is the longest accepted LEB128 length prefix. Ten 7-bit
// groups cover a full uint64; anything longer is malformed.
const maxVarintBytes = 10

// appendUvarint appends v as unsigned LEB128: 7 payload bits per byte,
// high bit set on every byte but the last.
func appendUvarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}

	return append(buf, byte(v))
}

// readConfig holds the decode-stream bounds.
type readConfig struct {
	maxFrameSize int
	decodeOpts   []binary.DecodeOption
}

// ReadOption configures ChunkDecoder and Reader.
type ReadOption = options.Option[*readConfig]

// WithMaxFrameSize bounds a single frame's payload size. Default 1MiB.
func WithMaxFrameSize(n int) ReadOption {
	return options.New(func(c *readConfig) error {
		if n <= 0 {
			return fmt.Errorf("max frame size must be positive: %d", n)
		}
		c.maxFrameSize = n

		return nil
	})
}

// WithDecodeOptions passes document-decoder bounds (depth, dictionary,
// string length) through to the per-frame decode.
func WithDecodeOptions(opts ...binary.DecodeOption) ReadOption {
	return options.NoError(func(c *readConfig) {
		c.decodeOpts = append(c.decodeOpts, opts...)
	})
}

// streamErr builds the decode error for a frame-level failure at the
// given absolute stream offset.
func streamErr(off int64, sentinel error) *binary.DecodeError {
	return &binary.DecodeError{Offset: int(off), Err: sentinel}
}

type chunkState int

const (
	stateReadLen chunkState = iota
	stateReadPayload
)

// ChunkDecoder reassembles frames from arbitrary byte chunks and emits one
// Value per complete frame.
//
// Any error (malformed varint, oversized frame, payload decode failure,
// truncation at Close) destroys the stream: the error sticks and every
// later call returns it. Error offsets are relative to the start of the
// stream. The internal buffer never grows past the frame-size bound plus
// the partial varint bytes.
type ChunkDecoder struct {
	cfg  *readConfig
	emit func(value.Value) error

	state      chunkState
	length     uint64
	shift      uint
	varBytes   int
	frameStart int64
	payload    []byte
	off        int64
	err        error
}

// NewChunkDecoder creates a ChunkDecoder that calls emit for every decoded
// Value, in frame order. If emit returns an error, the stream is destroyed
// with it.
func NewChunkDecoder(emit func(value.Value) error, opts ...ReadOption) (*ChunkDecoder, error) {
	cfg := &readConfig{maxFrameSize: format.DefaultMaxFrameSize}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &ChunkDecoder{cfg: cfg, emit: emit}, nil
}

// Feed consumes one chunk. Chunk boundaries are arbitrary; a single byte
// at a time is fine.
func (d *ChunkDecoder) Feed(chunk []byte) error {
	if d.err != nil {
		return d.err
	}
	for len(chunk) > 0 {
		switch d.state {
		case stateReadLen:
			if d.varBytes == 0 {
				d.frameStart = d.off
			}
			b := chunk[0]
			chunk = chunk[1:]
			d.off++
			if err := d.lenByte(b); err != nil {
				return d.fail(err)
			}
		case stateReadPayload:
			want := int(d.length) - len(d.payload)
			take := min(want, len(chunk))
			d.payload = append(d.payload, chunk[:take]...)
			chunk = chunk[take:]
			d.off += int64(take)
			if len(d.payload) == int(d.length) {
				if err := d.finishFrame(); err != nil {
					return d.fail(err)
				}
			}
		}
	}

	return nil
}

// lenByte folds one byte into the LEB128 length and switches to payload
// collection on the final byte.
func (d *ChunkDecoder) lenByte(b byte) error {
	d.varBytes++
	if d.varBytes > maxVarintBytes {
		return streamErr(d.frameStart, errs.ErrMalformedVarint)
	}
	if d.shift == 63 && b > 1 {
		// The 10th byte may only contribute the top bit of a uint64.
		return streamErr(d.frameStart, errs.ErrMalformedVarint)
	}
	d.length |= uint64(b&0x7F) << d.shift
	if b&0x80 != 0 {
		d.shift += 7
		return nil
	}

	if d.length > uint64(d.cfg.maxFrameSize) {
		return streamErr(d.frameStart, fmt.Errorf("%w (%d > %d)", errs.ErrFrameTooLarge, d.length, d.cfg.maxFrameSize))
	}
	d.state = stateReadPayload
	if d.payload == nil {
		d.payload = make([]byte, 0, min(int(d.length), 4096))
	}
	if d.length == 0 {
		return d.finishFrame()
	}

	return nil
}

// finishFrame decodes the buffered payload, emits the Value, and resets
// for the next length prefix.
func (d *ChunkDecoder) finishFrame() error {
	payloadStart := d.off - int64(len(d.payload))
	v, err := binary.Decode(d.payload, d.cfg.decodeOpts...)
	if err != nil {
		// Rebase the document decoder's offset onto the stream.
		if de, ok := err.(*binary.DecodeError); ok {
			return &binary.DecodeError{Offset: int(payloadStart) + de.Offset, Err: de.Err}
		}

		return err
	}

	d.state = stateReadLen
	d.length = 0
	d.shift = 0
	d.varBytes = 0
	d.payload = d.payload[:0]

	return d.emit(v)
}

// fail records the terminal error.
func (d *ChunkDecoder) fail(err error) error {
	d.err = err
	return err
}

// Close marks the end of input. A partially buffered frame, whether
// length bytes or payload, is a truncated stream.
func (d *ChunkDecoder) Close() error {
	if d.err != nil {
		return d.err
	}
	if d.state == stateReadPayload || d.varBytes > 0 {
		return d.fail(streamErr(d.frameStart, errs.ErrTruncatedStream))
	}
	d.err = errs.ErrStreamClosed

	return nil
}

// Offset returns the number of stream bytes consumed so far.
func (d *ChunkDecoder) Offset() int64 {
	return d.off
}
