package stream

import (
	"io"

	"github.com/koda-format/koda/binary"
	"github.com/koda-format/koda/internal/options"
	"github.com/koda-format/koda/internal/pool"
	"github.com/koda-format/koda/value"
)

// writeConfig holds the encode-stream settings.
type writeConfig struct {
	encodeOpts []binary.EncodeOption
}

// WriteOption configures Writer.
type WriteOption = options.Option[*writeConfig]

// WithEncodeOptions passes encoder bounds through to the per-frame encode.
func WithEncodeOptions(opts ...binary.EncodeOption) WriteOption {
	return options.NoError(func(c *writeConfig) {
		c.encodeOpts = append(c.encodeOpts, opts...)
	})
}

// Writer frames Values onto an io.Writer.
//
// Each WriteValue encodes the Value, prepends the LEB128 payload length,
// and hands the whole frame to the sink in one Write call. Frames appear
// on the wire in write order. Backpressure is the sink's own blocking:
// WriteValue returns only when the sink has accepted the frame.
type Writer struct {
	sink io.Writer
	cfg  *writeConfig
	off  int64
	err  error
}

// NewWriter creates a Writer over sink.
func NewWriter(sink io.Writer, opts ...WriteOption) (*Writer, error) {
	cfg := &writeConfig{}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &Writer{sink: sink, cfg: cfg}, nil
}

// WriteValue encodes v and writes one frame. A sink error destroys the
// stream; later calls return the same error.
func (w *Writer) WriteValue(v value.Value) error {
	if w.err != nil {
		return w.err
	}
	payload, err := binary.Encode(v, w.cfg.encodeOpts...)
	if err != nil {
		return err
	}

	buf := pool.GetFrameBuffer()
	defer pool.PutFrameBuffer(buf)
	buf.B = appendUvarint(buf.B, uint64(len(payload)))
	buf.MustWrite(payload)

	if _, err := buf.WriteTo(w.sink); err != nil {
		w.err = err
		return err
	}
	w.off += int64(buf.Len())

	return nil
}

// Offset returns the number of bytes handed to the sink so far.
func (w *Writer) Offset() int64 {
	return w.off
}
