package stream

import (
	"errors"
	"io"

	"github.com/koda-format/koda/value"
)

// readChunkSize is how much Reader pulls from the underlying io.Reader at
// a time.
const readChunkSize = 32 * 1024

// Reader decodes a framed stream from an io.Reader, one Value per call.
//
// The Reader is cooperative: it consumes exactly as many bytes as the
// source yields and never blocks waiting for more than the next chunk.
// After any error the stream is destroyed and every later call returns
// the same error.
type Reader struct {
	src     io.Reader
	dec     *ChunkDecoder
	pending []value.Value
	chunk   []byte
	err     error
}

// NewReader creates a Reader over src.
func NewReader(src io.Reader, opts ...ReadOption) (*Reader, error) {
	r := &Reader{
		src:   src,
		chunk: make([]byte, readChunkSize),
	}
	dec, err := NewChunkDecoder(func(v value.Value) error {
		r.pending = append(r.pending, v)
		return nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	r.dec = dec

	return r, nil
}

// Next returns the next Value in frame order. It returns io.EOF when the
// source ends cleanly at a frame boundary, and a decode error in every
// other failure case, including a truncated-stream error for a source
// that ends inside a frame.
func (r *Reader) Next() (value.Value, error) {
	for {
		if len(r.pending) > 0 {
			v := r.pending[0]
			r.pending = r.pending[1:]

			return v, nil
		}
		if r.err != nil {
			return value.Value{}, r.err
		}

		n, err := r.src.Read(r.chunk)
		if n > 0 {
			if ferr := r.dec.Feed(r.chunk[:n]); ferr != nil {
				r.err = ferr
				return value.Value{}, ferr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if cerr := r.dec.Close(); cerr != nil {
					r.err = cerr
					return value.Value{}, cerr
				}
				r.err = io.EOF

				continue
			}
			r.err = err

			return value.Value{}, err
		}
	}
}

// All collects every remaining Value until clean end of stream.
func (r *Reader) All() ([]value.Value, error) {
	var out []value.Value
	for {
		v, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}
