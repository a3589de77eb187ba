package koda

import (
	"fmt"
	"os"
	"strings"

	"github.com/koda-format/koda/binary"
	"github.com/koda-format/koda/compress"
	"github.com/koda-format/koda/format"
	"github.com/koda-format/koda/internal/options"
	"github.com/koda-format/koda/text"
	"github.com/koda-format/koda/value"
)

// fileConfig holds the file helper settings.
type fileConfig struct {
	compression format.CompressionType
	textOpts    []text.Option
	decodeOpts  []binary.DecodeOption
	encodeOpts  []binary.EncodeOption
}

// FileOption configures LoadFile and SaveFile.
type FileOption = options.Option[*fileConfig]

// WithFileCompression applies a codec to the canonical encoded bytes of a
// binary file. Compression is option-driven on both save and load; the
// helpers never sniff. Text files are not compressed.
func WithFileCompression(c format.CompressionType) FileOption {
	return options.New(func(cfg *fileConfig) error {
		if _, err := compress.GetCodec(c); err != nil {
			return err
		}
		cfg.compression = c

		return nil
	})
}

// WithFileParseOptions passes parser bounds through for .koda files.
func WithFileParseOptions(opts ...text.Option) FileOption {
	return options.NoError(func(cfg *fileConfig) {
		cfg.textOpts = append(cfg.textOpts, opts...)
	})
}

// WithFileDecodeOptions passes decoder bounds through for binary files.
func WithFileDecodeOptions(opts ...binary.DecodeOption) FileOption {
	return options.NoError(func(cfg *fileConfig) {
		cfg.decodeOpts = append(cfg.decodeOpts, opts...)
	})
}

// WithFileEncodeOptions passes encoder bounds through for binary files.
func WithFileEncodeOptions(opts ...binary.EncodeOption) FileOption {
	return options.NoError(func(cfg *fileConfig) {
		cfg.encodeOpts = append(cfg.encodeOpts, opts...)
	})
}

// isTextPath reports whether path holds text syntax rather than binary.
func isTextPath(path string) bool {
	return strings.HasSuffix(path, ".koda")
}

// LoadFile reads a document from disk. Files ending in .koda parse as
// UTF-8 text; everything else decodes as binary, after decompression when
// a compression option is given.
func LoadFile(path string, opts ...FileOption) (value.Value, error) {
	cfg := &fileConfig{compression: format.CompressionNone}
	if err := options.Apply(cfg, opts...); err != nil {
		return value.Value{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return value.Value{}, err
	}

	if isTextPath(path) {
		return text.Parse(data, cfg.textOpts...)
	}

	codec, err := compress.GetCodec(cfg.compression)
	if err != nil {
		return value.Value{}, err
	}
	raw, err := codec.Decompress(data)
	if err != nil {
		return value.Value{}, fmt.Errorf("decompress %s: %w", path, err)
	}

	return binary.Decode(raw, cfg.decodeOpts...)
}

// SaveFile writes a document to disk. Files ending in .koda are written
// as text; everything else as canonical binary, compressed when a
// compression option is given.
func SaveFile(path string, v value.Value, opts ...FileOption) error {
	cfg := &fileConfig{compression: format.CompressionNone}
	if err := options.Apply(cfg, opts...); err != nil {
		return err
	}

	var data []byte
	if isTextPath(path) {
		s, err := Stringify(v, text.WithIndentWidth(2))
		if err != nil {
			return err
		}
		data = []byte(s)
	} else {
		raw, err := binary.Encode(v, cfg.encodeOpts...)
		if err != nil {
			return err
		}
		codec, err := compress.GetCodec(cfg.compression)
		if err != nil {
			return err
		}
		data, err = codec.Compress(raw)
		if err != nil {
			return fmt.Errorf("compress %s: %w", path, err)
		}
	}

	return os.WriteFile(path, data, 0o644)
}
