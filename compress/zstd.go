package compress

// ZstdCompressor provides Zstandard compression for archived documents.
//
// Zstd favors compression ratio over speed, which fits koda's archival
// payloads: cold storage, long-term retention, and transfers where
// bandwidth matters more than encode latency.
//
// The default backend is the pure-Go implementation; a cgo backend over
// gozstd sits behind the nobuild tag.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a Zstd codec with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
