// Package hash provides the key hashing used by the dictionary builder.
package hash

import "github.com/cespare/xxhash/v2"

// Key computes the xxHash64 of an object key.
func Key(k string) uint64 {
	return xxhash.Sum64String(k)
}
