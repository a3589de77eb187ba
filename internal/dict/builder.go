// Package dict builds the key dictionary of an encoded document: the
// deduplicated, lexicographically sorted list of every key used by any
// object, referenced by index from object bodies.
//
// Keys are interned by xxHash64 with byte-compare verification on hash
// hits, so deduplication never trusts the hash alone.
package dict

import (
	"sort"

	"github.com/koda-format/koda/errs"
	"github.com/koda-format/koda/internal/hash"
)

// Builder collects keys during the encoder's pre-order traversal, then
// sorts them once and assigns dictionary IDs.
type Builder struct {
	byHash map[uint64][]uint32 // hash → positions in names
	names  []string            // first-seen order
	ids    []uint32            // canonical ID per position, set by Finish
	limit  int
	sorted bool
}

// NewBuilder creates a Builder that rejects growth beyond limit keys. The
// limit is enforced during collection so pathological inputs bail out
// early.
func NewBuilder(limit int) *Builder {
	return &Builder{
		byHash: make(map[uint64][]uint32),
		limit:  limit,
	}
}

// Intern records a key. Byte-equal keys intern to the same slot no matter
// how often they appear.
func (b *Builder) Intern(key string) error {
	h := hash.Key(key)
	for _, pos := range b.byHash[h] {
		if b.names[pos] == key {
			return nil
		}
	}
	if len(b.names) >= b.limit {
		return errs.ErrDictionaryFull
	}
	pos := uint32(len(b.names))
	b.names = append(b.names, key)
	b.byHash[h] = append(b.byHash[h], pos)

	return nil
}

// Len returns the number of distinct keys collected.
func (b *Builder) Len() int {
	return len(b.names)
}

// Finish sorts the collected keys lexicographically by UTF-8 bytes and
// returns them in dictionary order. After Finish, ID resolves keys to
// their dictionary index.
func (b *Builder) Finish() []string {
	n := len(b.names)
	order := make([]uint32, n)
	for i := range order {
		order[i] = uint32(i)
	}
	sort.Slice(order, func(i, j int) bool {
		return b.names[order[i]] < b.names[order[j]]
	})

	sorted := make([]string, n)
	b.ids = make([]uint32, n)
	for id, pos := range order {
		sorted[id] = b.names[pos]
		b.ids[pos] = uint32(id)
	}
	b.sorted = true

	return sorted
}

// ID returns the dictionary index of an interned key. It must be called
// after Finish, with a key that was interned.
func (b *Builder) ID(key string) (uint32, bool) {
	if !b.sorted {
		return 0, false
	}
	h := hash.Key(key)
	for _, pos := range b.byHash[h] {
		if b.names[pos] == key {
			return b.ids[pos], true
		}
	}

	return 0, false
}
