package ir

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
	"io"
)

// Hash is a fixed-width structural hash of a node, an operator identifier or
// an attributes block.
//
// Hashes are deterministic functions of content, independent of pointer
// identity and construction order. Hash equality is a cache hint: callers
// doing substitution verify actual equality (see StructuralEqual), they never
// treat an equal hash as proof.
type Hash uint64

// Hasher accumulates values into a Hash (FNV-1a). The zero Hasher is not
// usable, create one with NewHasher.
//
// Variable-length values (strings, byte and int slices) are written with a
// length prefix, so concatenations that regroup elements hash differently.
type Hasher struct {
	h   hash.Hash64
	buf [8]byte
}

// NewHasher returns an empty Hasher.
func NewHasher() *Hasher {
	return &Hasher{h: fnv.New64a()}
}

// WriteUint64 adds v to the hash.
func (h *Hasher) WriteUint64(v uint64) {
	binary.LittleEndian.PutUint64(h.buf[:], v)
	_, _ = h.h.Write(h.buf[:])
}

// WriteHash adds another hash to the hash.
func (h *Hasher) WriteHash(v Hash) {
	h.WriteUint64(uint64(v))
}

// WriteInt adds v to the hash.
func (h *Hasher) WriteInt(v int) {
	h.WriteUint64(uint64(int64(v)))
}

// WriteInts adds the length of vs and every element to the hash.
func (h *Hasher) WriteInts(vs []int) {
	h.WriteInt(len(vs))
	for _, v := range vs {
		h.WriteInt(v)
	}
}

// WriteBool adds b to the hash.
func (h *Hasher) WriteBool(b bool) {
	if b {
		h.WriteUint64(1)
	} else {
		h.WriteUint64(0)
	}
}

// WriteString adds the length of s and its bytes to the hash.
func (h *Hasher) WriteString(s string) {
	h.WriteInt(len(s))
	_, _ = io.WriteString(h.h, s)
}

// WriteBytes adds the length of p and its contents to the hash.
func (h *Hasher) WriteBytes(p []byte) {
	h.WriteInt(len(p))
	_, _ = h.h.Write(p)
}

// Sum returns the hash of everything written so far. The Hasher remains
// usable, further writes extend the same stream.
func (h *Hasher) Sum() Hash {
	return Hash(h.h.Sum64())
}

// HashString returns the hash of a string alone.
func HashString(s string) Hash {
	h := NewHasher()
	h.WriteString(s)
	return h.Sum()
}

// HashInts returns the hash of a sequence of ints alone.
func HashInts(vs ...int) Hash {
	h := NewHasher()
	h.WriteInts(vs)
	return h.Sum()
}

// HashCombine returns the hash of the pair (a, b). It is not commutative.
func HashCombine(a, b Hash) Hash {
	h := NewHasher()
	h.WriteHash(a)
	h.WriteHash(b)
	return h.Sum()
}
