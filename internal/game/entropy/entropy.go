// Package entropy provides the deterministic randomness primitive for the
// zenbeasts rules: a Keccak-256 digest over little-endian encoded inputs.
//
// Nothing in this package reads a clock or a system entropy source. Identical
// inputs always produce identical digests so that any party can recompute an
// outcome.
package entropy

import (
	"encoding/binary"
	"hash"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
)

// DigestSize is the size in bytes of a Digest.
const DigestSize = 32

// Digest is a Keccak-256 output.
type Digest [DigestSize]byte

// Byte returns the i-th digest byte.
//
// Precondition: 0 <= i < DigestSize.
func (d Digest) Byte(i int) byte { return d[i] }

// Uint64 decodes 8 little-endian bytes starting at offset.
//
// Precondition: 0 <= offset <= DigestSize-8.
func (d Digest) Uint64(offset int) uint64 {
	return binary.LittleEndian.Uint64(d[offset : offset+8])
}

// Hasher accumulates inputs for a single digest.
//
// A Hasher is not safe for concurrent use.
type Hasher struct {
	h   hash.Hash
	buf [8]byte
}

// New returns an empty Hasher using legacy Keccak-256 padding.
//
// Postcondition: Sum on a fresh Hasher returns Keccak-256 of the empty string.
func New() *Hasher {
	return &Hasher{h: sha3.NewLegacyKeccak256()}
}

// Bytes appends raw bytes.
func (x *Hasher) Bytes(b []byte) *Hasher {
	x.h.Write(b)
	return x
}

// Uint8 appends a single byte.
func (x *Hasher) Uint8(v uint8) *Hasher {
	x.buf[0] = v
	x.h.Write(x.buf[:1])
	return x
}

// Uint64 appends v as 8 little-endian bytes.
func (x *Hasher) Uint64(v uint64) *Hasher {
	binary.LittleEndian.PutUint64(x.buf[:], v)
	x.h.Write(x.buf[:])
	return x
}

// Int64 appends v as 8 little-endian two's-complement bytes.
func (x *Hasher) Int64(v int64) *Hasher {
	return x.Uint64(uint64(v))
}

// UUID appends the 16 raw bytes of id.
func (x *Hasher) UUID(id uuid.UUID) *Hasher {
	x.h.Write(id[:])
	return x
}

// Sum returns the digest of everything appended so far.
//
// Postcondition: Sum does not reset the Hasher; further appends extend the input.
func (x *Hasher) Sum() Digest {
	var d Digest
	copy(d[:], x.h.Sum(nil))
	return d
}

// Int64Bytes returns v encoded as 8 little-endian bytes. Used as the context
// bytes for trait generation.
func Int64Bytes(v int64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	return b
}
