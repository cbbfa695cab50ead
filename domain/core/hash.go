package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// Hasher accumulates names and values into a fingerprint.
type Hasher struct {
	h   hash.Hash
	buf [8]byte
}

// NewHasher returns an empty fingerprint accumulator.
func NewHasher() *Hasher {
	return &Hasher{h: sha256.New()}
}

// WriteString adds a length-prefixed string.
func (f *Hasher) WriteString(s string) {
	binary.LittleEndian.PutUint64(f.buf[:], uint64(len(s)))
	f.h.Write(f.buf[:])
	f.h.Write([]byte(s))
}

// WriteFloat adds the IEEE bits of v. All NaNs hash identically.
func (f *Hasher) WriteFloat(v float64) {
	bits := math.Float64bits(v)
	if math.IsNaN(v) {
		bits = 0x7ff8000000000001
	}
	binary.LittleEndian.PutUint64(f.buf[:], bits)
	f.h.Write(f.buf[:])
}

// WriteInt adds an integer.
func (f *Hasher) WriteInt(v int) {
	binary.LittleEndian.PutUint64(f.buf[:], uint64(int64(v)))
	f.h.Write(f.buf[:])
}

// Sum returns the fingerprint.
func (f *Hasher) Sum() Hash {
	return Hash(hex.EncodeToString(f.h.Sum(nil)))
}
