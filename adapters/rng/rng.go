// Package rng implements ports.RNGPort with math/rand sources keyed by a
// hash of the stream name.
package rng

import (
	"context"
	"math/rand"

	"gocorr/ports"
)

// Streams derives independent seeded streams
type Streams struct{}

var _ ports.RNGPort = Streams{}

// New returns the default stream factory
func New() Streams { return Streams{} }

// SeededStream creates a deterministic random number generator for a named operation
func (Streams) SeededStream(ctx context.Context, name string, seed uint64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewSource(mix(seed, name))), nil
}

// Stream creates the stream of one pair
func (Streams) Stream(ctx context.Context, pairKey string, seed uint64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewSource(mix(seed, "pair\x00"+pairKey))), nil
}

// mix combines the seed with a djb2 hash of key
func mix(seed uint64, key string) int64 {
	h := hashString(key)
	// splitmix64 finaliser spreads nearby seeds across the state space
	z := seed + 0x9e3779b97f4a7c15*(h+1)
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	return int64(z >> 1)
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint64 {
	var hash uint64 = 5381
	for i := 0; i < len(s); i++ {
		hash = hash*33 + uint64(s[i])
	}
	return hash
}
