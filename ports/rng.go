package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named operation
	SeededStream(ctx context.Context, name string, seed uint64) (*rand.Rand, error)

	// Stream creates the private stream of one pair within one group. The
	// same seed and key always yield the same sequence, independent of the
	// order in which pairs are scheduled.
	Stream(ctx context.Context, pairKey string, seed uint64) (*rand.Rand, error)
}
