package ports

import (
	"context"
	"math/rand/v2"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named operation
	SeededStream(ctx context.Context, name string, seed uint64) (*rand.Rand, error)

	// Stream creates the generator for one member of a batch. The same
	// (batchKey, index, baseSeed) always yields the same sequence, whatever
	// order the members run in.
	Stream(ctx context.Context, batchKey string, index int, baseSeed uint64) (*rand.Rand, error)
}
