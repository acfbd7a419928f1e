// Package rng implements ports.RNGPort with PCG streams from math/rand/v2.
package rng

import (
	"context"
	"math/rand/v2"

	"psyfit/domain/core"
)

// SeededAdapter hands out independent PCG generators derived from a seed
type SeededAdapter struct{}

// NewSeededAdapter creates the adapter
func NewSeededAdapter() *SeededAdapter {
	return &SeededAdapter{}
}

// SeededStream creates a deterministic random number generator for a named operation
func (a *SeededAdapter) SeededStream(ctx context.Context, name string, seed uint64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewPCG(seed, core.StreamSeed(name, 0, seed))), nil
}

// Stream creates the generator for member index of a batch
func (a *SeededAdapter) Stream(ctx context.Context, batchKey string, index int, baseSeed uint64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seed := core.StreamSeed(batchKey, index, baseSeed)
	return rand.New(rand.NewPCG(seed, uint64(index))), nil
}
