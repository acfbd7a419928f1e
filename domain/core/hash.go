package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// ConfigHash is the hex SHA-256 of the settings a batch ran with. Two reports
// with equal hashes are comparable run for run.
type ConfigHash string

func (h ConfigHash) String() string { return string(h) }

// Short returns the first 12 hex digits
func (h ConfigHash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// ComputeConfigHash hashes "key=value;" pairs in key order, so equal maps
// hash equally whatever their iteration order.
func ComputeConfigHash(settings map[string]interface{}) ConfigHash {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%v;", k, settings[k])
	}
	sum := sha256.Sum256([]byte(b.String()))
	return ConfigHash(hex.EncodeToString(sum[:]))
}

// StreamSeed derives the seed of a named random stream from a base seed, so
// every session in a batch draws from its own reproducible sequence.
func StreamSeed(name string, index int, base uint64) uint64 {
	return base ^ (uint64(djb2(name)) << 32) ^ uint64(index)*0x9e3779b97f4a7c15
}

func djb2(s string) uint32 {
	var h uint32 = 5381
	for _, c := range s {
		h = h<<5 + h + uint32(c)
	}
	return h
}
