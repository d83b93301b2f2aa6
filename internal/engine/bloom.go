// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// bloomFilter is a classic k-hash Bloom filter used purely as a
// throughput optimization during enumeration: before paying for a
// packed_to_id lookup, a worker checks the filter. A "definitely new"
// answer skips the lookup outright; a "maybe exists" answer still
// falls through to the real registry check. The filter is never
// persisted — a restart rebuilds it by re-adding every already-known
// packed state before resuming enumeration.
type bloomFilter struct {
	bits    []uint64
	numBits uint64
	k       uint32
}

// newBloomFilter builds a filter sized for numBits bits (rounded up to
// a whole number of 64-bit words) and k probe hashes.
func newBloomFilter(numBits uint64, k uint32) *bloomFilter {
	if numBits == 0 {
		numBits = 1 << 30
	}
	if k == 0 {
		k = 7
	}
	words := (numBits + 63) / 64
	return &bloomFilter{
		bits:    make([]uint64, words),
		numBits: words * 64,
		k:       k,
	}
}

// h1, h2 are the two independent base hashes combined (per Kirsch-
// Mitzenmacher) to derive k probe positions without running k
// independent hash functions.
func (f *bloomFilter) hashes(packed uint64) (h1, h2 uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], packed)
	h1 = xxhash.Sum64(buf[:])
	// Re-seed with the first hash appended so h2 is independent of h1
	// while staying a pure function of packed.
	var buf2 [16]byte
	binary.LittleEndian.PutUint64(buf2[0:8], packed)
	binary.LittleEndian.PutUint64(buf2[8:16], h1)
	h2 = xxhash.Sum64(buf2[:])
	return h1, h2
}

func (f *bloomFilter) probe(h1, h2 uint64, i uint32) uint64 {
	return (h1 + uint64(i)*h2) % f.numBits
}

// Add records packed as present.
func (f *bloomFilter) Add(packed uint64) {
	h1, h2 := f.hashes(packed)
	for i := uint32(0); i < f.k; i++ {
		pos := f.probe(h1, h2, i)
		f.bits[pos/64] |= 1 << (pos % 64)
	}
}

// MaybeContains reports whether packed might already be known. false
// is a definite negative (never seen); true requires confirmation via
// the registry, since the filter can false-positive.
func (f *bloomFilter) MaybeContains(packed uint64) bool {
	h1, h2 := f.hashes(packed)
	for i := uint32(0); i < f.k; i++ {
		pos := f.probe(h1, h2, i)
		if f.bits[pos/64]&(1<<(pos%64)) == 0 {
			return false
		}
	}
	return true
}

// estimatedFalsePositiveRate returns the filter's approximate current
// false-positive rate given n items inserted, using the standard
// (1 - e^(-kn/m))^k approximation. Exposed for diagnostics/metrics
// only; never used in a correctness decision.
func (f *bloomFilter) estimatedFalsePositiveRate(n uint64) float64 {
	if f.numBits == 0 {
		return 1
	}
	exp := -float64(f.k) * float64(n) / float64(f.numBits)
	return math.Pow(1-math.Exp(exp), float64(f.k))
}
