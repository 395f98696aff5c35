package cowbloom

import "github.com/zeebo/xxh3"

// hashPair holds the two base hashes from which all k bit positions of an
// element are derived.
type hashPair struct {
	h1 uint64
	h2 uint64
}

// hashBytes computes the 128-bit xxh3 hash of data and splits it into the
// two halves used for double hashing.
func hashBytes(data []byte) hashPair {
	h := xxh3.Hash128(data)
	// Force h2 odd so the probe sequence does not cycle early when gcd(h2, m) > 1.
	return hashPair{h1: h.Lo, h2: h.Hi | 1}
}

// position returns the i-th bit position for a filter of m bits.
// Kirsch-Mitzenmacher: pos_i = (h1 + i*h2) mod m
func (h hashPair) position(i uint32, m uint64) uint64 {
	return (h.h1 + uint64(i)*h.h2) % m
}
