package cowbloom

import "github.com/bits-and-blooms/bitset"

// snapshot is one state of a filter's bit array.
//
// A snapshot reachable through Filter.current is never written again. Writers
// only mutate snapshots they obtained from clone and have not yet published.
type snapshot struct {
	bits *bitset.BitSet // m bits
	m    uint64         // Total number of bits
	k    uint32         // Number of hash functions
}

// newSnapshot allocates an empty snapshot of m bits probed k times per item.
func newSnapshot(m uint64, k uint32) *snapshot {
	return &snapshot{
		bits: bitset.New(uint(m)),
		m:    m,
		k:    k,
	}
}

// add sets the k bits for h and reports whether any of them was previously
// clear.
func (s *snapshot) add(h hashPair) bool {
	changed := false
	for i := uint32(0); i < s.k; i++ {
		pos := uint(h.position(i, s.m))
		if !s.bits.Test(pos) {
			s.bits.Set(pos)
			changed = true
		}
	}
	return changed
}

// mightContain reports whether all k bits for h are set.
func (s *snapshot) mightContain(h hashPair) bool {
	for i := uint32(0); i < s.k; i++ {
		if !s.bits.Test(uint(h.position(i, s.m))) {
			return false
		}
	}
	return true
}

// clone returns a deep copy that shares no storage with s.
func (s *snapshot) clone() *snapshot {
	return &snapshot{
		bits: s.bits.Clone(),
		m:    s.m,
		k:    s.k,
	}
}

// bitsSet returns the number of bits set to 1.
func (s *snapshot) bitsSet() uint64 {
	return uint64(s.bits.Count())
}

// expectedFpp estimates the probability that mightContain returns true for
// an element that was never added.
func (s *snapshot) expectedFpp() float64 {
	return EstimateFalsePositiveRate(s.m, s.k, s.bitsSet())
}
