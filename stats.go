package cowbloom

import "fmt"

// Statistics is a point-in-time view of a filter's configuration and
// occupancy. All fields are derived from a single snapshot.
type Statistics struct {
	// ConfiguredFPP is the target false positive rate the filter was sized for.
	ConfiguredFPP float64 `json:"configured_fpp"`
	// EstimatedFPP is the false positive rate implied by the bits currently
	// set: (bitsSet / bitSize)^k.
	EstimatedFPP float64 `json:"estimated_fpp"`
	// Capacity is the number of items the filter was sized for.
	Capacity uint64 `json:"capacity"`
	// BitSize is the size of the bit array.
	BitSize uint64 `json:"bit_size"`
	// HashFunctions is the number of bits probed per element.
	HashFunctions uint32 `json:"hash_functions"`
	// BitsSet is the number of bits currently set.
	BitsSet uint64 `json:"bits_set"`
	// RemainingCapacity is how many more distinct items can be added before
	// EstimatedFPP is projected to exceed ConfiguredFPP.
	RemainingCapacity uint64 `json:"remaining_capacity"`
}

// computeStatistics derives Statistics from a snapshot and the filter's
// static configuration.
func computeStatistics(s *snapshot, capacity uint64, fpRate float64) Statistics {
	bitsSet := s.bitsSet()
	return Statistics{
		ConfiguredFPP:     fpRate,
		EstimatedFPP:      s.expectedFpp(),
		Capacity:          capacity,
		BitSize:           s.m,
		HashFunctions:     s.k,
		BitsSet:           bitsSet,
		RemainingCapacity: RemainingCapacity(s.m, s.k, fpRate, bitsSet),
	}
}

// FillRatio returns the proportion of bits that are set.
func (s Statistics) FillRatio() float64 {
	if s.BitSize == 0 {
		return 0
	}
	return float64(s.BitsSet) / float64(s.BitSize)
}

func (s Statistics) String() string {
	return fmt.Sprintf("BloomFilterStatistics{configuredFpp=%v, estimatedFpp=%.6g, capacity=%d, bitSize=%d, k=%d, remainingCapacity=%d}",
		s.ConfiguredFPP, s.EstimatedFPP, s.Capacity, s.BitSize, s.HashFunctions, s.RemainingCapacity)
}
