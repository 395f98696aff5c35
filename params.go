package cowbloom

import "math"

const (
	// ln2 is the natural logarithm of 2.
	ln2 = math.Ln2
	// ln2Squared is ln(2)^2.
	ln2Squared = math.Ln2 * math.Ln2

	// MaxBitSize is the largest bit array a filter will allocate (128 GiB).
	MaxBitSize = uint64(1) << 40
)

// OptimalBitSize returns the number of bits needed to hold expectedItems
// at the target false positive rate.
// Formula: ceil(-n * ln(p) / ln(2)^2)
func OptimalBitSize(expectedItems uint64, fpRate float64) uint64 {
	return uint64(math.Ceil(-float64(expectedItems) * math.Log(fpRate) / ln2Squared))
}

// OptimalHashCount returns the number of hash functions minimizing the false
// positive rate for a filter of bitSize bits holding expectedItems.
// Formula: round((m / n) * ln(2)), never less than 1.
func OptimalHashCount(bitSize, expectedItems uint64) uint32 {
	k := uint32(math.Round(float64(bitSize) / float64(expectedItems) * ln2))
	return max(k, 1)
}

// EstimateFalsePositiveRate estimates the false positive rate of a filter
// from its live occupancy.
// Formula: (bitsSet / m)^k
func EstimateFalsePositiveRate(bitSize uint64, k uint32, bitsSet uint64) float64 {
	if bitSize == 0 || bitsSet == 0 {
		return 0
	}
	return math.Pow(float64(bitsSet)/float64(bitSize), float64(k))
}

// RemainingCapacity returns how many more distinct items can be inserted
// before the estimated false positive rate is projected to exceed fpRate.
//
// With fill ratio f, x further insertions are expected to raise the fill to
// 1 - (1-f)*e^(-kx/m). Keeping fill^k <= p gives
//
//	x = floor(-(m/k) * ln((1 - p^(1/k)) / (1 - f)))
func RemainingCapacity(bitSize uint64, k uint32, fpRate float64, bitsSet uint64) uint64 {
	if bitSize == 0 || k == 0 {
		return 0
	}

	m := float64(bitSize)
	kf := float64(k)
	fill := float64(bitsSet) / m
	limit := math.Pow(fpRate, 1/kf)
	if fill >= limit {
		return 0
	}

	x := -(m / kf) * math.Log((1-limit)/(1-fill))
	if x <= 0 || math.IsNaN(x) {
		return 0
	}
	return uint64(math.Floor(x))
}
