package cowbloom

import "errors"

var (
	// ErrInvalidCapacity is returned when the expected number of items is zero.
	ErrInvalidCapacity = errors.New("cowbloom: capacity must be positive")

	// ErrInvalidFalsePositiveRate is returned when the target false positive
	// rate is not in the open interval (0, 1).
	ErrInvalidFalsePositiveRate = errors.New("cowbloom: false positive rate must be in (0, 1)")

	// ErrNilEncoder is returned when no element encoder is supplied.
	ErrNilEncoder = errors.New("cowbloom: encoder must not be nil")

	// ErrBitSizeTooLarge is returned when the requested capacity and false
	// positive rate need more than MaxBitSize bits.
	ErrBitSizeTooLarge = errors.New("cowbloom: bit array too large")
)
