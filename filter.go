package cowbloom

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"
)

// cacheLineSize is the size of a CPU cache line in bytes.
const cacheLineSize = 64

// BloomFilter is a probabilistic set of elements of type T.
//
// MightContain never returns false for an element that was added. It may
// return true for an element that was never added, with a probability bounded
// by the filter's configuration.
type BloomFilter[T any] interface {
	// Add inserts elem and reports whether the filter changed.
	Add(elem T) bool
	// AddAll inserts every element and reports whether the filter changed.
	AddAll(elems ...T) bool
	// MightContain reports whether elem may have been added.
	MightContain(elem T) bool
	// Statistics reports the filter's configuration and current occupancy.
	Statistics() Statistics
}

var _ BloomFilter[string] = (*Filter[string])(nil)

// Filter is a thread-safe bloom filter tuned for many readers and rare
// writers.
//
// The bit array lives in an immutable snapshot behind an atomic pointer.
// Readers load the pointer and probe the snapshot without locking or
// retrying. Writers clone the snapshot, set bits on the clone and publish it
// with a compare-and-swap; a writer that loses the race re-applies its whole
// batch to the newer snapshot. Bits are only ever set, never cleared, so
// re-applying a batch cannot lose another writer's update.
//
// Each write copies the whole bit array, so Filter suits read-mostly
// workloads. Prefer batching writes with AddAll.
type Filter[T any] struct {
	current atomic.Pointer[snapshot]
	_       [cacheLineSize - 8]byte // Keep write-side counters off the readers' cache line

	retries  atomic.Uint64 // Lost compare-and-swap races
	enc      Encoder[T]
	capacity uint64
	fpRate   float64
	opts     options

	beforeSwap func() // Test hook, nil in production
}

// New creates a copy-on-write bloom filter for elements encoded by enc,
// sized for capacity items at the target false positive rate fpRate.
//
// It returns an error wrapping ErrNilEncoder, ErrInvalidCapacity,
// ErrInvalidFalsePositiveRate or ErrBitSizeTooLarge when the arguments
// cannot describe a filter.
func New[T any](enc Encoder[T], capacity uint64, fpRate float64, opts ...Option) (*Filter[T], error) {
	if enc == nil {
		return nil, ErrNilEncoder
	}
	if capacity == 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	if math.IsNaN(fpRate) || fpRate <= 0 || fpRate >= 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidFalsePositiveRate, fpRate)
	}

	// Check in float64 first: the product can overflow uint64.
	if bits := -float64(capacity) * math.Log(fpRate) / ln2Squared; bits > float64(MaxBitSize) {
		return nil, fmt.Errorf("%w: capacity %d at rate %v needs %.0f bits (max %d)",
			ErrBitSizeTooLarge, capacity, fpRate, bits, MaxBitSize)
	}
	bitSize := OptimalBitSize(capacity, fpRate)
	k := OptimalHashCount(bitSize, capacity)

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	f := &Filter[T]{
		enc:      enc,
		capacity: capacity,
		fpRate:   fpRate,
		opts:     o,
	}
	f.current.Store(newSnapshot(bitSize, k))

	o.logger.Debug("bloom filter created",
		"capacity", capacity,
		"fpp", fpRate,
		"bit_size", bitSize,
		"hash_functions", k,
	)

	return f, nil
}

// NewString creates a copy-on-write bloom filter of strings.
func NewString(capacity uint64, fpRate float64, opts ...Option) (*Filter[string], error) {
	return New(StringEncoder, capacity, fpRate, opts...)
}

// NewBytes creates a copy-on-write bloom filter of byte slices.
func NewBytes(capacity uint64, fpRate float64, opts ...Option) (*Filter[[]byte], error) {
	return New(BytesEncoder, capacity, fpRate, opts...)
}

// Add inserts elem into the filter. It reports whether the filter changed;
// false means elem was already represented (or is a false positive).
func (f *Filter[T]) Add(elem T) bool {
	return f.AddAll(elem)
}

// AddAll inserts every element as a single update: a concurrent reader sees
// either none or all of the batch. It reports whether the filter changed.
//
// If another writer publishes first, the batch is re-applied to the newer
// snapshot until it lands or turns out to be already present.
func (f *Filter[T]) AddAll(elems ...T) bool {
	if len(elems) == 0 {
		return false
	}

	hashes := f.hashAll(elems)

	var (
		attempt uint64
		wait    func() time.Duration
	)
	for {
		prev := f.current.Load()
		next := prev.clone()

		changed := false
		for _, h := range hashes {
			changed = next.add(h) || changed
		}
		if !changed {
			return false
		}
		if f.beforeSwap != nil {
			f.beforeSwap()
		}
		if f.current.CompareAndSwap(prev, next) {
			return true
		}

		attempt++
		f.retries.Add(1)
		f.opts.logger.Debug("snapshot swap lost race, retrying",
			"attempt", attempt,
			"batch", len(elems),
		)

		if f.opts.backoff != nil {
			if wait == nil {
				wait = f.opts.backoff().NextBackOff
			}
			if d := wait(); d > 0 {
				time.Sleep(d)
			}
		}
	}
}

// hashAll encodes and hashes each element once, reusing one scratch buffer.
func (f *Filter[T]) hashAll(elems []T) []hashPair {
	hashes := make([]hashPair, len(elems))
	var buf []byte
	for i, elem := range elems {
		buf = f.enc(buf[:0], elem)
		hashes[i] = hashBytes(buf)
	}
	return hashes
}

// MightContain reports whether elem might be in the filter. It returns false
// only if elem was definitely never added.
//
// MightContain never blocks and never retries.
func (f *Filter[T]) MightContain(elem T) bool {
	h := hashBytes(f.enc(nil, elem))
	return f.current.Load().mightContain(h)
}

// Statistics reports the filter's configuration and the false positive
// estimates derived from the current snapshot.
func (f *Filter[T]) Statistics() Statistics {
	return computeStatistics(f.current.Load(), f.capacity, f.fpRate)
}

// Capacity returns the number of items the filter was sized for.
func (f *Filter[T]) Capacity() uint64 {
	return f.capacity
}

// FalsePositiveProbability returns the configured target false positive rate.
func (f *Filter[T]) FalsePositiveProbability() float64 {
	return f.fpRate
}

// BitSize returns the size of the bit array in bits.
func (f *Filter[T]) BitSize() uint64 {
	return f.current.Load().m
}

// HashFunctions returns the number of bit positions probed per element.
func (f *Filter[T]) HashFunctions() uint32 {
	return f.current.Load().k
}

// Retries returns the number of times a writer lost a compare-and-swap race
// and had to re-apply its batch.
func (f *Filter[T]) Retries() uint64 {
	return f.retries.Load()
}

func (f *Filter[T]) String() string {
	return fmt.Sprintf("cowbloom.Filter{capacity=%d, fpp=%v}", f.capacity, f.fpRate)
}
