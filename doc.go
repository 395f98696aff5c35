// Package cowbloom provides a thread-safe copy-on-write bloom filter for Go.
//
// A bloom filter is a space-efficient probabilistic data structure that tests
// whether an element is a member of a set. False positive matches are possible,
// but false negatives are not – if the filter says an element is not present,
// it definitely is not. If it says an element might be present, it could be a
// false positive.
//
// # Architecture
//
// [Filter] keeps its bit array in an immutable snapshot behind a single
// [sync/atomic.Pointer]:
//
// Reads are wait-free: [Filter.MightContain] and [Filter.Statistics] load
// the pointer once and probe the snapshot. They never lock, spin or retry,
// and always see a fully published snapshot.
//
// Writes are lock-free: [Filter.AddAll] clones the current snapshot, sets the
// bits for the whole batch on the clone and publishes it with a
// compare-and-swap. If another writer published first, the batch is
// re-applied to the newer snapshot. Bits are only ever set, so re-applying a
// batch can neither lose nor double-count an update.
//
// Double hashing: each element is encoded to bytes by an [Encoder] and hashed
// once with 128-bit xxh3. The two 64-bit halves derive all k bit positions
// as h1 + i*h2 (mod m), following "Less Hashing, Same Performance".
//
// # Choosing Parameters
//
// Use [New] (or [NewString], [NewBytes]) with the expected number of items
// and the desired false positive rate:
//
//	// Filter for 1 million strings with 1% false positive rate
//	f, err := cowbloom.NewString(1_000_000, 0.01)
//
// The bit array size and number of hash functions are derived exactly:
//
//	m = ceil(-n * ln(p) / (ln 2)²)
//	k = round((m / n) * ln 2)
//
// For n = 1000 and p = 0.01 this gives m = 9586 bits and k = 7.
//
// # False Positive Rate
//
// [Filter.Statistics] reports the configured rate, the rate implied by the
// bits currently set, (bitsSet / m)^k, and how many more distinct items can
// be inserted before that estimate is projected to pass the configured rate.
//
// # Memory Usage
//
// Every write allocates a full copy of the bit array (m / 8 bytes), which
// becomes garbage once no reader holds the previous snapshot. Filter is
// intended for read-mostly workloads; batch writes with [Filter.AddAll] to
// amortize the copy.
//
// # Contention
//
// Under heavy concurrent writes a writer may retry many times. The retry loop
// has no upper bound, but some writer always makes progress. [WithBackoff]
// makes losing writers sleep with exponential backoff before retrying.
// [Filter.Retries] counts lost races.
//
// # References
//
//   - Less Hashing, Same Performance: https://www.eecs.harvard.edu/~michaelm/postscripts/rsa2008.pdf
package cowbloom
