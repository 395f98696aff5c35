package benchmarks

import (
	"fmt"
	"sync"
	"testing"

	bab "github.com/bits-and-blooms/bloom/v3"
	"github.com/cespare/xxhash/v2"
	atomicbloom "github.com/ericvolp12/atomic-bloom"
	"github.com/greatroar/blobloom"
	"github.com/jcalabro/cowbloom"
)

const (
	benchItems  = 100_000
	benchFPRate = 0.01
	batchSize   = 100
)

// Pre-generate test data to avoid measuring string generation
var testKeys [][]byte
var testKeysStr []string

func init() {
	testKeys = make([][]byte, benchItems)
	testKeysStr = make([]string, benchItems)
	for i := range benchItems {
		s := fmt.Sprintf("key-%d", i)
		testKeys[i] = []byte(s)
		testKeysStr[i] = s
	}
}

func newCOW(b *testing.B, capacity uint64) *cowbloom.Filter[[]byte] {
	b.Helper()
	f, err := cowbloom.NewBytes(capacity, benchFPRate)
	if err != nil {
		b.Fatal(err)
	}
	return f
}

func populatedCOW(b *testing.B) *cowbloom.Filter[[]byte] {
	b.Helper()
	f := newCOW(b, benchItems)
	for i := 0; i < benchItems; i += batchSize {
		f.AddAll(testKeys[i:min(i+batchSize, benchItems)]...)
	}
	return f
}

// lockedBloom guards a bits-and-blooms filter with a RWMutex, the usual way
// to share a non-concurrent filter.
type lockedBloom struct {
	mu sync.RWMutex
	f  *bab.BloomFilter
}

func newLockedBloom(capacity uint) *lockedBloom {
	return &lockedBloom{f: bab.NewWithEstimates(capacity, benchFPRate)}
}

func (l *lockedBloom) Add(data []byte) {
	l.mu.Lock()
	l.f.Add(data)
	l.mu.Unlock()
}

func (l *lockedBloom) AddAll(batch [][]byte) {
	l.mu.Lock()
	for _, data := range batch {
		l.f.Add(data)
	}
	l.mu.Unlock()
}

func (l *lockedBloom) Test(data []byte) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.f.Test(data)
}

// ============================================================================
// Sequential Add Benchmarks
// ============================================================================

func BenchmarkAddSequential_COW(b *testing.B) {
	f := newCOW(b, benchItems)
	b.ReportAllocs()
	b.ResetTimer()
	for i := range b.N {
		f.Add(testKeys[i%benchItems])
	}
}

func BenchmarkAddSequential_LockedBitsAndBlooms(b *testing.B) {
	f := newLockedBloom(benchItems)
	b.ReportAllocs()
	b.ResetTimer()
	for i := range b.N {
		f.Add(testKeys[i%benchItems])
	}
}

func BenchmarkAddSequential_AtomicBloom(b *testing.B) {
	f := atomicbloom.NewWithEstimates(benchItems, benchFPRate)
	b.ReportAllocs()
	b.ResetTimer()
	for i := range b.N {
		f.Add(testKeys[i%benchItems])
	}
}

// ============================================================================
// Batch Add Benchmarks (one snapshot swap per batch)
// ============================================================================

func BenchmarkAddBatch_COW(b *testing.B) {
	f := newCOW(b, benchItems)
	b.ReportAllocs()
	b.ResetTimer()
	for i := range b.N {
		start := (i * batchSize) % benchItems
		f.AddAll(testKeys[start:min(start+batchSize, benchItems)]...)
	}
	b.ReportMetric(batchSize, "items/op")
}

func BenchmarkAddBatch_LockedBitsAndBlooms(b *testing.B) {
	f := newLockedBloom(benchItems)
	b.ReportAllocs()
	b.ResetTimer()
	for i := range b.N {
		start := (i * batchSize) % benchItems
		f.AddAll(testKeys[start:min(start+batchSize, benchItems)])
	}
	b.ReportMetric(batchSize, "items/op")
}

// ============================================================================
// Sequential Test Benchmarks
// ============================================================================

func BenchmarkTestSequential_COW(b *testing.B) {
	f := populatedCOW(b)
	b.ResetTimer()
	for i := range b.N {
		f.MightContain(testKeys[i%benchItems])
	}
}

func BenchmarkTestSequential_COWString(b *testing.B) {
	f, err := cowbloom.NewString(benchItems, benchFPRate)
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < benchItems; i += batchSize {
		f.AddAll(testKeysStr[i:min(i+batchSize, benchItems)]...)
	}
	b.ResetTimer()
	for i := range b.N {
		f.MightContain(testKeysStr[i%benchItems])
	}
}

func BenchmarkTestSequential_LockedBitsAndBlooms(b *testing.B) {
	f := newLockedBloom(benchItems)
	for i := range benchItems {
		f.Add(testKeys[i])
	}
	b.ResetTimer()
	for i := range b.N {
		f.Test(testKeys[i%benchItems])
	}
}

func BenchmarkTestSequential_AtomicBloom(b *testing.B) {
	f := atomicbloom.NewWithEstimates(benchItems, benchFPRate)
	for i := range benchItems {
		f.Add(testKeys[i])
	}
	b.ResetTimer()
	for i := range b.N {
		f.Test(testKeys[i%benchItems])
	}
}

func BenchmarkTestSequential_Blobloom(b *testing.B) {
	f := blobloom.NewSyncOptimized(blobloom.Config{
		Capacity: benchItems,
		FPRate:   benchFPRate,
	})
	// blobloom requires pre-hashing
	hashes := make([]uint64, benchItems)
	for i := range benchItems {
		hashes[i] = xxhash.Sum64(testKeys[i])
		f.Add(hashes[i])
	}
	b.ResetTimer()
	for i := range b.N {
		f.Has(hashes[i%benchItems])
	}
}

// ============================================================================
// Parallel Test Benchmarks
// ============================================================================

func BenchmarkTestParallel_COW(b *testing.B) {
	f := populatedCOW(b)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			f.MightContain(testKeys[i%benchItems])
			i++
		}
	})
}

func BenchmarkTestParallel_LockedBitsAndBlooms(b *testing.B) {
	f := newLockedBloom(benchItems)
	for i := range benchItems {
		f.Add(testKeys[i])
	}
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			f.Test(testKeys[i%benchItems])
			i++
		}
	})
}

func BenchmarkTestParallel_AtomicBloom(b *testing.B) {
	f := atomicbloom.NewWithEstimates(benchItems, benchFPRate)
	for i := range benchItems {
		f.Add(testKeys[i])
	}
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			f.Test(testKeys[i%benchItems])
			i++
		}
	})
}

// ============================================================================
// Read-Heavy Mixed Benchmarks (1 batch write per 1000 reads)
// ============================================================================

const readsPerWrite = 1000

func BenchmarkReadHeavy_COW(b *testing.B) {
	f := newCOW(b, benchItems)
	f.AddAll(testKeys[:benchItems/2]...)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if i%readsPerWrite == 0 {
				start := benchItems/2 + (i/readsPerWrite*batchSize)%(benchItems/2)
				f.AddAll(testKeys[start:min(start+batchSize, benchItems)]...)
			} else {
				f.MightContain(testKeys[i%benchItems])
			}
			i++
		}
	})
}

func BenchmarkReadHeavy_LockedBitsAndBlooms(b *testing.B) {
	f := newLockedBloom(benchItems)
	f.AddAll(testKeys[:benchItems/2])
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if i%readsPerWrite == 0 {
				start := benchItems/2 + (i/readsPerWrite*batchSize)%(benchItems/2)
				f.AddAll(testKeys[start:min(start+batchSize, benchItems)])
			} else {
				f.Test(testKeys[i%benchItems])
			}
			i++
		}
	})
}

// ============================================================================
// High Contention Benchmarks
// ============================================================================

func BenchmarkHighContention_COW(b *testing.B) {
	// Use a small filter so that snapshot copies are cheap and swaps collide
	f := newCOW(b, 1000)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			f.Add(testKeys[i%1000])
			i++
		}
	})
	b.ReportMetric(float64(f.Retries())/float64(b.N), "retries/op")
}

func BenchmarkHighContention_AtomicBloom(b *testing.B) {
	f := atomicbloom.NewWithEstimates(1000, benchFPRate)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			f.Add(testKeys[i%1000])
			i++
		}
	})
}

// ============================================================================
// Throughput Test (items per second)
// ============================================================================

func BenchmarkThroughput_COW(b *testing.B) {
	const goroutines = 8
	const itemsPerGoroutine = benchItems / goroutines

	b.ResetTimer()
	for range b.N {
		f := newCOW(b, benchItems)
		var wg sync.WaitGroup
		wg.Add(goroutines)
		for g := range goroutines {
			go func(gid int) {
				defer wg.Done()
				base := gid * itemsPerGoroutine
				for i := 0; i < itemsPerGoroutine; i += batchSize {
					f.AddAll(testKeys[base+i : base+min(i+batchSize, itemsPerGoroutine)]...)
				}
			}(g)
		}
		wg.Wait()
	}
	b.ReportMetric(float64(goroutines*itemsPerGoroutine), "items/op")
}
