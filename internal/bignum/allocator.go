// Package bignum implements unsigned arbitrary-precision integers over 32-bit
// words. This file provides the Allocator abstraction used by magnitudes to
// obtain and release their backing buffers.
package bignum

import (
	"fmt"
	"sync"
)

// Allocator abstracts where magnitude buffers come from. It allows the engine
// to run on plain heap allocations, on pooled buffers, or under a size limit
// that turns oversized requests into ErrAllocation.
type Allocator interface {
	// Alloc returns a buffer of exactly n zeroed words. The capacity of the
	// returned slice may exceed n.
	//
	// Parameters:
	//   - n: The number of words requested.
	//
	// Returns:
	//   - []uint32: The buffer, len n.
	//   - error: ErrAllocation (possibly wrapped) if the request cannot be served.
	Alloc(n int) ([]uint32, error)

	// Release hands a buffer back to the allocator. The caller must not use
	// the buffer afterwards. Safe to call with nil.
	Release(buf []uint32)
}

// MaxWords bounds every allocation, keeping word and bit counts within int
// range on all platforms. It caps a magnitude at 2^31 bits.
const MaxWords = 1 << 26

// HeapAllocator allocates with make and lets the garbage collector reclaim
// released buffers.
type HeapAllocator struct{}

// Alloc allocates n zeroed words on the heap.
func (HeapAllocator) Alloc(n int) (buf []uint32, err error) {
	if n < 0 || n > MaxWords {
		return nil, fmt.Errorf("%w: %d words requested", ErrAllocation, n)
	}
	defer func() {
		if r := recover(); r != nil {
			buf, err = nil, fmt.Errorf("%w: %v", ErrAllocation, r)
		}
	}()
	return make([]uint32, n), nil
}

// Release is a no-op; the buffer is left to the garbage collector.
func (HeapAllocator) Release([]uint32) {}

// ─────────────────────────────────────────────────────────────────────────────
// Word Buffer Pools
// ─────────────────────────────────────────────────────────────────────────────

// wordPoolSizes defines the size classes of pooled buffers, in words.
var wordPoolSizes = [...]int{16, 64, 256, 1024, 4096, 16384, 65536, 262144, 1048576}

var wordPools [len(wordPoolSizes)]sync.Pool

func init() {
	for i := range wordPools {
		size := wordPoolSizes[i]
		wordPools[i].New = func() any { return make([]uint32, size) }
	}
}

// wordPoolIndex returns the pool index for a given size, or -1 if the size
// is too large for pooling.
func wordPoolIndex(size int) int {
	for i, s := range wordPoolSizes {
		if size <= s {
			return i
		}
	}
	return -1
}

// PoolAllocator serves buffers from size-classed sync.Pools. Buffers larger
// than the biggest class are allocated directly and dropped on release.
//
// PoolAllocator is safe for concurrent use.
type PoolAllocator struct {
	heap HeapAllocator
}

// Alloc returns n zeroed words, taken from the smallest fitting pool.
func (p *PoolAllocator) Alloc(n int) ([]uint32, error) {
	if n < 0 || n > MaxWords {
		return nil, fmt.Errorf("%w: %d words requested", ErrAllocation, n)
	}
	idx := wordPoolIndex(n)
	if idx < 0 {
		return p.heap.Alloc(n)
	}
	buf := wordPools[idx].Get().([]uint32)
	buf = buf[:n]
	clear(buf)
	return buf, nil
}

// Release returns buf to its pool when its capacity matches a size class.
func (p *PoolAllocator) Release(buf []uint32) {
	if buf == nil {
		return
	}
	c := cap(buf)
	idx := wordPoolIndex(c)
	if idx < 0 || wordPoolSizes[idx] != c {
		return
	}
	wordPools[idx].Put(buf[:c])
}

// LimitedAllocator rejects any request larger than MaxWords and forwards the
// rest to Next (the default allocator when Next is nil). It is how callers
// bound the memory a single computation may claim.
type LimitedAllocator struct {
	// MaxWords is the largest buffer, in words, that may be allocated.
	MaxWords int
	// Next serves the requests that pass the limit.
	Next Allocator
}

// NewLimitedAllocator creates a LimitedAllocator over the default allocator.
//
// Parameters:
//   - maxWords: The maximum number of words per allocation.
//
// Returns:
//   - *LimitedAllocator: The allocator.
func NewLimitedAllocator(maxWords int) *LimitedAllocator {
	return &LimitedAllocator{MaxWords: maxWords, Next: DefaultAllocator()}
}

// Alloc forwards requests within the limit.
func (l *LimitedAllocator) Alloc(n int) ([]uint32, error) {
	if n > l.MaxWords {
		return nil, fmt.Errorf("%w: %d words exceeds limit of %d", ErrAllocation, n, l.MaxWords)
	}
	return l.next().Alloc(n)
}

// Release forwards to the underlying allocator.
func (l *LimitedAllocator) Release(buf []uint32) {
	l.next().Release(buf)
}

func (l *LimitedAllocator) next() Allocator {
	if l.Next == nil {
		return DefaultAllocator()
	}
	return l.Next
}

var defaultAllocator = &PoolAllocator{}

// DefaultAllocator returns the shared PoolAllocator used by New.
func DefaultAllocator() Allocator {
	return defaultAllocator
}
