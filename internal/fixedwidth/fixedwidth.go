// Package fixedwidth holds 64-bit Fibonacci variants used as timing
// references by the device write path. Each variant computes F(k) modulo
// 2^64: the result is exact up to F(93), the largest Fibonacci number that
// fits in a uint64, and wraps silently beyond. The values are returned so
// the work stays observable; only the elapsed time is of interest.
package fixedwidth

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"time"
)

// ErrIndexTooLarge is returned by Check for an index whose table would not
// fit in memory.
var ErrIndexTooLarge = errors.New("fixedwidth: index too large for method")

// Method selects a fixed-width variant. The numbering matches the method
// argument accepted by the device write operation.
type Method int

const (
	// StackArray fills a table of every F(i) up to k on the stack.
	StackArray Method = iota
	// HeapSlice fills the same table in a heap-allocated slice.
	HeapSlice
	// FixedPair keeps only the last two values in a two-element array.
	FixedPair
	// ExactV2 iterates the Lucas/Fibonacci halving recurrence. Exact up to
	// F(91) only, since (L + 5F) overflows first.
	ExactV2
	// ExactV3 iterates an overflow-free averaging form of the same
	// recurrence. Exact up to F(93).
	ExactV3
	// DoublingLoop62 is fast doubling with a leftmost-bit search from bit 62.
	DoublingLoop62
	// DoublingLoop31 searches from bit 31.
	DoublingLoop31
	// DoublingLoop16 searches from bit 16.
	DoublingLoop16
	// DoublingLoop6 searches from bit 6.
	DoublingLoop6
	// DoublingFLS finds the leftmost bit of the low 32 bits with a
	// find-last-set.
	DoublingFLS
	// DoublingCLZ finds it with a count of leading zeros.
	DoublingCLZ

	methodCount
)

// MaxExact is the largest index for which every method but ExactV2 is
// exact.
const MaxExact = 93

// stackTableSize bounds the StackArray table. Larger indices fall back to
// the heap.
const stackTableSize = 128

// MaxTableIndex is the largest index served by the table methods
// (StackArray and HeapSlice). Their table holds one word per index.
const MaxTableIndex = 1 << 20

var methodNames = [methodCount]string{
	"stack-array",
	"heap-slice",
	"fixed-pair",
	"exact-v2",
	"exact-v3",
	"doubling-loop62",
	"doubling-loop31",
	"doubling-loop16",
	"doubling-loop6",
	"doubling-fls",
	"doubling-clz",
}

var methodFuncs = [methodCount]func(k uint64) uint64{
	stackArray,
	heapSlice,
	fixedPair,
	exactV2,
	exactV3,
	func(k uint64) uint64 { return doublingFrom(k, 62) },
	func(k uint64) uint64 { return doublingFrom(k, 31) },
	func(k uint64) uint64 { return doublingFrom(k, 16) },
	func(k uint64) uint64 { return doublingFrom(k, 6) },
	doublingFLS,
	doublingCLZ,
}

// Valid reports whether m names a method.
func (m Method) Valid() bool {
	return m >= 0 && m < methodCount
}

// String returns the method name, or "method(N)" for an invalid method.
func (m Method) String() string {
	if !m.Valid() {
		return fmt.Sprintf("method(%d)", int(m))
	}
	return methodNames[m]
}

// MaxIndex returns the largest index m can compute.
func (m Method) MaxIndex() uint64 {
	switch m {
	case StackArray, HeapSlice:
		return MaxTableIndex
	default:
		return math.MaxUint64
	}
}

// Check returns an error if m is invalid or cannot compute F(k).
func Check(m Method, k uint64) error {
	if !m.Valid() {
		return fmt.Errorf("unknown fixed-width method %d", int(m))
	}
	if k > m.MaxIndex() {
		return fmt.Errorf("%w: %s at %d, max %d", ErrIndexTooLarge, m, k, m.MaxIndex())
	}
	return nil
}

// Methods returns every method in numbering order.
func Methods() []Method {
	ms := make([]Method, methodCount)
	for i := range ms {
		ms[i] = Method(i)
	}
	return ms
}

// ParseMethod returns the method with the given name.
func ParseMethod(name string) (Method, error) {
	for i, n := range methodNames {
		if n == name {
			return Method(i), nil
		}
	}
	return 0, fmt.Errorf("unknown fixed-width method %q", name)
}

// Compute returns F(k) mod 2^64 using method m. It returns 0 for an invalid
// method.
func Compute(m Method, k uint64) uint64 {
	if !m.Valid() {
		return 0
	}
	return methodFuncs[m](k)
}

// Time runs method m for index k and returns the elapsed time and the
// value computed.
//
// Parameters:
//   - m: The method to run. An invalid method takes no time and returns 0.
//   - k: The Fibonacci index.
//
// Returns:
//   - time.Duration: The wall-clock time of the computation alone.
//   - uint64: F(k) mod 2^64.
func Time(m Method, k uint64) (time.Duration, uint64) {
	if !m.Valid() {
		return 0, 0
	}
	fn := methodFuncs[m]
	start := time.Now()
	v := fn(k)
	return time.Since(start), v
}

func fillTable(f []uint64, k uint64) uint64 {
	f[0], f[1] = 0, 1
	for i := uint64(2); i <= k; i++ {
		f[i] = f[i-1] + f[i-2]
	}
	return f[k]
}

func stackArray(k uint64) uint64 {
	if k >= stackTableSize-1 {
		return heapSlice(k)
	}
	var f [stackTableSize]uint64
	return fillTable(f[:], k)
}

// heapSlice falls back to fixedPair above MaxTableIndex. Check keeps the
// device from asking for such an index.
func heapSlice(k uint64) uint64 {
	if k > MaxTableIndex {
		return fixedPair(k)
	}
	return fillTable(make([]uint64, k+2), k)
}

func fixedPair(k uint64) uint64 {
	f := [2]uint64{0, 1}
	for i := uint64(2); i <= k; i++ {
		f[i&1] += f[(i-1)&1]
	}
	return f[k&1]
}

// exactV2 steps (a, b) = (L(i), F(i)) with L(i+1) = (L + 5F)/2 and
// F(i+1) = (L + F)/2.
func exactV2(k uint64) uint64 {
	if k < 2 {
		return k
	}
	a, b := uint64(1), uint64(1)
	for i := uint64(2); i <= k; i++ {
		a, b = (a+5*b)>>1, (a+b)>>1
	}
	return b
}

// exactV3 computes (a + b)/2 as (a & b) + (a ^ b)/2, which cannot overflow.
func exactV3(k uint64) uint64 {
	if k < 2 {
		return k
	}
	a, b := uint64(1), uint64(1)
	for i := uint64(2); i <= k; i++ {
		oldB := b
		b = (a & b) + ((a ^ b) >> 1)
		a = oldB<<1 + b
	}
	return b
}

// doubling runs fast doubling over the bits of k selected by mask, from
// the highest one down. The uint64 arithmetic wraps, so the result is
// F(k & (2*mask-1)) mod 2^64.
func doubling(k, mask uint64) uint64 {
	var a, b uint64 = 0, 1
	for ; mask != 0; mask >>= 1 {
		a, b = a*(b<<1-a), a*a+b*b
		if k&mask != 0 {
			a, b = b, a+b
		}
	}
	return a
}

// doublingFrom searches for the leftmost set bit starting at bit top, so
// bits of k above top are ignored.
func doublingFrom(k uint64, top uint) uint64 {
	if k < 2 {
		return k
	}
	mask := uint64(1) << top
	for mask != 0 && k&mask == 0 {
		mask >>= 1
	}
	return doubling(k, mask)
}

func doublingFLS(k uint64) uint64 {
	if k < 2 {
		return k
	}
	low := uint32(k)
	if low == 0 {
		return 0
	}
	return doubling(k, 1<<(bits.Len32(low)-1))
}

func doublingCLZ(k uint64) uint64 {
	if k < 2 {
		return k
	}
	low := uint32(k)
	if low == 0 {
		return 0
	}
	return doubling(k, 1<<(31-bits.LeadingZeros32(low)))
}
