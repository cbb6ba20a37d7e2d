package bignum

import (
	"math/bits"
)

// _W is the word size in bits.
const _W = 32

// Magnitude is an unsigned arbitrary-precision integer stored as 32-bit
// words, least significant first.
//
// len(words) is the significant length and cap(words) the capacity. The
// value zero is represented by length 0, and no operation leaves a zero word
// at the top of a non-zero value. Capacity grows lazily and is never given
// back when the value shrinks, so a handle reused across a computation
// amortizes its allocations.
//
// The zero value is a valid zero magnitude that draws buffers from the
// default allocator. A Magnitude must not be mutated concurrently; distinct
// magnitudes are fully independent.
type Magnitude struct {
	words []uint32
	alloc Allocator
}

// New returns a zero magnitude with capacity for at least capHint words,
// backed by the default allocator.
//
// Parameters:
//   - capHint: The number of words to reserve up front.
//
// Returns:
//   - *Magnitude: The zero-valued magnitude.
//   - error: ErrInvalidArgument for a negative hint, ErrAllocation if the
//     buffer cannot be obtained.
func New(capHint int) (*Magnitude, error) {
	return NewWithAllocator(nil, capHint)
}

// NewWithAllocator is like New but draws every buffer of the returned
// magnitude from a. A nil allocator selects the default one.
func NewWithAllocator(a Allocator, capHint int) (*Magnitude, error) {
	if capHint < 0 {
		return nil, ErrInvalidArgument
	}
	m := &Magnitude{alloc: a}
	if capHint > 0 {
		if err := m.reserve(capHint); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Free releases the backing buffer to the allocator and resets m to zero.
// The handle stays usable afterwards.
func (m *Magnitude) Free() error {
	if m == nil {
		return ErrNilMagnitude
	}
	if m.words != nil {
		m.allocator().Release(m.words)
		m.words = nil
	}
	return nil
}

// Allocator returns the allocator m draws its buffers from. Scratch
// magnitudes created for a computation on m should use the same one.
func (m *Magnitude) Allocator() Allocator {
	return m.allocator()
}

func (m *Magnitude) allocator() Allocator {
	if m.alloc == nil {
		return DefaultAllocator()
	}
	return m.alloc
}

// roundCap rounds a word count up to the allocation granularity.
func roundCap(n int) int {
	return (n + 3) &^ 3
}

// reserve makes sure the capacity is at least n words without changing the
// value. On failure m is left untouched.
func (m *Magnitude) reserve(n int) error {
	if n <= cap(m.words) {
		return nil
	}
	if n > MaxWords {
		return ErrAllocation
	}
	buf, err := m.allocator().Alloc(roundCap(n))
	if err != nil {
		return err
	}
	buf = buf[:len(m.words)]
	copy(buf, m.words)
	if m.words != nil {
		m.allocator().Release(m.words)
	}
	m.words = buf
	return nil
}

// Resize sets the significant length to n. Words exposed above the previous
// length read as zero. Only the previous significant words are carried over
// when the buffer has to grow.
//
// Resize does not normalize: callers that shrink or grow the length are
// expected to fill the words and call Normalize when the top may be zero.
//
// Returns:
//   - error: ErrInvalidArgument for negative n, ErrAllocation when the
//     buffer cannot grow (m keeps its previous length and value).
func (m *Magnitude) Resize(n int) error {
	if n < 0 {
		return ErrInvalidArgument
	}
	if err := m.reserve(n); err != nil {
		return err
	}
	old := len(m.words)
	m.words = m.words[:n]
	if n > old {
		clear(m.words[old:n])
	}
	return nil
}

// Normalize drops high-order zero words.
func (m *Magnitude) Normalize() {
	n := len(m.words)
	for n > 0 && m.words[n-1] == 0 {
		n--
	}
	m.words = m.words[:n]
}

// Set copies the value of x into m. It is a no-op when m and x are the same
// handle.
func (m *Magnitude) Set(x *Magnitude) error {
	if m == x {
		return nil
	}
	if err := m.Resize(len(x.words)); err != nil {
		return err
	}
	copy(m.words, x.words)
	return nil
}

// Swap exchanges the buffers, lengths, capacities and allocators of m and x
// in constant time. No word is copied and each buffer keeps exactly one
// owner.
func (m *Magnitude) Swap(x *Magnitude) {
	m.words, x.words = x.words, m.words
	m.alloc, x.alloc = x.alloc, m.alloc
}

// SetWord32 sets m to the single-word value v.
func (m *Magnitude) SetWord32(v uint32) error {
	if v == 0 {
		m.words = m.words[:0]
		return nil
	}
	if err := m.Resize(1); err != nil {
		return err
	}
	m.words[0] = v
	return nil
}

// SetUint64 sets m to v.
func (m *Magnitude) SetUint64(v uint64) error {
	if err := m.Resize(2); err != nil {
		return err
	}
	m.words[0] = uint32(v)
	m.words[1] = uint32(v >> _W)
	m.Normalize()
	return nil
}

// SetWords sets m from little-endian words. High zero words in ws are
// dropped.
func (m *Magnitude) SetWords(ws []uint32) error {
	if err := m.Resize(len(ws)); err != nil {
		return err
	}
	copy(m.words, ws)
	m.Normalize()
	return nil
}

// Len returns the significant length in words.
func (m *Magnitude) Len() int { return len(m.words) }

// Cap returns the capacity in words.
func (m *Magnitude) Cap() int { return cap(m.words) }

// Words returns the significant words, least significant first. The slice
// aliases m and must not be modified.
func (m *Magnitude) Words() []uint32 { return m.words }

// IsZero reports whether m is zero.
func (m *Magnitude) IsZero() bool { return len(m.words) == 0 }

// BitLen returns the number of bits needed to represent m. BitLen of zero
// is 0.
func (m *Magnitude) BitLen() int {
	n := len(m.words)
	if n == 0 {
		return 0
	}
	return (n-1)*_W + bits.Len32(m.words[n-1])
}

// Cmp compares m and x and returns -1, 0 or +1.
func (m *Magnitude) Cmp(x *Magnitude) int {
	lm, lx := len(m.words), len(x.words)
	switch {
	case lm < lx:
		return -1
	case lm > lx:
		return 1
	}
	for i := lm - 1; i >= 0; i-- {
		switch {
		case m.words[i] < x.words[i]:
			return -1
		case m.words[i] > x.words[i]:
			return 1
		}
	}
	return 0
}

// Uint64 returns the low 64 bits of m and whether m fits in a uint64.
func (m *Magnitude) Uint64() (uint64, bool) {
	var v uint64
	switch len(m.words) {
	case 0:
	case 1:
		v = uint64(m.words[0])
	default:
		v = uint64(m.words[1])<<_W | uint64(m.words[0])
	}
	return v, len(m.words) <= 2
}
