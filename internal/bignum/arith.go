package bignum

import "math/bits"

// Add sets z = a + b. z may alias a, b or both.
//
// The longer operand drives the pass; when the shorter one is zero the
// longer one is copied. A final carry grows z by one word.
//
// Returns:
//   - error: ErrAllocation if z cannot grow, in which case z is unchanged.
func (z *Magnitude) Add(a, b *Magnitude) error {
	if len(a.words) < len(b.words) {
		a, b = b, a
	}
	la, lb := len(a.words), len(b.words)
	if lb == 0 {
		return z.Set(a)
	}
	// Room for the carry word up front so a failure never leaves a half
	// written sum behind.
	if err := z.reserve(la + 1); err != nil {
		return err
	}
	if err := z.Resize(la); err != nil {
		return err
	}
	// Re-slice after the resize: z may share its buffer with a or b.
	x, y, w := a.words[:la], b.words[:lb], z.words

	var carry uint64
	for i := 0; i < lb; i++ {
		acc := uint64(x[i]) + uint64(y[i]) + carry
		w[i] = uint32(acc)
		carry = acc >> _W
	}
	for i := lb; i < la; i++ {
		acc := uint64(x[i]) + carry
		w[i] = uint32(acc)
		carry = acc >> _W
	}
	if carry != 0 {
		z.words = z.words[:la+1]
		z.words[la] = uint32(carry)
	}
	return nil
}

// Sub sets z = a - b. z may alias a, b or both.
//
// The caller guarantees a >= b. This is not checked: every caller derives it
// from the structure of its computation, and a violation yields a
// meaningless value rather than an error.
func (z *Magnitude) Sub(a, b *Magnitude) error {
	la, lb := len(a.words), len(b.words)
	if lb == 0 {
		return z.Set(a)
	}
	if err := z.Resize(la); err != nil {
		return err
	}
	x, y, w := a.words[:la], b.words[:lb], z.words

	var borrow uint32
	for i := 0; i < la; i++ {
		var yi uint32
		if i < lb {
			yi = y[i]
		}
		w[i], borrow = bits.Sub32(x[i], yi, borrow)
	}
	z.Normalize()
	return nil
}

// Mul sets z = a * b using schoolbook multiplication. z may alias a, b or
// both.
//
// The product is accumulated in a scratch magnitude sized from the operand
// bit lengths, then swapped into z, so z only changes when the whole
// product is available.
func (z *Magnitude) Mul(a, b *Magnitude) error {
	la, lb := len(a.words), len(b.words)
	if la == 0 || lb == 0 {
		z.words = z.words[:0]
		return nil
	}
	n := la + lb
	if bits.Len32(a.words[la-1])+bits.Len32(b.words[lb-1]) <= _W {
		n--
	}

	s := &Magnitude{alloc: z.alloc}
	if err := s.Resize(n); err != nil {
		return err
	}
	x, y, w := a.words, b.words, s.words
	for j, yj := range y {
		if yj == 0 {
			continue
		}
		var carry uint64
		for i, xi := range x {
			acc := uint64(xi)*uint64(yj) + uint64(w[i+j]) + carry
			w[i+j] = uint32(acc)
			carry = acc >> _W
		}
		if j+la < n {
			w[j+la] = uint32(carry)
		}
	}
	s.Normalize()
	z.Swap(s)
	return s.Free()
}
