package bignum

import (
	"fmt"

	"fortio.org/safecast"
)

// ShlBounded sets z = a << k. It is the fast path for 0 < k < 32: a single
// ascending pass carries the bits shifted out of each word into the next.
// k == 0 or a zero a reduce to a copy, and k >= 32 falls back to Shl.
// z may alias a.
func (z *Magnitude) ShlBounded(a *Magnitude, k uint) error {
	if k == 0 || a.IsZero() {
		return z.Set(a)
	}
	n, err := shiftedLen(a.BitLen(), k)
	if err != nil {
		return err
	}
	if k >= _W {
		if err := z.reserve(n); err != nil {
			return err
		}
		if err := z.Set(a); err != nil {
			return err
		}
		return z.Shl(k)
	}

	la := len(a.words)
	if err := z.Resize(n); err != nil {
		return err
	}
	x, w := a.words[:la], z.words
	var carry uint32
	for i, xi := range x {
		acc := uint64(xi)<<k | uint64(carry)
		w[i] = uint32(acc)
		carry = uint32(acc >> _W)
	}
	if n > la {
		w[la] = carry
	}
	return nil
}

// Shl shifts z left by k bits in place. Shifting zero leaves it zero.
//
// The words are rebuilt from the top down: destination word i only reads
// source words i-ws and i-ws-1, neither of which has been overwritten yet.
func (z *Magnitude) Shl(k uint) error {
	if z.IsZero() || k == 0 {
		return nil
	}
	n, err := shiftedLen(z.BitLen(), k)
	if err != nil {
		return err
	}
	ws := int(k / _W)
	bs := k % _W
	if err := z.Resize(n); err != nil {
		return err
	}
	w := z.words
	for i := n - 1; i >= ws; i-- {
		j := i - ws
		v := w[j] << bs
		if bs != 0 && j > 0 {
			v |= w[j-1] >> (_W - bs)
		}
		w[i] = v
	}
	clear(w[:ws])
	return nil
}

// shiftedLen returns the word length of a value of bitLen bits shifted left
// by k.
func shiftedLen(bitLen int, k uint) (int, error) {
	total := uint64(bitLen) + uint64(k)
	n, err := safecast.Conv[int]((total + _W - 1) / _W)
	if err != nil || n > MaxWords {
		return 0, fmt.Errorf("%w: shift by %d bits", ErrAllocation, k)
	}
	return n, nil
}
