// Package fibonacci computes exact Fibonacci numbers on top of the bignum
// engine. This file holds the three algorithms as plain functions; the
// Calculator types in calculator.go wrap them with cancellation, progress
// reporting and instrumentation.
package fibonacci

import (
	"math/bits"

	"github.com/agbru/fibdrv/internal/bignum"
)

// stepHook is invoked after every iteration of an algorithm's main loop with
// the number of completed steps and the total. A non-nil error aborts the
// computation and is returned as is.
type stepHook func(done, total uint64) error

// Definition sets dst to F(n) by iterating F(i) = F(i-1) + F(i-2).
// It performs n-1 additions on operands growing to n·log2(φ) bits.
//
// On error dst is left unchanged.
func Definition(dst *bignum.Magnitude, n uint64) error {
	return definition(dst, n, nil)
}

// FastDoubling sets dst to F(n) using the doubling identities
//
//	F(2k)   = F(k) · (2F(k+1) − F(k))
//	F(2k+1) = F(k)² + F(k+1)²
//
// walking the bits of n from the most significant down. It performs
// O(log n) multiplications.
//
// On error dst is left unchanged.
func FastDoubling(dst *bignum.Magnitude, n uint64) error {
	return fastDoubling(dst, n, nil)
}

// FastDoublingNoSub sets dst to F(n) with a doubling scheme that never
// subtracts. It carries the pair (F(k−1), F(k)) and uses
//
//	F(2k)   = F(k) · (2F(k−1) + F(k))
//	F(2k−1) = F(k−1)² + F(k)²
//
// On error dst is left unchanged.
func FastDoublingNoSub(dst *bignum.Magnitude, n uint64) error {
	return fastDoublingNoSub(dst, n, nil)
}

// scratch returns zero magnitudes sharing dst's allocator, plus a function
// releasing all of them.
func scratch(dst *bignum.Magnitude, count int) ([]*bignum.Magnitude, func(), error) {
	ms := make([]*bignum.Magnitude, 0, count)
	release := func() {
		for _, m := range ms {
			_ = m.Free()
		}
	}
	for i := 0; i < count; i++ {
		m, err := bignum.NewWithAllocator(dst.Allocator(), 0)
		if err != nil {
			release()
			return nil, nil, err
		}
		ms = append(ms, m)
	}
	return ms, release, nil
}

func definition(dst *bignum.Magnitude, n uint64, hook stepHook) error {
	if err := checkIndex(n); err != nil {
		return err
	}
	if n < 2 {
		return dst.SetWord32(uint32(n))
	}
	pair, release, err := scratch(dst, 2)
	if err != nil {
		return err
	}
	defer release()
	if err := pair[1].SetWord32(1); err != nil {
		return err
	}

	// pair[i&1] holds F(i-2) on entry and F(i) on exit.
	for i := uint64(2); i <= n; i++ {
		cur, prev := pair[i&1], pair[(i-1)&1]
		if err := cur.Add(cur, prev); err != nil {
			return err
		}
		if hook != nil {
			if err := hook(i-1, n-1); err != nil {
				return err
			}
		}
	}
	dst.Swap(pair[n&1])
	return nil
}

func fastDoubling(dst *bignum.Magnitude, n uint64, hook stepHook) error {
	if err := checkIndex(n); err != nil {
		return err
	}
	if n < 2 {
		return dst.SetWord32(uint32(n))
	}
	ms, release, err := scratch(dst, 3)
	if err != nil {
		return err
	}
	defer release()
	a, b, t := ms[0], ms[1], ms[2]
	if err := b.SetWord32(1); err != nil {
		return err
	}

	numBits := bits.Len64(n)
	for i := numBits - 1; i >= 0; i-- {
		// (a, b) = (F(k), F(k+1)), t = F(2k)
		if err := firstErr(
			func() error { return t.ShlBounded(b, 1) },
			func() error { return t.Sub(t, a) },
			func() error { return t.Mul(t, a) },
			func() error { return a.Mul(a, a) },
			func() error { return b.Mul(b, b) },
			func() error { return b.Add(a, b) },
		); err != nil {
			return err
		}
		a.Swap(t)

		if (n>>uint(i))&1 == 1 {
			a.Swap(b)
			if err := b.Add(b, a); err != nil {
				return err
			}
		}
		if hook != nil {
			if err := hook(uint64(numBits-i), uint64(numBits)); err != nil {
				return err
			}
		}
	}
	dst.Swap(a)
	return nil
}

func fastDoublingNoSub(dst *bignum.Magnitude, n uint64, hook stepHook) error {
	if err := checkIndex(n); err != nil {
		return err
	}
	if n < 2 {
		return dst.SetWord32(uint32(n))
	}
	ms, release, err := scratch(dst, 3)
	if err != nil {
		return err
	}
	defer release()
	a, b, t := ms[0], ms[1], ms[2]
	if err := b.SetWord32(1); err != nil {
		return err
	}

	// The leading bit of n is consumed by the start state (F(0), F(1)).
	numBits := bits.Len64(n)
	steps := uint64(numBits - 1)
	for i := numBits - 2; i >= 0; i-- {
		// (a, b) = (F(k-1), F(k)) becomes (F(2k-1), F(2k)).
		if err := firstErr(
			func() error { return t.ShlBounded(a, 1) },
			func() error { return t.Add(t, b) },
			func() error { return t.Mul(t, b) },
			func() error { return a.Mul(a, a) },
			func() error { return b.Mul(b, b) },
			func() error { return a.Add(a, b) },
		); err != nil {
			return err
		}
		b.Swap(t)

		if (n>>uint(i))&1 == 1 {
			if err := a.Add(a, b); err != nil {
				return err
			}
			a.Swap(b)
		}
		if hook != nil {
			if err := hook(steps-uint64(i), steps); err != nil {
				return err
			}
		}
	}
	dst.Swap(b)
	return nil
}

// firstErr runs ops in order and stops at the first failure.
func firstErr(ops ...func() error) error {
	for _, op := range ops {
		if err := op(); err != nil {
			return err
		}
	}
	return nil
}
