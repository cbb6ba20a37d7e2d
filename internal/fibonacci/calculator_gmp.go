//go:build gmp

// This file registers a GMP-backed calculator under the "gmp" build tag.
// It needs libgmp at build time (libgmp-dev on Debian, brew install gmp on
// macOS) and is used to cross-check the word engine on very large indices.

package fibonacci

import (
	"context"
	"math/bits"

	"github.com/agbru/fibdrv/internal/bignum"
	"github.com/ncw/gmp"
)

// AlgoGMP is the registry name of the GMP calculator.
const AlgoGMP = "gmp"

func init() {
	RegisterCalculator(AlgoGMP, func() coreCalculator { return &GMPCalculator{} })
}

// GMPCalculator runs fast doubling on gmp.Int values and converts the
// result into a Magnitude. It is an independent oracle, not a faster path:
// the conversion copies the result once.
type GMPCalculator struct{}

// Name returns "GMP (Fast Doubling)".
func (c *GMPCalculator) Name() string {
	return "GMP (Fast Doubling)"
}

// gmpDoublingStep turns (F(k), F(k+1)) in (a, b) into (F(2k), F(2k+1)).
// t1 and t2 are scratch values.
func gmpDoublingStep(a, b, t1, t2 *gmp.Int) {
	t1.MulUint32(b, 2)
	t1.Sub(t1, a)
	t1.Mul(a, t1)

	t2.Mul(a, a)
	a.Mul(b, b)
	t2.Add(t2, a)

	a.Set(t1)
	b.Set(t2)
}

// CalculateCore implements coreCalculator.
func (c *GMPCalculator) CalculateCore(ctx context.Context, reporter ProgressReporter, n uint64, opts Options) (*bignum.Magnitude, error) {
	if err := checkIndex(n); err != nil {
		return nil, err
	}
	a, b := gmp.NewInt(0), gmp.NewInt(1)
	t1, t2 := gmp.NewInt(0), gmp.NewInt(0)

	total := uint64(bits.Len64(n))
	tracker := &progressTracker{report: reporter, weight: doublingWork}
	for i := int(total) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		gmpDoublingStep(a, b, t1, t2)
		if (n>>uint(i))&1 == 1 {
			t1.Add(a, b)
			a.Set(b)
			b.Set(t1)
		}
		tracker.step(total-uint64(i), total)
	}
	return gmpToMagnitude(a, opts)
}

// gmpToMagnitude converts the big-endian byte form of g into words.
func gmpToMagnitude(g *gmp.Int, opts Options) (*bignum.Magnitude, error) {
	buf := g.Bytes()
	words := make([]uint32, (len(buf)+3)/4)
	for i := range buf {
		shift := uint(i%4) * 8
		words[i/4] |= uint32(buf[len(buf)-1-i]) << shift
	}
	m, err := bignum.NewWithAllocator(opts.allocator(), len(words))
	if err != nil {
		return nil, err
	}
	if err := m.SetWords(words); err != nil {
		_ = m.Free()
		return nil, err
	}
	return m, nil
}
