package fibonacci

import (
	"context"
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/agbru/fibdrv/internal/bignum"
)

// toBig converts a magnitude to a big.Int through its words.
func toBig(m *bignum.Magnitude) *big.Int {
	x := new(big.Int)
	ws := m.Words()
	for i := len(ws) - 1; i >= 0; i-- {
		x.Lsh(x, 32)
		x.Or(x, big.NewInt(int64(ws[i])))
	}
	return x
}

// TestCassinisIdentity_PropertyBased verifies Cassini's identity
//
//	F(n-1) * F(n+1) - F(n)² = (-1)ⁿ
//
// for every calculator on random n.
func TestCassinisIdentity_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	calculators := []coreCalculator{
		&DefinitionCalculator{},
		&FastDoublingCalculator{},
		&NoSubFastDoublingCalculator{},
	}

	for _, calculator := range calculators {
		properties.Property(calculator.Name()+" satisfies Cassini's Identity", prop.ForAll(
			func(n uint64) bool {
				ctx := context.Background()
				noop := func(float64) {}
				var f [3]*big.Int
				for i := range f {
					m, err := calculator.CalculateCore(ctx, noop, n-1+uint64(i), Options{})
					if err != nil {
						t.Logf("F(%d) failed: %v", n-1+uint64(i), err)
						return false
					}
					f[i] = toBig(m)
				}

				left := new(big.Int).Mul(f[0], f[2])
				left.Sub(left, new(big.Int).Mul(f[1], f[1]))
				right := big.NewInt(1)
				if n%2 != 0 {
					right.Neg(right)
				}
				return left.Cmp(right) == 0
			},
			gen.UInt64Range(1, 3000),
		))
	}

	properties.TestingRun(t)
}

// TestDoublingVariantsAgree_PropertyBased checks the two doubling variants
// against each other well beyond the exhaustive range.
func TestDoublingVariantsAgree_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("FastDoubling == FastDoublingNoSub", prop.ForAll(
		func(n uint64) bool {
			var a, b bignum.Magnitude
			if err := FastDoubling(&a, n); err != nil {
				return false
			}
			if err := FastDoublingNoSub(&b, n); err != nil {
				return false
			}
			return a.Cmp(&b) == 0
		},
		gen.UInt64Range(0, 50000),
	))

	properties.TestingRun(t)
}
