//go:build gmp

package fibonacci

import (
	"context"
	"testing"

	"github.com/agbru/fibdrv/internal/bignum"
)

func TestGMPCalculatorMatchesEngine(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(&GMPCalculator{})
	for _, n := range []uint64{0, 1, 2, 93, 94, 1000, 4097, 65536, 100_003} {
		got, err := calc.Calculate(context.Background(), nil, 0, n, Options{})
		if err != nil {
			t.Fatalf("gmp F(%d) failed: %v", n, err)
		}
		var want bignum.Magnitude
		if err := FastDoubling(&want, n); err != nil {
			t.Fatalf("FastDoubling(%d) failed: %v", n, err)
		}
		if got.Cmp(&want) != 0 {
			t.Errorf("F(%d): gmp and engine disagree", n)
		}
	}
}

func TestGMPCalculatorRegistered(t *testing.T) {
	t.Parallel()
	if !GlobalFactory().Has(AlgoGMP) {
		t.Errorf("global factory misses %q", AlgoGMP)
	}
}
