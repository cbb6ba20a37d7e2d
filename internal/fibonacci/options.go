package fibonacci

import (
	"fmt"

	"fortio.org/safecast"

	"github.com/agbru/fibdrv/internal/bignum"
)

// Options configures a Fibonacci calculation.
type Options struct {
	// MaxWords caps the size, in 32-bit words, of any single buffer the
	// calculation allocates. Exceeding it fails the calculation with
	// bignum.ErrAllocation. Zero means no cap beyond the engine's own limit.
	MaxWords int
}

// allocator returns the allocator a calculation with these options uses.
func (o Options) allocator() bignum.Allocator {
	if o.MaxWords > 0 {
		return bignum.NewLimitedAllocator(o.MaxWords)
	}
	return bignum.DefaultAllocator()
}

// EstimateWords returns an upper bound on the number of 32-bit words needed
// to hold F(n).
//
// Parameters:
//   - n: The Fibonacci index.
//
// Returns:
//   - int: The word count.
//   - error: An error wrapping bignum.ErrAllocation if the count does not
//     fit in an int.
func EstimateWords(n uint64) (int, error) {
	nbits := uint64(float64(n)*bitsPerIndex) + 2
	words, err := safecast.Conv[int](nbits/32 + 1)
	if err != nil {
		return 0, fmt.Errorf("%w: F(%d) is too large: %v", bignum.ErrAllocation, n, err)
	}
	return words, nil
}

// checkIndex rejects indices whose Fibonacci number cannot fit in a
// magnitude.
func checkIndex(n uint64) error {
	words, err := EstimateWords(n)
	if err != nil {
		return err
	}
	if words > bignum.MaxWords {
		return fmt.Errorf("%w: F(%d) needs about %d words", bignum.ErrAllocation, n, words)
	}
	return nil
}
