package cli

import (
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/agbru/fibdrv/internal/bignum"
)

// Result is a finished calculation converted for display. It holds no
// reference to the magnitude, which the caller may free.
type Result struct {
	Algorithm string
	N         uint64
	Duration  time.Duration
	Decimal   string
	Hex       string
	Bits      int
	Words     int
}

// NewResult renders value with printer.
//
// Parameters:
//   - algo: The name of the calculator that produced value.
//   - n: The Fibonacci index.
//   - value: F(n).
//   - d: The calculation time.
//   - printer: The decimal conversion to use.
//
// Returns:
//   - Result: The rendered result.
//   - error: The printer error, typically bignum.ErrAllocation.
func NewResult(algo string, n uint64, value *bignum.Magnitude, d time.Duration, printer bignum.Printer) (Result, error) {
	decimal, err := printer.Print(value)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Algorithm: algo,
		N:         n,
		Duration:  d,
		Decimal:   decimal,
		Hex:       value.Text16(),
		Bits:      value.BitLen(),
		Words:     value.Len(),
	}, nil
}

// Checksum returns the xxhash64 of the decimal digits, the same value the
// HTTP API reports.
func (r Result) Checksum() uint64 {
	return xxhash.Sum64String(r.Decimal)
}
