// Command generate-golden writes the Fibonacci golden file used by the
// engine tests. Values come from math/big, independent of the bignum
// package under test.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
)

// GoldenData is one entry of the golden file.
type GoldenData struct {
	N      uint64 `json:"n"`
	Result string `json:"result"`
	// Hex is the lowercase hexadecimal form without prefix.
	Hex string `json:"hex"`
	// Words is the number of significant 32-bit words.
	Words int `json:"words"`
}

// targets covers the first values, the indices around the 32, 64 and 128
// bit boundaries, and powers of two and ten up to F(10000).
var targets = []uint64{
	0, 1, 2, 3, 4, 5, 10, 20, 47, 48, 50, 92, 93, 94, 100,
	128, 186, 187, 256, 500, 512, 1000, 1024,
	2000, 2048, 5000, 8192, 10000,
}

func main() {
	outputDir := flag.String("out", "internal/fibonacci/testdata", "Output directory for the golden file")
	flag.Parse()

	if err := generate(*outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func generate(dir string) (err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	filename := filepath.Join(dir, "fibonacci_golden.json")
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	data := make([]GoldenData, 0, len(targets))
	for _, n := range targets {
		f := fibBig(n)
		data = append(data, GoldenData{
			N:      n,
			Result: f.String(),
			Hex:    f.Text(16),
			Words:  (f.BitLen() + 31) / 32,
		})
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	fmt.Printf("Wrote %d cases to %s\n", len(data), filename)
	return nil
}

// fibBig computes F(n) iteratively with math/big.
func fibBig(n uint64) *big.Int {
	a, b := big.NewInt(0), big.NewInt(1)
	for i := uint64(0); i < n; i++ {
		a.Add(a, b)
		a, b = b, a
	}
	return a
}
