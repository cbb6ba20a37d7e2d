package bignum

import (
	"math/big"
	"testing"
)

// fromBig builds a magnitude holding x.
func fromBig(t testing.TB, x *big.Int) *Magnitude {
	t.Helper()
	b := x.Bytes()
	ws := make([]uint32, (len(b)+3)/4)
	for i := range b {
		// b is big-endian; byte i from the end lands in word i/4.
		j := len(b) - 1 - i
		ws[i/4] |= uint32(b[j]) << (8 * (i % 4))
	}
	m, err := New(len(ws))
	if err != nil {
		t.Fatalf("New(%d) failed: %v", len(ws), err)
	}
	if err := m.SetWords(ws); err != nil {
		t.Fatalf("SetWords failed: %v", err)
	}
	return m
}

// fromWords builds a magnitude from little-endian words.
func fromWords(t testing.TB, ws []uint32) *Magnitude {
	t.Helper()
	m := &Magnitude{}
	if err := m.SetWords(ws); err != nil {
		t.Fatalf("SetWords failed: %v", err)
	}
	return m
}

// toBig returns the value of m as a big.Int.
func toBig(m *Magnitude) *big.Int {
	x := new(big.Int)
	for i := len(m.words) - 1; i >= 0; i-- {
		x.Lsh(x, _W)
		x.Or(x, new(big.Int).SetUint64(uint64(m.words[i])))
	}
	return x
}

// wordsToBig returns the value of little-endian words as a big.Int.
func wordsToBig(ws []uint32) *big.Int {
	return toBig(&Magnitude{words: ws})
}

// isCanonical reports whether m has no high zero word.
func isCanonical(m *Magnitude) bool {
	return len(m.words) == 0 || m.words[len(m.words)-1] != 0
}
