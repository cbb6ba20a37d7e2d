package bignum

import (
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func wordsGen() gopter.Gen {
	return gen.SliceOf(gen.UInt32())
}

// TestArithmetic_PropertyBased checks add, sub and mul against math/big on
// random word sequences, including operands with high zero words that
// SetWords must strip.
func TestArithmetic_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("add matches math/big", prop.ForAll(
		func(aw, bw []uint32) bool {
			a, b := fromWords(t, aw), fromWords(t, bw)
			var c Magnitude
			if err := c.Add(a, b); err != nil {
				return false
			}
			want := new(big.Int).Add(wordsToBig(aw), wordsToBig(bw))
			return isCanonical(&c) && toBig(&c).Cmp(want) == 0
		},
		wordsGen(), wordsGen(),
	))

	properties.Property("sub undoes add", prop.ForAll(
		func(aw, bw []uint32) bool {
			a, b := fromWords(t, aw), fromWords(t, bw)
			var c Magnitude
			if err := c.Add(a, b); err != nil {
				return false
			}
			if err := c.Sub(&c, b); err != nil {
				return false
			}
			return isCanonical(&c) && c.Cmp(a) == 0
		},
		wordsGen(), wordsGen(),
	))

	properties.Property("mul matches math/big and is canonical", prop.ForAll(
		func(aw, bw []uint32) bool {
			a, b := fromWords(t, aw), fromWords(t, bw)
			var c Magnitude
			if err := c.Mul(a, b); err != nil {
				return false
			}
			want := new(big.Int).Mul(wordsToBig(aw), wordsToBig(bw))
			return isCanonical(&c) && toBig(&c).Cmp(want) == 0
		},
		wordsGen(), wordsGen(),
	))

	properties.Property("squaring in place", prop.ForAll(
		func(aw []uint32) bool {
			a := fromWords(t, aw)
			want := new(big.Int).Mul(wordsToBig(aw), wordsToBig(aw))
			if err := a.Mul(a, a); err != nil {
				return false
			}
			return isCanonical(a) && toBig(a).Cmp(want) == 0
		},
		wordsGen(),
	))

	properties.TestingRun(t)
}

func TestAddCarryGrowsResult(t *testing.T) {
	t.Parallel()
	a := fromWords(t, []uint32{0xFFFFFFFF, 0xFFFFFFFF})
	one := fromWords(t, []uint32{1})
	var c Magnitude
	if err := c.Add(a, one); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if w := c.Words(); len(w) != 3 || w[0] != 0 || w[1] != 0 || w[2] != 1 {
		t.Errorf("0xFFFFFFFFFFFFFFFF + 1 = %v, want [0 0 1]", w)
	}
}

func TestAddAliasing(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		run  func(a, b *Magnitude) (*Magnitude, error)
	}{
		{"z=a", func(a, b *Magnitude) (*Magnitude, error) { return a, a.Add(a, b) }},
		{"z=b", func(a, b *Magnitude) (*Magnitude, error) { return b, b.Add(a, b) }},
		{"z=a=b", func(a, _ *Magnitude) (*Magnitude, error) { return a, a.Add(a, a) }},
	}
	aw := []uint32{0xFFFFFFFF, 0x12345678, 0xFFFFFFFF}
	bw := []uint32{0x00000001, 0xFFFFFFFF}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a, b := fromWords(t, aw), fromWords(t, bw)
			var want *big.Int
			if tt.name == "z=a=b" {
				want = new(big.Int).Add(wordsToBig(aw), wordsToBig(aw))
			} else {
				want = new(big.Int).Add(wordsToBig(aw), wordsToBig(bw))
			}
			z, err := tt.run(a, b)
			if err != nil {
				t.Fatalf("Add failed: %v", err)
			}
			if toBig(z).Cmp(want) != 0 {
				t.Errorf("got %s, want %s", toBig(z), want)
			}
		})
	}
}

func TestSubNormalizes(t *testing.T) {
	t.Parallel()
	a := fromWords(t, []uint32{5, 7, 9})
	b := fromWords(t, []uint32{3, 7, 9})
	var c Magnitude
	if err := c.Sub(a, b); err != nil {
		t.Fatalf("Sub failed: %v", err)
	}
	if w := c.Words(); len(w) != 1 || w[0] != 2 {
		t.Errorf("Sub = %v, want [2]", w)
	}

	if err := c.Sub(a, a); err != nil {
		t.Fatalf("Sub failed: %v", err)
	}
	if !c.IsZero() {
		t.Errorf("a - a = %v, want zero", c.Words())
	}

	// Borrow across words, in place on the subtrahend.
	x := fromWords(t, []uint32{0, 0, 1})
	one := fromWords(t, []uint32{1})
	if err := one.Sub(x, one); err != nil {
		t.Fatalf("Sub failed: %v", err)
	}
	if w := one.Words(); len(w) != 2 || w[0] != 0xFFFFFFFF || w[1] != 0xFFFFFFFF {
		t.Errorf("2^64 - 1 = %v, want [0xffffffff 0xffffffff]", w)
	}
}

func TestMulZeroAndSize(t *testing.T) {
	t.Parallel()
	a := fromWords(t, []uint32{3, 4})
	var zero Magnitude
	c := fromWords(t, []uint32{9, 9, 9})
	if err := c.Mul(a, &zero); err != nil {
		t.Fatalf("Mul failed: %v", err)
	}
	if !c.IsZero() {
		t.Errorf("a * 0 = %v, want zero", c.Words())
	}

	// Leading words 0xFFFF and 0xFFFF: 16+16 bits fit one word less.
	x := fromWords(t, []uint32{0xFFFF})
	if err := c.Mul(x, x); err != nil {
		t.Fatalf("Mul failed: %v", err)
	}
	if w := c.Words(); len(w) != 1 || w[0] != 0xFFFE0001 {
		t.Errorf("0xFFFF^2 = %v, want [0xfffe0001]", w)
	}

	y := fromWords(t, []uint32{0xFFFFFFFF})
	if err := c.Mul(y, y); err != nil {
		t.Fatalf("Mul failed: %v", err)
	}
	if w := c.Words(); len(w) != 2 || w[0] != 1 || w[1] != 0xFFFFFFFE {
		t.Errorf("0xFFFFFFFF^2 = %v, want [1 0xfffffffe]", w)
	}
}
