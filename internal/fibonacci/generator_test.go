package fibonacci

import (
	"context"
	"errors"
	"testing"

	"github.com/agbru/fibdrv/internal/bignum"
)

func TestIterativeGenerator_Next(t *testing.T) {
	t.Parallel()
	gen := NewIterativeGenerator()
	ctx := context.Background()

	expected := []uint64{0, 1, 1, 2, 3, 5, 8, 13, 21, 34, 55, 89, 144, 233, 377}
	for i, exp := range expected {
		val, err := gen.Next(ctx)
		if err != nil {
			t.Fatalf("Next() error at index %d: %v", i, err)
		}
		if got, _ := val.Uint64(); got != exp {
			t.Errorf("F(%d) = %d, want %d", i, got, exp)
		}
		if gen.Index() != uint64(i) {
			t.Errorf("Index() = %d, want %d", gen.Index(), i)
		}
	}
}

func TestIterativeGenerator_Current(t *testing.T) {
	t.Parallel()
	gen := NewIterativeGenerator()
	ctx := context.Background()

	if cur, err := gen.Current(); cur != nil || err != nil {
		t.Fatalf("Current() before Next = %v, %v; want nil, nil", cur, err)
	}
	for i := 0; i < 10; i++ {
		if _, err := gen.Next(ctx); err != nil {
			t.Fatalf("Next failed: %v", err)
		}
	}
	cur, err := gen.Current()
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if got, _ := cur.Uint64(); got != 34 {
		t.Fatalf("Current() = %d, want 34", got)
	}

	// The returned value is a copy.
	if err := cur.SetWord32(999); err != nil {
		t.Fatalf("SetWord32 failed: %v", err)
	}
	again, _ := gen.Current()
	if got, _ := again.Uint64(); got != 34 {
		t.Errorf("Current() changed to %d after modifying a copy", got)
	}
}

func TestIterativeGenerator_Reset(t *testing.T) {
	t.Parallel()
	gen := NewIterativeGenerator()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, _ = gen.Next(ctx)
	}
	gen.Reset()
	val, err := gen.Next(ctx)
	if err != nil {
		t.Fatalf("Next after Reset failed: %v", err)
	}
	if !val.IsZero() || gen.Index() != 0 {
		t.Errorf("after Reset, Next() = %s at index %d; want 0 at 0", val, gen.Index())
	}
}

func TestIterativeGenerator_Skip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name string
		prep int // Next calls before Skip
		n    uint64
	}{
		{"from start", 0, 100},
		{"short forward", 3, 50},
		{"long forward", 1, 5000},
		{"backward", 200, 10},
		{"to zero", 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			gen := NewIterativeGenerator()
			for i := 0; i < tt.prep; i++ {
				if _, err := gen.Next(ctx); err != nil {
					t.Fatalf("Next failed: %v", err)
				}
			}
			got, err := gen.Skip(ctx, tt.n)
			if err != nil {
				t.Fatalf("Skip(%d) failed: %v", tt.n, err)
			}
			var want bignum.Magnitude
			if err := FastDoubling(&want, tt.n); err != nil {
				t.Fatalf("FastDoubling failed: %v", err)
			}
			if got.Cmp(&want) != 0 {
				t.Errorf("Skip(%d) = %s, want %s", tt.n, got, &want)
			}

			// The sequence continues from the new position.
			next, err := gen.Next(ctx)
			if err != nil {
				t.Fatalf("Next after Skip failed: %v", err)
			}
			if err := FastDoubling(&want, tt.n+1); err != nil {
				t.Fatalf("FastDoubling failed: %v", err)
			}
			if next.Cmp(&want) != 0 || gen.Index() != tt.n+1 {
				t.Errorf("Next after Skip(%d) = %s at %d", tt.n, next, gen.Index())
			}
		})
	}
}

func TestIterativeGenerator_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gen := NewIterativeGenerator()
	if _, err := gen.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Next error = %v, want context.Canceled", err)
	}
	if _, err := gen.Skip(ctx, 10_000); !errors.Is(err, context.Canceled) {
		t.Errorf("Skip error = %v, want context.Canceled", err)
	}
}

var _ SequenceGenerator = (*IterativeGenerator)(nil)
