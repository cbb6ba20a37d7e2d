package fibonacci

//go:generate mockgen -source=generator.go -destination=mocks/mock_generator.go -package=mocks

import (
	"context"
	"sync"

	"github.com/agbru/fibdrv/internal/bignum"
)

// SequenceGenerator produces consecutive Fibonacci numbers. Where a
// Calculator computes one F(n), a generator streams F(0), F(1), ...
//
// Example usage:
//
//	gen := fibonacci.NewIterativeGenerator()
//	for i := 0; i < 100; i++ {
//	    val, err := gen.Next(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(val)
//	}
type SequenceGenerator interface {
	// Next advances the generator and returns a copy of the new term. The
	// first call returns F(0).
	Next(ctx context.Context) (*bignum.Magnitude, error)

	// Current returns a copy of the current term, or nil before the first
	// call to Next.
	Current() (*bignum.Magnitude, error)

	// Index returns the index of the current term.
	Index() uint64

	// Reset rewinds the generator so that Next returns F(0) again.
	Reset()

	// Skip positions the generator on F(n) and returns a copy of it.
	Skip(ctx context.Context, n uint64) (*bignum.Magnitude, error)
}

// skipIterateLimit is the largest forward distance Skip walks term by term;
// farther targets are recomputed with fast doubling.
const skipIterateLimit = 1000

// IterativeGenerator is a SequenceGenerator holding the pair (F(i), F(i+1)).
// Each Next costs one addition. It is safe for concurrent use.
type IterativeGenerator struct {
	mu      sync.Mutex
	current bignum.Magnitude
	next    bignum.Magnitude
	index   uint64
	started bool
}

// NewIterativeGenerator returns a generator positioned before F(0).
func NewIterativeGenerator() *IterativeGenerator {
	g := &IterativeGenerator{}
	g.resetLocked()
	return g
}

func (g *IterativeGenerator) resetLocked() {
	_ = g.current.SetWord32(0)
	_ = g.next.SetWord32(1)
	g.index = 0
	g.started = false
}

// advanceLocked moves (current, next) to (next, current+next).
func (g *IterativeGenerator) advanceLocked() error {
	if err := g.current.Add(&g.current, &g.next); err != nil {
		return err
	}
	g.current.Swap(&g.next)
	g.index++
	return nil
}

func (g *IterativeGenerator) snapshotLocked() (*bignum.Magnitude, error) {
	out, err := bignum.New(g.current.Len())
	if err != nil {
		return nil, err
	}
	if err := out.Set(&g.current); err != nil {
		return nil, err
	}
	return out, nil
}

// Next implements SequenceGenerator.
func (g *IterativeGenerator) Next(ctx context.Context) (*bignum.Magnitude, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started {
		g.started = true
		return g.snapshotLocked()
	}
	if err := g.advanceLocked(); err != nil {
		return nil, err
	}
	return g.snapshotLocked()
}

// Current implements SequenceGenerator.
func (g *IterativeGenerator) Current() (*bignum.Magnitude, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.started {
		return nil, nil
	}
	return g.snapshotLocked()
}

// Index implements SequenceGenerator.
func (g *IterativeGenerator) Index() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.index
}

// Reset implements SequenceGenerator.
func (g *IterativeGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetLocked()
}

// Skip implements SequenceGenerator. Short forward moves iterate; anything
// else recomputes F(n) and F(n+1) with fast doubling.
func (g *IterativeGenerator) Skip(ctx context.Context, n uint64) (*bignum.Magnitude, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.started && n >= g.index && n-g.index <= skipIterateLimit {
		for g.index < n {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := g.advanceLocked(); err != nil {
				return nil, err
			}
		}
		return g.snapshotLocked()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var cur, next bignum.Magnitude
	if err := FastDoubling(&cur, n); err != nil {
		return nil, err
	}
	if err := FastDoubling(&next, n+1); err != nil {
		_ = cur.Free()
		return nil, err
	}
	g.current.Swap(&cur)
	g.next.Swap(&next)
	_ = cur.Free()
	_ = next.Free()
	g.index = n
	g.started = true
	return g.snapshotLocked()
}
