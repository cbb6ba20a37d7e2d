package fibonacci

import (
	"context"
	"errors"
	"testing"

	"github.com/agbru/fibdrv/internal/bignum"
)

// mockCoreCalculator is a trivial coreCalculator returning zero.
type mockCoreCalculator struct{}

func (m *mockCoreCalculator) Name() string { return "mock" }
func (m *mockCoreCalculator) CalculateCore(ctx context.Context, reporter ProgressReporter, n uint64, opts Options) (*bignum.Magnitude, error) {
	return &bignum.Magnitude{}, nil
}

func TestDefaultFactory(t *testing.T) {
	t.Parallel()
	factory := NewDefaultFactory()

	if got := factory.List(); len(got) != 3 || got[0] != AlgoDefinition || got[1] != AlgoFast || got[2] != AlgoFastNoSub {
		t.Fatalf("List() = %v", got)
	}

	t.Run("RegisterAndHas", func(t *testing.T) {
		if err := factory.Register("test", func() coreCalculator { return &mockCoreCalculator{} }); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if !factory.Has("test") {
			t.Error("Factory should have 'test' calculator")
		}
		if factory.Has("nonexistent") {
			t.Error("Factory should not have 'nonexistent' calculator")
		}
		if err := factory.Register("", nil); err == nil {
			t.Error("Register with empty name should fail")
		}
	})

	t.Run("GetAll", func(t *testing.T) {
		calculators := factory.GetAll()
		if _, ok := calculators["test"]; !ok {
			t.Error("GetAll should contain 'test' calculator")
		}
		if _, ok := calculators[AlgoFastNoSub]; !ok {
			t.Error("GetAll should contain the built-in calculators")
		}
	})

	t.Run("CreateAndGet", func(t *testing.T) {
		created, err := factory.Create(AlgoFast)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		cached1, _ := factory.Get(AlgoFast)
		cached2, _ := factory.Get(AlgoFast)
		if cached1 != cached2 {
			t.Error("Get should return the cached instance")
		}
		if created == cached1 {
			t.Error("Create should return a fresh instance")
		}

		var unknown *UnknownCalculatorError
		if _, err := factory.Get("nonexistent"); !errors.As(err, &unknown) || unknown.Name != "nonexistent" {
			t.Errorf("Get(nonexistent) error = %v", err)
		}
		if _, err := factory.Create("nonexistent"); err == nil {
			t.Error("Create should fail for nonexistent calculator")
		}
	})

	t.Run("ReRegisterDropsCache", func(t *testing.T) {
		before := factory.MustGet("test")
		_ = factory.Register("test", func() coreCalculator { return &mockCoreCalculator{} })
		if after := factory.MustGet("test"); after == before {
			t.Error("re-registration should invalidate the cached calculator")
		}
	})
}

func TestMustGetPanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Error("MustGet should panic for an unknown name")
		}
	}()
	NewDefaultFactory().MustGet("nope")
}

func TestGlobalFactory(t *testing.T) {
	t.Parallel()
	if GlobalFactory() != globalFactory {
		t.Fatal("GlobalFactory should return the package factory")
	}
	for _, name := range []string{AlgoDefinition, AlgoFast, AlgoFastNoSub} {
		if !GlobalFactory().Has(name) {
			t.Errorf("global factory misses %q", name)
		}
	}
}

func TestTestFactory(t *testing.T) {
	t.Parallel()
	mock := &MockCalculator{NameValue: "Mock"}
	f := NewTestFactory(map[string]Calculator{"b": mock, "a": mock})
	if got := f.List(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("List() = %v", got)
	}
	if c, err := f.Create("a"); err != nil || c.Name() != "Mock" {
		t.Errorf("Create(a) = %v, %v", c, err)
	}
	if _, err := f.Get("z"); err == nil {
		t.Error("Get(z) should fail")
	}
	if len(f.GetAll()) != 2 {
		t.Error("GetAll should return both calculators")
	}
}
