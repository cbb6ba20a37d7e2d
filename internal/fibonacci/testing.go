package fibonacci

import (
	"context"
	"sort"

	"github.com/agbru/fibdrv/internal/bignum"
)

// MockCalculator is a configurable Calculator for tests in other packages.
// Fn takes precedence over Result and Err when set.
type MockCalculator struct {
	NameValue string
	Result    *bignum.Magnitude
	Err       error
	Fn        func(ctx context.Context, n uint64) (*bignum.Magnitude, error)
}

// Name returns NameValue, or "mock" when empty.
func (m *MockCalculator) Name() string {
	if m.NameValue == "" {
		return "mock"
	}
	return m.NameValue
}

// Calculate implements Calculator.
func (m *MockCalculator) Calculate(ctx context.Context, progressChan chan<- ProgressUpdate, calcIndex int, n uint64, opts Options) (*bignum.Magnitude, error) {
	if m.Fn != nil {
		return m.Fn(ctx, n)
	}
	if progressChan != nil {
		progressChan <- ProgressUpdate{CalculatorIndex: calcIndex, Value: 1.0}
	}
	return m.Result, m.Err
}

// TestFactory is a CalculatorFactory over a fixed set of calculators.
type TestFactory struct {
	calculators map[string]Calculator
}

// NewTestFactory creates a factory serving exactly the given calculators.
func NewTestFactory(calculators map[string]Calculator) *TestFactory {
	if calculators == nil {
		calculators = make(map[string]Calculator)
	}
	return &TestFactory{calculators: calculators}
}

// Create returns the calculator by name.
func (f *TestFactory) Create(name string) (Calculator, error) {
	return f.Get(name)
}

// Get returns the calculator by name.
func (f *TestFactory) Get(name string) (Calculator, error) {
	calc, ok := f.calculators[name]
	if !ok {
		return nil, &UnknownCalculatorError{Name: name}
	}
	return calc, nil
}

// List returns the calculator names in sorted order.
func (f *TestFactory) List() []string {
	names := make([]string, 0, len(f.calculators))
	for name := range f.calculators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register is a no-op: the set is fixed at construction.
func (f *TestFactory) Register(string, func() coreCalculator) error {
	return nil
}

// GetAll returns a copy of the calculators.
func (f *TestFactory) GetAll() map[string]Calculator {
	out := make(map[string]Calculator, len(f.calculators))
	for k, v := range f.calculators {
		out[k] = v
	}
	return out
}
