package fibonacci

import (
	"fmt"
	"sort"
	"sync"
)

// Registry names of the built-in algorithms.
const (
	AlgoDefinition = "definition"
	AlgoFast       = "fast"
	AlgoFastNoSub  = "fast-nosub"
)

// CalculatorFactory creates and caches calculators by name. It lets callers
// inject a different set of algorithms, typically mocks in tests.
type CalculatorFactory interface {
	// Create returns a fresh Calculator, or an error for an unknown name.
	Create(name string) (Calculator, error)

	// Get returns a cached Calculator, or an error for an unknown name.
	Get(name string) (Calculator, error)

	// List returns the registered names in sorted order.
	List() []string

	// Register adds or replaces a calculator type.
	Register(name string, creator func() coreCalculator) error

	// GetAll returns every registered calculator.
	GetAll() map[string]Calculator
}

// DefaultFactory is the thread-safe CalculatorFactory used by the
// application.
type DefaultFactory struct {
	mu          sync.RWMutex
	creators    map[string]func() coreCalculator
	calculators map[string]Calculator
}

// NewDefaultFactory returns a factory with the three built-in algorithms:
//   - "definition": DefinitionCalculator (O(n) additions)
//   - "fast": FastDoublingCalculator (O(log n) multiplications)
//   - "fast-nosub": NoSubFastDoublingCalculator (O(log n), no subtraction)
//
// Returns:
//   - *DefaultFactory: The populated factory.
func NewDefaultFactory() *DefaultFactory {
	f := &DefaultFactory{
		creators:    make(map[string]func() coreCalculator),
		calculators: make(map[string]Calculator),
	}
	_ = f.Register(AlgoDefinition, func() coreCalculator { return &DefinitionCalculator{} })
	_ = f.Register(AlgoFast, func() coreCalculator { return &FastDoublingCalculator{} })
	_ = f.Register(AlgoFastNoSub, func() coreCalculator { return &NoSubFastDoublingCalculator{} })
	return f
}

// Register adds a calculator type, dropping any cached instance of a
// previous registration under the same name.
func (f *DefaultFactory) Register(name string, creator func() coreCalculator) error {
	if name == "" || creator == nil {
		return fmt.Errorf("invalid registration for calculator %q", name)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creators[name] = creator
	delete(f.calculators, name)
	return nil
}

// Create returns a new, uncached Calculator.
func (f *DefaultFactory) Create(name string) (Calculator, error) {
	f.mu.RLock()
	creator, ok := f.creators[name]
	f.mu.RUnlock()
	if !ok {
		return nil, &UnknownCalculatorError{Name: name}
	}
	return NewCalculator(creator()), nil
}

// Get returns the cached Calculator for name, creating it on first use.
func (f *DefaultFactory) Get(name string) (Calculator, error) {
	f.mu.RLock()
	calc, ok := f.calculators[name]
	f.mu.RUnlock()
	if ok {
		return calc, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if calc, ok := f.calculators[name]; ok {
		return calc, nil
	}
	creator, ok := f.creators[name]
	if !ok {
		return nil, &UnknownCalculatorError{Name: name}
	}
	calc = NewCalculator(creator())
	f.calculators[name] = calc
	return calc, nil
}

// List returns the registered names in sorted order.
func (f *DefaultFactory) List() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.creators))
	for name := range f.creators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetAll instantiates any calculator not yet cached and returns a copy of
// the cache.
func (f *DefaultFactory) GetAll() map[string]Calculator {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, creator := range f.creators {
		if _, ok := f.calculators[name]; !ok {
			f.calculators[name] = NewCalculator(creator())
		}
	}
	out := make(map[string]Calculator, len(f.calculators))
	for name, calc := range f.calculators {
		out[name] = calc
	}
	return out
}

// MustGet is like Get but panics for an unknown name.
func (f *DefaultFactory) MustGet(name string) Calculator {
	calc, err := f.Get(name)
	if err != nil {
		panic(fmt.Sprintf("fibonacci: required calculator not found: %s", name))
	}
	return calc
}

// Has reports whether name is registered.
func (f *DefaultFactory) Has(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.creators[name]
	return ok
}

var globalFactory = NewDefaultFactory()

// GlobalFactory returns the process-wide factory.
func GlobalFactory() *DefaultFactory {
	return globalFactory
}

// RegisterCalculator registers a calculator in the global factory.
func RegisterCalculator(name string, creator func() coreCalculator) error {
	return globalFactory.Register(name, creator)
}

// UnknownCalculatorError is returned when a calculator name is not
// registered.
type UnknownCalculatorError struct {
	Name string
}

func (e *UnknownCalculatorError) Error() string {
	return "unknown calculator: " + e.Name
}
