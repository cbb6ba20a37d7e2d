package service

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cespare/xxhash/v2"

	"github.com/agbru/fibdrv/internal/bignum"
	"github.com/agbru/fibdrv/internal/config"
	"github.com/agbru/fibdrv/internal/device"
	apperrors "github.com/agbru/fibdrv/internal/errors"
	"github.com/agbru/fibdrv/internal/fibonacci"
	"github.com/agbru/fibdrv/internal/logging"
)

// countingCalculator returns n as the "Fibonacci number" and counts calls.
func countingCalculator(calls *atomic.Int32) *fibonacci.MockCalculator {
	return &fibonacci.MockCalculator{
		NameValue: "counting",
		Fn: func(ctx context.Context, n uint64) (*bignum.Magnitude, error) {
			calls.Add(1)
			m, err := bignum.New(0)
			if err != nil {
				return nil, err
			}
			return m, m.SetUint64(n)
		},
	}
}

func TestCalculate(t *testing.T) {
	t.Parallel()
	svc := NewCalculatorService(fibonacci.GlobalFactory(), config.AppConfig{Printer: "chunk"}, 1000, logging.NewNopLogger())

	for _, algo := range svc.Algorithms() {
		r, err := svc.Calculate(context.Background(), algo, 100)
		if err != nil {
			t.Fatalf("%s: Calculate failed: %v", algo, err)
		}
		if r.Decimal != "354224848179261915075" {
			t.Errorf("%s: F(100) = %s", algo, r.Decimal)
		}
		if r.Checksum != xxhash.Sum64String(r.Decimal) || r.Algorithm != algo || r.N != 100 || r.Cached {
			t.Errorf("%s: metadata = %+v", algo, r)
		}
	}
}

func TestCalculateErrors(t *testing.T) {
	t.Parallel()
	boom := errors.New("calculation failed")
	factory := fibonacci.NewTestFactory(map[string]fibonacci.Calculator{
		fibonacci.AlgoFast: &fibonacci.MockCalculator{Err: boom},
	})
	svc := NewCalculatorService(factory, config.AppConfig{}, 100, logging.NewNopLogger())

	if _, err := svc.Calculate(context.Background(), fibonacci.AlgoFast, 200); !errors.Is(err, ErrMaxValueExceeded) {
		t.Errorf("n above max error = %v, want ErrMaxValueExceeded", err)
	}
	var unknown *fibonacci.UnknownCalculatorError
	if _, err := svc.Calculate(context.Background(), "matrix", 10); !errors.As(err, &unknown) {
		t.Errorf("unknown algorithm error = %v", err)
	}
	if _, err := svc.Calculate(context.Background(), fibonacci.AlgoFast, 10); !errors.Is(err, boom) {
		t.Errorf("calculation error = %v, want %v", err, boom)
	}
	// Registered as a device method but missing from the factory.
	if _, err := svc.Calculate(context.Background(), fibonacci.AlgoDefinition, 10); !errors.Is(err, device.ErrUnknownMethod) {
		t.Errorf("unregistered algorithm error = %v", err)
	}
}

func TestCalculateRejectsLargeN(t *testing.T) {
	t.Parallel()
	svc := NewCalculatorService(fibonacci.GlobalFactory(), config.AppConfig{}, 100, logging.NewNopLogger())
	_, err := svc.Calculate(context.Background(), fibonacci.AlgoFast, 101)
	var invalid apperrors.ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if invalid.Field != "n" || invalid.Value != uint64(101) {
		t.Errorf("ValidationError = %+v", invalid)
	}
	if !errors.Is(err, ErrMaxValueExceeded) {
		t.Errorf("error = %v, want ErrMaxValueExceeded", err)
	}
}

func TestUnknownPrinterIsLogged(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := logging.NewStdLoggerAdapter(log.New(&buf, "", 0))
	svc := NewCalculatorService(fibonacci.GlobalFactory(), config.AppConfig{Printer: "roman"}, 100, logger)

	if !strings.Contains(buf.String(), "[WARN] ignoring printer setting") || !strings.Contains(buf.String(), "roman") {
		t.Errorf("log output = %q", buf.String())
	}
	r, err := svc.Calculate(context.Background(), fibonacci.AlgoFast, 12)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if r.Decimal != "144" {
		t.Errorf("Decimal = %s, want 144", r.Decimal)
	}
}

func TestCalculateNoLimit(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	factory := fibonacci.NewTestFactory(map[string]fibonacci.Calculator{
		fibonacci.AlgoFast: countingCalculator(&calls),
	})
	svc := NewCalculatorService(factory, config.AppConfig{}, 0, logging.NewNopLogger())
	r, err := svc.Calculate(context.Background(), fibonacci.AlgoFast, 1_000_000)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if r.Decimal != "1000000" {
		t.Errorf("Decimal = %s", r.Decimal)
	}
}

func TestCalculateCache(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	factory := fibonacci.NewTestFactory(map[string]fibonacci.Calculator{
		fibonacci.AlgoFast: countingCalculator(&calls),
	})
	svc := NewCalculatorService(factory, config.AppConfig{CacheSize: 2}, 100, logging.NewNopLogger())
	ctx := context.Background()

	first, err := svc.Calculate(ctx, fibonacci.AlgoFast, 10)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	second, err := svc.Calculate(ctx, fibonacci.AlgoFast, 10)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calculator called %d times, want 1", calls.Load())
	}
	if first.Cached || !second.Cached || second.Decimal != first.Decimal {
		t.Errorf("first = %+v, second = %+v", first, second)
	}

	// Two more keys evict n=10 from a two-entry cache.
	_, _ = svc.Calculate(ctx, fibonacci.AlgoFast, 11)
	_, _ = svc.Calculate(ctx, fibonacci.AlgoFast, 12)
	_, _ = svc.Calculate(ctx, fibonacci.AlgoFast, 10)
	if calls.Load() != 4 || svc.CacheLen() != 2 {
		t.Errorf("calls = %d, cache length = %d; want 4 and 2", calls.Load(), svc.CacheLen())
	}
}

func TestCalculateWithoutCache(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	factory := fibonacci.NewTestFactory(map[string]fibonacci.Calculator{
		fibonacci.AlgoFast: countingCalculator(&calls),
	})
	svc := NewCalculatorService(factory, config.AppConfig{}, 100, logging.NewNopLogger())
	for i := 0; i < 3; i++ {
		if _, err := svc.Calculate(context.Background(), fibonacci.AlgoFast, 5); err != nil {
			t.Fatalf("Calculate failed: %v", err)
		}
	}
	if calls.Load() != 3 || svc.CacheLen() != 0 {
		t.Errorf("calls = %d, cache length = %d", calls.Load(), svc.CacheLen())
	}
}

func TestCalculateConcurrent(t *testing.T) {
	t.Parallel()
	svc := NewCalculatorService(fibonacci.GlobalFactory(), config.AppConfig{}, 1000, logging.NewNopLogger())
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n uint64) {
			defer wg.Done()
			if _, err := svc.Calculate(context.Background(), fibonacci.AlgoFastNoSub, n); err != nil {
				errs <- err
			}
		}(uint64(100 + i))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent Calculate failed: %v", err)
	}
}

func TestCalculateCancelledWhileWaiting(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	started := make(chan struct{})
	factory := fibonacci.NewTestFactory(map[string]fibonacci.Calculator{
		fibonacci.AlgoFast: &fibonacci.MockCalculator{
			Fn: func(ctx context.Context, n uint64) (*bignum.Magnitude, error) {
				close(started)
				<-release
				return &bignum.Magnitude{}, nil
			},
		},
	})
	svc := NewCalculatorService(factory, config.AppConfig{}, 100, logging.NewNopLogger())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Calculate(context.Background(), fibonacci.AlgoFast, 1)
		done <- err
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Calculate(ctx, fibonacci.AlgoFast, 2); !errors.Is(err, device.ErrBusy) {
		t.Errorf("waiting Calculate error = %v, want ErrBusy", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Errorf("first Calculate failed: %v", err)
	}
}

func TestTime(t *testing.T) {
	t.Parallel()
	svc := NewCalculatorService(fibonacci.GlobalFactory(), config.AppConfig{}, 100, logging.NewNopLogger())

	tm, err := svc.Time(context.Background(), "doubling-clz", 92)
	if err != nil {
		t.Fatalf("Time failed: %v", err)
	}
	if tm.Method != "doubling-clz" || tm.N != 92 || tm.Elapsed < 0 {
		t.Errorf("Time = %+v", tm)
	}
	if _, err := svc.Time(context.Background(), "vla", 10); !errors.Is(err, device.ErrUnknownMethod) {
		t.Errorf("unknown method error = %v", err)
	}
	if _, err := svc.Time(context.Background(), "fixed-pair", 101); !errors.Is(err, ErrMaxValueExceeded) {
		t.Errorf("n above max error = %v", err)
	}
}

func TestErrMaxValueExceeded(t *testing.T) {
	t.Parallel()
	if ErrMaxValueExceeded.Error() != "maximum n value exceeded" {
		t.Errorf("unexpected error message: %s", ErrMaxValueExceeded.Error())
	}
}
