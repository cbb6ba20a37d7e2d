package fibonacci

//go:generate mockgen -source=calculator.go -destination=mocks/mock_calculator.go -package=mocks

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/agbru/fibdrv/internal/bignum"
)

var (
	calculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fibonacci_calculations_total",
			Help: "The total number of Fibonacci calculations processed",
		},
		[]string{"algorithm", "status"},
	)
	calculationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "fibonacci_calculation_duration_seconds",
			Help: "The duration of Fibonacci calculations in seconds",
		},
		[]string{"algorithm"},
	)
	resultWords = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fibonacci_result_words",
			Help:    "Size of computed Fibonacci numbers in 32-bit words",
			Buckets: prometheus.ExponentialBuckets(1, 4, 12),
		},
		[]string{"algorithm"},
	)
)

// Calculator is the public interface of a Fibonacci algorithm. It is what
// the orchestration layer, the device front end and the HTTP service use.
type Calculator interface {
	// Calculate computes F(n). It is safe for concurrent use: every call
	// works on its own magnitudes. Cancellation is observed between
	// iterations of the algorithm.
	//
	// Parameters:
	//   - ctx: The context for managing cancellation and deadlines.
	//   - progressChan: The channel for sending progress updates, may be nil.
	//   - calcIndex: A unique index for the calculator instance.
	//   - n: The index of the Fibonacci number to calculate.
	//   - opts: Configuration options for the calculation.
	//
	// Returns:
	//   - *bignum.Magnitude: F(n), owned by the caller.
	//   - error: A context error, or bignum.ErrAllocation (wrapped) when the
	//     result outgrows the allowed memory.
	Calculate(ctx context.Context, progressChan chan<- ProgressUpdate, calcIndex int, n uint64, opts Options) (*bignum.Magnitude, error)

	// Name returns the display name of the algorithm (e.g., "Fast Doubling").
	Name() string
}

// coreCalculator is a bare algorithm: it computes and reports progress but
// carries no instrumentation.
type coreCalculator interface {
	CalculateCore(ctx context.Context, reporter ProgressReporter, n uint64, opts Options) (*bignum.Magnitude, error)
	Name() string
}

// FibCalculator decorates a coreCalculator with tracing, metrics, logging
// and observer-based progress reporting.
type FibCalculator struct {
	core coreCalculator
}

// NewCalculator wraps core into a Calculator. It panics if core is nil.
//
// Parameters:
//   - core: The algorithm to wrap.
//
// Returns:
//   - Calculator: The decorated calculator.
func NewCalculator(core coreCalculator) Calculator {
	if core == nil {
		panic("fibonacci: the `coreCalculator` implementation cannot be nil")
	}
	return &FibCalculator{core: core}
}

// Name returns the name of the wrapped algorithm.
func (c *FibCalculator) Name() string {
	return c.core.Name()
}

// Calculate runs the calculation, forwarding progress to progressChan.
// See CalculateWithObservers.
func (c *FibCalculator) Calculate(ctx context.Context, progressChan chan<- ProgressUpdate, calcIndex int, n uint64, opts Options) (*bignum.Magnitude, error) {
	subject := NewProgressSubject()
	if progressChan != nil {
		subject.Register(NewChannelObserver(progressChan))
	}
	return c.CalculateWithObservers(ctx, subject, calcIndex, n, opts)
}

// CalculateWithObservers runs the calculation and notifies every observer
// registered on subject. A nil subject discards progress.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - subject: The observers to notify, may be nil.
//   - calcIndex: A unique index for the calculator instance.
//   - n: The index of the Fibonacci number to calculate.
//   - opts: Configuration options for the calculation.
//
// Returns:
//   - *bignum.Magnitude: F(n).
//   - error: An error if one occurred.
func (c *FibCalculator) CalculateWithObservers(ctx context.Context, subject *ProgressSubject, calcIndex int, n uint64, opts Options) (result *bignum.Magnitude, err error) {
	algoName := c.core.Name()
	ctx, span := otel.Tracer("fibonacci").Start(ctx, "Calculate")
	span.SetAttributes(
		attribute.String("fibonacci.algorithm", algoName),
		attribute.String("fibonacci.n", strconv.FormatUint(n, 10)),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		duration := time.Since(start).Seconds()
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
		}
		calculationsTotal.WithLabelValues(algoName, status).Inc()
		calculationDuration.WithLabelValues(algoName).Observe(duration)
		words := 0
		if result != nil {
			words = result.Len()
			resultWords.WithLabelValues(algoName).Observe(float64(words))
		}

		log.Debug().
			Str("algo", algoName).
			Uint64("n", n).
			Int("words", words).
			Float64("duration", duration).
			Str("status", status).
			Msg("calculation completed")
	}()

	reporter := ProgressReporter(func(float64) {})
	if subject != nil {
		reporter = subject.AsProgressReporter(calcIndex)
	}

	result, err = c.core.CalculateCore(ctx, reporter, n, opts)
	if err == nil {
		reporter(1.0)
	}
	return result, err
}

// ─────────────────────────────────────────────────────────────────────────────
// Core Algorithms
// ─────────────────────────────────────────────────────────────────────────────

// engineFunc is the shape of the hookable algorithm implementations.
type engineFunc func(dst *bignum.Magnitude, n uint64, hook stepHook) error

// runEngine allocates the result, runs fn with a hook that checks ctx every
// checkEvery steps and feeds the tracker, and returns F(n).
func runEngine(ctx context.Context, fn engineFunc, tracker *progressTracker, checkEvery uint64, n uint64, opts Options) (*bignum.Magnitude, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dst, err := bignum.NewWithAllocator(opts.allocator(), 0)
	if err != nil {
		return nil, err
	}
	hook := func(done, total uint64) error {
		if done%checkEvery != 0 && done != total {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		tracker.step(done, total)
		return nil
	}
	if err := fn(dst, n, hook); err != nil {
		_ = dst.Free()
		return nil, err
	}
	return dst, nil
}

// DefinitionCalculator iterates the recurrence F(i) = F(i-1) + F(i-2).
// It is O(n) additions and mainly serves as a reference.
type DefinitionCalculator struct{}

// Name returns "Definition".
func (c *DefinitionCalculator) Name() string { return "Definition" }

// CalculateCore implements coreCalculator.
func (c *DefinitionCalculator) CalculateCore(ctx context.Context, reporter ProgressReporter, n uint64, opts Options) (*bignum.Magnitude, error) {
	tracker := &progressTracker{report: reporter, weight: linearWork}
	return runEngine(ctx, definition, tracker, DefinitionCheckInterval, n, opts)
}

// FastDoublingCalculator uses the doubling identities with one subtraction
// per bit of n.
type FastDoublingCalculator struct{}

// Name returns "Fast Doubling".
func (c *FastDoublingCalculator) Name() string { return "Fast Doubling" }

// CalculateCore implements coreCalculator.
func (c *FastDoublingCalculator) CalculateCore(ctx context.Context, reporter ProgressReporter, n uint64, opts Options) (*bignum.Magnitude, error) {
	tracker := &progressTracker{report: reporter, weight: doublingWork}
	return runEngine(ctx, fastDoubling, tracker, 1, n, opts)
}

// NoSubFastDoublingCalculator uses the subtraction-free doubling identities.
type NoSubFastDoublingCalculator struct{}

// Name returns "Fast Doubling (no subtraction)".
func (c *NoSubFastDoublingCalculator) Name() string { return "Fast Doubling (no subtraction)" }

// CalculateCore implements coreCalculator.
func (c *NoSubFastDoublingCalculator) CalculateCore(ctx context.Context, reporter ProgressReporter, n uint64, opts Options) (*bignum.Magnitude, error) {
	tracker := &progressTracker{report: reporter, weight: doublingWork}
	return runEngine(ctx, fastDoublingNoSub, tracker, 1, n, opts)
}
