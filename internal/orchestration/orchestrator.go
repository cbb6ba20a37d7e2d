// Package orchestration runs several Fibonacci calculators concurrently on
// the same index and cross-checks their results.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/fibdrv/internal/bignum"
	"github.com/agbru/fibdrv/internal/cli"
	"github.com/agbru/fibdrv/internal/config"
	apperrors "github.com/agbru/fibdrv/internal/errors"
	"github.com/agbru/fibdrv/internal/fibonacci"
	"github.com/agbru/fibdrv/internal/ui"
)

// ErrMismatch is returned by CrossCheck when two successful calculators
// disagree.
var ErrMismatch = errors.New("results differ between algorithms")

// CalculationResult is the outcome of one calculator.
type CalculationResult struct {
	// Name is the display name of the calculator (e.g., "Fast Doubling").
	Name string
	// Result is F(n), owned by the result. It is nil if an error occurred.
	Result *bignum.Magnitude
	// Duration is the time taken to complete the calculation.
	Duration time.Duration
	// Err contains any error that occurred during the calculation.
	Err error
}

// ProgressBufferMultiplier sizes the progress channel per calculator so
// that a slow terminal rarely blocks a calculation.
const ProgressBufferMultiplier = 5

// ExecuteCalculations runs every calculator on cfg.N concurrently, each on
// its own magnitude, while DisplayProgress renders their aggregated
// progress to out. A failing calculator does not stop the others.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - calculators: The calculators to execute.
//   - cfg: The application configuration (N and the word limit).
//   - out: The io.Writer for progress display.
//
// Returns:
//   - []CalculationResult: One result per calculator, in input order. The
//     caller releases them with FreeResults.
func ExecuteCalculations(ctx context.Context, calculators []fibonacci.Calculator, cfg config.AppConfig, out io.Writer) []CalculationResult {
	var g errgroup.Group
	results := make([]CalculationResult, len(calculators))
	progressChan := make(chan fibonacci.ProgressUpdate, len(calculators)*ProgressBufferMultiplier)

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go cli.DisplayProgress(&displayWg, progressChan, len(calculators), out)

	opts := cfg.ToCalculationOptions()
	for i, calc := range calculators {
		g.Go(func() error {
			start := time.Now()
			res, err := calc.Calculate(ctx, progressChan, i, cfg.N, opts)
			results[i] = CalculationResult{
				Name:     calc.Name(),
				Result:   res,
				Duration: time.Since(start),
				Err:      apperrors.NewCalculationError(calc.Name(), cfg.N, err),
			}
			return nil
		})
	}

	_ = g.Wait()
	close(progressChan)
	displayWg.Wait()

	return results
}

// FreeResults releases the magnitudes held by results.
func FreeResults(results []CalculationResult) {
	for i := range results {
		if results[i].Result != nil {
			_ = results[i].Result.Free()
			results[i].Result = nil
		}
	}
}

// CrossCheck returns the fastest successful result after verifying that
// all successful results are equal.
//
// Returns:
//   - *CalculationResult: The fastest successful result.
//   - error: The first calculator error when none succeeded, or
//     ErrMismatch naming the disagreeing calculators.
func CrossCheck(results []CalculationResult) (*CalculationResult, error) {
	var best *CalculationResult
	var firstErr error
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			if firstErr == nil {
				firstErr = r.Err
			}
			continue
		}
		if best == nil || r.Duration < best.Duration {
			best = r
		}
	}
	if best == nil {
		if firstErr == nil {
			firstErr = errors.New("no calculator was run")
		}
		return nil, firstErr
	}
	for i := range results {
		r := &results[i]
		if r.Err == nil && r.Result.Cmp(best.Result) != 0 {
			return nil, fmt.Errorf("%w: %s and %s", ErrMismatch, best.Name, r.Name)
		}
	}
	return best, nil
}

// AnalyzeComparisonResults prints a summary table of results, sorted with
// successes first by duration, followed by the global status.
//
// Parameters:
//   - results: The calculation results to analyze. They are sorted in place.
//   - cfg: The application configuration.
//   - out: The io.Writer for the summary report.
//
// Returns:
//   - int: ExitSuccess when at least one calculator succeeded and all
//     successful results agree, ExitErrorMismatch on disagreement, or the
//     exit code of the first error when all failed.
func AnalyzeComparisonResults(results []CalculationResult, cfg config.AppConfig, out io.Writer) int {
	sort.SliceStable(results, func(i, j int) bool {
		if (results[i].Err == nil) != (results[j].Err == nil) {
			return results[i].Err == nil
		}
		return results[i].Duration < results[j].Duration
	})

	fmt.Fprintf(out, "\n--- Comparison Summary for F(%d) ---\n", cfg.N)
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "%sAlgorithm%s\t%sDuration%s\t%sStatus%s\n",
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset())
	for _, res := range results {
		status := ui.Paint(ui.ColorGreen(), "Success")
		if res.Err != nil {
			reason := res.Err
			var calcErr apperrors.CalculationError
			if errors.As(reason, &calcErr) {
				reason = calcErr.Cause
			}
			status = ui.Paint(ui.ColorRed(), fmt.Sprintf("Failure (%v)", reason))
		}
		duration := cli.FormatExecutionDuration(res.Duration)
		if res.Duration == 0 {
			duration = "< 1µs"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", ui.Paint(ui.ColorBlue(), res.Name), ui.Paint(ui.ColorYellow(), duration), status)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}

	_, err := CrossCheck(results)
	switch {
	case errors.Is(err, ErrMismatch):
		fmt.Fprintf(out, "\nGlobal Status: CRITICAL ERROR! %v.\n", err)
		return apperrors.ExitErrorMismatch
	case err != nil:
		fmt.Fprintf(out, "\nGlobal Status: Failure. No algorithm could complete the calculation.\n")
		return apperrors.HandleCalculationError(err, 0, out, cli.CLIColorProvider{})
	}
	fmt.Fprintf(out, "\nGlobal Status: Success. All valid results are consistent.\n")
	return apperrors.ExitSuccess
}
