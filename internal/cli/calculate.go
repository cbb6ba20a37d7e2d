package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/fibdrv/internal/config"
	"github.com/agbru/fibdrv/internal/fibonacci"
	"github.com/agbru/fibdrv/internal/sysinfo"
	"github.com/agbru/fibdrv/internal/ui"
)

// GetCalculatorsToRun returns the calculators selected by cfg.Algo: every
// registered calculator in name order for "all", otherwise the named one.
// It returns nil for an unknown name.
func GetCalculatorsToRun(cfg config.AppConfig, factory fibonacci.CalculatorFactory) []fibonacci.Calculator {
	if cfg.Algo != "all" {
		if calc, err := factory.Get(cfg.Algo); err == nil {
			return []fibonacci.Calculator{calc}
		}
		return nil
	}
	keys := factory.List()
	calculators := make([]fibonacci.Calculator, 0, len(keys))
	for _, k := range keys {
		if calc, err := factory.Get(k); err == nil {
			calculators = append(calculators, calc)
		}
	}
	return calculators
}

// PrintExecutionConfig displays the target index, limits and environment.
//
// Parameters:
//   - cfg: The application configuration.
//   - out: The writer for standard output.
func PrintExecutionConfig(cfg config.AppConfig, out io.Writer) {
	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Calculating %sF(%d)%s with a timeout of %s%s%s.\n",
		ui.ColorMagenta(), cfg.N, ui.ColorReset(), ui.ColorYellow(), cfg.Timeout, ui.ColorReset())
	fmt.Fprintf(out, "Environment: %s%d%s logical processors, Go %s%s%s, %s%s%s.\n",
		ui.ColorCyan(), runtime.NumCPU(), ui.ColorReset(),
		ui.ColorCyan(), runtime.Version(), ui.ColorReset(),
		ui.ColorCyan(), sysinfo.Platform(), ui.ColorReset())
	limit := "none"
	if cfg.MaxWords > 0 {
		limit = counts.Sprintf("%d words", cfg.MaxWords)
	}
	fmt.Fprintf(out, "Decimal printer: %s%s%s, magnitude limit: %s%s%s.\n",
		ui.ColorCyan(), cfg.Printer, ui.ColorReset(), ui.ColorCyan(), limit, ui.ColorReset())
}

// PrintExecutionMode displays whether a single calculator runs or all of
// them are compared.
func PrintExecutionMode(calculators []fibonacci.Calculator, out io.Writer) {
	var mode string
	switch len(calculators) {
	case 0:
		mode = "No calculator selected"
	case 1:
		mode = fmt.Sprintf("Single calculation with the %s%s%s algorithm",
			ui.ColorGreen(), calculators[0].Name(), ui.ColorReset())
	default:
		mode = fmt.Sprintf("Parallel comparison of %d algorithms", len(calculators))
	}
	fmt.Fprintf(out, "Execution mode: %s.\n", mode)
	fmt.Fprintf(out, "\n--- Starting Execution ---\n")
}
