package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/agbru/fibdrv/internal/bench"
	"github.com/agbru/fibdrv/internal/bignum"
	"github.com/agbru/fibdrv/internal/cli"
	"github.com/agbru/fibdrv/internal/config"
	"github.com/agbru/fibdrv/internal/device"
	apperrors "github.com/agbru/fibdrv/internal/errors"
	"github.com/agbru/fibdrv/internal/fibonacci"
	"github.com/agbru/fibdrv/internal/logging"
	"github.com/agbru/fibdrv/internal/orchestration"
	"github.com/agbru/fibdrv/internal/server"
	"github.com/agbru/fibdrv/internal/sysinfo"
	"github.com/agbru/fibdrv/internal/ui"
)

// Application represents the fibdrv application instance.
// It encapsulates the configuration and provides methods to run
// the application in its three modes (calculation, server, bench).
type Application struct {
	// Config holds the parsed application configuration.
	Config config.AppConfig
	// Factory provides access to the Fibonacci calculator implementations.
	Factory fibonacci.CalculatorFactory
	// ErrWriter is the writer for error output (typically os.Stderr).
	ErrWriter io.Writer
	// Logger receives structured logs from the server and bench modes.
	Logger logging.Logger
}

// New creates a new Application instance by parsing command-line arguments.
// It validates the configuration and returns an error if parsing or validation fails.
//
// Parameters:
//   - args: The command-line arguments (typically os.Args).
//   - errWriter: The writer for error output.
//
// Returns:
//   - *Application: A new application instance.
//   - error: An error if configuration parsing or validation fails.
func New(args []string, errWriter io.Writer) (*Application, error) {
	factory := fibonacci.GlobalFactory()

	// args[0] is program name, args[1:] are the actual arguments
	programName := "fibdrv"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter, factory.List())
	if err != nil {
		return nil, err
	}
	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		return nil, apperrors.NewConfigError("%v", err)
	}

	return &Application{
		Config:    cfg,
		Factory:   factory,
		ErrWriter: errWriter,
		Logger:    logging.NewLogger(errWriter, "fibdrv"),
	}, nil
}

// Run executes the application based on the configured mode.
//
// Parameters:
//   - ctx: The context for managing cancellation and timeouts.
//   - out: The writer for standard output.
//
// Returns:
//   - int: An exit code (0 for success, non-zero for errors).
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	// Respects --no-color and NO_COLOR.
	ui.InitTheme(a.Config.NoColor)

	switch {
	case a.Config.ServerMode:
		return a.runServer()
	case a.Config.Bench:
		return a.runBench(ctx, out)
	default:
		return a.runCalculate(ctx, out)
	}
}

func (a *Application) logger() logging.Logger {
	if a.Logger == nil {
		return logging.NewNopLogger()
	}
	return a.Logger
}

// runServer starts the HTTP server mode.
func (a *Application) runServer() int {
	srv := server.NewServer(a.Factory, a.Config, server.WithLogger(a.logger()))
	if err := srv.Start(); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// runBench samples one device method over the configured index range and
// writes the report in the configured format.
func (a *Application) runBench(ctx context.Context, out io.Writer) int {
	ctx, cancel := SetupLifecycle(ctx, 0)
	defer cancel.Cleanup()

	enc, err := bench.EncoderByName(a.Config.BenchFormat)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Configuration error: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	opts := []device.Option{
		device.WithMaxLength(a.Config.MaxLength),
		device.WithFactory(a.Factory),
		device.WithCalcOptions(a.Config.ToCalculationOptions()),
		device.WithLogger(a.logger()),
	}
	printer, err := bignum.PrinterByName(a.Config.Printer)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Configuration error: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	opts = append(opts, device.WithPrinter(printer))

	logger := a.logger()
	runner := &bench.Runner{
		Device:  device.New(opts...),
		From:    a.Config.BenchFrom,
		To:      a.Config.BenchTo,
		Samples: a.Config.BenchSamples,
		Method:  a.Config.BenchMethod,
		Space:   bench.Space(a.Config.BenchSpace),
		Logger:  logger,
	}
	logger.Info("bench started",
		logging.String("space", a.Config.BenchSpace),
		logging.Int("method", a.Config.BenchMethod),
		logging.Int64("from", a.Config.BenchFrom),
		logging.Int64("to", a.Config.BenchTo),
		logging.Int("samples", a.Config.BenchSamples),
	)
	rows, err := runner.Run(ctx)
	if err != nil {
		if errors.Is(err, bench.ErrInvalidRange) {
			fmt.Fprintf(a.ErrWriter, "Configuration error: %v\n", err)
			return apperrors.ExitErrorConfig
		}
		return apperrors.HandleCalculationError(err, 0, a.ErrWriter, cli.CLIColorProvider{})
	}

	report := &bench.Report{
		Space:    runner.Space,
		Method:   runner.Method,
		Samples:  runner.Samples,
		Platform: sysinfo.Platform(),
		Rows:     rows,
	}
	if err := writeReport(enc, report, a.Config.BenchOutput, out); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error writing bench report: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	logger.Info("bench finished", logging.Int("rows", len(rows)))
	return apperrors.ExitSuccess
}

// writeReport encodes report to path, or to out when path is empty.
func writeReport(enc bench.Encoder, report *bench.Report, path string, out io.Writer) (err error) {
	if path == "" {
		return enc.Encode(out, report)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return enc.Encode(f, report)
}

// runCalculate orchestrates the execution of the CLI calculation command.
func (a *Application) runCalculate(ctx context.Context, out io.Writer) int {
	ctx, cancel := SetupLifecycle(ctx, a.Config.Timeout)
	defer cancel.Cleanup()

	calculatorsToRun := cli.GetCalculatorsToRun(a.Config, a.Factory)
	if len(calculatorsToRun) == 0 {
		fmt.Fprintf(a.ErrWriter, "Configuration error: no calculator matches '%s'\n", a.Config.Algo)
		return apperrors.ExitErrorConfig
	}
	printer, err := bignum.PrinterByName(a.Config.Printer)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Configuration error: %v\n", err)
		return apperrors.ExitErrorConfig
	}

	if !a.Config.JSONOutput && !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, out)
		cli.PrintExecutionMode(calculatorsToRun, out)
	}

	progressOut := out
	if a.Config.Quiet || a.Config.JSONOutput {
		progressOut = io.Discard
	}

	results := orchestration.ExecuteCalculations(ctx, calculatorsToRun, a.Config, progressOut)
	defer orchestration.FreeResults(results)

	if a.Config.JSONOutput {
		return printJSONResults(results, a.Config.N, printer, out)
	}

	outputCfg := cli.OutputConfig{
		OutputFile: a.Config.OutputFile,
		HexOutput:  a.Config.HexOutput,
		Quiet:      a.Config.Quiet,
		Verbose:    a.Config.Verbose,
		Details:    a.Config.Details,
		Concise:    a.Config.Concise,
	}
	return a.analyzeResultsWithOutput(results, printer, outputCfg, out)
}

func (a *Application) analyzeResultsWithOutput(results []orchestration.CalculationResult, printer bignum.Printer, outputCfg cli.OutputConfig, out io.Writer) int {
	if !outputCfg.Quiet {
		if code := orchestration.AnalyzeComparisonResults(results, a.Config, out); code != apperrors.ExitSuccess {
			return code
		}
	}

	best, err := orchestration.CrossCheck(results)
	if errors.Is(err, orchestration.ErrMismatch) {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitErrorMismatch
	}
	if err != nil {
		return apperrors.HandleCalculationError(err, 0, a.ErrWriter, cli.CLIColorProvider{})
	}

	res, err := cli.NewResult(best.Name, a.Config.N, best.Result, best.Duration, printer)
	if err != nil {
		return apperrors.HandleCalculationError(err, best.Duration, a.ErrWriter, cli.CLIColorProvider{})
	}
	if err := cli.DisplayResultWithConfig(out, res, outputCfg); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error saving result: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// IsHelpError checks if the error is a help flag error (--help was used).
// This is useful for determining if the application should exit with success
// after displaying help text.
//
// Parameters:
//   - err: The error to check.
//
// Returns:
//   - bool: True if the error indicates help was requested.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

// jsonResult represents a single calculation result in JSON format.
type jsonResult struct {
	Algorithm string `json:"algorithm"`
	N         uint64 `json:"n"`
	Duration  string `json:"duration"`
	Result    string `json:"result,omitempty"`
	Checksum  string `json:"checksum,omitempty"`
	Error     string `json:"error,omitempty"`
}

// printJSONResults formats the calculation results as a JSON array and writes
// them to the output. This is useful for programmatic consumption of the results.
func printJSONResults(results []orchestration.CalculationResult, n uint64, printer bignum.Printer, out io.Writer) int {
	output := make([]jsonResult, len(results))
	for i, res := range results {
		jr := jsonResult{
			Algorithm: res.Name,
			N:         n,
			Duration:  res.Duration.String(),
		}
		if res.Err == nil {
			r, err := cli.NewResult(res.Name, n, res.Result, res.Duration, printer)
			if err != nil {
				jr.Error = err.Error()
			} else {
				jr.Result = r.Decimal
				jr.Checksum = fmt.Sprintf("%016x", r.Checksum())
			}
		} else {
			jr.Error = res.Err.Error()
		}
		output[i] = jr
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output); err != nil {
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}
