// Package config provides the configuration management for fibdrv.
// It defines the configuration structure, parses command-line flags, reads
// an optional TOML file and FIBDRV_* environment variables, and validates
// the result.
//
// Priority, from highest to lowest: flags, environment, file, defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/agbru/fibdrv/internal/bench"
	"github.com/agbru/fibdrv/internal/bignum"
	"github.com/agbru/fibdrv/internal/device"
	apperrors "github.com/agbru/fibdrv/internal/errors"
	"github.com/agbru/fibdrv/internal/fibonacci"
	"github.com/agbru/fibdrv/internal/fixedwidth"
)

const (
	// EnvPrefix is the prefix for all environment variables read by fibdrv.
	EnvPrefix = "FIBDRV_"
)

// Default configuration values.
const (
	// DefaultN is the default Fibonacci index to calculate.
	DefaultN uint64 = 1000
	// DefaultTimeout is the default calculation timeout.
	DefaultTimeout = time.Minute
	// DefaultPort is the default server port.
	DefaultPort = "8080"
	// DefaultAlgo runs every algorithm and cross-checks the results.
	DefaultAlgo = "all"
	// DefaultPrinter is the default decimal codec.
	DefaultPrinter = "chunk"
	// DefaultMaxN is the largest index the HTTP API accepts.
	DefaultMaxN uint64 = 100_000
	// DefaultCacheSize is the number of results kept by the service.
	DefaultCacheSize = 256
	// DefaultBenchFormat is the default bench output format.
	DefaultBenchFormat = "text"
	// DefaultLogLevel is the default zerolog level.
	DefaultLogLevel = "info"
)

// AppConfig aggregates the configuration of every run mode.
type AppConfig struct {
	// N is the index of the Fibonacci number to calculate.
	N uint64
	// Verbose displays the full calculated number.
	Verbose bool
	// Details displays the result metadata (words, digits, checksum).
	Details bool
	// Timeout bounds a calculation.
	Timeout time.Duration
	// Algo is "all" or a registered algorithm name.
	Algo string
	// Printer is the decimal codec name ("chunk" or "doubling").
	Printer string
	// MaxWords caps the size of every magnitude. Zero means the engine
	// limit only.
	MaxWords int
	// JSONOutput prints the result as JSON.
	JSONOutput bool
	// HexOutput prints the result in hexadecimal.
	HexOutput bool
	// Quiet prints the bare result only.
	Quiet bool
	// Concise, when set with -c, displays the calculated value section.
	Concise bool
	// NoColor disables colored output. NO_COLOR is honored as well.
	NoColor bool
	// OutputFile, if set, receives the result.
	OutputFile string

	// ServerMode starts the HTTP API.
	ServerMode bool
	// Port is the HTTP listen port.
	Port string
	// MaxN is the largest index accepted by the HTTP API. It is also the
	// seek limit of the device behind it.
	MaxN uint64
	// CacheSize is the capacity of the service result cache.
	CacheSize int

	// MaxLength is the seek limit of the device in bench mode.
	MaxLength int64
	// Bench runs the sampling harness.
	Bench bool
	// BenchFrom and BenchTo bound the sampled indices.
	BenchFrom, BenchTo int64
	// BenchSamples is the number of samples per index.
	BenchSamples int
	// BenchMethod is a read method (0-2) or a write method (0-10).
	BenchMethod int
	// BenchSpace is "read" or "write".
	BenchSpace string
	// BenchFormat is one of bench.Formats().
	BenchFormat string
	// BenchOutput is the bench output path; empty means stdout.
	BenchOutput string

	// LogLevel is the zerolog level name.
	LogLevel string
	// ConfigFile is the optional TOML file path.
	ConfigFile string
}

// ToCalculationOptions converts the configuration into fibonacci.Options.
func (c AppConfig) ToCalculationOptions() fibonacci.Options {
	return fibonacci.Options{MaxWords: c.MaxWords}
}

// Validate checks the semantic consistency of the configuration.
//
// Parameters:
//   - availableAlgos: The registered algorithm names.
//
// Returns:
//   - error: A ConfigError describing the first problem found, or nil.
func (c AppConfig) Validate(availableAlgos []string) error {
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	if c.MaxWords < 0 || c.MaxWords > bignum.MaxWords {
		return apperrors.NewConfigError("max words must be between 0 and %d: %d", bignum.MaxWords, c.MaxWords)
	}
	if c.Algo != "all" && !slices.Contains(availableAlgos, c.Algo) {
		return apperrors.NewConfigError("unrecognized algorithm: '%s'. Valid algorithms are: 'all' or [%s]", c.Algo, strings.Join(availableAlgos, ", "))
	}
	if _, err := bignum.PrinterByName(c.Printer); err != nil {
		return apperrors.NewConfigError("unrecognized printer: '%s'. Valid printers are: [%s]", c.Printer, strings.Join(bignum.PrinterNames(), ", "))
	}
	if c.CacheSize < 0 {
		return apperrors.NewConfigError("cache size cannot be negative: %d", c.CacheSize)
	}
	if c.MaxLength < 0 {
		return apperrors.NewConfigError("max length cannot be negative: %d", c.MaxLength)
	}
	if c.Bench {
		if err := c.validateBench(); err != nil {
			return err
		}
	}
	return nil
}

func (c AppConfig) validateBench() error {
	if c.BenchFrom < 0 || c.BenchFrom > c.BenchTo || c.BenchTo > c.MaxLength {
		return apperrors.NewConfigError("bench range [%d, %d] must lie within [0, %d]", c.BenchFrom, c.BenchTo, c.MaxLength)
	}
	if c.BenchSamples <= 0 {
		return apperrors.NewConfigError("bench samples must be strictly positive: %d", c.BenchSamples)
	}
	switch bench.Space(c.BenchSpace) {
	case bench.SpaceRead:
		if c.BenchMethod < 0 || c.BenchMethod >= len(device.ReadMethods()) {
			return apperrors.NewConfigError("read method must be between 0 and %d: %d", len(device.ReadMethods())-1, c.BenchMethod)
		}
	case bench.SpaceWrite:
		if !fixedwidth.Method(c.BenchMethod).Valid() {
			return apperrors.NewConfigError("write method must be between 0 and 10: %d", c.BenchMethod)
		}
	default:
		return apperrors.NewConfigError("unrecognized bench space: '%s'. Valid spaces are: [read, write]", c.BenchSpace)
	}
	if _, err := bench.EncoderByName(c.BenchFormat); err != nil {
		return apperrors.NewConfigError("unrecognized bench format: '%s'. Valid formats are: [%s]", c.BenchFormat, strings.Join(bench.Formats(), ", "))
	}
	return nil
}

// ParseConfig parses the command-line arguments into an AppConfig, then
// applies the TOML file named by --config (or FIBDRV_CONFIG) and the
// environment to every flag not set explicitly, and validates the result.
//
// Parameters:
//   - programName: The name of the program, used in the usage message.
//   - args: The command-line arguments (typically os.Args[1:]).
//   - errorWriter: Receives parsing errors and usage information.
//   - availableAlgos: The registered algorithm names.
//
// Returns:
//   - AppConfig: The populated configuration.
//   - error: A flag, file or validation error.
func ParseConfig(programName string, args []string, errorWriter io.Writer, availableAlgos []string) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)
	algoHelp := fmt.Sprintf("Algorithm to use: 'all' (default) or one of [%s].", strings.Join(availableAlgos, ", "))

	config := AppConfig{}
	fs.Uint64Var(&config.N, "n", DefaultN, "Index n of the Fibonacci number to calculate.")
	fs.BoolVar(&config.Verbose, "v", false, "Display the full value of the result (can be very long).")
	fs.BoolVar(&config.Details, "d", false, "Display result metadata.")
	fs.BoolVar(&config.Details, "details", false, "Alias for -d.")
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum execution time for the calculation.")
	fs.StringVar(&config.Algo, "algo", DefaultAlgo, algoHelp)
	fs.StringVar(&config.Printer, "printer", DefaultPrinter, "Decimal codec: 'chunk' or 'doubling'.")
	fs.IntVar(&config.MaxWords, "max-words", 0, "Maximum size of a number in 32-bit words (0 for the engine limit).")
	fs.BoolVar(&config.JSONOutput, "json", false, "Output results in JSON format.")
	fs.BoolVar(&config.HexOutput, "hex", false, "Display result in hexadecimal format.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Quiet mode - minimal output for scripts.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&config.Concise, "calculate", false, "Display the calculated value.")
	fs.BoolVar(&config.Concise, "c", false, "Display the calculated value (shorthand).")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.StringVar(&config.OutputFile, "output", "", "Output file path for the result.")
	fs.StringVar(&config.OutputFile, "o", "", "Output file path (shorthand).")

	fs.BoolVar(&config.ServerMode, "server", false, "Start in HTTP server mode.")
	fs.StringVar(&config.Port, "port", DefaultPort, "Port to listen on in server mode.")
	fs.Uint64Var(&config.MaxN, "max-n", DefaultMaxN, "Largest index accepted by the HTTP API.")
	fs.IntVar(&config.CacheSize, "cache-size", DefaultCacheSize, "Number of results cached by the HTTP API (0 disables the cache).")

	fs.Int64Var(&config.MaxLength, "max-length", device.DefaultMaxLength, "Largest index reachable on the device in bench mode.")
	fs.BoolVar(&config.Bench, "bench", false, "Run the timing harness over a range of indices.")
	fs.Int64Var(&config.BenchFrom, "bench-from", 0, "First sampled index.")
	fs.Int64Var(&config.BenchTo, "bench-to", device.DefaultMaxLength, "Last sampled index.")
	fs.IntVar(&config.BenchSamples, "bench-samples", bench.DefaultSamples, "Samples per index.")
	fs.IntVar(&config.BenchMethod, "bench-method", 1, "Read method (0-2) or write method (0-10).")
	fs.StringVar(&config.BenchSpace, "bench-space", string(bench.SpaceRead), "Sampled operation: 'read' or 'write'.")
	fs.StringVar(&config.BenchFormat, "bench-format", DefaultBenchFormat, "Bench output format.")
	fs.StringVar(&config.BenchOutput, "bench-output", "", "Bench output file (default stdout).")

	fs.StringVar(&config.LogLevel, "log-level", DefaultLogLevel, "Log level: debug, info, warn, error.")
	fs.StringVar(&config.ConfigFile, "config", "", "Path to a TOML configuration file.")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	if !isFlagSet(fs, "config") {
		config.ConfigFile = getEnvString("CONFIG", config.ConfigFile)
	}
	if config.ConfigFile != "" {
		if err := applyFile(&config, fs, config.ConfigFile); err != nil {
			fmt.Fprintln(errorWriter, "Configuration error:", err)
			return AppConfig{}, err
		}
	}
	applyEnvOverrides(&config, fs)

	config.Algo = strings.ToLower(config.Algo)
	if err := config.Validate(availableAlgos); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		return AppConfig{}, errors.New("invalid configuration")
	}
	return config, nil
}

// setCustomUsage prints the flags grouped by run mode.
func setCustomUsage(fs *flag.FlagSet) {
	groups := []struct {
		title string
		names []string
	}{
		{"Calculation", []string{"n", "algo", "printer", "max-words", "timeout"}},
		{"Output", []string{"v", "d", "c", "json", "hex", "q", "o", "no-color"}},
		{"Server", []string{"server", "port", "max-n", "cache-size"}},
		{"Bench", []string{"bench", "max-length", "bench-from", "bench-to", "bench-samples", "bench-method", "bench-space", "bench-format", "bench-output"}},
		{"General", []string{"config", "log-level"}},
	}
	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage: %s [options]\n", fs.Name())
		for _, g := range groups {
			fmt.Fprintf(out, "\n%s:\n", g.title)
			for _, name := range g.names {
				f := fs.Lookup(name)
				if f == nil {
					continue
				}
				fmt.Fprintf(out, "  -%-16s %s (default %q)\n", f.Name, f.Usage, f.DefValue)
			}
		}
		fmt.Fprintf(out, "\nEvery option can also be set with %s<NAME> (e.g. %sN=100).\n", EnvPrefix, EnvPrefix)
	}
}
