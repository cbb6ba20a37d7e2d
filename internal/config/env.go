package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Environment Variable Utilities
// ─────────────────────────────────────────────────────────────────────────────

// getEnvString returns the value of the environment variable with the given key
// (prefixed with EnvPrefix), or the default value if not set.
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvUint64 returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as uint64, or the default value if not set
// or invalid.
func getEnvUint64(key string, defaultVal uint64) uint64 {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.ParseUint(val, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvInt returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as int, or the default value if not set
// or invalid.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvBool returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as bool, or the default value if not set.
// Accepts "true", "1", "yes" as true; "false", "0", "no" as false (case-insensitive).
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}

// getEnvInt64 returns the value of the environment variable with the given key
// parsed as int64, or the default value if not set or invalid.
func getEnvInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvDuration returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as time.Duration, or the default value if not
// set or invalid. Accepts formats like "5m", "30s", "1h30m".
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// isFlagSet checks if a flag was explicitly set on the command line.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// anyFlagSet reports whether any of the given aliases was set.
func anyFlagSet(fs *flag.FlagSet, names ...string) bool {
	for _, name := range names {
		if isFlagSet(fs, name) {
			return true
		}
	}
	return false
}

// applyEnvOverrides applies FIBDRV_* environment variables to every
// option whose flag was not set explicitly. The variable name is the flag
// name upper-cased with dashes turned into underscores, for example
// FIBDRV_MAX_WORDS or FIBDRV_BENCH_SPACE. Aliased flags use the long
// name (FIBDRV_QUIET, FIBDRV_OUTPUT, FIBDRV_DETAILS, FIBDRV_CALCULATE,
// FIBDRV_VERBOSE).
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	applyNumericOverrides(config, fs)
	applyDurationOverrides(config, fs)
	applyStringOverrides(config, fs)
	applyBooleanOverrides(config, fs)
}

func applyNumericOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "n") {
		config.N = getEnvUint64("N", config.N)
	}
	if !isFlagSet(fs, "max-words") {
		config.MaxWords = getEnvInt("MAX_WORDS", config.MaxWords)
	}
	if !isFlagSet(fs, "max-n") {
		config.MaxN = getEnvUint64("MAX_N", config.MaxN)
	}
	if !isFlagSet(fs, "cache-size") {
		config.CacheSize = getEnvInt("CACHE_SIZE", config.CacheSize)
	}
	if !isFlagSet(fs, "max-length") {
		config.MaxLength = getEnvInt64("MAX_LENGTH", config.MaxLength)
	}
	if !isFlagSet(fs, "bench-from") {
		config.BenchFrom = getEnvInt64("BENCH_FROM", config.BenchFrom)
	}
	if !isFlagSet(fs, "bench-to") {
		config.BenchTo = getEnvInt64("BENCH_TO", config.BenchTo)
	}
	if !isFlagSet(fs, "bench-samples") {
		config.BenchSamples = getEnvInt("BENCH_SAMPLES", config.BenchSamples)
	}
	if !isFlagSet(fs, "bench-method") {
		config.BenchMethod = getEnvInt("BENCH_METHOD", config.BenchMethod)
	}
}

func applyDurationOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "timeout") {
		config.Timeout = getEnvDuration("TIMEOUT", config.Timeout)
	}
}

func applyStringOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "algo") {
		config.Algo = getEnvString("ALGO", config.Algo)
	}
	if !isFlagSet(fs, "printer") {
		config.Printer = getEnvString("PRINTER", config.Printer)
	}
	if !isFlagSet(fs, "port") {
		config.Port = getEnvString("PORT", config.Port)
	}
	if !anyFlagSet(fs, "output", "o") {
		config.OutputFile = getEnvString("OUTPUT", config.OutputFile)
	}
	if !isFlagSet(fs, "bench-space") {
		config.BenchSpace = getEnvString("BENCH_SPACE", config.BenchSpace)
	}
	if !isFlagSet(fs, "bench-format") {
		config.BenchFormat = getEnvString("BENCH_FORMAT", config.BenchFormat)
	}
	if !isFlagSet(fs, "bench-output") {
		config.BenchOutput = getEnvString("BENCH_OUTPUT", config.BenchOutput)
	}
	if !isFlagSet(fs, "log-level") {
		config.LogLevel = getEnvString("LOG_LEVEL", config.LogLevel)
	}
}

func applyBooleanOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "server") {
		config.ServerMode = getEnvBool("SERVER", config.ServerMode)
	}
	if !isFlagSet(fs, "bench") {
		config.Bench = getEnvBool("BENCH", config.Bench)
	}
	if !isFlagSet(fs, "json") {
		config.JSONOutput = getEnvBool("JSON", config.JSONOutput)
	}
	if !isFlagSet(fs, "v") {
		config.Verbose = getEnvBool("VERBOSE", config.Verbose)
	}
	if !anyFlagSet(fs, "d", "details") {
		config.Details = getEnvBool("DETAILS", config.Details)
	}
	if !anyFlagSet(fs, "quiet", "q") {
		config.Quiet = getEnvBool("QUIET", config.Quiet)
	}
	if !isFlagSet(fs, "hex") {
		config.HexOutput = getEnvBool("HEX", config.HexOutput)
	}
	if !isFlagSet(fs, "no-color") {
		config.NoColor = getEnvBool("NO_COLOR", config.NoColor)
	}
	if !anyFlagSet(fs, "calculate", "c") {
		config.Concise = getEnvBool("CALCULATE", config.Concise)
	}
}
