package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "github.com/agbru/fibdrv/internal/errors"
)

var availableAlgos = []string{"definition", "fast", "fast-nosub"}

func validConfig() AppConfig {
	return AppConfig{
		N:            10,
		Timeout:      time.Second,
		Algo:         "all",
		Printer:      "chunk",
		CacheSize:    1,
		MaxLength:    100,
		BenchTo:      100,
		BenchSamples: 10,
		BenchSpace:   "read",
		BenchFormat:  "text",
	}
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig("fibdrv", nil, io.Discard, availableAlgos)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.N != DefaultN || cfg.Algo != DefaultAlgo || cfg.Timeout != DefaultTimeout {
		t.Errorf("defaults = n %d, algo %s, timeout %v", cfg.N, cfg.Algo, cfg.Timeout)
	}
	if cfg.Printer != DefaultPrinter || cfg.MaxN != DefaultMaxN || cfg.CacheSize != DefaultCacheSize {
		t.Errorf("defaults = printer %s, max-n %d, cache %d", cfg.Printer, cfg.MaxN, cfg.CacheSize)
	}
	if cfg.MaxLength != 100 || cfg.BenchSamples != 1000 || cfg.BenchSpace != "read" || cfg.LogLevel != "info" {
		t.Errorf("bench defaults = %+v", cfg)
	}
	if opts := cfg.ToCalculationOptions(); opts.MaxWords != 0 {
		t.Errorf("MaxWords = %d, want 0", opts.MaxWords)
	}
}

func TestParseConfigFlags(t *testing.T) {
	args := []string{
		"-n", "100",
		"-algo", "FAST",
		"-printer", "doubling",
		"-max-words", "4096",
		"-v", "-d", "-c", "-q", "-hex",
		"-timeout", "10s",
		"-server", "-port", "9090", "-max-n", "500", "-cache-size", "0",
		"-o", "out.txt",
	}
	cfg, err := ParseConfig("fibdrv", args, io.Discard, availableAlgos)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.N != 100 || cfg.Algo != "fast" || cfg.Printer != "doubling" || cfg.MaxWords != 4096 {
		t.Errorf("calculation flags = %+v", cfg)
	}
	if !cfg.Verbose || !cfg.Details || !cfg.Concise || !cfg.Quiet || !cfg.HexOutput {
		t.Errorf("output flags = %+v", cfg)
	}
	if !cfg.ServerMode || cfg.Port != "9090" || cfg.MaxN != 500 || cfg.CacheSize != 0 {
		t.Errorf("server flags = %+v", cfg)
	}
	if cfg.Timeout != 10*time.Second || cfg.OutputFile != "out.txt" {
		t.Errorf("timeout %v, output %q", cfg.Timeout, cfg.OutputFile)
	}
	if cfg.ToCalculationOptions().MaxWords != 4096 {
		t.Error("ToCalculationOptions should carry MaxWords")
	}
}

func TestParseConfigBenchFlags(t *testing.T) {
	args := []string{
		"-bench", "-max-length", "500",
		"-bench-from", "10", "-bench-to", "400",
		"-bench-samples", "50", "-bench-method", "9",
		"-bench-space", "write", "-bench-format", "msgpack",
		"-bench-output", "data.out",
	}
	cfg, err := ParseConfig("fibdrv", args, io.Discard, availableAlgos)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !cfg.Bench || cfg.MaxLength != 500 || cfg.BenchFrom != 10 || cfg.BenchTo != 400 {
		t.Errorf("bench range = %+v", cfg)
	}
	if cfg.BenchSamples != 50 || cfg.BenchMethod != 9 || cfg.BenchSpace != "write" ||
		cfg.BenchFormat != "msgpack" || cfg.BenchOutput != "data.out" {
		t.Errorf("bench settings = %+v", cfg)
	}
}

func TestParseConfigEnvOverrides(t *testing.T) {
	env := map[string]string{
		"FIBDRV_N":             "200",
		"FIBDRV_ALGO":          "fast-nosub",
		"FIBDRV_PRINTER":       "doubling",
		"FIBDRV_MAX_WORDS":     "64",
		"FIBDRV_SERVER":        "true",
		"FIBDRV_PORT":          "3000",
		"FIBDRV_MAX_N":         "777",
		"FIBDRV_CACHE_SIZE":    "9",
		"FIBDRV_TIMEOUT":       "2m",
		"FIBDRV_VERBOSE":       "yes",
		"FIBDRV_DETAILS":       "1",
		"FIBDRV_QUIET":         "true",
		"FIBDRV_HEX":           "true",
		"FIBDRV_NO_COLOR":      "true",
		"FIBDRV_JSON":          "true",
		"FIBDRV_CALCULATE":     "true",
		"FIBDRV_OUTPUT":        "out.txt",
		"FIBDRV_LOG_LEVEL":     "debug",
		"FIBDRV_MAX_LENGTH":    "300",
		"FIBDRV_BENCH_TO":      "250",
		"FIBDRV_BENCH_FROM":    "5",
		"FIBDRV_BENCH_SAMPLES": "3",
		"FIBDRV_BENCH_METHOD":  "2",
		"FIBDRV_BENCH_SPACE":   "write",
		"FIBDRV_BENCH_FORMAT":  "json",
		"FIBDRV_BENCH_OUTPUT":  "b.json",
		"FIBDRV_BENCH":         "true",
	}
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := ParseConfig("fibdrv", nil, io.Discard, availableAlgos)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.N != 200 || cfg.Algo != "fast-nosub" || cfg.Printer != "doubling" || cfg.MaxWords != 64 {
		t.Errorf("calculation from env = %+v", cfg)
	}
	if !cfg.ServerMode || cfg.Port != "3000" || cfg.MaxN != 777 || cfg.CacheSize != 9 {
		t.Errorf("server from env = %+v", cfg)
	}
	if cfg.Timeout != 2*time.Minute || !cfg.Verbose || !cfg.Details || !cfg.Quiet || !cfg.HexOutput ||
		!cfg.NoColor || !cfg.JSONOutput || !cfg.Concise || cfg.OutputFile != "out.txt" || cfg.LogLevel != "debug" {
		t.Errorf("output from env = %+v", cfg)
	}
	if !cfg.Bench || cfg.MaxLength != 300 || cfg.BenchFrom != 5 || cfg.BenchTo != 250 || cfg.BenchSamples != 3 ||
		cfg.BenchMethod != 2 || cfg.BenchSpace != "write" || cfg.BenchFormat != "json" || cfg.BenchOutput != "b.json" {
		t.Errorf("bench from env = %+v", cfg)
	}
}

func TestParseConfigFlagPrecedenceOverEnv(t *testing.T) {
	t.Setenv("FIBDRV_N", "200")
	t.Setenv("FIBDRV_QUIET", "false")

	cfg, err := ParseConfig("fibdrv", []string{"-n", "300", "-q"}, io.Discard, availableAlgos)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.N != 300 || !cfg.Quiet {
		t.Errorf("N = %d, Quiet = %v; flags should win", cfg.N, cfg.Quiet)
	}
}

func TestParseConfigInvalidEnvIgnored(t *testing.T) {
	t.Setenv("FIBDRV_N", "many")
	t.Setenv("FIBDRV_TIMEOUT", "soon")
	t.Setenv("FIBDRV_JSON", "perhaps")

	cfg, err := ParseConfig("fibdrv", nil, io.Discard, availableAlgos)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.N != DefaultN || cfg.Timeout != DefaultTimeout || cfg.JSONOutput {
		t.Errorf("invalid env values should keep defaults: %+v", cfg)
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-unknown"}},
		{"invalid algorithm", []string{"-algo", "matrix"}},
		{"invalid printer", []string{"-printer", "octal"}},
		{"zero timeout", []string{"-timeout", "0s"}},
		{"negative max words", []string{"-max-words", "-1"}},
		{"bench beyond device", []string{"-bench", "-bench-to", "101"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var out strings.Builder
			if _, err := ParseConfig("fibdrv", tt.args, &out, availableAlgos); err == nil {
				t.Errorf("ParseConfig(%v) should fail", tt.args)
			}
		})
	}
}

func TestParseConfigUsage(t *testing.T) {
	t.Parallel()
	var out strings.Builder
	_, err := ParseConfig("fibdrv", []string{"-h"}, &out, availableAlgos)
	if err == nil {
		t.Fatal("-h should return flag.ErrHelp")
	}
	for _, section := range []string{"Calculation:", "Server:", "Bench:", "FIBDRV_N=100"} {
		if !strings.Contains(out.String(), section) {
			t.Errorf("usage misses %q:\n%s", section, out.String())
		}
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(c *AppConfig)
		ok     bool
	}{
		{"valid", func(c *AppConfig) {}, true},
		{"negative timeout", func(c *AppConfig) { c.Timeout = -1 }, false},
		{"max words too large", func(c *AppConfig) { c.MaxWords = 1<<26 + 1 }, false},
		{"algo fast", func(c *AppConfig) { c.Algo = "fast" }, true},
		{"unknown algo", func(c *AppConfig) { c.Algo = "fft" }, false},
		{"unknown printer", func(c *AppConfig) { c.Printer = "" }, false},
		{"negative cache", func(c *AppConfig) { c.CacheSize = -1 }, false},
		{"negative max length", func(c *AppConfig) { c.MaxLength = -1 }, false},
		{"bench ok", func(c *AppConfig) { c.Bench = true }, true},
		{"bench write method 10", func(c *AppConfig) { c.Bench, c.BenchSpace, c.BenchMethod = true, "write", 10 }, true},
		{"bench write method 11", func(c *AppConfig) { c.Bench, c.BenchSpace, c.BenchMethod = true, "write", 11 }, false},
		{"bench read method 3", func(c *AppConfig) { c.Bench, c.BenchMethod = true, 3 }, false},
		{"bench reversed", func(c *AppConfig) { c.Bench, c.BenchFrom, c.BenchTo = true, 50, 10 }, false},
		{"bench no samples", func(c *AppConfig) { c.Bench, c.BenchSamples = true, 0 }, false},
		{"bench bad space", func(c *AppConfig) { c.Bench, c.BenchSpace = true, "user" }, false},
		{"bench bad format", func(c *AppConfig) { c.Bench, c.BenchFormat = true, "csv" }, false},
		{"bench fields ignored", func(c *AppConfig) { c.BenchFormat = "csv" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate(availableAlgos)
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok {
				var cfgErr apperrors.ConfigError
				if !errors.As(err, &cfgErr) {
					t.Errorf("Validate() = %v, want ConfigError", err)
				}
			}
		})
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fibdrv.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestParseConfigFile(t *testing.T) {
	path := writeFile(t, `
n = 5000
algo = "fast"
printer = "doubling"
timeout = "30s"
hex = true

[server]
port = "9191"
max_n = 42
cache_size = 7

[bench]
max_length = 200
to = 150
space = "write"
method = 4
format = "json"
`)
	cfg, err := ParseConfig("fibdrv", []string{"-config", path}, io.Discard, availableAlgos)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.N != 5000 || cfg.Algo != "fast" || cfg.Printer != "doubling" || cfg.Timeout != 30*time.Second || !cfg.HexOutput {
		t.Errorf("top-level file values = %+v", cfg)
	}
	if cfg.Port != "9191" || cfg.MaxN != 42 || cfg.CacheSize != 7 {
		t.Errorf("server file values = %+v", cfg)
	}
	if cfg.MaxLength != 200 || cfg.BenchTo != 150 || cfg.BenchSpace != "write" || cfg.BenchMethod != 4 || cfg.BenchFormat != "json" {
		t.Errorf("bench file values = %+v", cfg)
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q", cfg.ConfigFile)
	}
}

func TestParseConfigFilePriority(t *testing.T) {
	path := writeFile(t, "n = 5000\nalgo = \"fast\"\nprinter = \"doubling\"\n")
	t.Setenv("FIBDRV_CONFIG", path)
	t.Setenv("FIBDRV_ALGO", "definition")

	cfg, err := ParseConfig("fibdrv", []string{"-n", "7"}, io.Discard, availableAlgos)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// flag > env > file > default
	if cfg.N != 7 {
		t.Errorf("N = %d, want the flag value 7", cfg.N)
	}
	if cfg.Algo != "definition" {
		t.Errorf("Algo = %s, want the env value", cfg.Algo)
	}
	if cfg.Printer != "doubling" {
		t.Errorf("Printer = %s, want the file value", cfg.Printer)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %s, want the default", cfg.Port)
	}
}

func TestParseConfigFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "n = = 3"},
		{"unknown key", "colour = \"red\""},
		{"bad timeout", "timeout = \"soon\""},
		{"wrong type", "n = \"many\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.content)
			if _, err := ParseConfig("fibdrv", []string{"-config", path}, io.Discard, availableAlgos); err == nil {
				t.Error("ParseConfig should fail")
			}
		})
	}
	if _, err := ParseConfig("fibdrv", []string{"-config", filepath.Join(t.TempDir(), "missing.toml")}, io.Discard, availableAlgos); err == nil {
		t.Error("a missing file should fail")
	}
}
