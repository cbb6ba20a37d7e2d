package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	apperrors "github.com/agbru/fibdrv/internal/errors"
)

// fileConfig is the TOML layout of a configuration file:
//
//	n = 5000
//	algo = "fast"
//	printer = "chunk"
//	timeout = "30s"
//
//	[server]
//	port = "9090"
//	max_n = 50000
//
//	[bench]
//	space = "write"
//	to = 92
type fileConfig struct {
	N        uint64 `toml:"n"`
	Algo     string `toml:"algo"`
	Printer  string `toml:"printer"`
	MaxWords int    `toml:"max_words"`
	Timeout  string `toml:"timeout"`
	LogLevel string `toml:"log_level"`
	Verbose  bool   `toml:"verbose"`
	Details  bool   `toml:"details"`
	JSON     bool   `toml:"json"`
	Hex      bool   `toml:"hex"`
	Quiet    bool   `toml:"quiet"`
	NoColor  bool   `toml:"no_color"`
	Output   string `toml:"output"`

	Server struct {
		Port      string `toml:"port"`
		MaxN      uint64 `toml:"max_n"`
		CacheSize int    `toml:"cache_size"`
	} `toml:"server"`

	Bench struct {
		MaxLength int64  `toml:"max_length"`
		From      int64  `toml:"from"`
		To        int64  `toml:"to"`
		Samples   int    `toml:"samples"`
		Method    int    `toml:"method"`
		Space     string `toml:"space"`
		Format    string `toml:"format"`
		Output    string `toml:"output"`
	} `toml:"bench"`
}

// fileSetter copies one decoded value into the configuration when the key
// is present in the file and none of its flags was set.
type fileSetter struct {
	key   []string
	flags []string
	apply func(fc *fileConfig, c *AppConfig) error
}

var fileSetters = []fileSetter{
	{[]string{"n"}, []string{"n"}, func(fc *fileConfig, c *AppConfig) error { c.N = fc.N; return nil }},
	{[]string{"algo"}, []string{"algo"}, func(fc *fileConfig, c *AppConfig) error { c.Algo = fc.Algo; return nil }},
	{[]string{"printer"}, []string{"printer"}, func(fc *fileConfig, c *AppConfig) error { c.Printer = fc.Printer; return nil }},
	{[]string{"max_words"}, []string{"max-words"}, func(fc *fileConfig, c *AppConfig) error { c.MaxWords = fc.MaxWords; return nil }},
	{[]string{"timeout"}, []string{"timeout"}, func(fc *fileConfig, c *AppConfig) error {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return apperrors.NewConfigError("invalid timeout %q in configuration file", fc.Timeout)
		}
		c.Timeout = d
		return nil
	}},
	{[]string{"log_level"}, []string{"log-level"}, func(fc *fileConfig, c *AppConfig) error { c.LogLevel = fc.LogLevel; return nil }},
	{[]string{"verbose"}, []string{"v"}, func(fc *fileConfig, c *AppConfig) error { c.Verbose = fc.Verbose; return nil }},
	{[]string{"details"}, []string{"d", "details"}, func(fc *fileConfig, c *AppConfig) error { c.Details = fc.Details; return nil }},
	{[]string{"json"}, []string{"json"}, func(fc *fileConfig, c *AppConfig) error { c.JSONOutput = fc.JSON; return nil }},
	{[]string{"hex"}, []string{"hex"}, func(fc *fileConfig, c *AppConfig) error { c.HexOutput = fc.Hex; return nil }},
	{[]string{"quiet"}, []string{"quiet", "q"}, func(fc *fileConfig, c *AppConfig) error { c.Quiet = fc.Quiet; return nil }},
	{[]string{"no_color"}, []string{"no-color"}, func(fc *fileConfig, c *AppConfig) error { c.NoColor = fc.NoColor; return nil }},
	{[]string{"output"}, []string{"output", "o"}, func(fc *fileConfig, c *AppConfig) error { c.OutputFile = fc.Output; return nil }},

	{[]string{"server", "port"}, []string{"port"}, func(fc *fileConfig, c *AppConfig) error { c.Port = fc.Server.Port; return nil }},
	{[]string{"server", "max_n"}, []string{"max-n"}, func(fc *fileConfig, c *AppConfig) error { c.MaxN = fc.Server.MaxN; return nil }},
	{[]string{"server", "cache_size"}, []string{"cache-size"}, func(fc *fileConfig, c *AppConfig) error { c.CacheSize = fc.Server.CacheSize; return nil }},

	{[]string{"bench", "max_length"}, []string{"max-length"}, func(fc *fileConfig, c *AppConfig) error { c.MaxLength = fc.Bench.MaxLength; return nil }},
	{[]string{"bench", "from"}, []string{"bench-from"}, func(fc *fileConfig, c *AppConfig) error { c.BenchFrom = fc.Bench.From; return nil }},
	{[]string{"bench", "to"}, []string{"bench-to"}, func(fc *fileConfig, c *AppConfig) error { c.BenchTo = fc.Bench.To; return nil }},
	{[]string{"bench", "samples"}, []string{"bench-samples"}, func(fc *fileConfig, c *AppConfig) error { c.BenchSamples = fc.Bench.Samples; return nil }},
	{[]string{"bench", "method"}, []string{"bench-method"}, func(fc *fileConfig, c *AppConfig) error { c.BenchMethod = fc.Bench.Method; return nil }},
	{[]string{"bench", "space"}, []string{"bench-space"}, func(fc *fileConfig, c *AppConfig) error { c.BenchSpace = fc.Bench.Space; return nil }},
	{[]string{"bench", "format"}, []string{"bench-format"}, func(fc *fileConfig, c *AppConfig) error { c.BenchFormat = fc.Bench.Format; return nil }},
	{[]string{"bench", "output"}, []string{"bench-output"}, func(fc *fileConfig, c *AppConfig) error { c.BenchOutput = fc.Bench.Output; return nil }},
}

// applyFile decodes the TOML file at path and applies every key it
// defines, unless a flag for that option was set. Unknown keys are
// rejected so that typos do not pass silently.
func applyFile(config *AppConfig, fs *flag.FlagSet, path string) error {
	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return apperrors.NewConfigError("reading configuration file %s: %v", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return apperrors.NewConfigError("unknown key %q in configuration file %s", undecoded[0].String(), path)
	}
	for _, s := range fileSetters {
		if !md.IsDefined(s.key...) || anyFlagSet(fs, s.flags...) {
			continue
		}
		if err := s.apply(&fc, config); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}
