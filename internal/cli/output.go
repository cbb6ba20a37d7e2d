package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/agbru/fibdrv/internal/ui"
)

// hexEdges is the number of leading and trailing hex digits shown for a
// truncated hexadecimal result.
const hexEdges = 40

// OutputConfig holds configuration for result output.
type OutputConfig struct {
	// OutputFile is the path to save the result (empty for no file output).
	OutputFile string
	// HexOutput also prints the result in hexadecimal.
	HexOutput bool
	// Quiet prints the bare value only.
	Quiet bool
	// Verbose prints values without truncation.
	Verbose bool
	// Details prints the detailed result analysis.
	Details bool
	// Concise enables the calculated value section.
	Concise bool
}

// WriteResultToFile writes res with a commented header to
// config.OutputFile, creating parent directories as needed. It does
// nothing when no file is configured.
func WriteResultToFile(res Result, config OutputConfig) (err error) {
	if config.OutputFile == "" {
		return nil
	}

	if dir := filepath.Dir(config.OutputFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(config.OutputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	fmt.Fprintf(file, "# Fibonacci Calculation Result\n")
	fmt.Fprintf(file, "# Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(file, "# Algorithm: %s\n", res.Algorithm)
	fmt.Fprintf(file, "# Duration: %s\n", res.Duration)
	fmt.Fprintf(file, "# N: %d\n", res.N)
	fmt.Fprintf(file, "# Bits: %d\n", res.Bits)
	fmt.Fprintf(file, "# Digits: %d\n", len(res.Decimal))
	fmt.Fprintf(file, "# Checksum (xxhash64): %016x\n", res.Checksum())
	fmt.Fprintf(file, "\n")

	if config.HexOutput {
		_, err = fmt.Fprintf(file, "F(%d) [hex] =\n0x%s\n", res.N, res.Hex)
	} else {
		_, err = fmt.Fprintf(file, "F(%d) =\n%s\n", res.N, res.Decimal)
	}
	return err
}

// FormatQuietResult returns the bare value for scripting, in hexadecimal
// with a 0x prefix when hexOutput is set.
func FormatQuietResult(res Result, hexOutput bool) string {
	if hexOutput {
		return "0x" + res.Hex
	}
	return res.Decimal
}

// DisplayQuietResult prints FormatQuietResult on its own line.
func DisplayQuietResult(out io.Writer, res Result, hexOutput bool) {
	fmt.Fprintln(out, FormatQuietResult(res, hexOutput))
}

// DisplayHex prints the hexadecimal section, truncated for long values
// unless verbose is set.
func DisplayHex(out io.Writer, res Result, verbose bool) {
	fmt.Fprintf(out, "\n%s--- Hexadecimal format ---%s\n", ui.ColorBold(), ui.ColorReset())
	h := res.Hex
	if len(h) > TruncationLimit && !verbose {
		fmt.Fprintf(out, "F(%s%d%s) [hex] = %s0x%s...%s%s\n",
			ui.ColorMagenta(), res.N, ui.ColorReset(),
			ui.ColorGreen(), h[:hexEdges], h[len(h)-hexEdges:], ui.ColorReset())
		return
	}
	fmt.Fprintf(out, "F(%s%d%s) [hex] = %s0x%s%s\n",
		ui.ColorMagenta(), res.N, ui.ColorReset(), ui.ColorGreen(), h, ui.ColorReset())
}

// DisplayResultWithConfig prints res according to config and saves it
// when an output file is configured.
//
// Returns:
//   - error: An error if file output fails.
func DisplayResultWithConfig(out io.Writer, res Result, config OutputConfig) error {
	if config.Quiet {
		DisplayQuietResult(out, res, config.HexOutput)
	} else {
		DisplayResult(res, config.Verbose, config.Details, config.Concise, out)
		if config.HexOutput {
			DisplayHex(out, res, config.Verbose)
		}
	}

	if config.OutputFile == "" {
		return nil
	}
	if err := WriteResultToFile(res, config); err != nil {
		return err
	}
	if !config.Quiet {
		fmt.Fprintf(out, "\n%s✓ Result saved to: %s%s%s\n",
			ui.ColorGreen(), ui.ColorCyan(), config.OutputFile, ui.ColorReset())
	}
	return nil
}
