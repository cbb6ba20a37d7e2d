// Package cli renders calculations in the terminal: a spinner with an
// aggregated progress bar while the calculators run, then the result with
// optional details, hexadecimal form and file export.
package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/agbru/fibdrv/internal/fibonacci"
	"github.com/agbru/fibdrv/internal/ui"
)

const (
	// TruncationLimit is the number of digits above which a result is
	// truncated unless verbose output is requested.
	TruncationLimit = 100
	// DisplayEdges is the number of leading and trailing digits shown for a
	// truncated result.
	DisplayEdges = 25
	// ProgressRefreshRate is the refresh period of the spinner line.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth is the width in characters of the progress bar.
	ProgressBarWidth = 40
)

// counts formats integer counts with thousands separators.
var counts = message.NewPrinter(language.English)

// FormatExecutionDuration formats d in microseconds below a millisecond,
// in milliseconds below a second, and with time.Duration.String otherwise.
func FormatExecutionDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return d.String()
	}
}

// formatDuration is FormatExecutionDuration with "< 1µs" for a zero
// duration, as reported by calculators that finish within the clock
// resolution.
func formatDuration(d time.Duration) string {
	if d == 0 {
		return "< 1µs"
	}
	return FormatExecutionDuration(d)
}

// Spinner abstracts the terminal spinner so that DisplayProgress can be
// tested without a terminal.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text displayed after the spinner.
	UpdateSuffix(suffix string)
}

// realSpinner adapts spinner.Spinner to Spinner.
type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() { rs.s.Start() }

func (rs *realSpinner) Stop() { rs.s.Stop() }

func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

var newSpinner = func(options ...spinner.Option) Spinner {
	return &realSpinner{spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)}
}

// ProgressState holds the latest progress of each concurrent calculator.
type ProgressState struct {
	progresses     []float64
	numCalculators int
}

// NewProgressState creates a ProgressState for numCalculators calculators.
func NewProgressState(numCalculators int) *ProgressState {
	return &ProgressState{
		progresses:     make([]float64, numCalculators),
		numCalculators: numCalculators,
	}
}

// Update records the progress of calculator index, clamped to [0, 1].
// Out of range indices are ignored.
func (ps *ProgressState) Update(index int, value float64) {
	if index < 0 || index >= len(ps.progresses) {
		return
	}
	ps.progresses[index] = min(max(value, 0), 1)
}

// CalculateAverage returns the mean progress over all calculators.
func (ps *ProgressState) CalculateAverage() float64 {
	if ps.numCalculators == 0 {
		return 0
	}
	var total float64
	for _, p := range ps.progresses {
		total += p
	}
	return total / float64(ps.numCalculators)
}

// progressBar renders progress (clamped to [0, 1]) as a bar of length
// characters.
func progressBar(progress float64, length int) string {
	progress = min(max(progress, 0), 1)
	filled := int(progress * float64(length))
	return strings.Repeat("█", filled) + strings.Repeat("░", length-filled)
}

func progressLabel(numCalculators int) string {
	if numCalculators > 1 {
		return "Avg progress"
	}
	return "Progress"
}

// DisplayProgress shows a spinner with the aggregated progress and ETA of
// numCalculators calculators until progressChan is closed, then prints a
// final 100% line. It is meant to run in its own goroutine and calls
// wg.Done on return.
//
// Parameters:
//   - wg: Signalled when the display routine is complete.
//   - progressChan: The channel receiving progress updates.
//   - numCalculators: The number of calculators contributing to the progress.
//   - out: The io.Writer the progress line is rendered to.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan fibonacci.ProgressUpdate, numCalculators int, out io.Writer) {
	defer wg.Done()
	if numCalculators <= 0 {
		for range progressChan {
		}
		return
	}

	state := NewProgressWithETA(numCalculators)
	label := progressLabel(numCalculators)
	s := newSpinner(spinner.WithWriter(out))
	s.Start()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	for {
		select {
		case update, ok := <-progressChan:
			if !ok {
				s.Stop()
				fmt.Fprintf(out, "%s: %s\n", label, FormatProgressBarWithETA(1, time.Nanosecond, ProgressBarWidth))
				return
			}
			state.UpdateWithETA(update.CalculatorIndex, update.Value)
		case <-ticker.C:
			s.UpdateSuffix(fmt.Sprintf(" %s: %s", label,
				FormatProgressBarWithETA(state.CalculateAverage(), state.GetETA(), ProgressBarWidth)))
		}
	}
}

// DisplayResult prints res: its size, the detailed analysis when details
// is set, and the value itself when concise is set. The value is
// truncated above TruncationLimit digits unless verbose is set.
//
// Parameters:
//   - res: The rendered result.
//   - verbose: Print the full value regardless of size.
//   - details: Print time, digit and word counts, checksum and scientific notation.
//   - concise: Print the calculated value section.
//   - out: The io.Writer for the output.
func DisplayResult(res Result, verbose, details, concise bool, out io.Writer) {
	fmt.Fprintf(out, "Result binary size: %s%s%s bits.\n", ui.ColorCyan(), counts.Sprintf("%d", res.Bits), ui.ColorReset())

	if details {
		fmt.Fprintf(out, "\n%s--- Detailed result analysis ---%s\n", ui.ColorBold(), ui.ColorReset())
		fmt.Fprintf(out, "Calculation time      : %s%s%s\n", ui.ColorGreen(), formatDuration(res.Duration), ui.ColorReset())
		fmt.Fprintf(out, "Number of digits      : %s%s%s\n", ui.ColorCyan(), counts.Sprintf("%d", len(res.Decimal)), ui.ColorReset())
		fmt.Fprintf(out, "32-bit words          : %s%s%s\n", ui.ColorCyan(), counts.Sprintf("%d", res.Words), ui.ColorReset())
		fmt.Fprintf(out, "Checksum (xxhash64)   : %s%016x%s\n", ui.ColorCyan(), res.Checksum(), ui.ColorReset())
		if sci, ok := scientific(res.Decimal); ok {
			fmt.Fprintf(out, "Scientific notation   : %s%s%s\n", ui.ColorCyan(), sci, ui.ColorReset())
		}
	}

	if !concise {
		return
	}

	digits := res.Decimal
	fmt.Fprintf(out, "\n%s--- Calculated value ---%s\n", ui.ColorBold(), ui.ColorReset())
	switch {
	case verbose:
		fmt.Fprintf(out, "F(%s%d%s) =\n%s%s%s\n", ui.ColorMagenta(), res.N, ui.ColorReset(), ui.ColorGreen(), formatNumberString(digits), ui.ColorReset())
	case len(digits) > TruncationLimit:
		fmt.Fprintf(out, "F(%s%d%s) (truncated) = %s%s...%s%s\n",
			ui.ColorMagenta(), res.N, ui.ColorReset(),
			ui.ColorGreen(), digits[:DisplayEdges], digits[len(digits)-DisplayEdges:], ui.ColorReset())
		fmt.Fprintf(out, "(Tip: use the %s-v%s option to display the full value)\n", ui.ColorYellow(), ui.ColorReset())
	default:
		fmt.Fprintf(out, "F(%s%d%s) = %s%s%s\n", ui.ColorMagenta(), res.N, ui.ColorReset(), ui.ColorGreen(), formatNumberString(digits), ui.ColorReset())
	}
}

// scientific renders a decimal string with more than six digits as
// d.dddddde+XX, truncating the mantissa.
func scientific(digits string) (string, bool) {
	if len(digits) <= 6 {
		return "", false
	}
	return fmt.Sprintf("%c.%se+%02d", digits[0], digits[1:7], len(digits)-1), true
}

// formatNumberString inserts thousands separators into a decimal string.
// The x/text printer only groups machine integers, so the digits of a
// bignum are grouped here.
func formatNumberString(s string) string {
	if s == "" {
		return ""
	}
	prefix := ""
	if s[0] == '-' {
		prefix, s = "-", s[1:]
	}
	n := len(s)
	if n <= 3 {
		return prefix + s
	}

	var b strings.Builder
	b.Grow(len(prefix) + n + (n-1)/3)
	b.WriteString(prefix)
	first := n % 3
	if first == 0 {
		first = 3
	}
	b.WriteString(s[:first])
	for i := first; i < n; i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
