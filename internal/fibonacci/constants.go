package fibonacci

// ─────────────────────────────────────────────────────────────────────────────
// Sizing Constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	// MaxFibUint64 is the largest index whose Fibonacci number fits in a
	// uint64: F(93) = 12200160415121876738, while F(94) overflows.
	MaxFibUint64 = 93

	// bitsPerIndex is log2(φ), the number of bits F(n) gains per index.
	// F(n) has at most ⌈n·bitsPerIndex⌉ + 1 bits.
	bitsPerIndex = 0.6942419136306174
)

// ─────────────────────────────────────────────────────────────────────────────
// Progress Reporting Constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	// ProgressReportThreshold is the minimum progress change (0.0 to 1.0)
	// between two reports. Smaller changes are coalesced.
	ProgressReportThreshold = 0.01

	// DefinitionCheckInterval is how many additions the definition
	// calculator performs between context checks and progress reports.
	DefinitionCheckInterval = 256
)
