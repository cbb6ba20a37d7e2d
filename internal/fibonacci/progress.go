package fibonacci

import "math"

// ProgressUpdate carries the progress of one calculation to the UI.
type ProgressUpdate struct {
	// CalculatorIndex identifies the calculation when several run at once.
	CalculatorIndex int
	// Value is the normalized progress, from 0.0 to 1.0.
	Value float64
}

// ProgressReporter is the callback calculators use to publish progress
// without knowing how it is delivered.
type ProgressReporter func(progress float64)

// progressTracker converts engine steps into throttled progress reports.
// The weight function maps a completed fraction of steps to a fraction of
// work, since later steps work on larger operands.
type progressTracker struct {
	report       ProgressReporter
	weight       func(done, total uint64) float64
	lastReported float64
}

func (p *progressTracker) step(done, total uint64) {
	if total == 0 {
		return
	}
	progress := p.weight(done, total)
	if progress-p.lastReported >= ProgressReportThreshold || done == total {
		p.report(progress)
		p.lastReported = progress
	}
}

// linearWork models the definition loop: step i adds operands of about i
// bits, so the work done after k of n steps grows as (k/n)².
func linearWork(done, total uint64) float64 {
	f := float64(done) / float64(total)
	return f * f
}

// doublingWork models the doubling loops: each bit doubles the operand size
// and multiplication is quadratic, so step i costs about 4^i units.
func doublingWork(done, total uint64) float64 {
	if total > 64 {
		return float64(done) / float64(total)
	}
	return (math.Pow(4, float64(done)) - 1) / (math.Pow(4, float64(total)) - 1)
}
