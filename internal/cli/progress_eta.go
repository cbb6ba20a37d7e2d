package cli

import (
	"fmt"
	"time"
)

// maxETA caps the displayed estimate.
const maxETA = 24 * time.Hour

// ProgressWithETA extends ProgressState with an estimate of the remaining
// time, derived from an exponentially smoothed progress rate.
type ProgressWithETA struct {
	*ProgressState
	now          func() time.Time
	startTime    time.Time
	lastUpdate   time.Time
	lastProgress float64
	progressRate float64 // progress per second
}

// NewProgressWithETA creates a progress tracker with ETA estimation for
// numCalculators calculators.
func NewProgressWithETA(numCalculators int) *ProgressWithETA {
	p := &ProgressWithETA{
		ProgressState: NewProgressState(numCalculators),
		now:           time.Now,
	}
	p.startTime = p.now()
	p.lastUpdate = p.startTime
	return p
}

// UpdateWithETA records the progress of calculator index and returns the
// average progress and the estimated remaining time. The estimate is zero
// until 100ms have elapsed and some progress was made.
//
// Parameters:
//   - index: The index of the calculator.
//   - value: The new progress value (0.0 to 1.0).
//
// Returns:
//   - progress: The current average progress (0.0 to 1.0).
//   - eta: The estimated time remaining, or 0 when unknown.
func (p *ProgressWithETA) UpdateWithETA(index int, value float64) (progress float64, eta time.Duration) {
	p.Update(index, value)
	progress = p.CalculateAverage()

	now := p.now()
	elapsed := now.Sub(p.startTime)
	if elapsed < 100*time.Millisecond || progress <= 0.001 {
		p.lastUpdate, p.lastProgress = now, progress
		return progress, 0
	}

	if sinceLast := now.Sub(p.lastUpdate).Seconds(); sinceLast > 0.05 {
		if delta := progress - p.lastProgress; delta > 0 {
			if p.progressRate > 0 {
				p.progressRate = 0.7*p.progressRate + 0.3*(delta/sinceLast)
			} else {
				p.progressRate = progress / elapsed.Seconds()
			}
		}
		p.lastUpdate, p.lastProgress = now, progress
	}

	return progress, p.GetETA()
}

// GetETA returns the estimated remaining time at the current rate, or 0
// when no rate is known or the work is complete.
func (p *ProgressWithETA) GetETA() time.Duration {
	progress := p.CalculateAverage()
	if p.progressRate <= 0 || progress >= 1 {
		return 0
	}
	seconds := (1 - progress) / p.progressRate
	if seconds >= maxETA.Seconds() {
		return maxETA
	}
	return time.Duration(seconds * float64(time.Second))
}

// FormatETA formats an estimate as "< 1s", "45s", "2m30s" or "1h15m", and
// as "calculating..." when it is not known yet.
func FormatETA(eta time.Duration) string {
	switch {
	case eta <= 0:
		return "calculating..."
	case eta < time.Second:
		return "< 1s"
	case eta < time.Minute:
		return fmt.Sprintf("%ds", int(eta.Seconds()))
	case eta < time.Hour:
		m, s := int(eta.Minutes()), int(eta.Seconds())%60
		if s > 0 {
			return fmt.Sprintf("%dm%ds", m, s)
		}
		return fmt.Sprintf("%dm", m)
	default:
		h, m := int(eta.Hours()), int(eta.Minutes())%60
		if m > 0 {
			return fmt.Sprintf("%dh%dm", h, m)
		}
		return fmt.Sprintf("%dh", h)
	}
}

// FormatProgressBarWithETA renders "45.00% [████░░░░] ETA: 2m30s".
func FormatProgressBarWithETA(progress float64, eta time.Duration, width int) string {
	return fmt.Sprintf("%6.2f%% [%s] ETA: %s", progress*100, progressBar(progress, width), FormatETA(eta))
}
