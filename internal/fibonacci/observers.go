package fibonacci

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// ProgressObserver receives progress notifications from a ProgressSubject.
type ProgressObserver interface {
	// Update is called with the calculator index and its normalized
	// progress (0.0 to 1.0).
	Update(calcIndex int, progress float64)
}

// ProgressSubject fans progress out to registered observers, in
// registration order. It is safe for concurrent use.
type ProgressSubject struct {
	mu        sync.RWMutex
	observers []ProgressObserver
}

// NewProgressSubject creates a subject with no observers.
func NewProgressSubject() *ProgressSubject {
	return &ProgressSubject{}
}

// Register adds an observer. A nil observer is ignored.
func (s *ProgressSubject) Register(observer ProgressObserver) {
	if observer == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// Unregister removes an observer if present.
func (s *ProgressSubject) Unregister(observer ProgressObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.observers {
		if o == observer {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

// Notify forwards an update to every observer synchronously.
func (s *ProgressSubject) Notify(calcIndex int, progress float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.observers {
		o.Update(calcIndex, progress)
	}
}

// ObserverCount returns the number of registered observers.
func (s *ProgressSubject) ObserverCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

// AsProgressReporter binds the subject to a calculator index.
func (s *ProgressSubject) AsProgressReporter(calcIndex int) ProgressReporter {
	return func(progress float64) {
		s.Notify(calcIndex, progress)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Observers
// ─────────────────────────────────────────────────────────────────────────────

// ChannelObserver forwards updates to a channel without blocking; updates
// that do not fit in the channel buffer are dropped.
type ChannelObserver struct {
	channel chan<- ProgressUpdate
}

// NewChannelObserver creates an observer writing to ch. A nil ch discards
// every update.
func NewChannelObserver(ch chan<- ProgressUpdate) *ChannelObserver {
	return &ChannelObserver{channel: ch}
}

// Update implements ProgressObserver.
func (o *ChannelObserver) Update(calcIndex int, progress float64) {
	if o.channel == nil {
		return
	}
	select {
	case o.channel <- ProgressUpdate{CalculatorIndex: calcIndex, Value: min(progress, 1.0)}:
	default:
	}
}

// LoggingObserver writes progress to a zerolog logger at debug level, at
// most once per threshold step for each calculator.
type LoggingObserver struct {
	logger    zerolog.Logger
	threshold float64

	mu      sync.Mutex
	lastLog map[int]float64
}

// NewLoggingObserver creates a LoggingObserver. A threshold of zero or less
// selects 10%.
//
// Parameters:
//   - logger: The destination logger.
//   - threshold: The minimum progress change between two log lines.
//
// Returns:
//   - *LoggingObserver: The observer.
func NewLoggingObserver(logger zerolog.Logger, threshold float64) *LoggingObserver {
	if threshold <= 0 {
		threshold = 0.1
	}
	return &LoggingObserver{logger: logger, threshold: threshold, lastLog: make(map[int]float64)}
}

// Update implements ProgressObserver.
func (o *LoggingObserver) Update(calcIndex int, progress float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	last, seen := o.lastLog[calcIndex]
	if seen && progress < 1.0 && progress-last < o.threshold {
		return
	}
	o.lastLog[calcIndex] = progress
	o.logger.Debug().
		Int("calculator", calcIndex).
		Float64("progress", progress).
		Msg("calculation progress")
}

var progressGauge = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "fibonacci_calculation_progress",
		Help: "Current progress of Fibonacci calculations (0.0 to 1.0)",
	},
	[]string{"calculator_index"},
)

// MetricsObserver exports progress as a Prometheus gauge.
type MetricsObserver struct{}

// NewMetricsObserver creates a MetricsObserver.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// Update implements ProgressObserver.
func (o *MetricsObserver) Update(calcIndex int, progress float64) {
	progressGauge.WithLabelValues(strconv.Itoa(calcIndex)).Set(progress)
}
