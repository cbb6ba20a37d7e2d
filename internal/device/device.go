// Package device is the front end of the Fibonacci engine. It behaves like
// a character device: a single client opens it, seeks to an index, reads
// the decimal representation of F(index) computed by one of the bignum
// algorithms, and writes a method number to time one of the fixed-width
// reference implementations at the same index.
package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/agbru/fibdrv/internal/bignum"
	apperrors "github.com/agbru/fibdrv/internal/errors"
	"github.com/agbru/fibdrv/internal/fibonacci"
	"github.com/agbru/fibdrv/internal/fixedwidth"
	"github.com/agbru/fibdrv/internal/logging"
)

// DefaultMaxLength is the largest index reachable by Seek unless
// configured otherwise.
const DefaultMaxLength = 100

var (
	// ErrBusy is returned by Open while another handle is open.
	ErrBusy = errors.New("device: busy")
	// ErrClosed is returned by operations on a closed handle.
	ErrClosed = errors.New("device: handle closed")
	// ErrUnknownMethod is returned for a method number outside the
	// read or write method table.
	ErrUnknownMethod = errors.New("device: unknown method")
	// ErrInvalidWhence is returned by Seek for an unsupported whence.
	ErrInvalidWhence = errors.New("device: invalid whence")
)

var (
	opensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fibdrv_device_opens_total",
			Help: "Device open attempts by outcome",
		},
		[]string{"result"},
	)
	readsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fibdrv_device_reads_total",
			Help: "Device reads by bignum method and status",
		},
		[]string{"method", "status"},
	)
	writeNanoseconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fibdrv_device_write_nanoseconds",
			Help:    "Elapsed time reported by device writes",
			Buckets: prometheus.ExponentialBuckets(10, 4, 10),
		},
		[]string{"method"},
	)
)

// readMethods maps read method numbers to calculator registry names.
var readMethods = []string{
	fibonacci.AlgoDefinition,
	fibonacci.AlgoFast,
	fibonacci.AlgoFastNoSub,
}

// ReadMethods returns the registry names of the read methods, indexed by
// method number.
func ReadMethods() []string {
	return append([]string(nil), readMethods...)
}

// Device owns the open gate and the configuration shared by its handles.
// It is safe for concurrent use; a Handle is not.
type Device struct {
	gate      chan struct{}
	maxLength int64
	factory   fibonacci.CalculatorFactory
	opts      fibonacci.Options
	printer   bignum.Printer
	logger    logging.Logger
}

// Option configures a Device.
type Option func(*Device)

// WithMaxLength sets the largest reachable index. Negative values are
// ignored.
func WithMaxLength(n int64) Option {
	return func(d *Device) {
		if n >= 0 {
			d.maxLength = n
		}
	}
}

// WithFactory sets the calculator factory used to resolve read methods.
func WithFactory(f fibonacci.CalculatorFactory) Option {
	return func(d *Device) {
		if f != nil {
			d.factory = f
		}
	}
}

// WithCalcOptions sets the options passed to every calculation, such as
// a word limit.
func WithCalcOptions(opts fibonacci.Options) Option {
	return func(d *Device) {
		d.opts = opts
	}
}

// WithPrinter sets the decimal codec used by reads.
func WithPrinter(p bignum.Printer) Option {
	return func(d *Device) {
		if p != nil {
			d.printer = p
		}
	}
}

// WithLogger sets the device logger.
func WithLogger(l logging.Logger) Option {
	return func(d *Device) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a Device. Without options it serves indices up to
// DefaultMaxLength with the global calculator factory and the chunk
// printer.
func New(opts ...Option) *Device {
	d := &Device{
		gate:      make(chan struct{}, 1),
		maxLength: DefaultMaxLength,
		factory:   fibonacci.GlobalFactory(),
		printer:   bignum.ChunkPrinter{},
		logger:    logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// MaxLength returns the largest index reachable by Seek.
func (d *Device) MaxLength() int64 {
	return d.maxLength
}

// Open acquires the device without waiting.
//
// Returns:
//   - *Handle: A handle positioned at index 0.
//   - error: ErrBusy if another handle is open.
func (d *Device) Open() (*Handle, error) {
	select {
	case d.gate <- struct{}{}:
		opensTotal.WithLabelValues("ok").Inc()
		return &Handle{dev: d}, nil
	default:
		opensTotal.WithLabelValues("busy").Inc()
		d.logger.Warn("device is in use")
		return nil, ErrBusy
	}
}

// OpenContext acquires the device, waiting for the current holder to
// close it or for ctx to end.
func (d *Device) OpenContext(ctx context.Context) (*Handle, error) {
	select {
	case d.gate <- struct{}{}:
		opensTotal.WithLabelValues("ok").Inc()
		return &Handle{dev: d}, nil
	case <-ctx.Done():
		opensTotal.WithLabelValues("busy").Inc()
		return nil, fmt.Errorf("%w: %w", ErrBusy, ctx.Err())
	}
}

// Handle is an open device. It holds the current index and must be used
// by a single goroutine.
type Handle struct {
	dev    *Device
	pos    int64
	closed bool
}

// Close releases the device.
func (h *Handle) Close() error {
	if h.closed {
		return ErrClosed
	}
	h.closed = true
	<-h.dev.gate
	return nil
}

// Pos returns the current index.
func (h *Handle) Pos() int64 {
	return h.pos
}

// Seek moves the index and returns the new position. io.SeekEnd counts
// back from the maximum length. The result is clamped to
// [0, MaxLength].
//
// Parameters:
//   - offset: The offset interpreted according to whence.
//   - whence: io.SeekStart, io.SeekCurrent or io.SeekEnd.
//
// Returns:
//   - int64: The new index.
//   - error: ErrClosed, or ErrInvalidWhence for another whence.
func (h *Handle) Seek(offset int64, whence int) (int64, error) {
	if h.closed {
		return 0, ErrClosed
	}
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = saturatingAdd(h.pos, offset)
	case io.SeekEnd:
		pos = saturatingAdd(h.dev.maxLength, saturatingNeg(offset))
	default:
		return h.pos, ErrInvalidWhence
	}
	h.pos = min(max(pos, 0), h.dev.maxLength)
	return h.pos, nil
}

// Read computes F(Pos()) with the given bignum method and returns its
// decimal representation.
//
// Parameters:
//   - ctx: Cancels the calculation.
//   - method: 0 (definition), 1 (fast doubling) or 2 (fast doubling
//     without subtraction).
//
// Returns:
//   - string: The decimal digits of F(Pos()).
//   - error: ErrClosed, ErrUnknownMethod, or an apperrors.CalculationError
//     around a context error or bignum.ErrAllocation. No partial output is
//     returned.
func (h *Handle) Read(ctx context.Context, method int) (string, error) {
	s, _, err := h.ReadTimed(ctx, method)
	return s, err
}

// ReadTimed is Read that also reports the time spent computing F(Pos()),
// excluding the decimal conversion.
func (h *Handle) ReadTimed(ctx context.Context, method int) (string, time.Duration, error) {
	if h.closed {
		return "", 0, ErrClosed
	}
	if method < 0 || method >= len(readMethods) {
		return "", 0, fmt.Errorf("%w: read method %d", ErrUnknownMethod, method)
	}
	name := readMethods[method]
	d := h.dev

	ctx, span := otel.Tracer("device").Start(ctx, "Read", trace.WithAttributes(
		attribute.String("device.method", name),
		attribute.Int64("device.offset", h.pos),
	))
	defer span.End()

	calc, err := d.factory.Get(name)
	if err != nil {
		readsTotal.WithLabelValues(name, "error").Inc()
		return "", 0, fmt.Errorf("%w: %w", ErrUnknownMethod, err)
	}

	start := time.Now()
	result, err := calc.Calculate(ctx, nil, 0, uint64(h.pos), d.opts)
	elapsed := time.Since(start)
	if err != nil {
		readsTotal.WithLabelValues(name, "error").Inc()
		span.RecordError(err)
		d.logger.Error("read failed", err, logging.String("method", name), logging.Int64("offset", h.pos))
		return "", 0, apperrors.NewCalculationError(name, uint64(h.pos), err)
	}
	defer func() { _ = result.Free() }()

	s, err := d.printer.Print(result)
	if err != nil {
		readsTotal.WithLabelValues(name, "error").Inc()
		span.RecordError(err)
		return "", 0, fmt.Errorf("printing F(%d): %w", h.pos, err)
	}
	readsTotal.WithLabelValues(name, "ok").Inc()
	d.logger.Debug("read",
		logging.String("method", name),
		logging.Int64("offset", h.pos),
		logging.Int("digits", len(s)),
		logging.Duration("elapsed", elapsed),
	)
	return s, elapsed, nil
}

// Write runs fixed-width method number method at the current index and
// returns the elapsed time. The computed value is discarded.
//
// Parameters:
//   - method: An index into the fixedwidth method table (0 to 10).
//
// Returns:
//   - time.Duration: The elapsed computation time.
//   - error: ErrClosed, ErrUnknownMethod, or fixedwidth.ErrIndexTooLarge
//     when the method's table cannot hold the current index.
func (h *Handle) Write(method int) (time.Duration, error) {
	if h.closed {
		return 0, ErrClosed
	}
	m := fixedwidth.Method(method)
	if !m.Valid() {
		return 0, fmt.Errorf("%w: write method %d", ErrUnknownMethod, method)
	}
	if err := fixedwidth.Check(m, uint64(h.pos)); err != nil {
		return 0, err
	}
	elapsed, _ := fixedwidth.Time(m, uint64(h.pos))
	writeNanoseconds.WithLabelValues(m.String()).Observe(float64(elapsed.Nanoseconds()))
	return elapsed, nil
}

func saturatingAdd(a, b int64) int64 {
	switch {
	case b > 0 && a > math.MaxInt64-b:
		return math.MaxInt64
	case b < 0 && a < math.MinInt64-b:
		return math.MinInt64
	}
	return a + b
}

func saturatingNeg(a int64) int64 {
	if a == math.MinInt64 {
		return math.MaxInt64
	}
	return -a
}
