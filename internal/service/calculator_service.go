package service

//go:generate mockgen -source=calculator_service.go -destination=mocks/mock_service.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"fortio.org/safecast"
	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/agbru/fibdrv/internal/bignum"
	"github.com/agbru/fibdrv/internal/config"
	"github.com/agbru/fibdrv/internal/device"
	apperrors "github.com/agbru/fibdrv/internal/errors"
	"github.com/agbru/fibdrv/internal/fibonacci"
	"github.com/agbru/fibdrv/internal/fixedwidth"
	"github.com/agbru/fibdrv/internal/logging"
)

var (
	// ErrMaxValueExceeded is returned when n exceeds the configured maximum limit.
	ErrMaxValueExceeded = errors.New("maximum n value exceeded")
)

// Result is a computed Fibonacci number with its metadata.
type Result struct {
	Algorithm string
	N         uint64
	Decimal   string
	// Checksum is the xxhash64 of Decimal, used by clients to compare
	// results without transferring them.
	Checksum uint64
	// Elapsed is the computation time, excluding decimal conversion. It is
	// the time of the original computation for cached results.
	Elapsed time.Duration
	Cached  bool
}

// Timing is the elapsed time of one fixed-width method.
type Timing struct {
	Method  string
	N       uint64
	Elapsed time.Duration
}

// Service defines the operations behind the HTTP API.
type Service interface {
	// Calculate returns F(n) computed with the named read algorithm.
	//
	// Parameters:
	//   - ctx: The context for cancellation and for waiting on the device.
	//   - algoName: A registry name such as "fast".
	//   - n: The Fibonacci index.
	//
	// Returns:
	//   - *Result: The decimal result and its metadata.
	//   - error: an apperrors.ValidationError wrapping ErrMaxValueExceeded,
	//     *fibonacci.UnknownCalculatorError, or a device or calculation error.
	Calculate(ctx context.Context, algoName string, n uint64) (*Result, error)

	// Time runs the named fixed-width method at index n and returns its
	// elapsed time.
	Time(ctx context.Context, method string, n uint64) (*Timing, error)

	// Algorithms returns the algorithm names accepted by Calculate, in
	// device method order.
	Algorithms() []string
}

type cacheKey struct {
	algo string
	n    uint64
}

// CalculatorService serves calculations through a device, validating the
// index and caching results. Concurrent requests queue on the device.
type CalculatorService struct {
	dev     *device.Device
	maxN    uint64
	cache   *lru.Cache[cacheKey, Result]
	methods map[string]int
}

// Ensure CalculatorService implements Service interface.
var _ Service = (*CalculatorService)(nil)

// NewCalculatorService creates a CalculatorService over a private device.
//
// Parameters:
//   - factory: The factory the device resolves read methods with.
//   - cfg: The application configuration (word limit, printer, cache size).
//   - maxN: The maximum allowed value for n (0 for no limit).
//   - logger: Receives configuration warnings. nil discards them.
//
// Returns:
//   - *CalculatorService: The service. An unknown printer name is logged
//     and replaced by the device default.
func NewCalculatorService(factory fibonacci.CalculatorFactory, cfg config.AppConfig, maxN uint64, logger logging.Logger) *CalculatorService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	maxLength, err := safecast.Conv[int64](maxN)
	if err != nil || maxN == 0 {
		maxLength = math.MaxInt64
	}
	opts := []device.Option{
		device.WithFactory(factory),
		device.WithMaxLength(maxLength),
		device.WithCalcOptions(cfg.ToCalculationOptions()),
	}
	if cfg.Printer != "" {
		p, err := bignum.PrinterByName(cfg.Printer)
		if err != nil {
			logger.Warn("ignoring printer setting", logging.Err(err))
		} else {
			opts = append(opts, device.WithPrinter(p))
		}
	}

	s := &CalculatorService{
		dev:     device.New(opts...),
		maxN:    maxN,
		methods: make(map[string]int),
	}
	for i, name := range device.ReadMethods() {
		s.methods[name] = i
	}
	if cfg.CacheSize > 0 {
		// lru.New only fails for a non-positive size.
		s.cache, _ = lru.New[cacheKey, Result](cfg.CacheSize)
	}
	return s
}

// Algorithms implements Service.
func (s *CalculatorService) Algorithms() []string {
	return device.ReadMethods()
}

func (s *CalculatorService) checkN(n uint64) error {
	if s.maxN > 0 && n > s.maxN {
		return apperrors.NewValidationError("n", n, fmt.Errorf("%w (%d)", ErrMaxValueExceeded, s.maxN))
	}
	return nil
}

// open waits for the device and positions the handle at n.
func (s *CalculatorService) open(ctx context.Context, n uint64) (*device.Handle, error) {
	pos, err := safecast.Conv[int64](n)
	if err != nil {
		return nil, apperrors.NewValidationError("n", n, ErrMaxValueExceeded)
	}
	h, err := s.dev.OpenContext(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := h.Seek(pos, io.SeekStart); err != nil {
		_ = h.Close()
		return nil, err
	}
	return h, nil
}

// Calculate implements Service.
func (s *CalculatorService) Calculate(ctx context.Context, algoName string, n uint64) (*Result, error) {
	if err := s.checkN(n); err != nil {
		return nil, err
	}
	method, ok := s.methods[algoName]
	if !ok {
		return nil, &fibonacci.UnknownCalculatorError{Name: algoName}
	}

	key := cacheKey{algo: algoName, n: n}
	if s.cache != nil {
		if r, ok := s.cache.Get(key); ok {
			r.Cached = true
			return &r, nil
		}
	}

	h, err := s.open(ctx, n)
	if err != nil {
		return nil, err
	}
	defer func() { _ = h.Close() }()

	decimal, elapsed, err := h.ReadTimed(ctx, method)
	if err != nil {
		return nil, err
	}
	r := Result{
		Algorithm: algoName,
		N:         n,
		Decimal:   decimal,
		Checksum:  xxhash.Sum64String(decimal),
		Elapsed:   elapsed,
	}
	if s.cache != nil {
		s.cache.Add(key, r)
	}
	return &r, nil
}

// Time implements Service.
func (s *CalculatorService) Time(ctx context.Context, method string, n uint64) (*Timing, error) {
	if err := s.checkN(n); err != nil {
		return nil, err
	}
	m, err := fixedwidth.ParseMethod(method)
	if err != nil {
		return nil, apperrors.NewValidationError("method", method, fmt.Errorf("%w: %w", device.ErrUnknownMethod, err))
	}

	h, err := s.open(ctx, n)
	if err != nil {
		return nil, err
	}
	defer func() { _ = h.Close() }()

	elapsed, err := h.Write(int(m))
	if err != nil {
		return nil, apperrors.WrapError(err, "timing %s", m)
	}
	return &Timing{Method: m.String(), N: n, Elapsed: elapsed}, nil
}

// CacheLen returns the number of cached results.
func (s *CalculatorService) CacheLen() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Len()
}
