package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/agbru/fibdrv/internal/device"
	apperrors "github.com/agbru/fibdrv/internal/errors"
	"github.com/agbru/fibdrv/internal/logging"
)

// Space selects which device operation is sampled.
type Space string

const (
	// SpaceRead samples bignum reads. The device-reported time covers the
	// computation only; the wall time also covers the decimal conversion.
	SpaceRead Space = "read"
	// SpaceWrite samples fixed-width writes. The wall time adds the call
	// overhead around the reported time.
	SpaceWrite Space = "write"
)

// DefaultSamples is the number of samples per index.
const DefaultSamples = 1000

// ErrInvalidRange is returned when From > To or the range leaves the
// device.
var ErrInvalidRange = errors.New("bench: invalid index range")

// Row holds the statistics for one index. Device is the time reported by
// the device, Wall the time measured around the call, and Overhead the
// difference of their trimmed means.
type Row struct {
	Index    int64   `json:"index" msgpack:"index"`
	Device   Stats   `json:"device" msgpack:"device"`
	Wall     Stats   `json:"wall" msgpack:"wall"`
	Overhead float64 `json:"overhead" msgpack:"overhead"`
}

// Runner samples one method of a device over the indices From..To.
type Runner struct {
	Device  *device.Device
	From    int64
	To      int64
	Samples int
	// Method is a read method (0-2) for SpaceRead or a fixed-width method
	// (0-10) for SpaceWrite.
	Method int
	Space  Space
	Logger logging.Logger
	// OnRow, if set, is called after each index completes.
	OnRow func(Row)
}

func (r *Runner) validate() error {
	if r.Device == nil {
		return errors.New("bench: nil device")
	}
	if r.From < 0 || r.From > r.To || r.To > r.Device.MaxLength() {
		return fmt.Errorf("%w: [%d, %d] with max length %d", ErrInvalidRange, r.From, r.To, r.Device.MaxLength())
	}
	switch r.Space {
	case SpaceRead, SpaceWrite:
	default:
		return fmt.Errorf("bench: unknown space %q", r.Space)
	}
	return nil
}

// Run opens the device, samples every index in order and returns one row
// per index. The device stays open for the whole run.
//
// Parameters:
//   - ctx: Cancels the run between samples and bounds the wait for the
//     device.
//
// Returns:
//   - []Row: The statistics, ordered by index.
//   - error: A validation error, a device error, or ctx.Err().
func (r *Runner) Run(ctx context.Context) ([]Row, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	samples := r.Samples
	if samples <= 0 {
		samples = DefaultSamples
	}
	logger := r.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	h, err := r.Device.OpenContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = h.Close() }()

	rows := make([]Row, 0, r.To-r.From+1)
	devTimes := make([]float64, samples)
	wallTimes := make([]float64, samples)
	for i := r.From; i <= r.To; i++ {
		if _, err := h.Seek(i, io.SeekStart); err != nil {
			return nil, err
		}
		for n := 0; n < samples; n++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			start := time.Now()
			reported, err := r.sample(ctx, h)
			wall := time.Since(start)
			if err != nil {
				return nil, apperrors.WrapError(err, "sampling index %d", i)
			}
			devTimes[n] = float64(reported.Nanoseconds())
			wallTimes[n] = float64(wall.Nanoseconds())
		}
		row := Row{
			Index:  i,
			Device: Summarize(devTimes),
			Wall:   Summarize(wallTimes),
		}
		row.Overhead = row.Wall.TrimmedMean - row.Device.TrimmedMean
		rows = append(rows, row)
		logger.Debug("bench index done",
			logging.Int64("index", i),
			logging.Float64("trimmed_mean", row.Device.TrimmedMean),
			logging.Int("kept", row.Device.Kept),
		)
		if r.OnRow != nil {
			r.OnRow(row)
		}
	}
	return rows, nil
}

func (r *Runner) sample(ctx context.Context, h *device.Handle) (time.Duration, error) {
	if r.Space == SpaceWrite {
		return h.Write(r.Method)
	}
	_, d, err := h.ReadTimed(ctx, r.Method)
	return d, err
}
