package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"
)

// SetupSignals returns a context canceled when the process receives
// SIGINT (Ctrl+C) or SIGTERM, and the function that stops listening.
func SetupSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

// SetupLifecycle bounds a run by timeout and by termination signals,
// whichever comes first. A non-positive timeout leaves the run bounded by
// signals only.
//
// Parameters:
//   - ctx: The parent context.
//   - timeout: The maximum duration of the run.
//
// Returns:
//   - context.Context: The derived context.
//   - *CancelFuncs: The cleanup functions, released with Cleanup.
func SetupLifecycle(ctx context.Context, timeout time.Duration) (context.Context, *CancelFuncs) {
	c := &CancelFuncs{}
	if timeout > 0 {
		ctx, c.CancelTimeout = context.WithTimeout(ctx, timeout)
	}
	ctx, c.StopSignals = SetupSignals(ctx)
	return ctx, c
}

// CancelFuncs holds the cancel functions of a lifecycle.
type CancelFuncs struct {
	// CancelTimeout cancels the timeout context. It is nil without a timeout.
	CancelTimeout context.CancelFunc
	// StopSignals stops listening for OS signals.
	StopSignals context.CancelFunc
}

// Cleanup stops signal delivery, then cancels the timeout.
func (c *CancelFuncs) Cleanup() {
	if c.StopSignals != nil {
		c.StopSignals()
	}
	if c.CancelTimeout != nil {
		c.CancelTimeout()
	}
}
