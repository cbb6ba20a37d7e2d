package server

import (
	"log"
	"time"

	"github.com/agbru/fibdrv/internal/logging"
	"github.com/agbru/fibdrv/internal/service"
)

// Option defines a functional option for configuring a Server.
type Option func(*Server)

// WithLogger sets the server logger. A nil logger keeps the default.
//
// Parameters:
//   - logger: The logger to use.
//
// Returns:
//   - Option: A functional option that configures the server's logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStdLogger logs through a standard library log.Logger.
func WithStdLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logging.NewStdLoggerAdapter(logger)
		}
	}
}

// WithService replaces the service built from the factory, typically with
// a mock in tests.
//
// Parameters:
//   - svc: The service implementation to use.
//
// Returns:
//   - Option: A functional option that configures the server's service.
func WithService(svc service.Service) Option {
	return func(s *Server) {
		if svc != nil {
			s.service = svc
		}
	}
}

// WithTimeouts sets the timeout configuration of the server.
func WithTimeouts(timeouts Timeouts) Option {
	return func(s *Server) {
		s.timeouts = timeouts
	}
}

// WithRateLimiter sets a custom rate limiter for the server.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(s *Server) {
		if rl != nil {
			s.rateLimiter = rl
		}
	}
}

// WithSecurityConfig sets the security configuration of the server.
func WithSecurityConfig(config SecurityConfig) Option {
	return func(s *Server) {
		s.securityConfig = config
	}
}

// WithMaxN sets the largest index the API accepts. Zero disables the
// limit.
func WithMaxN(maxN uint64) Option {
	return func(s *Server) {
		s.securityConfig.MaxNValue = maxN
	}
}

// Timeouts holds timeout configuration for the HTTP server.
type Timeouts struct {
	// RequestTimeout bounds one calculation, including the wait for the
	// device.
	RequestTimeout time.Duration
	// ShutdownTimeout is the maximum duration allowed for graceful shutdown.
	ShutdownTimeout time.Duration
	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration
	// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration
}

// DefaultServerTimeouts returns the timeouts used when none are given.
func DefaultServerTimeouts() Timeouts {
	return Timeouts{
		RequestTimeout:  time.Minute,
		ShutdownTimeout: 30 * time.Second,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    2 * time.Minute,
		IdleTimeout:     2 * time.Minute,
	}
}
