package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/agbru/fibdrv/internal/config"
	apperrors "github.com/agbru/fibdrv/internal/errors"
	"github.com/agbru/fibdrv/internal/fibonacci"
	"github.com/agbru/fibdrv/internal/logging"
	"github.com/agbru/fibdrv/internal/service"
)

// Server is the HTTP front end of the device. It wraps the standard
// http.Server with the middleware chain and graceful shutdown.
type Server struct {
	factory        fibonacci.CalculatorFactory
	service        service.Service
	cfg            config.AppConfig
	httpServer     *http.Server
	logger         logging.Logger
	shutdownSignal chan os.Signal
	rateLimiter    *RateLimiter
	securityConfig SecurityConfig
	metrics        *Metrics
	timeouts       Timeouts
}

// NewServer creates a Server for the given calculator factory and
// configuration.
//
// Parameters:
//   - factory: The factory the device resolves read methods with.
//   - cfg: The application configuration (port, max n, cache size, timeout).
//   - opts: Optional functional options (WithLogger, WithService, ...).
//
// Returns:
//   - *Server: A pointer to the initialized Server.
func NewServer(factory fibonacci.CalculatorFactory, cfg config.AppConfig, opts ...Option) *Server {
	s := &Server{
		factory:        factory,
		cfg:            cfg,
		logger:         logging.NewLogger(os.Stdout, "server"),
		shutdownSignal: make(chan os.Signal, 1),
		securityConfig: DefaultSecurityConfig(),
		metrics:        NewMetrics(),
		timeouts:       DefaultServerTimeouts(),
	}
	if cfg.MaxN > 0 {
		s.securityConfig.MaxNValue = cfg.MaxN
	}
	if cfg.Timeout > 0 {
		s.timeouts.RequestTimeout = cfg.Timeout
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.service == nil {
		s.service = service.NewCalculatorService(s.factory, s.cfg, s.securityConfig.MaxNValue, s.logger)
	}
	if s.rateLimiter == nil {
		s.rateLimiter = NewRateLimiter(DefaultRateLimiterConfig())
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/fibonacci", s.wrapWithMiddleware("fibonacci", s.handleFibonacci))
	mux.HandleFunc("/timing", s.wrapWithMiddleware("timing", s.handleTiming))
	mux.HandleFunc("/algorithms", s.wrapWithMiddleware("algorithms", s.handleAlgorithms))
	mux.HandleFunc("/health", s.wrapWithMiddleware("health", s.handleHealth))
	mux.HandleFunc("/metrics", s.wrapWithMiddleware("metrics", s.handleMetrics))

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  s.timeouts.ReadTimeout,
		WriteTimeout: s.timeouts.WriteTimeout,
		IdleTimeout:  s.timeouts.IdleTimeout,
	}

	return s
}

// Start listens on the configured port and blocks until SIGINT or SIGTERM,
// then shuts the server down gracefully.
//
// Returns:
//   - error: A ServerError if the server fails to start or to shut down.
func (s *Server) Start() error {
	signal.Notify(s.shutdownSignal, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(s.shutdownSignal)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			logging.String("addr", s.httpServer.Addr),
			logging.Uint64("max_n", s.securityConfig.MaxNValue),
			logging.Duration("request_timeout", s.timeouts.RequestTimeout),
		)
		s.logger.Info("endpoints: GET /fibonacci?n=<index>&algo=<method>, /timing?n=<index>&method=<name>, /algorithms, /health, /metrics")

		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-s.shutdownSignal:
		s.logger.Info("shutdown signal received, draining connections")
	case err := <-errCh:
		return apperrors.NewServerError("server failed to start", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeouts.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return apperrors.NewServerError("failed to gracefully shutdown server", err)
	}

	s.logger.Info("server stopped")
	return nil
}
