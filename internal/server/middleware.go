package server

import (
	"net/http"
	"time"

	"github.com/agbru/fibdrv/internal/logging"
)

// loggingMiddleware logs the method, path, remote address and duration of
// each request.
func (s *Server) loggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next(w, r)
		s.logger.Debug("request served",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.String("remote", r.RemoteAddr),
			logging.Duration("duration", time.Since(start)),
		)
	}
}

// wrapWithMiddleware applies the middleware chain to the handler of route:
// Security -> RateLimit -> Logging -> Metrics -> Handler.
func (s *Server) wrapWithMiddleware(route string, handler http.HandlerFunc) http.HandlerFunc {
	wrapped := s.metricsMiddleware(route, handler)
	wrapped = s.loggingMiddleware(wrapped)
	wrapped = RateLimitMiddleware(s.rateLimiter, wrapped)
	return SecurityMiddleware(s.securityConfig, wrapped)
}
