package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// RateLimiter limits the number of requests per client within a fixed
// window. Clients are kept in a bounded LRU so that a flood of distinct
// addresses cannot grow the table without limit.
type RateLimiter struct {
	mu      sync.Mutex
	clients *lru.Cache[string, *clientWindow]
	rate    int
	window  time.Duration
	now     func() time.Time
}

// clientWindow is the request budget of one client in the current window.
type clientWindow struct {
	tokens int
	start  time.Time
}

// RateLimiterConfig holds configuration for the rate limiter.
type RateLimiterConfig struct {
	// RequestsPerMinute is the number of requests allowed per client and
	// minute. Default: 60
	RequestsPerMinute int
	// MaxClients bounds the number of tracked clients; the least recently
	// seen client is forgotten first. Default: 10000
	MaxClients int
}

// DefaultRateLimiterConfig returns the default rate limiter configuration.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerMinute: 60,
		MaxClients:        10_000,
	}
}

// NewRateLimiter creates a rate limiter. Non-positive settings fall back
// to the defaults.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	def := DefaultRateLimiterConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.MaxClients <= 0 {
		config.MaxClients = def.MaxClients
	}
	// lru.New only fails for a non-positive size.
	clients, _ := lru.New[string, *clientWindow](config.MaxClients)
	return &RateLimiter{
		clients: clients,
		rate:    config.RequestsPerMinute,
		window:  time.Minute,
		now:     time.Now,
	}
}

// Allow reports whether a request from clientIP fits in its budget, and
// consumes one token if it does.
func (rl *RateLimiter) Allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, ok := rl.clients.Get(clientIP)
	if !ok || now.Sub(c.start) >= rl.window {
		rl.clients.Add(clientIP, &clientWindow{tokens: rl.rate - 1, start: now})
		return true
	}
	if c.tokens > 0 {
		c.tokens--
		return true
	}
	return false
}

// Clients returns the number of tracked clients.
func (rl *RateLimiter) Clients() int {
	return rl.clients.Len()
}

// RateLimitMiddleware rejects requests over the client's budget with
// 429 Too Many Requests.
//
// Parameters:
//   - rl: The rate limiter to use.
//   - next: The next handler in the chain.
//
// Returns:
//   - http.HandlerFunc: A new handler with rate limiting capability.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"Too Many Requests","message":"Rate limit exceeded. Please try again later."}`))
			return
		}
		next(w, r)
	}
}

// clientIP identifies the client of r: the first X-Forwarded-For entry,
// then X-Real-IP, then the remote address without its port.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.Trim(r.RemoteAddr, "[]")
	}
	return host
}
