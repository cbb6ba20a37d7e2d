package server

import (
	"net/http"
	"strings"
)

// SecurityConfig holds the response header policy and the request limits
// of the API.
type SecurityConfig struct {
	// EnableCORS enables Cross-Origin Resource Sharing headers.
	EnableCORS bool
	// AllowedOrigins lists the accepted CORS origins. "*" accepts all.
	AllowedOrigins []string
	// AllowedMethods lists the HTTP methods announced to CORS clients.
	AllowedMethods []string
	// MaxNValue is the largest index accepted by /fibonacci and /timing.
	// Zero disables the limit.
	MaxNValue uint64
}

// DefaultSecurityConfig returns the default security configuration.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		MaxNValue:      100_000,
	}
}

// allowedOrigin returns the value of Access-Control-Allow-Origin for
// origin, or "" when the origin is not accepted.
func (c SecurityConfig) allowedOrigin(origin string) string {
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return allowed
		}
	}
	return ""
}

// SecurityMiddleware adds the security headers to every response and
// answers CORS preflight requests.
//
// Parameters:
//   - config: The security configuration.
//   - next: The next handler in the chain.
//
// Returns:
//   - http.HandlerFunc: A new handler with security headers.
func SecurityMiddleware(config SecurityConfig, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Cache-Control", "no-store")

		if config.EnableCORS {
			if origin := config.allowedOrigin(r.Header.Get("Origin")); origin != "" {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
				h.Set("Access-Control-Allow-Headers", "Content-Type, Accept")
				h.Set("Access-Control-Max-Age", "86400")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}

		next(w, r)
	}
}
