package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ukydev/metro-telemetry/internal/auth"
	"github.com/ukydev/metro-telemetry/internal/metrics"
	"github.com/ukydev/metro-telemetry/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	OperatorContextKey contextKey = "operator"
)

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authService *auth.Service
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// Authenticate validates JWT tokens and adds operator claims to the context.
// Streaming clients that cannot set headers may pass the token as ?access_token=.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication for certain endpoints
		if shouldSkipAuth(r.URL.Path) || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get("Authorization")
		if token == "" {
			token = r.URL.Query().Get("access_token")
		}
		if token == "" {
			metrics.AuthFailures.Add(1)
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			metrics.AuthFailures.Add(1)
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), OperatorContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole middleware checks if the operator has the required role.
// Operators satisfy any viewer requirement.
func (m *AuthMiddleware) RequireRole(requiredRole models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetOperatorFromContext(r.Context())
			if !ok {
				http.Error(w, "Operator context not found", http.StatusUnauthorized)
				return
			}

			if claims.Role != requiredRole && claims.Role != models.RoleOperator {
				http.Error(w, "Insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetOperatorFromContext extracts operator claims from request context
func GetOperatorFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(OperatorContextKey).(*models.Claims)
	return claims, ok
}

// shouldSkipAuth determines if authentication should be skipped for a given path
func shouldSkipAuth(path string) bool {
	skipPaths := []string{
		"/api/auth/token",
		"/health",
		"/metrics",
	}

	for _, skipPath := range skipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return false
}

// RateLimitMiddleware provides basic rate limiting
type RateLimitMiddleware struct {
	requests map[string][]int64 // IP -> timestamps
	mu       sync.Mutex
	now      func() time.Time
}

// NewRateLimitMiddleware creates a new rate limiting middleware
func NewRateLimitMiddleware() *RateLimitMiddleware {
	return &RateLimitMiddleware{
		requests: make(map[string][]int64),
		now:      time.Now,
	}
}

// RateLimit applies rate limiting based on IP address
func (m *RateLimitMiddleware) RateLimit(maxRequests int, windowSeconds int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)

			// Clean old requests outside the window
			now := m.now().Unix()
			windowStart := now - int64(windowSeconds)

			m.mu.Lock()

			if timestamps, exists := m.requests[clientIP]; exists {
				var validTimestamps []int64
				for _, ts := range timestamps {
					if ts > windowStart {
						validTimestamps = append(validTimestamps, ts)
					}
				}
				if len(validTimestamps) == 0 {
					delete(m.requests, clientIP)
				} else {
					m.requests[clientIP] = validTimestamps
				}
			}

			if len(m.requests[clientIP]) >= maxRequests {
				m.mu.Unlock()
				metrics.RateLimited.Add(1)
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			m.requests[clientIP] = append(m.requests[clientIP], now)
			m.mu.Unlock()

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	// Check for forwarded headers first
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	// Fall back to remote address
	ip := r.RemoteAddr
	if colonIndex := strings.LastIndex(ip, ":"); colonIndex != -1 {
		ip = ip[:colonIndex]
	}
	return ip
}
