package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/limiter"
)

type contextKey string

// APIKeyContextKey holds the caller's API key in the request context
const APIKeyContextKey contextKey = "api_key"

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
}

// RateLimitMiddleware limits requests per client IP
func RateLimitMiddleware(config RateLimitConfig) func(http.Handler) http.Handler {
	if !config.Enabled || config.RequestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	lmt := tollbooth.NewLimiter(float64(config.RequestsPerMinute)/60.0, &limiter.ExpirableOptions{
		DefaultExpirationTTL: time.Hour,
	})
	lmt.SetBurst(config.RequestsPerMinute)
	lmt.SetIPLookups([]string{"X-Forwarded-For", "X-Real-IP", "RemoteAddr"})
	lmt.SetMessageContentType("application/json")
	lmt.SetMessage(`{"error":"Rate limit exceeded, try again later"}`)
	lmt.SetOnLimitReached(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("🚦 Rate limit reached for %s %s", r.Method, r.URL.Path)
	})

	return func(next http.Handler) http.Handler {
		return tollbooth.LimitHandler(lmt, next)
	}
}

// APIKeyMiddleware validates API keys against the configured list
func APIKeyMiddleware(required bool, validKeys []string) func(http.Handler) http.Handler {
	keys := make(map[string]bool, len(validKeys))
	for _, k := range validKeys {
		keys[k] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip API key validation for health checks
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			apiKey := extractAPIKey(r)

			if required && apiKey == "" {
				writeError(w, http.StatusUnauthorized, "API key required")
				return
			}

			if apiKey != "" && required && !keys[apiKey] {
				writeError(w, http.StatusUnauthorized, "Invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), APIKeyContextKey, apiKey)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractAPIKey extracts the API key from the request
func extractAPIKey(r *http.Request) string {
	// Check Authorization header first
	if auth := r.Header.Get("Authorization"); auth != "" {
		if strings.HasPrefix(auth, "Bearer ") {
			return strings.TrimPrefix(auth, "Bearer ")
		}
		if strings.HasPrefix(auth, "ApiKey ") {
			return strings.TrimPrefix(auth, "ApiKey ")
		}
	}

	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
		return apiKey
	}

	return ""
}

// LoggingMiddleware logs API requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		// Only log non-health check requests
		if r.URL.Path == "/health" {
			return
		}
		log.Printf("📡 %s %s -> %d (API Key: %s, Duration: %v)",
			r.Method, r.URL.Path, wrapped.statusCode, maskAPIKey(extractAPIKey(r)), time.Since(start))
	})
}

// maskAPIKey truncates a key for logging
func maskAPIKey(apiKey string) string {
	if apiKey == "" {
		return "none"
	}
	if len(apiKey) <= 8 {
		return "***"
	}
	return apiKey[:8] + "..."
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
