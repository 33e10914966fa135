package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/leadscout/lead-scout/internal/pkg/errors"
	"github.com/leadscout/lead-scout/internal/pkg/logger"
)

// WindowStore tracks request timestamps per client for sliding-window
// rate limiting. Implementations must be safe for concurrent use.
type WindowStore interface {
	// Allow records a request at now and decides whether it may proceed.
	// When denied, retryAfter is the suggested wait in seconds.
	Allow(ctx context.Context, clientID string, now time.Time) (allowed bool, retryAfter int, err error)

	// Close releases any resources held by the store.
	Close() error
}

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// RequestsPerMinute is the sustained per-client limit.
	RequestsPerMinute int
	// BurstLimit is the maximum requests allowed within BurstWindow.
	BurstLimit int
	// BurstWindow is the short window used for burst detection.
	BurstWindow time.Duration
	// SweepInterval is how often idle clients are evicted from memory.
	SweepInterval time.Duration
}

// DefaultRateLimiterConfig returns sensible defaults.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerMinute: 30,
		BurstLimit:        10,
		BurstWindow:       5 * time.Second,
		SweepInterval:     time.Minute,
	}
}

// RateLimiter applies per-client sliding-window rate limiting. Two windows
// are checked on every request: a short burst window and the sustained
// one-minute window. The denial response carries a Retry-After hint sized
// to whichever window tripped.
type RateLimiter struct {
	store WindowStore
	log   *logger.Logger
}

// NewRateLimiter creates a rate limiter backed by an in-memory window store.
func NewRateLimiter(cfg RateLimiterConfig, log *logger.Logger) *RateLimiter {
	return &RateLimiter{
		store: NewMemoryWindows(cfg),
		log:   log.WithComponent("ratelimit"),
	}
}

// NewRateLimiterWithStore creates a rate limiter over a caller-supplied
// window store, such as the Redis store for multi-instance deployments.
func NewRateLimiterWithStore(store WindowStore, log *logger.Logger) *RateLimiter {
	return &RateLimiter{
		store: store,
		log:   log.WithComponent("ratelimit"),
	}
}

// Allow checks whether a request from the given client should proceed.
func (rl *RateLimiter) Allow(ctx context.Context, clientID string) (bool, int) {
	allowed, retryAfter, err := rl.store.Allow(ctx, clientID, time.Now())
	if err != nil {
		// A broken store must not take the API down with it.
		rl.log.WithError(err).Warn("rate limit store unavailable, allowing request")
		return true, 0
	}
	return allowed, retryAfter
}

// Close releases the underlying window store.
func (rl *RateLimiter) Close() error {
	return rl.store.Close()
}

// Middleware returns an HTTP middleware that applies rate limiting.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := getClientIP(r)

		allowed, retryAfter := rl.Allow(r.Context(), clientID)
		if !allowed {
			rl.log.Warn("rate limit exceeded",
				"client", clientID,
				"retry_after", retryAfter,
			)
			apperrors.WriteError(w,
				apperrors.RateLimitedError("Too many requests. Please slow down.", retryAfter))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For first (for proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take the first IP in the chain
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	// Check X-Real-IP
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	if ip == "" {
		return "unknown"
	}
	return ip
}
