// Package middleware provides HTTP middleware components for the Lead Scout server.
//
// Available middleware:
//   - RateLimiter: Per-client sliding-window rate limiting with burst detection
//   - CORS: Permissive cross-origin headers for browser clients
//   - RequestID: Request correlation IDs
//   - Logging: Structured request logs
//
// Usage:
//
//	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig(), log)
//	handler = rl.Middleware(handler)
package middleware
