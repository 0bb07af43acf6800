// Package middleware provides HTTP middleware for the shellgate API.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing restricted to configured origins
//   - RateLimit: Per-IP token bucket rate limiting with idle client cleanup
//   - RequestLogger: zap request logging
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
