// Package server provides the HTTP server: a Gin engine wrapped in
// transport middleware and served over HTTP/1.1 and h2c.
//
// # Middleware
//
// Transport level (server/middleware, plain http.Handler wrappers):
//
//   - Recovery: panic recovery with a JSON INTERNAL_ERROR body
//   - RequestID: X-Request-Id generation and propagation into the log context
//   - CORS: cross-origin headers and preflight handling
//   - BodySizeLimit: request body cap, 413 past the limit
//
// Gin level: RequestLogger traces, measures and logs every request by
// route template.
//
// # Endpoints
//
// server/endpoint provides /health (component health, 503 when unhealthy),
// /ready and /info (build information).
package server
