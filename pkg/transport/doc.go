// Package transport provides the HTTP plumbing for the blueprint mock
// backend: a middleware chain, the plain-text stream writer used for
// sentinel-terminated responses, the JSON error envelope and a server
// with graceful shutdown.
//
// # Middleware
//
// Middleware wraps an http.Handler. Built-in middleware provides panic
// recovery, request ID assignment (X-Request-ID) and structured logging via
// log/slog. Metrics middleware lives in pkg/observability and composes with
// Chain like any other.
//
// # Streaming
//
// TextStream writes raw UTF-8 text chunks and flushes each one through
// http.NewResponseController. There is no event framing: the producer ends
// the logical stream by writing the sentinel marker.
package transport
