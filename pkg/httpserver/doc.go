// Package httpserver wraps net/http with graceful shutdown, configurable
// timeouts, and a health-check handler.
//
// Run blocks until the context is cancelled or an interrupt/TERM signal
// arrives, then drains in-flight requests within the shutdown deadline.
// Listen errors are wrapped with ErrStart, shutdown errors with ErrShutdown,
// so callers can distinguish them with errors.Is.
package httpserver
