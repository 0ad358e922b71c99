// Package logger provides a slog factory with environment-driven
// configuration and attribute helpers for consistent structured keys across
// the service.
package logger
