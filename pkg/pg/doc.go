// Package pg manages the PostgreSQL connection pool for the service:
// pgxpool construction with startup retries, goose schema migrations from an
// embedded filesystem, health checks, and helpers for classifying pgx errors
// (not-found, unique violation, foreign-key violation).
package pg
