// Package auth implements passwordless sign-in for the grant service: magic
// links requested by email and claimed through a confirmation step, and an
// OIDC authorization-code flow against a single configured issuer. Both paths
// converge on the same session bootstrap and the same redirect sanitiser, so
// a successful sign-in can never be turned into an open redirect.
package auth
