package session

import "errors"

var (
	// ErrSessionNotFound indicates no session was found for the token.
	ErrSessionNotFound = errors.New("session.not_found")

	// ErrSessionExpired indicates the session has expired.
	ErrSessionExpired = errors.New("session.expired")

	// ErrInvalidSession indicates a malformed or nil session record.
	ErrInvalidSession = errors.New("session.invalid")

	// ErrTokenGeneration indicates token generation failed.
	ErrTokenGeneration = errors.New("session.token_generation_failed")
)
