package auth

import "errors"

var (
	// User directory errors.
	ErrUserNotFound = errors.New("auth.errors.user_not_found")

	// Magic link errors. Claimed and expired are internal distinctions for
	// logs and metrics; handlers collapse them into the same redirect so a
	// caller cannot probe which sub-case occurred.
	ErrLinkNotFound  = errors.New("auth.errors.link_not_found")
	ErrLinkClaimed   = errors.New("auth.errors.link_already_claimed")
	ErrLinkExpired   = errors.New("auth.errors.link_expired")
	ErrCodeCollision = errors.New("auth.errors.code_collision")

	// Notification errors.
	ErrDeliveryUnavailable = errors.New("auth.errors.delivery_unavailable")

	// OIDC errors.
	ErrInvalidState         = errors.New("auth.errors.invalid_state")
	ErrInvalidNonce         = errors.New("auth.errors.invalid_nonce")
	ErrTokenVerification    = errors.New("auth.errors.token_verification_failed")
	ErrExchangeFailed       = errors.New("auth.errors.code_exchange_failed")
	ErrMissingIdentityClaim = errors.New("auth.errors.missing_identity_claim")

	// Session errors.
	ErrBootstrapRefused = errors.New("auth.errors.session_bootstrap_refused")
)

// IsLinkUnusable reports whether err means the magic link cannot be claimed,
// for any reason the caller is not allowed to distinguish.
func IsLinkUnusable(err error) bool {
	return errors.Is(err, ErrLinkNotFound) ||
		errors.Is(err, ErrLinkClaimed) ||
		errors.Is(err, ErrLinkExpired)
}
