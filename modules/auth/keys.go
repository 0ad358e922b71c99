package auth

import "github.com/google/uuid"

// SessionKeyNext is where the rest of the application parks the destination
// a signed-out user was trying to reach. Both sign-in flows pop it.
const SessionKeyNext = "next"

// Session keys private to the kernel's own flows.
const (
	sessionKeyHandle          = "magic_link.handle"
	sessionKeyOIDCState       = "oidc.state"
	sessionKeyOIDCNonce       = "oidc.nonce"
	sessionKeyOIDCVerifier    = "oidc.verifier"
	sessionKeyOIDCDestination = "oidc.destination"
)

func parseLinkID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}
