package auth

import (
	"time"

	"github.com/google/uuid"
)

// User is the stable identity for a human sign-in subject. Records are
// created lazily on first successful email resolution and never deleted here.
type User struct {
	ID                uuid.UUID
	Email             string // stored lower-cased; unique
	ExternalSubjectID *string
	CreatedAt         time.Time
	LastLoggedInAt    *time.Time
}

// MagicLink is a single-use, time-bounded bearer credential for a specific
// email and post-login destination.
type MagicLink struct {
	ID         uuid.UUID
	Code       string
	UserID     *uuid.UUID
	Email      *string
	RedirectTo string // sanitised at creation time
	CreatedAt  time.Time
	ExpiresAt  time.Time
	ClaimedAt  *time.Time
}

// Usable reports whether the link can still be claimed: never claimed and
// strictly before expiry.
func (l *MagicLink) Usable() bool {
	return l != nil && l.ClaimedAt == nil && time.Now().Before(l.ExpiresAt)
}

// CreateLinkParams describes a magic link to persist. At least one of UserID
// and Email must be set; both are set when the link targets a known user.
type CreateLinkParams struct {
	UserID     *uuid.UUID
	Email      *string
	RedirectTo string
	TTL        time.Duration
}

// IdentityClaims is the verified identity extracted from an OIDC ID token.
type IdentityClaims struct {
	Subject string
	Email   string
}
