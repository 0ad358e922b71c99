package auth

import (
	"context"

	"github.com/google/uuid"
)

// UserStore resolves email addresses and external IdP subjects to user
// identities, creating records lazily.
type UserStore interface {
	// GetOrCreate looks the user up by normalised email, creating one on
	// miss. Concurrent creation races are resolved by the unique email
	// constraint: the loser re-reads and returns the winning record.
	GetOrCreate(ctx context.Context, email string) (*User, error)

	// ResolveExternalSubject looks the user up by external subject ID. On
	// miss it falls back to email lookup and attaches the subject to that
	// user; on both misses it creates a new user.
	ResolveExternalSubject(ctx context.Context, subject, email string) (*User, error)

	// RecordLogin stamps the user's last successful sign-in time.
	RecordLogin(ctx context.Context, id uuid.UUID) error
}

// LinkStore owns magic link records: uniqueness, expiry, and the atomic
// single-use claim transition.
type LinkStore interface {
	// Create persists a new link with a fresh high-entropy code. Code
	// collisions are retried internally a bounded number of times before
	// surfacing ErrCodeCollision.
	Create(ctx context.Context, params CreateLinkParams) (*MagicLink, error)

	// GetByCode returns the link with the given code, or ErrLinkNotFound.
	GetByCode(ctx context.Context, code string) (*MagicLink, error)

	// GetByID returns the link with the given ID, or ErrLinkNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*MagicLink, error)

	// Claim transitions the link to claimed. The transition is atomic:
	// under concurrent attempts exactly one succeeds and the rest get
	// ErrLinkClaimed. Links at or past expiry fail with ErrLinkExpired.
	Claim(ctx context.Context, id uuid.UUID) (*MagicLink, error)
}
