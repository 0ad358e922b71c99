package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/grantgate/pkg/pg"
	"github.com/dmitrymomot/grantgate/pkg/token"
)

// createRetries bounds how many fresh codes the link store tries when it
// hits the unique code constraint. Collisions on 256-bit codes are
// astronomically rare; more than a couple in a row means something else is
// broken.
const createRetries = 3

// PostgresUserStore implements UserStore on a pgx connection pool.
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

// NewPostgresUserStore creates a Postgres-backed user store.
func NewPostgresUserStore(pool *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{pool: pool}
}

const userColumns = "id, email, external_subject_id, created_at, last_logged_in_at"

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.ExternalSubjectID, &u.CreatedAt, &u.LastLoggedInAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// NormalizeEmail lower-cases and trims an email address. All lookups and
// writes go through this so the unique constraint compares like with like.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetOrCreate resolves email to a user, creating one on first contact. The
// upsert's no-op update lets RETURNING yield the existing row when another
// request won the insert race.
func (s *PostgresUserStore) GetOrCreate(ctx context.Context, email string) (*User, error) {
	email = NormalizeEmail(email)

	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, email)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING `+userColumns,
		uuid.New(), email,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create user: %w", err)
	}
	return user, nil
}

// ResolveExternalSubject maps an IdP subject to a user: by subject first,
// then by email with the subject attached, then by creating a fresh record.
// Unique-violation losers re-read the winning row.
func (s *PostgresUserStore) ResolveExternalSubject(ctx context.Context, subject, email string) (*User, error) {
	email = NormalizeEmail(email)

	user, err := s.getBySubject(ctx, subject)
	if err == nil {
		return user, nil
	}
	if !pg.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to look up external subject: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err = scanUser(row)
	if err == nil {
		return s.attachSubject(ctx, user.ID, subject)
	}
	if !pg.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}

	row = s.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, external_subject_id)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		uuid.New(), email, subject,
	)
	user, err = scanUser(row)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			// Lost a race on email or subject; the winner's row is the
			// identity we want.
			if user, retryErr := s.getBySubject(ctx, subject); retryErr == nil {
				return user, nil
			}
			return s.GetOrCreate(ctx, email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// RecordLogin stamps last_logged_in_at.
func (s *PostgresUserStore) RecordLogin(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET last_logged_in_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *PostgresUserStore) getBySubject(ctx context.Context, subject string) (*User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE external_subject_id = $1`, subject)
	return scanUser(row)
}

func (s *PostgresUserStore) attachSubject(ctx context.Context, id uuid.UUID, subject string) (*User, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE users SET external_subject_id = $2
		WHERE id = $1
		RETURNING `+userColumns,
		id, subject,
	)
	user, err := scanUser(row)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			// Another user already carries this subject; defer to them.
			return s.getBySubject(ctx, subject)
		}
		return nil, fmt.Errorf("failed to attach external subject: %w", err)
	}
	return user, nil
}

// PostgresLinkStore implements LinkStore on a pgx connection pool.
type PostgresLinkStore struct {
	pool *pgxpool.Pool
}

// NewPostgresLinkStore creates a Postgres-backed magic link store.
func NewPostgresLinkStore(pool *pgxpool.Pool) *PostgresLinkStore {
	return &PostgresLinkStore{pool: pool}
}

const linkColumns = "id, code, user_id, email, redirect_to, created_at, expires_at, claimed_at"

func scanLink(row interface{ Scan(...any) error }) (*MagicLink, error) {
	var l MagicLink
	if err := row.Scan(&l.ID, &l.Code, &l.UserID, &l.Email, &l.RedirectTo,
		&l.CreatedAt, &l.ExpiresAt, &l.ClaimedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

// Create persists a new link with a fresh code, retrying on the unique code
// constraint.
func (s *PostgresLinkStore) Create(ctx context.Context, params CreateLinkParams) (*MagicLink, error) {
	if params.UserID == nil && params.Email == nil {
		return nil, fmt.Errorf("magic link requires a user or an email")
	}

	expiresAt := time.Now().Add(params.TTL)

	var lastErr error
	for attempt := 0; attempt < createRetries; attempt++ {
		code, err := token.NewCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate link code: %w", err)
		}

		row := s.pool.QueryRow(ctx, `
			INSERT INTO magic_links (id, code, user_id, email, redirect_to, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+linkColumns,
			uuid.New(), code, params.UserID, params.Email, params.RedirectTo, expiresAt,
		)
		link, err := scanLink(row)
		if err == nil {
			return link, nil
		}
		if !pg.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("failed to create magic link: %w", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrCodeCollision, lastErr)
}

// GetByCode returns the link carrying the given code.
func (s *PostgresLinkStore) GetByCode(ctx context.Context, code string) (*MagicLink, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+linkColumns+` FROM magic_links WHERE code = $1`, code)
	link, err := scanLink(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to look up magic link by code: %w", err)
	}
	return link, nil
}

// GetByID returns the link with the given ID.
func (s *PostgresLinkStore) GetByID(ctx context.Context, id uuid.UUID) (*MagicLink, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+linkColumns+` FROM magic_links WHERE id = $1`, id)
	link, err := scanLink(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to look up magic link by id: %w", err)
	}
	return link, nil
}

// Claim performs the single-use transition as one conditional update, so
// concurrent claims of the same link produce exactly one winner. Expiry is
// checked inside the same write. When nothing matched, a second read
// distinguishes claimed from expired from missing.
func (s *PostgresLinkStore) Claim(ctx context.Context, id uuid.UUID) (*MagicLink, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE magic_links SET claimed_at = now()
		WHERE id = $1 AND claimed_at IS NULL AND expires_at > now()
		RETURNING `+linkColumns,
		id,
	)
	link, err := scanLink(row)
	if err == nil {
		return link, nil
	}
	if !pg.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to claim magic link: %w", err)
	}

	existing, lookupErr := s.GetByID(ctx, id)
	if lookupErr != nil {
		return nil, lookupErr
	}
	if existing.ClaimedAt != nil {
		return nil, ErrLinkClaimed
	}
	return nil, ErrLinkExpired
}
