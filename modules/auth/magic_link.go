package auth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/grantgate/pkg/logger"
	"github.com/dmitrymomot/grantgate/pkg/redirect"
)

// MagicLinkService orchestrates the passwordless flow:
// request -> issue -> deliver -> claim.
type MagicLinkService struct {
	users     UserStore
	links     LinkStore
	notifier  Notifier
	sanitizer *redirect.Sanitizer
	baseURL   string
	ttl       time.Duration
	logger    *slog.Logger
}

// MagicLinkOption configures a MagicLinkService.
type MagicLinkOption func(*MagicLinkService)

// WithMagicLinkLogger sets a custom logger for the service.
func WithMagicLinkLogger(l *slog.Logger) MagicLinkOption {
	return func(s *MagicLinkService) { s.logger = l }
}

// WithMagicLinkTTL overrides how long issued links stay claimable.
func WithMagicLinkTTL(ttl time.Duration) MagicLinkOption {
	return func(s *MagicLinkService) { s.ttl = ttl }
}

// NewMagicLinkService creates the magic link service. baseURL is the public
// origin used to build absolute claim URLs.
func NewMagicLinkService(users UserStore, links LinkStore, notifier Notifier, sanitizer *redirect.Sanitizer, baseURL string, opts ...MagicLinkOption) *MagicLinkService {
	s := &MagicLinkService{
		users:     users,
		links:     links,
		notifier:  notifier,
		sanitizer: sanitizer,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		ttl:       15 * time.Minute,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestResult is the outcome of a successful sign-in request.
type RequestResult struct {
	Link   *MagicLink
	Handle string // notification correlation handle from the sender
}

// Request issues a fresh link for email, bound to the sanitised destination,
// and dispatches it. Issuing never invalidates earlier links for the same
// user; they stay valid until they expire or are claimed. Delivery failure
// does not roll the link back -- the caller reports a retriable error and
// the user simply requests again.
func (s *MagicLinkService) Request(ctx context.Context, emailAddr, destination, requestHost string) (*RequestResult, error) {
	emailAddr = NormalizeEmail(emailAddr)
	dest := s.sanitizer.Sanitize(destination, requestHost)

	user, err := s.users.GetOrCreate(ctx, emailAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	link, err := s.links.Create(ctx, CreateLinkParams{
		UserID:     &user.ID,
		Email:      &user.Email,
		RedirectTo: dest,
		TTL:        s.ttl,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue magic link: %w", err)
	}

	s.logger.Info("magic link issued",
		logger.LinkID(link.ID.String()),
		logger.UserID(user.ID.String()),
		logger.Component("magic_link"),
	)

	handle, err := s.notifier.SendMagicLink(ctx,
		user.Email,
		s.baseURL+"/sign-in/"+link.Code,
		link.ExpiresAt,
		s.baseURL+"/request-a-link-to-sign-in",
	)
	if err != nil {
		return nil, err
	}

	return &RequestResult{Link: link, Handle: handle}, nil
}

// Link loads a link by its opaque identifier for the check-email page. The
// page key is the ID, never the code, so it cannot be used to sign in.
func (s *MagicLinkService) Link(ctx context.Context, id string) (*MagicLink, error) {
	parsed, err := parseLinkID(id)
	if err != nil {
		return nil, ErrLinkNotFound
	}
	return s.links.GetByID(ctx, parsed)
}

// Lookup returns the link carrying code, claimed or not.
func (s *MagicLinkService) Lookup(ctx context.Context, code string) (*MagicLink, error) {
	return s.links.GetByCode(ctx, code)
}

// Claim atomically consumes the link and resolves the user to sign in. The
// destination is re-sanitised defensively even though it was sanitised at
// creation. Unusable codes surface as link errors the handler collapses
// into a single redirect.
func (s *MagicLinkService) Claim(ctx context.Context, code, requestHost string) (*User, string, error) {
	link, err := s.links.GetByCode(ctx, code)
	if err != nil {
		return nil, "", err
	}

	claimed, err := s.links.Claim(ctx, link.ID)
	if err != nil {
		if IsLinkUnusable(err) {
			s.logger.Info("magic link claim rejected",
				logger.LinkID(link.ID.String()),
				logger.Event(err.Error()),
				logger.Component("magic_link"),
			)
		}
		return nil, "", err
	}

	user, err := s.resolveLinkUser(ctx, claimed)
	if err != nil {
		return nil, "", err
	}

	if err := s.users.RecordLogin(ctx, user.ID); err != nil {
		s.logger.Error("failed to record login time",
			logger.UserID(user.ID.String()),
			logger.Error(err),
			logger.Component("magic_link"),
		)
	}

	return user, s.sanitizer.Sanitize(claimed.RedirectTo, requestHost), nil
}

// resolveLinkUser handles links issued before the user existed (invitation
// links carry only an email).
func (s *MagicLinkService) resolveLinkUser(ctx context.Context, link *MagicLink) (*User, error) {
	if link.UserID != nil {
		if link.Email != nil {
			return &User{ID: *link.UserID, Email: *link.Email}, nil
		}
		return &User{ID: *link.UserID}, nil
	}
	if link.Email == nil {
		return nil, ErrUserNotFound
	}
	user, err := s.users.GetOrCreate(ctx, *link.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve link user: %w", err)
	}
	return user, nil
}
