package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/dmitrymomot/grantgate/pkg/logger"
	"github.com/dmitrymomot/grantgate/pkg/redirect"
	"github.com/dmitrymomot/grantgate/pkg/session"
	"github.com/dmitrymomot/grantgate/pkg/token"
)

// IdentityProvider is the seam onto the OIDC issuer: build an authorization
// request, exchange the returned code, verify the resulting ID token.
type IdentityProvider interface {
	AuthCodeURL(state, nonce, verifier string) string
	Exchange(ctx context.Context, code, verifier string) (string, error)
	Verify(ctx context.Context, rawIDToken, nonce string) (IdentityClaims, error)
}

// OIDCProvider implements IdentityProvider against a discovered issuer.
type OIDCProvider struct {
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewOIDCProvider discovers the issuer's endpoints and prepares the
// authorization-code client. Discovery happens once at startup; a dead
// issuer fails the boot rather than the first sign-in.
func NewOIDCProvider(ctx context.Context, cfg Config) (*OIDCProvider, error) {
	provider, err := oidc.NewProvider(ctx, cfg.OIDCAuthority)
	if err != nil {
		return nil, fmt.Errorf("failed to discover oidc issuer: %w", err)
	}

	return &OIDCProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.OIDCClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.OIDCRedirectURL,
			Scopes:       cfg.OIDCScopes,
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.OIDCClientID}),
	}, nil
}

// AuthCodeURL builds the issuer authorization URL carrying state, nonce,
// and the S256 challenge for the given PKCE verifier.
func (p *OIDCProvider) AuthCodeURL(state, nonce, verifier string) string {
	return p.oauth.AuthCodeURL(state,
		oidc.Nonce(nonce),
		oauth2.S256ChallengeOption(verifier),
	)
}

// Exchange trades the authorization code for a raw ID token.
func (p *OIDCProvider) Exchange(ctx context.Context, code, verifier string) (string, error) {
	tok, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return "", errors.Join(ErrExchangeFailed, err)
	}

	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return "", fmt.Errorf("%w: token response carries no id_token", ErrExchangeFailed)
	}
	return raw, nil
}

// Verify checks the ID token's signature, issuer, audience, and expiry,
// matches its nonce against the one issued at initiation, and extracts the
// identity claims. Claims are never read from an unverified token.
func (p *OIDCProvider) Verify(ctx context.Context, rawIDToken, nonce string) (IdentityClaims, error) {
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return IdentityClaims{}, errors.Join(ErrTokenVerification, err)
	}
	if subtle.ConstantTimeCompare([]byte(idToken.Nonce), []byte(nonce)) != 1 {
		return IdentityClaims{}, ErrInvalidNonce
	}

	var claims struct {
		PreferredUsername string `json:"preferred_username"`
		Email             string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return IdentityClaims{}, errors.Join(ErrTokenVerification, err)
	}

	email := claims.PreferredUsername
	if email == "" {
		email = claims.Email
	}
	if idToken.Subject == "" || email == "" {
		return IdentityClaims{}, ErrMissingIdentityClaim
	}

	return IdentityClaims{Subject: idToken.Subject, Email: email}, nil
}

// SSOService orchestrates the authorization-code flow: initiation with
// fresh state/nonce/PKCE context held in the browser session, and callback
// verification resolving the external identity to a local user.
type SSOService struct {
	users     UserStore
	provider  IdentityProvider
	sanitizer *redirect.Sanitizer
	logger    *slog.Logger
}

// SSOOption configures an SSOService.
type SSOOption func(*SSOService)

// WithSSOLogger sets a custom logger for the service.
func WithSSOLogger(l *slog.Logger) SSOOption {
	return func(s *SSOService) { s.logger = l }
}

// NewSSOService creates the SSO sign-in service.
func NewSSOService(users UserStore, provider IdentityProvider, sanitizer *redirect.Sanitizer, opts ...SSOOption) *SSOService {
	s := &SSOService{
		users:     users,
		provider:  provider,
		sanitizer: sanitizer,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initiate prepares a fresh authorization request: random state and nonce,
// a new PKCE verifier, and the sanitised destination, all parked in the
// session for the callback. The caller must persist the session before
// redirecting to the returned URL.
func (s *SSOService) Initiate(sess *session.Session, next, requestHost string) (string, error) {
	state, err := token.NewState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	nonce, err := token.NewState()
	if err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	verifier := oauth2.GenerateVerifier()

	sess.Set(sessionKeyOIDCState, state)
	sess.Set(sessionKeyOIDCNonce, nonce)
	sess.Set(sessionKeyOIDCVerifier, verifier)
	sess.Set(sessionKeyOIDCDestination, s.sanitizer.Sanitize(next, requestHost))

	return s.provider.AuthCodeURL(state, nonce, verifier), nil
}

// Callback verifies the issuer's response and resolves the signed-in user.
// The stored flow context is popped up front, so it is gone after this call
// returns -- success or failure. The caller must persist the session either
// way.
func (s *SSOService) Callback(ctx context.Context, sess *session.Session, state, code string) (*User, string, error) {
	storedState, _ := sess.Pop(sessionKeyOIDCState)
	nonce, _ := sess.Pop(sessionKeyOIDCNonce)
	verifier, _ := sess.Pop(sessionKeyOIDCVerifier)
	destination, _ := sess.Pop(sessionKeyOIDCDestination)

	if storedState == "" ||
		subtle.ConstantTimeCompare([]byte(storedState), []byte(state)) != 1 {
		return nil, "", ErrInvalidState
	}

	rawIDToken, err := s.provider.Exchange(ctx, code, verifier)
	if err != nil {
		return nil, "", err
	}

	claims, err := s.provider.Verify(ctx, rawIDToken, nonce)
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.ResolveExternalSubject(ctx, claims.Subject, claims.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve external identity: %w", err)
	}

	if err := s.users.RecordLogin(ctx, user.ID); err != nil {
		s.logger.Error("failed to record login time",
			logger.UserID(user.ID.String()),
			logger.Error(err),
			logger.Component("sso"),
		)
	}

	return user, destination, nil
}
