package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Manager handles session lifecycle: resolution from requests, persistence,
// authentication upgrades, and destruction.
type Manager struct {
	store     Store
	transport Transport
	config    Config
}

// Option is a functional option for configuring the Manager.
type Option func(*Manager)

// WithStore sets a custom session store.
func WithStore(store Store) Option {
	return func(m *Manager) { m.store = store }
}

// WithTransport sets a custom session transport.
func WithTransport(transport Transport) Option {
	return func(m *Manager) { m.transport = transport }
}

// WithConfig sets custom configuration.
func WithConfig(config Config) Option {
	return func(m *Manager) { m.config = config }
}

// New creates a session manager. Without explicit options it uses an
// in-memory store and cookie transport derived from the default config.
func New(opts ...Option) *Manager {
	m := &Manager{config: DefaultConfig()}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		m.store = NewMemoryStore(m.config.CleanupInterval)
	}
	if m.transport == nil {
		m.transport = NewCookieTransport(m.config.CookieName, m.config.SecureCookies)
	}

	return m
}

// Get retrieves the valid session attached to the request, if any.
func (m *Manager) Get(ctx context.Context, r *http.Request) (*Session, error) {
	token, err := m.transport.GetToken(r)
	if err != nil {
		return nil, err
	}

	session, err := m.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	if session.IsExpired() {
		return nil, ErrSessionExpired
	}

	return session, nil
}

// Ensure returns the request's session, creating an anonymous one if none
// exists. New sessions have their cookie set on w.
func (m *Manager) Ensure(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	if session, err := m.Get(ctx, r); err == nil {
		return session, nil
	}

	// A stale or invalid cookie is simply overwritten by the new one.
	session, err := m.create(ctx, nil)
	if err != nil {
		return nil, err
	}

	if err := m.transport.SetToken(w, session.Token, m.config.AnonTTL); err != nil {
		_ = m.store.Delete(ctx, session.Token)
		return nil, err
	}

	return session, nil
}

// Save persists mutations made to a session's data bag.
func (m *Manager) Save(ctx context.Context, session *Session) error {
	return m.store.Update(ctx, session)
}

// Authenticate marks the request's session as belonging to userID. The
// session token is rotated so that a pre-authentication token captured by an
// attacker cannot be promoted (session fixation). Flow data survives the
// rotation.
func (m *Manager) Authenticate(ctx context.Context, w http.ResponseWriter, r *http.Request, userID uuid.UUID) error {
	session, err := m.Get(ctx, r)
	if err != nil {
		session, err = m.create(ctx, &userID)
		if err != nil {
			return err
		}
		return m.transport.SetToken(w, session.Token, m.config.AuthTTL)
	}

	newToken, err := generateToken()
	if err != nil {
		return err
	}

	_ = m.store.Delete(ctx, session.Token)

	session.Token = newToken
	session.UserID = &userID
	session.ExpiresAt = time.Now().Add(m.config.AuthTTL)

	if err := m.store.Create(ctx, session); err != nil {
		return err
	}

	return m.transport.SetToken(w, session.Token, m.config.AuthTTL)
}

// Destroy deletes the session and clears its cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	token, err := m.transport.GetToken(r)
	if err == nil && token != "" {
		_ = m.store.Delete(ctx, token)
	}
	return m.transport.ClearToken(w)
}

func (m *Manager) create(ctx context.Context, userID *uuid.UUID) (*Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	session := NewSession(token, userID, m.config.TTL(userID != nil))
	if err := m.store.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// generateToken creates a cryptographically secure session token.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
