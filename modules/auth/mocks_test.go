package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserStore is a mock implementation of UserStore.
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetOrCreate(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserStore) ResolveExternalSubject(ctx context.Context, subject, email string) (*User, error) {
	args := m.Called(ctx, subject, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserStore) RecordLogin(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockLinkStore is a mock implementation of LinkStore.
type MockLinkStore struct {
	mock.Mock
}

func (m *MockLinkStore) Create(ctx context.Context, params CreateLinkParams) (*MagicLink, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MagicLink), args.Error(1)
}

func (m *MockLinkStore) GetByCode(ctx context.Context, code string) (*MagicLink, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MagicLink), args.Error(1)
}

func (m *MockLinkStore) GetByID(ctx context.Context, id uuid.UUID) (*MagicLink, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MagicLink), args.Error(1)
}

func (m *MockLinkStore) Claim(ctx context.Context, id uuid.UUID) (*MagicLink, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MagicLink), args.Error(1)
}

// MockNotifier is a mock implementation of Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendMagicLink(ctx context.Context, recipient, linkURL string, expiresAt time.Time, resendURL string) (string, error) {
	args := m.Called(ctx, recipient, linkURL, expiresAt, resendURL)
	return args.String(0), args.Error(1)
}

// MockIdentityProvider is a mock implementation of IdentityProvider.
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) AuthCodeURL(state, nonce, verifier string) string {
	args := m.Called(state, nonce, verifier)
	return args.String(0)
}

func (m *MockIdentityProvider) Exchange(ctx context.Context, code, verifier string) (string, error) {
	args := m.Called(ctx, code, verifier)
	return args.String(0), args.Error(1)
}

func (m *MockIdentityProvider) Verify(ctx context.Context, rawIDToken, nonce string) (IdentityClaims, error) {
	args := m.Called(ctx, rawIDToken, nonce)
	return args.Get(0).(IdentityClaims), args.Error(1)
}
