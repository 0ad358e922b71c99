package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/grantgate/pkg/redirect"
)

const testHost = "grants.example.gov.uk"

func newTestUser(email string) *User {
	return &User{ID: uuid.New(), Email: email, CreatedAt: time.Now()}
}

func newTestLink(userID uuid.UUID, email, dest string, ttl time.Duration) *MagicLink {
	now := time.Now()
	return &MagicLink{
		ID:         uuid.New(),
		Code:       "test-code-abc123",
		UserID:     &userID,
		Email:      &email,
		RedirectTo: dest,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
}

func TestMagicLinkService_Request(t *testing.T) {
	t.Parallel()

	t.Run("issues and dispatches a link", func(t *testing.T) {
		t.Parallel()

		users := &MockUserStore{}
		links := &MockLinkStore{}
		notifier := &MockNotifier{}

		user := newTestUser("alice@communities.gov.uk")
		link := newTestLink(user.ID, user.Email, "/dashboard", 15*time.Minute)

		users.On("GetOrCreate", mock.Anything, "alice@communities.gov.uk").Return(user, nil)
		links.On("Create", mock.Anything, mock.MatchedBy(func(p CreateLinkParams) bool {
			return p.UserID != nil && *p.UserID == user.ID &&
				p.Email != nil && *p.Email == user.Email &&
				p.RedirectTo == "/dashboard" &&
				p.TTL == 15*time.Minute
		})).Return(link, nil)
		notifier.On("SendMagicLink", mock.Anything, user.Email,
			"https://grants.example.gov.uk/sign-in/"+link.Code,
			link.ExpiresAt,
			"https://grants.example.gov.uk/request-a-link-to-sign-in",
		).Return("handle-1", nil)

		svc := NewMagicLinkService(users, links, notifier, redirect.New(),
			"https://grants.example.gov.uk")

		result, err := svc.Request(context.Background(), "Alice@Communities.gov.uk", "/dashboard", testHost)
		require.NoError(t, err)
		assert.Equal(t, link.ID, result.Link.ID)
		assert.Equal(t, "handle-1", result.Handle)

		users.AssertExpectations(t)
		links.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("sanitises a hostile destination before persisting", func(t *testing.T) {
		t.Parallel()

		users := &MockUserStore{}
		links := &MockLinkStore{}
		notifier := &MockNotifier{}

		user := newTestUser("alice@communities.gov.uk")
		link := newTestLink(user.ID, user.Email, "/", 15*time.Minute)

		users.On("GetOrCreate", mock.Anything, user.Email).Return(user, nil)
		links.On("Create", mock.Anything, mock.MatchedBy(func(p CreateLinkParams) bool {
			return p.RedirectTo == "/"
		})).Return(link, nil)
		notifier.On("SendMagicLink", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("handle-1", nil)

		svc := NewMagicLinkService(users, links, notifier, redirect.New(),
			"https://grants.example.gov.uk")

		_, err := svc.Request(context.Background(), user.Email, "https://evil.example/steal", testHost)
		require.NoError(t, err)
		links.AssertExpectations(t)
	})

	t.Run("delivery failure leaves the link issued", func(t *testing.T) {
		t.Parallel()

		users := &MockUserStore{}
		links := &MockLinkStore{}
		notifier := &MockNotifier{}

		user := newTestUser("alice@communities.gov.uk")
		link := newTestLink(user.ID, user.Email, "/", 15*time.Minute)

		users.On("GetOrCreate", mock.Anything, user.Email).Return(user, nil)
		links.On("Create", mock.Anything, mock.Anything).Return(link, nil)
		notifier.On("SendMagicLink", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", ErrDeliveryUnavailable)

		svc := NewMagicLinkService(users, links, notifier, redirect.New(),
			"https://grants.example.gov.uk")

		_, err := svc.Request(context.Background(), user.Email, "/", testHost)
		assert.ErrorIs(t, err, ErrDeliveryUnavailable)
		links.AssertExpectations(t) // Create happened despite the failure
	})
}

func TestMagicLinkService_Claim(t *testing.T) {
	t.Parallel()

	t.Run("claims and resolves the user", func(t *testing.T) {
		t.Parallel()

		users := &MockUserStore{}
		links := &MockLinkStore{}

		user := newTestUser("alice@communities.gov.uk")
		link := newTestLink(user.ID, user.Email, "/dashboard", 15*time.Minute)
		claimedAt := time.Now()
		claimed := *link
		claimed.ClaimedAt = &claimedAt

		links.On("GetByCode", mock.Anything, link.Code).Return(link, nil)
		links.On("Claim", mock.Anything, link.ID).Return(&claimed, nil)
		users.On("RecordLogin", mock.Anything, user.ID).Return(nil)

		svc := NewMagicLinkService(users, links, &MockNotifier{}, redirect.New(),
			"https://grants.example.gov.uk")

		got, dest, err := svc.Claim(context.Background(), link.Code, testHost)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "/dashboard", dest)
		links.AssertExpectations(t)
		users.AssertExpectations(t)
	})

	t.Run("already claimed surfaces as link error", func(t *testing.T) {
		t.Parallel()

		links := &MockLinkStore{}
		user := newTestUser("alice@communities.gov.uk")
		link := newTestLink(user.ID, user.Email, "/", 15*time.Minute)

		links.On("GetByCode", mock.Anything, link.Code).Return(link, nil)
		links.On("Claim", mock.Anything, link.ID).Return(nil, ErrLinkClaimed)

		svc := NewMagicLinkService(&MockUserStore{}, links, &MockNotifier{}, redirect.New(),
			"https://grants.example.gov.uk")

		_, _, err := svc.Claim(context.Background(), link.Code, testHost)
		assert.ErrorIs(t, err, ErrLinkClaimed)
		assert.True(t, IsLinkUnusable(err))
	})

	t.Run("unknown code surfaces as not found", func(t *testing.T) {
		t.Parallel()

		links := &MockLinkStore{}
		links.On("GetByCode", mock.Anything, "nope").Return(nil, ErrLinkNotFound)

		svc := NewMagicLinkService(&MockUserStore{}, links, &MockNotifier{}, redirect.New(),
			"https://grants.example.gov.uk")

		_, _, err := svc.Claim(context.Background(), "nope", testHost)
		assert.ErrorIs(t, err, ErrLinkNotFound)
	})

	t.Run("invitation link resolves user by email at claim time", func(t *testing.T) {
		t.Parallel()

		users := &MockUserStore{}
		links := &MockLinkStore{}

		emailAddr := "invitee@communities.gov.uk"
		now := time.Now()
		claimedAt := now
		link := &MagicLink{
			ID:         uuid.New(),
			Code:       "invite-code",
			Email:      &emailAddr,
			RedirectTo: "/",
			CreatedAt:  now,
			ExpiresAt:  now.Add(15 * time.Minute),
		}
		claimed := *link
		claimed.ClaimedAt = &claimedAt

		user := newTestUser(emailAddr)
		links.On("GetByCode", mock.Anything, link.Code).Return(link, nil)
		links.On("Claim", mock.Anything, link.ID).Return(&claimed, nil)
		users.On("GetOrCreate", mock.Anything, emailAddr).Return(user, nil)
		users.On("RecordLogin", mock.Anything, user.ID).Return(nil)

		svc := NewMagicLinkService(users, links, &MockNotifier{}, redirect.New(),
			"https://grants.example.gov.uk")

		got, _, err := svc.Claim(context.Background(), link.Code, testHost)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		users.AssertExpectations(t)
	})

	t.Run("re-sanitises a destination that went bad", func(t *testing.T) {
		t.Parallel()

		users := &MockUserStore{}
		links := &MockLinkStore{}

		user := newTestUser("alice@communities.gov.uk")
		link := newTestLink(user.ID, user.Email, "https://evil.example/steal", 15*time.Minute)
		claimedAt := time.Now()
		claimed := *link
		claimed.ClaimedAt = &claimedAt

		links.On("GetByCode", mock.Anything, link.Code).Return(link, nil)
		links.On("Claim", mock.Anything, link.ID).Return(&claimed, nil)
		users.On("RecordLogin", mock.Anything, user.ID).Return(nil)

		svc := NewMagicLinkService(users, links, &MockNotifier{}, redirect.New(),
			"https://grants.example.gov.uk")

		_, dest, err := svc.Claim(context.Background(), link.Code, testHost)
		require.NoError(t, err)
		assert.Equal(t, "/", dest)
	})
}

func TestMagicLinkUsable(t *testing.T) {
	t.Parallel()

	now := time.Now()
	claimedAt := now

	live := &MagicLink{ExpiresAt: now.Add(time.Minute)}
	assert.True(t, live.Usable())

	claimed := &MagicLink{ExpiresAt: now.Add(time.Minute), ClaimedAt: &claimedAt}
	assert.False(t, claimed.Usable())

	expired := &MagicLink{ExpiresAt: now.Add(-time.Minute)}
	assert.False(t, expired.Usable())
}
