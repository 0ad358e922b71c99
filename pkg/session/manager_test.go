package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/grantgate/pkg/session"
)

func newManager(t *testing.T) *session.Manager {
	t.Helper()
	store := session.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })
	return session.New(session.WithStore(store))
}

// requestWithCookies copies Set-Cookie headers from a recorder onto a fresh
// request, mimicking a browser following the flow.
func requestWithCookies(t *testing.T, rec *httptest.ResponseRecorder, target string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 {
			req.AddCookie(c)
		}
	}
	return req
}

func TestEnsureCreatesAnonymousSession(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	sess, err := m.Ensure(ctx, rec, req)
	require.NoError(t, err)
	assert.False(t, sess.IsAuthenticated())
	assert.NotEmpty(t, sess.Token)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sess.Token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
}

func TestEnsureReturnsExistingSession(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	first, err := m.Ensure(ctx, rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	second, err := m.Ensure(ctx, httptest.NewRecorder(), requestWithCookies(t, rec, "/"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestSavePersistsFlowData(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	sess, err := m.Ensure(ctx, rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	sess.Set("next", "/grants")
	require.NoError(t, m.Save(ctx, sess))

	again, err := m.Get(ctx, requestWithCookies(t, rec, "/"))
	require.NoError(t, err)
	next, ok := again.GetString("next")
	require.True(t, ok)
	assert.Equal(t, "/grants", next)
}

func TestAuthenticateRotatesToken(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	ctx := context.Background()
	userID := uuid.New()

	rec := httptest.NewRecorder()
	anon, err := m.Ensure(ctx, rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	anon.Set("next", "/grants")
	require.NoError(t, m.Save(ctx, anon))

	authRec := httptest.NewRecorder()
	require.NoError(t, m.Authenticate(ctx, authRec, requestWithCookies(t, rec, "/"), userID))

	// Old token must be dead.
	_, err = m.Get(ctx, requestWithCookies(t, rec, "/"))
	assert.Error(t, err)

	// New token carries the user and preserved flow data.
	authed, err := m.Get(ctx, requestWithCookies(t, authRec, "/"))
	require.NoError(t, err)
	require.True(t, authed.IsAuthenticated())
	assert.Equal(t, userID, *authed.UserID)
	next, ok := authed.GetString("next")
	require.True(t, ok)
	assert.Equal(t, "/grants", next)
}

func TestAuthenticateWithoutExistingSession(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	ctx := context.Background()
	userID := uuid.New()

	rec := httptest.NewRecorder()
	require.NoError(t, m.Authenticate(ctx, rec, httptest.NewRequest(http.MethodGet, "/", nil), userID))

	authed, err := m.Get(ctx, requestWithCookies(t, rec, "/"))
	require.NoError(t, err)
	assert.True(t, authed.IsAuthenticated())
}

func TestDestroy(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	_, err := m.Ensure(ctx, rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	destroyRec := httptest.NewRecorder()
	require.NoError(t, m.Destroy(ctx, destroyRec, requestWithCookies(t, rec, "/")))

	_, err = m.Get(ctx, requestWithCookies(t, rec, "/"))
	assert.Error(t, err)

	// Clearing cookie has MaxAge < 0.
	cookies := destroyRec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestExpiredSessionRejected(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })

	cfg := session.DefaultConfig()
	cfg.AnonTTL = -time.Minute // already expired on creation
	m := session.New(session.WithStore(store), session.WithConfig(cfg))

	ctx := context.Background()
	rec := httptest.NewRecorder()
	_, err := m.Ensure(ctx, rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	_, err = m.Get(ctx, requestWithCookies(t, rec, "/"))
	assert.Error(t, err)
}
