package session

import (
	"net/http"
	"time"
)

// Transport defines how session tokens travel between client and server.
type Transport interface {
	// GetToken extracts the session token from the request.
	GetToken(r *http.Request) (string, error)

	// SetToken sends the session token in the response.
	SetToken(w http.ResponseWriter, token string, ttl time.Duration) error

	// ClearToken removes the session token from the response.
	ClearToken(w http.ResponseWriter) error
}

// CookieTransport implements Transport with an HttpOnly, SameSite=Lax cookie.
// The cookie value is the opaque 256-bit session token itself; it references
// server-side state and carries no claims, so it is not additionally signed.
type CookieTransport struct {
	cookieName string
	secure     bool
}

// NewCookieTransport creates a cookie-based transport. secure controls the
// Secure attribute and should be true everywhere TLS terminates.
func NewCookieTransport(cookieName string, secure bool) *CookieTransport {
	return &CookieTransport{cookieName: cookieName, secure: secure}
}

// GetToken extracts the session token from the request cookie.
func (t *CookieTransport) GetToken(r *http.Request) (string, error) {
	c, err := r.Cookie(t.cookieName)
	if err != nil || c.Value == "" {
		return "", ErrSessionNotFound
	}
	return c.Value, nil
}

// SetToken stores the session token in a cookie.
func (t *CookieTransport) SetToken(w http.ResponseWriter, token string, ttl time.Duration) error {
	http.SetCookie(w, &http.Cookie{
		Name:     t.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearToken removes the session cookie.
func (t *CookieTransport) ClearToken(w http.ResponseWriter) error {
	http.SetCookie(w, &http.Cookie{
		Name:     t.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
