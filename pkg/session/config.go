package session

import "time"

// Config holds session configuration.
type Config struct {
	// CookieName is the name of the session cookie.
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"sid"`

	// AnonTTL bounds anonymous sessions, which only carry sign-in flow state.
	AnonTTL time.Duration `env:"SESSION_ANON_TTL" envDefault:"30m"`

	// AuthTTL bounds authenticated sessions.
	AuthTTL time.Duration `env:"SESSION_AUTH_TTL" envDefault:"12h"`

	// CleanupInterval for expired sessions (0 to disable).
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"5m"`

	// SecureCookies enables the Secure flag on session cookies.
	SecureCookies bool `env:"SESSION_SECURE_COOKIES" envDefault:"false"`
}

// DefaultConfig returns default session configuration.
func DefaultConfig() Config {
	return Config{
		CookieName:      "sid",
		AnonTTL:         30 * time.Minute,
		AuthTTL:         12 * time.Hour,
		CleanupInterval: 5 * time.Minute,
		SecureCookies:   false,
	}
}

// TTL returns the session lifetime for the given authentication state.
func (c Config) TTL(isAuthenticated bool) time.Duration {
	if isAuthenticated {
		return c.AuthTTL
	}
	return c.AnonTTL
}
