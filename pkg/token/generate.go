package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// Standard entropy sizes in bytes. CodeLength is used for bearer credentials
// delivered out of band (magic-link codes); StateLength for OAuth state and
// OIDC nonce values held in the browser session.
const (
	CodeLength  = 32
	StateLength = 32
)

// ErrEntropyUnavailable indicates the system CSPRNG failed. There is no
// sensible recovery at the call site.
var ErrEntropyUnavailable = errors.New("token: entropy source unavailable")

// New returns n bytes of cryptographic randomness encoded as unpadded
// URL-safe base64. n must be at least 16 (128 bits); smaller values make
// brute-forcing a live token feasible within its lifetime.
func New(n int) (string, error) {
	if n < 16 {
		return "", errors.New("token: length below 16 bytes")
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrEntropyUnavailable, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewCode returns a magic-link code with the standard entropy size.
func NewCode() (string, error) {
	return New(CodeLength)
}

// NewState returns an OAuth state or OIDC nonce value with the standard
// entropy size.
func NewState() (string, error) {
	return New(StateLength)
}
