// Package token generates opaque, cryptographically random credentials for
// store-backed authentication flows: magic-link codes, OAuth state values,
// and OIDC nonces.
//
// Tokens carry no embedded payload. All meaning lives in the datastore row
// (or session entry) the token is keyed against, so a token can be revoked
// or expired server-side at any time.
//
// # Usage
//
//	code, err := token.New(token.CodeLength)
//	if err != nil {
//		// crypto/rand failure, treat as fatal
//	}
//
// The output is base64 URL-safe without padding and is safe to embed in a
// path segment or query string.
package token
