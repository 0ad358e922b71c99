// Package session provides server-side browser sessions with cookie
// transport.
//
// A session is an opaque random token mapped to a server-side record holding
// an optional authenticated user ID and a small data bag. The data bag
// carries short-lived sign-in flow state: the pending post-login destination,
// OIDC state/nonce/verifier, and the last notification handle. None of it is
// persisted durably; the memory store is the intended backend.
//
// Authenticating a session rotates its token to defeat session fixation.
package session
