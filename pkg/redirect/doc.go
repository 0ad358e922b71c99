// Package redirect reduces caller-supplied post-login destinations to
// same-origin relative paths so that a successful sign-in can never be used
// as an open redirect.
//
// The sanitiser is a total function: any input, however malformed, produces
// either a safe relative path or the configured fallback. Every replacement
// is logged at warning level with the rejected value.
package redirect
