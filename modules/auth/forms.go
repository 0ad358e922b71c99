package auth

import (
	"net/mail"
	"strings"
)

// RequestLinkForm carries the sign-in request form input and any field
// errors produced by validation, so the template can re-render inline.
type RequestLinkForm struct {
	Email  string
	Errors map[string]string
}

// Validate enforces format and the internal-domain policy on the email
// address. It returns true when the form is acceptable; otherwise the
// Errors map is populated for re-rendering.
func (f *RequestLinkForm) Validate(internalDomain string) bool {
	f.Errors = make(map[string]string)
	f.Email = NormalizeEmail(f.Email)

	if f.Email == "" {
		f.Errors["email"] = "Enter your email address"
		return false
	}
	if addr, err := mail.ParseAddress(f.Email); err != nil || addr.Address != f.Email {
		f.Errors["email"] = "Enter an email address in the correct format, like name@example.gov.uk"
		return false
	}
	if internalDomain != "" && !strings.HasSuffix(f.Email, strings.ToLower(internalDomain)) {
		f.Errors["email"] = "Email address must end with " + internalDomain
		return false
	}
	return true
}
