package auth

import "time"

// Config holds authentication kernel configuration.
type Config struct {
	// BaseURL is the public origin of this service, used to build absolute
	// claim URLs embedded in sign-in emails.
	BaseURL string `env:"BASE_URL,required"`

	// MagicLinkTTL bounds how long an issued link stays claimable. Never
	// extended after creation.
	MagicLinkTTL time.Duration `env:"MAGIC_LINK_TTL" envDefault:"15m"`

	// InternalEmailDomain is the address suffix accepted by the sign-in
	// form, e.g. "@communities.gov.uk".
	InternalEmailDomain string `env:"INTERNAL_EMAIL_DOMAIN,required"`

	// FallbackRedirect is returned by the redirect sanitiser whenever a
	// destination is rejected.
	FallbackRedirect string `env:"FALLBACK_REDIRECT" envDefault:"/"`

	// OIDC issuer configuration. Empty OIDCAuthority disables the SSO
	// routes.
	OIDCClientID     string   `env:"OIDC_CLIENT_ID"`
	OIDCClientSecret string   `env:"OIDC_CLIENT_SECRET"`
	OIDCAuthority    string   `env:"OIDC_AUTHORITY"`
	OIDCScopes       []string `env:"OIDC_SCOPES" envSeparator:" " envDefault:"openid profile email"`
	OIDCRedirectURL  string   `env:"OIDC_REDIRECT_URL"`

	// OutboundTimeout bounds calls to the issuer and the email sender.
	OutboundTimeout time.Duration `env:"OUTBOUND_TIMEOUT" envDefault:"10s"`
}
