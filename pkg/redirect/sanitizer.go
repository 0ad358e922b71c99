package redirect

import (
	"io"
	"log/slog"
	"net/url"
	"strings"
)

// DefaultFallback is used when no fallback path is configured.
const DefaultFallback = "/"

// Sanitizer validates post-login destinations against the origin of the
// current request and rewrites anything unsafe to a fixed fallback path.
type Sanitizer struct {
	fallback string
	logger   *slog.Logger
}

// Option configures a Sanitizer.
type Option func(*Sanitizer)

// WithFallback sets the path returned for rejected destinations.
func WithFallback(path string) Option {
	return func(s *Sanitizer) {
		if path != "" {
			s.fallback = path
		}
	}
}

// WithLogger sets the logger used to report rejected destinations.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sanitizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a Sanitizer with the given options applied.
func New(opts ...Option) *Sanitizer {
	s := &Sanitizer{
		fallback: DefaultFallback,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sanitize reduces raw to a same-origin relative destination. requestHost is
// the authority of the current request (http.Request.Host). The result is
// always safe to pass to an HTTP redirect: either the configured fallback or
// a path beginning with "/" that resolves against the current origin.
//
// Sanitize is idempotent: applying it to its own output is a no-op.
func (s *Sanitizer) Sanitize(raw, requestHost string) string {
	u, err := url.Parse(raw)
	if err != nil {
		s.reject(raw, "unparseable destination")
		return s.fallback
	}

	if u.Host != "" && !strings.EqualFold(u.Host, requestHost) {
		s.reject(raw, "destination authority differs from request authority")
		return s.fallback
	}

	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		s.reject(raw, "destination scheme is not http or https")
		return s.fallback
	}

	// Reconstruct from path and query only. Fragments never reach the server
	// on the redirected request, so they are dropped rather than preserved.
	dest := u.Path
	if u.RawQuery != "" {
		dest += "?" + u.RawQuery
	}

	if dest == "" {
		return s.fallback
	}
	if !strings.HasPrefix(dest, "/") {
		dest = "/" + dest
	}
	return dest
}

func (s *Sanitizer) reject(raw, reason string) {
	s.logger.Warn("unsafe redirect destination replaced",
		slog.String("component", "redirect"),
		slog.String("rejected", raw),
		slog.String("fallback", s.fallback),
		slog.String("reason", reason),
	)
}
