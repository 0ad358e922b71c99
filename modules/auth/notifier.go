package auth

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/grantgate/pkg/email"
	"github.com/dmitrymomot/grantgate/pkg/logger"
)

// Notifier hands an addressed, time-bounded sign-in link to an external
// sender and returns an opaque correlation handle for the accepted message.
type Notifier interface {
	SendMagicLink(ctx context.Context, recipient, linkURL string, expiresAt time.Time, resendURL string) (string, error)
}

// EmailNotifier implements Notifier on the transactional email sender. It
// composes the message; delivery and retries are the sender's concern.
type EmailNotifier struct {
	sender  email.EmailSender
	timeout time.Duration
	logger  *slog.Logger
}

// NotifierOption configures an EmailNotifier.
type NotifierOption func(*EmailNotifier)

// WithNotifierLogger sets a custom logger.
func WithNotifierLogger(l *slog.Logger) NotifierOption {
	return func(n *EmailNotifier) { n.logger = l }
}

// WithNotifierTimeout bounds each outbound submit to the sender.
func WithNotifierTimeout(d time.Duration) NotifierOption {
	return func(n *EmailNotifier) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// NewEmailNotifier creates a notifier backed by the given sender.
func NewEmailNotifier(sender email.EmailSender, opts ...NotifierOption) *EmailNotifier {
	n := &EmailNotifier{
		sender:  sender,
		timeout: 10 * time.Second,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var magicLinkBody = template.Must(template.New("magic_link_email").Parse(strings.TrimSpace(`
<p>Use this link to sign in:</p>
<p><a href="{{.LinkURL}}">Sign in</a></p>
<p>The link works once and expires at {{.ExpiresAt}}.</p>
<p>If it has expired, <a href="{{.ResendURL}}">request a new link</a>.</p>
<p>If you did not request this email you can ignore it.</p>
`)))

// SendMagicLink composes and submits the sign-in email. Submit failures
// surface as ErrDeliveryUnavailable; the link itself stays valid, so the
// user can simply request a resend.
func (n *EmailNotifier) SendMagicLink(ctx context.Context, recipient, linkURL string, expiresAt time.Time, resendURL string) (string, error) {
	var body strings.Builder
	err := magicLinkBody.Execute(&body, struct {
		LinkURL   string
		ExpiresAt string
		ResendURL string
	}{
		LinkURL:   linkURL,
		ExpiresAt: expiresAt.UTC().Format("15:04 on 2 January 2006 (UTC)"),
		ResendURL: resendURL,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render sign-in email: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	handle, err := n.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   recipient,
		Subject:  "Sign in to your account",
		BodyHTML: body.String(),
		Tag:      "magic-link",
	})
	if err != nil {
		n.logger.Error("failed to submit sign-in email",
			logger.Email(recipient),
			logger.Error(err),
			logger.Component("notifier"),
		)
		return "", errors.Join(ErrDeliveryUnavailable, err)
	}
	return handle, nil
}
