package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/grantgate/pkg/email"
)

type capturingSender struct {
	params email.SendEmailParams
	handle string
	err    error
}

func (s *capturingSender) SendEmail(ctx context.Context, params email.SendEmailParams) (string, error) {
	s.params = params
	return s.handle, s.err
}

func TestEmailNotifierSendMagicLink(t *testing.T) {
	t.Parallel()

	sender := &capturingSender{handle: "pm-123"}
	notifier := NewEmailNotifier(sender)

	expiresAt := time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC)
	handle, err := notifier.SendMagicLink(context.Background(),
		"alice@communities.gov.uk",
		"https://grants.example.gov.uk/sign-in/code-1",
		expiresAt,
		"https://grants.example.gov.uk/request-a-link-to-sign-in",
	)
	require.NoError(t, err)
	assert.Equal(t, "pm-123", handle)

	assert.Equal(t, "alice@communities.gov.uk", sender.params.SendTo)
	assert.Equal(t, "magic-link", sender.params.Tag)
	assert.Contains(t, sender.params.BodyHTML, "https://grants.example.gov.uk/sign-in/code-1")
	assert.Contains(t, sender.params.BodyHTML, "14:30 on 28 August 2026")
	assert.Contains(t, sender.params.BodyHTML, "request-a-link-to-sign-in")
}

func TestEmailNotifierDeliveryFailure(t *testing.T) {
	t.Parallel()

	sender := &capturingSender{err: errors.New("postmark is down")}
	notifier := NewEmailNotifier(sender)

	_, err := notifier.SendMagicLink(context.Background(),
		"alice@communities.gov.uk", "https://x/sign-in/c", time.Now(), "https://x/request")
	assert.ErrorIs(t, err, ErrDeliveryUnavailable)
}
