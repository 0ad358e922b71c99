// Package email provides a provider-agnostic interface for sending
// transactional emails, with a Postmark implementation for production and a
// file-based sender for local development.
//
// Every send returns the provider's message identifier so callers can
// correlate delivery status with their own records:
//
//	sender, err := email.NewPostmarkClient(cfg)
//	if err != nil {
//	    return err
//	}
//	msgID, err := sender.SendEmail(ctx, email.SendEmailParams{
//	    SendTo:   "user@example.com",
//	    Subject:  "Sign in",
//	    BodyHTML: html,
//	    Tag:      "magic-link",
//	})
//
// DevSender writes each email to disk instead of sending it, which keeps
// local sign-in flows testable without provider credentials.
package email
