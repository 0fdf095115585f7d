// internal/message/message.go
//
// Sendero – Outbound email.
//
// Context
//   Contact submissions notify the site owner by email.  The provider is
//   pluggable: Resend in production, AWS SES where the account lives in
//   AWS, and NoopSender for local runs and tests.  Every provider
//   satisfies Sender; the Dispatcher (dispatcher.go) decides when and how
//   long a send may run.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package message

import (
	"context"
	"errors"

	"github.com/senderotrails/site/internal/logger"
)

// Email represents one outbound message.
type Email struct {
	From    string // optional – provider default when empty
	To      []string
	ReplyTo string
	Subject string
	Text    string
	HTML    string // optional
}

// ErrNoRecipient is returned when an Email has no To address.
var ErrNoRecipient = errors.New("message: no recipient")

// Sender delivers one Email and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, msg Email) (string, error)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Email) (string, error)

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, msg Email) (string, error) { return f(ctx, msg) }

// NoopSender logs the payload and reports success.
type NoopSender struct{}

// Send logs msg at debug level.
func (NoopSender) Send(ctx context.Context, msg Email) (string, error) {
	if len(msg.To) == 0 {
		return "", ErrNoRecipient
	}
	logger.FromContext(ctx).Debugw("email suppressed",
		"to", msg.To, "subject", msg.Subject, "len_text", len(msg.Text))
	return "noop", nil
}
