// Package email composes and sends the two notifications derived from an
// order creation: the internal fulfillment alert and the customer
// confirmation.
package email

import "context"

// Email is one outbound message.
type Email struct {
	To          []string
	From        string
	ReplyTo     string
	Subject     string
	TextBody    string
	HTMLBody    string
	Attachments []Attachment
	Headers     map[string]string
}

// Attachment is a file attached to an email.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Sender delivers emails through a provider (SMTP, Postmark).
type Sender interface {
	// Send delivers the email and returns the provider's message id when
	// one is available.
	Send(ctx context.Context, email *Email) (string, error)
}
