package email

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/dukerupert/vanir/internal/domain"
)

// SMTPConfig holds SMTP connection parameters.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string // optional - some servers allow unauthenticated relay
	Password string // optional
	From     string
	FromName string
}

// SMTPSender implements Sender over SMTP using go-mail, which handles
// TLS/STARTTLS selection, auth negotiation, and MIME multipart construction.
type SMTPSender struct {
	config SMTPConfig
	logger zerolog.Logger
}

// NewSMTPSender creates an SMTP email sender.
func NewSMTPSender(config SMTPConfig, logger zerolog.Logger) *SMTPSender {
	return &SMTPSender{
		config: config,
		logger: logger.With().Str("component", "smtp").Logger(),
	}
}

// Send delivers an email via SMTP.
func (s *SMTPSender) Send(ctx context.Context, email *Email) (string, error) {
	const op = "email.smtp_send"

	msg := mail.NewMsg()

	from := email.From
	if from == "" {
		from = s.config.From
	}
	if err := msg.From(from); err != nil {
		return "", domain.WrapSentinel(ErrInvalidFromAddress, op, err)
	}
	if err := msg.To(email.To...); err != nil {
		return "", domain.WrapSentinel(ErrInvalidToAddress, op, err)
	}

	if email.ReplyTo != "" {
		if err := msg.ReplyTo(email.ReplyTo); err != nil {
			return "", domain.WrapSentinel(ErrInvalidFromAddress, op, err)
		}
	}

	msg.Subject(email.Subject)

	// Prefer multipart with a plain-text part when both bodies are present.
	switch {
	case email.HTMLBody != "" && email.TextBody != "":
		msg.SetBodyString(mail.TypeTextPlain, email.TextBody)
		msg.AddAlternativeString(mail.TypeTextHTML, email.HTMLBody)
	case email.HTMLBody != "":
		msg.SetBodyString(mail.TypeTextHTML, email.HTMLBody)
	default:
		msg.SetBodyString(mail.TypeTextPlain, email.TextBody)
	}

	for key, value := range email.Headers {
		msg.SetGenHeader(mail.Header(key), value)
	}

	for _, att := range email.Attachments {
		if err := msg.AttachReader(att.Filename, bytes.NewReader(att.Content),
			mail.WithFileContentType(mail.ContentType(att.ContentType))); err != nil {
			return "", domain.Internal(err, op, "failed to attach "+att.Filename)
		}
	}

	client, err := mail.NewClient(s.config.Host, s.clientOptions()...)
	if err != nil {
		return "", domain.Internal(err, op, "failed to create SMTP client")
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		s.logger.Error().Err(err).Strs("to", email.To).Msg("smtp send failed")
		return "", domain.Unavailable(err, op, "failed to send email")
	}

	s.logger.Info().Strs("to", email.To).Str("subject", email.Subject).Msg("email sent")

	// SMTP does not return a provider message id.
	return fmt.Sprintf("smtp-%d", time.Now().UnixNano()), nil
}

func (s *SMTPSender) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.config.Port),
		mail.WithTimeout(30 * time.Second),
	}

	switch s.config.Port {
	case 465:
		opts = append(opts, mail.WithSSL())
	case 587:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		// Port 25 and dev relays like Mailpit on 1025.
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	if s.config.Username != "" && s.config.Password != "" {
		opts = append(opts,
			mail.WithUsername(s.config.Username),
			mail.WithPassword(s.config.Password),
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
		)
	}

	return opts
}

// TestConnection dials the SMTP server without sending, verifying
// connectivity and credentials at startup.
func (s *SMTPSender) TestConnection(ctx context.Context) error {
	client, err := mail.NewClient(s.config.Host, s.clientOptions()...)
	if err != nil {
		return domain.Internal(err, "email.smtp_test", "failed to create SMTP client")
	}

	if err := client.DialWithContext(ctx); err != nil {
		return domain.Unavailable(err, "email.smtp_test", "SMTP connection failed")
	}
	defer client.Close()

	return nil
}
