package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dukerupert/vanir/internal/domain"
	"github.com/dukerupert/vanir/internal/storage"
	"github.com/dukerupert/vanir/internal/telemetry"
)

// Service composes order emails and hands them to a Sender. Customer-facing
// bodies come from per-tenant HTML templates in the content store, with a
// plain-text fallback when a tenant has none.
type Service struct {
	sender      Sender
	store       storage.Storage
	fromAddress string
	fromName    string
	opsAddress  string
	logger      zerolog.Logger
}

// NewService creates the email service.
func NewService(sender Sender, store storage.Storage, fromAddress, fromName, opsAddress string, logger zerolog.Logger) *Service {
	return &Service{
		sender:      sender,
		store:       store,
		fromAddress: fromAddress,
		fromName:    fromName,
		opsAddress:  opsAddress,
		logger:      logger.With().Str("component", "email").Logger(),
	}
}

// SendCustomerConfirmation sends the order confirmation to the customer.
func (s *Service) SendCustomerConfirmation(ctx context.Context, data CustomerConfirmation) error {
	const op = "email.send_confirmation"

	order := data.Order

	htmlBody, err := s.renderTenantTemplate(ctx, data.TemplateKey(), data)
	if err != nil {
		return err
	}

	textBody := confirmationText(data)
	if htmlBody != "" {
		textBody = generatePlainText(htmlBody)
	}

	email := &Email{
		To:       []string{order.CustomerEmail},
		From:     fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress),
		ReplyTo:  s.opsAddress,
		Subject:  data.Subject(),
		HTMLBody: htmlBody,
		TextBody: textBody,
	}

	_, err = s.sender.Send(ctx, email)
	telemetry.RecordEmail(order.TenantID, "order_confirmation", err)
	if err != nil {
		return domain.WrapError(err, domain.ErrorCode(err), op, "failed to send confirmation email")
	}

	s.logger.Info().
		Str("tenant_id", order.TenantID).
		Str("order_id", order.ID).
		Msg("confirmation email sent")
	return nil
}

// SendInternalNotification alerts the fulfillment team about a new order.
func (s *Service) SendInternalNotification(ctx context.Context, data InternalNotification) error {
	const op = "email.send_notification"

	email := &Email{
		To:       []string{s.opsAddress},
		From:     fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress),
		Subject:  data.Subject(),
		TextBody: notificationText(data),
	}

	_, err := s.sender.Send(ctx, email)
	telemetry.RecordEmail(data.Order.TenantID, "internal_notification", err)
	if err != nil {
		return domain.WrapError(err, domain.ErrorCode(err), op, "failed to send internal notification")
	}

	s.logger.Info().
		Str("tenant_id", data.Order.TenantID).
		Str("order_id", data.Order.ID).
		Msg("internal notification sent")
	return nil
}

// renderTenantTemplate loads and executes the tenant's template. An absent
// template returns empty HTML so the caller falls back to plain text; a
// present-but-broken template is an error worth surfacing.
func (s *Service) renderTenantTemplate(ctx context.Context, key string, data any) (string, error) {
	const op = "email.render_template"

	rc, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrArtifactNotFound) {
			return "", nil
		}
		return "", domain.WrapError(err, domain.ErrorCode(err), op, "failed to load email template")
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", domain.Unavailable(err, op, "failed to read email template")
	}

	tmpl, err := template.New(key).Parse(string(raw))
	if err != nil {
		return "", domain.Internal(err, op, "email template does not parse")
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", domain.Internal(err, op, "email template failed to execute")
	}

	return buf.String(), nil
}

func confirmationText(data CustomerConfirmation) string {
	order := data.Order

	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order, %s!\n\n", order.CustomerName)
	fmt.Fprintf(&b, "Order number: %s\n\n", order.OrderNumber)
	for _, item := range order.Items {
		fmt.Fprintf(&b, "  %d x %s  %.2f %s\n", item.Quantity, item.ProductName, item.Subtotal, order.Currency)
	}
	fmt.Fprintf(&b, "\nSubtotal: %.2f %s\n", order.Subtotal, order.Currency)
	fmt.Fprintf(&b, "Tax: %.2f %s\n", order.Tax, order.Currency)
	fmt.Fprintf(&b, "Shipping: %.2f %s\n", order.Shipping, order.Currency)
	if order.Discount > 0 {
		fmt.Fprintf(&b, "Discount: -%.2f %s\n", order.Discount, order.Currency)
	}
	fmt.Fprintf(&b, "Total: %.2f %s\n", order.Total, order.Currency)
	if data.InvoiceURL != "" {
		fmt.Fprintf(&b, "\nYour invoice: %s\n", data.InvoiceURL)
	}
	return b.String()
}

func notificationText(data InternalNotification) string {
	order := data.Order

	var b strings.Builder
	fmt.Fprintf(&b, "Order %s received for tenant %s.\n\n", order.OrderNumber, order.TenantID)
	fmt.Fprintf(&b, "Order id: %s\n", order.ID)
	fmt.Fprintf(&b, "Customer: %s <%s>\n", order.CustomerName, order.CustomerEmail)
	fmt.Fprintf(&b, "Status: %s\n", order.Status)
	fmt.Fprintf(&b, "Items: %d\n", len(order.Items))
	fmt.Fprintf(&b, "Total: %.2f %s\n", order.Total, order.Currency)
	if data.InvoiceURL != "" {
		fmt.Fprintf(&b, "Invoice: %s\n", data.InvoiceURL)
	}
	return b.String()
}

// generatePlainText derives a rough plain-text body from rendered HTML for
// the multipart alternative.
func generatePlainText(html string) string {
	text := html

	text = strings.ReplaceAll(text, "<br>", "\n")
	text = strings.ReplaceAll(text, "<br/>", "\n")
	text = strings.ReplaceAll(text, "<br />", "\n")
	text = strings.ReplaceAll(text, "</p>", "\n\n")
	text = strings.ReplaceAll(text, "</div>", "\n")
	text = strings.ReplaceAll(text, "</h1>", "\n\n")
	text = strings.ReplaceAll(text, "</h2>", "\n\n")
	text = strings.ReplaceAll(text, "</h3>", "\n\n")

	for strings.Contains(text, "<") && strings.Contains(text, ">") {
		start := strings.Index(text, "<")
		end := strings.Index(text, ">")
		if start >= 0 && end > start {
			text = text[:start] + text[end+1:]
		} else {
			break
		}
	}

	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&quot;", "\"")

	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}

	return strings.Join(cleaned, "\n")
}
