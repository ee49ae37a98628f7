package email

import (
	"fmt"

	"github.com/dukerupert/vanir/internal/domain"
)

// CustomerConfirmation is the data behind the customer-facing order
// confirmation email.
type CustomerConfirmation struct {
	Order      *domain.Order
	InvoiceURL string
}

func (e CustomerConfirmation) Subject() string {
	return "Order Confirmation - " + e.Order.OrderNumber
}

// TemplateKey is the content-store key for the tenant's confirmation
// template. Tenants without one get the plain-text fallback.
func (e CustomerConfirmation) TemplateKey() string {
	return fmt.Sprintf("%s/templates/order_confirmation.html", e.Order.TenantID)
}

// InternalNotification is the data behind the fulfillment-team alert.
type InternalNotification struct {
	Order      *domain.Order
	InvoiceURL string
}

func (e InternalNotification) Subject() string {
	return fmt.Sprintf("New order %s (%s)", e.Order.OrderNumber, e.Order.TenantID)
}
