// Package invoice renders invoice documents for completed order creations.
package invoice

import (
	"fmt"

	"github.com/dukerupert/vanir/internal/domain"
)

// ArtifactKey is the content-store key for an order's invoice. The key is a
// contract: downstream systems resolve invoices by tenant and order id alone.
func ArtifactKey(tenantID, orderID string) string {
	return fmt.Sprintf("%s/orders/order_%s.pdf", tenantID, orderID)
}

// Renderer produces an invoice document from an order.
type Renderer interface {
	// Render returns the document bytes. Rendering is pure: the same order
	// always yields an equivalent document.
	Render(order *domain.Order) ([]byte, error)

	// ContentType is the MIME type of rendered documents.
	ContentType() string
}
