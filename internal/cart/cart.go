// Package cart talks to the cart service. The creation consumer resolves the
// cart referenced by a creation request into priced line items and totals.
package cart

import (
	"context"

	"github.com/dukerupert/vanir/internal/domain"
)

// ErrCartNotFound indicates the referenced cart does not exist. Permanent:
// a creation request pointing at a missing cart can never succeed.
var ErrCartNotFound = &domain.Error{Code: domain.EINVALID, Message: "Cart not found"}

// Cart is the priced cart as the cart service returns it.
type Cart struct {
	ID       string             `json:"id" validate:"required"`
	TenantID string             `json:"tenantId"`
	Items    []domain.OrderItem `json:"items" validate:"required,min=1,dive"`
	Subtotal float64            `json:"subtotal" validate:"gte=0"`
	Tax      float64            `json:"tax" validate:"gte=0"`
	Shipping float64            `json:"shipping" validate:"gte=0"`
	Discount float64            `json:"discount" validate:"gte=0"`
	Total    float64            `json:"total" validate:"gte=0"`
	Currency string             `json:"currency" validate:"required,len=3,uppercase"`
}

// Validate checks the cart payload before its numbers are copied onto an
// order. A cart that fails here is treated the same as a missing cart.
func (c *Cart) Validate() error {
	return domain.ValidateStruct("cart.validate", c)
}

// Service fetches carts.
type Service interface {
	// GetCart returns the cart for (tenantID, cartID) or ErrCartNotFound.
	GetCart(ctx context.Context, tenantID, cartID string) (*Cart, error)
}
