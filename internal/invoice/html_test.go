package invoice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/vanir/internal/domain"
)

func TestArtifactKey(t *testing.T) {
	assert.Equal(t, "tenant-a/orders/order_order-1.pdf", ArtifactKey("tenant-a", "order-1"))
}

func TestHTMLRenderer_Render(t *testing.T) {
	r, err := NewHTMLRenderer()
	require.NoError(t, err)

	order := &domain.Order{
		ID:          "order-1",
		OrderNumber: "ORD-20260314-00007",
		TenantID:    "tenant-a",
		Items: []domain.OrderItem{
			{ProductName: "Single Origin Ethiopia", Quantity: 2, UnitPrice: 18.50, Subtotal: 37.00},
		},
		Subtotal: 37.00,
		Tax:      2.96,
		Shipping: 5.00,
		Discount: 2.00,
		Total:    42.96,
		Currency: "USD",
		Status:   domain.StatusPaymentPending,
		BillingAddress: domain.Address{
			FullName:      "Jordan Avery",
			AddressLine1:  "123 Roast Ln",
			City:          "Portland",
			StateProvince: "OR",
			PostalCode:    "97201",
			Country:       "US",
		},
		Campaign:    &domain.CampaignSnapshot{Code: "SPRING10", Description: "Spring promotion"},
		DateCreated: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}

	doc, err := r.Render(order)
	require.NoError(t, err)

	html := string(doc)
	assert.Contains(t, html, "ORD-20260314-00007")
	assert.Contains(t, html, "Single Origin Ethiopia")
	assert.Contains(t, html, "42.96 USD")
	assert.Contains(t, html, "-2.00 USD")
	assert.Contains(t, html, "SPRING10")
	assert.Contains(t, html, "Jordan Avery")
	assert.Equal(t, "text/html; charset=utf-8", r.ContentType())
}

func TestHTMLRenderer_Deterministic(t *testing.T) {
	r, err := NewHTMLRenderer()
	require.NoError(t, err)

	order := &domain.Order{
		ID:          "order-1",
		OrderNumber: "ORD-20260314-00001",
		Items:       []domain.OrderItem{{ProductName: "Decaf Blend", Quantity: 1, UnitPrice: 15, Subtotal: 15}},
		Subtotal:    15, Total: 15, Currency: "USD",
		Status:      domain.StatusPaymentPending,
		DateCreated: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}

	first, err := r.Render(order)
	require.NoError(t, err)
	second, err := r.Render(order)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
