package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOrder() *Order {
	return &Order{
		ID:            "order-1",
		TenantID:      "tenant-a",
		CustomerEmail: "jordan@example.com",
		Items: []OrderItem{
			{ProductID: "prod-1", ProductName: "Single Origin Ethiopia", Quantity: 2, UnitPrice: 18.50, Subtotal: 37.00},
			{ProductID: "prod-2", ProductName: "House Blend", Quantity: 1, UnitPrice: 14.00, Discount: 2.00, Subtotal: 12.00},
		},
		Subtotal: 49.00,
		Tax:      4.41,
		Shipping: 7.95,
		Discount: 0,
		Total:    61.36,
		Currency: "USD",
		Status:   StatusPaymentPending,
		BillingAddress: Address{
			FullName: "Jordan Avery", AddressLine1: "123 Roast Ln", City: "Portland",
			StateProvince: "OR", PostalCode: "97201", Country: "US",
		},
	}
}

func TestOrderValidate(t *testing.T) {
	assert.NoError(t, validOrder().Validate())
}

func TestOrderValidate_ToleratesRounding(t *testing.T) {
	o := validOrder()
	o.Total = 61.369
	assert.NoError(t, o.Validate())
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	return ve.Fields
}

func TestOrderValidate_ItemSubtotalMismatch(t *testing.T) {
	o := validOrder()
	o.Items[1].Subtotal = 14.00
	o.Subtotal = 51.00
	o.Total = 63.36

	fields := fieldErrors(t, o.Validate())
	assert.Contains(t, fields, "items[1].subtotal")
}

func TestOrderValidate_SubtotalAndTotalMismatch(t *testing.T) {
	o := validOrder()
	o.Subtotal = 40.00

	fields := fieldErrors(t, o.Validate())
	assert.Contains(t, fields, "subtotal")
	assert.Contains(t, fields, "total")
}

func TestOrderValidate_DiscountedLine(t *testing.T) {
	o := validOrder()
	o.Items = []OrderItem{
		{ProductID: "prod-1", ProductName: "Decaf Sampler", Quantity: 2, UnitPrice: 50, Discount: 10, Subtotal: 90},
	}
	o.Subtotal = 90
	o.Tax = 13.5
	o.Shipping = 0
	o.Discount = 0
	o.Total = 103.5
	assert.NoError(t, o.Validate())

	// Inflating the total without touching the inputs must be rejected.
	o.Total = 200
	fields := fieldErrors(t, o.Validate())
	assert.Contains(t, fields, "total")
}

func TestOrderValidate_StructuralErrors(t *testing.T) {
	o := validOrder()
	o.CustomerEmail = "not-an-email"
	o.Currency = "usd"
	o.BillingAddress.Country = "USA"

	err := o.Validate()
	require.Error(t, err)
	assert.Equal(t, EINVALID, ErrorCode(err))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.GreaterOrEqual(t, len(ve.Fields), 3)
}

func TestOrderValidate_UnknownStatus(t *testing.T) {
	o := validOrder()
	o.Status = OrderStatus("shipped")

	fields := fieldErrors(t, o.Validate())
	assert.Contains(t, fields, "status")
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jordan@example.com", NormalizeEmail("  Jordan@Example.COM "))
	assert.Equal(t, "", NormalizeEmail("   "))
}
