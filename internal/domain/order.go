package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// FinancialTolerance is the maximum drift allowed when checking the
// financial invariants, to absorb floating-point rounding.
const FinancialTolerance = 0.01

// validate is the shared struct validator for boundary checks.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Order is the aggregate root of the pipeline: one record per
// (tenantId, orderId), created once by the creation consumer and mutated
// only through the store's conditional update.
type Order struct {
	ID            string `json:"id" validate:"required"`
	OrderNumber   string `json:"orderNumber"`
	TenantID      string `json:"tenantId" validate:"required"`
	CustomerEmail string `json:"customerEmail" validate:"required,email"`
	CustomerName  string `json:"customerName,omitempty"`
	CustomerPhone string `json:"customerPhone,omitempty"`

	Items []OrderItem `json:"items" validate:"required,min=1,dive"`

	Subtotal float64 `json:"subtotal" validate:"gte=0"`
	Tax      float64 `json:"tax" validate:"gte=0"`
	Shipping float64 `json:"shipping" validate:"gte=0"`
	Discount float64 `json:"discount" validate:"gte=0"`
	Total    float64 `json:"total" validate:"gte=0"`
	Currency string  `json:"currency" validate:"required,len=3,uppercase"`

	Status OrderStatus `json:"status"`

	// Campaign is a denormalized snapshot copied at creation time and never
	// re-derived, so historical pricing stays accurate if the campaign
	// definition later changes.
	Campaign *CampaignSnapshot `json:"campaign,omitempty"`

	BillingAddress  Address  `json:"billingAddress" validate:"required"`
	ShippingAddress *Address `json:"shippingAddress,omitempty"`

	PaymentMethod  string          `json:"paymentMethod,omitempty"`
	PaymentDetails *PaymentDetails `json:"paymentDetails,omitempty"`

	// PDFURL is a non-authoritative side channel written by the invoice
	// consumer once the artifact is in the content store.
	PDFURL string `json:"pdfUrl,omitempty"`

	DateCreated     time.Time `json:"dateCreated"`
	DateLastUpdated time.Time `json:"dateLastUpdated"`
	LastUpdatedBy   string    `json:"lastUpdatedBy"`
	Active          bool      `json:"active"`

	// Version is the optimistic-lock token. The store increments it on every
	// successful mutation; callers present the version they read and the
	// store rejects the write if it has since changed.
	Version int64 `json:"version"`
}

// OrderItem is one line of an order. Subtotal must equal
// unitPrice*quantity - discount within FinancialTolerance.
type OrderItem struct {
	ID          string  `json:"id,omitempty"`
	ProductID   string  `json:"productId" validate:"required"`
	ProductName string  `json:"productName" validate:"required"`
	Quantity    int     `json:"quantity" validate:"gte=1"`
	UnitPrice   float64 `json:"unitPrice" validate:"gte=0"`
	Discount    float64 `json:"discount" validate:"gte=0"`
	Subtotal    float64 `json:"subtotal" validate:"gte=0"`
}

// Address holds a billing or shipping address.
type Address struct {
	FullName      string `json:"fullName" validate:"required"`
	AddressLine1  string `json:"addressLine1" validate:"required"`
	AddressLine2  string `json:"addressLine2,omitempty"`
	City          string `json:"city" validate:"required"`
	StateProvince string `json:"stateProvince" validate:"required"`
	PostalCode    string `json:"postalCode" validate:"required"`
	Country       string `json:"country" validate:"required,len=2"`
}

// PaymentDetails records the payment transaction attached to an order.
// Mutable only while the order status is payment_pending or paid.
type PaymentDetails struct {
	Method        string     `json:"method" validate:"required"`
	TransactionID string     `json:"transactionId" validate:"required"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
}

// CampaignSnapshot is the campaign definition as it stood when the order was
// created.
type CampaignSnapshot struct {
	ID                 string  `json:"id"`
	Code               string  `json:"code"`
	Description        string  `json:"description,omitempty"`
	DiscountPercentage float64 `json:"discountPercentage"`
	ProductID          string  `json:"productId,omitempty"`
	TermsLink          string  `json:"termsConditionsLink,omitempty"`
	SnapshotAt         string  `json:"snapshotAt,omitempty"`
}

// NormalizeEmail lower-cases and trims an email address. Applied once at the
// boundary so stored addresses compare equal.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func withinTolerance(got, want float64) bool {
	return math.Abs(got-want) <= FinancialTolerance
}

// Validate checks the aggregate's structural constraints and financial
// invariants. It returns a ValidationError listing every violated field, or
// nil when the order is well-formed.
func (o *Order) Validate() error {
	const op = "order.validate"

	var err error

	if verr := validate.Struct(o); verr != nil {
		if invalid, ok := verr.(*validator.InvalidValidationError); ok {
			return Internal(invalid, op, "order validation failed")
		}
		for _, ferr := range verr.(validator.ValidationErrors) {
			err = AddFieldError(err, ferr.Namespace(), "failed "+ferr.Tag()+" check")
		}
	}

	if !o.Status.IsValid() {
		err = AddFieldError(err, "status", "unknown status: "+string(o.Status))
	}

	var itemSum float64
	for i, item := range o.Items {
		expected := item.UnitPrice*float64(item.Quantity) - item.Discount
		if !withinTolerance(item.Subtotal, expected) {
			err = AddFieldError(err, fmt.Sprintf("items[%d].subtotal", i),
				"does not equal unitPrice*quantity - discount")
		}
		itemSum += item.Subtotal
	}

	if len(o.Items) > 0 && !withinTolerance(o.Subtotal, itemSum) {
		err = AddFieldError(err, "subtotal", "does not equal the sum of item subtotals")
	}

	expectedTotal := o.Subtotal + o.Tax + o.Shipping - o.Discount
	if !withinTolerance(o.Total, expectedTotal) {
		err = AddFieldError(err, "total", "does not equal subtotal + tax + shipping - discount")
	}

	if err != nil {
		if ve, ok := err.(*ValidationError); ok {
			ve.Op = op
		}
		return err
	}
	return nil
}

// ValidateStruct runs tag-level validation on any boundary struct and folds
// the result into a ValidationError.
func ValidateStruct(op string, v interface{}) error {
	verr := validate.Struct(v)
	if verr == nil {
		return nil
	}
	if invalid, ok := verr.(*validator.InvalidValidationError); ok {
		return Internal(invalid, op, "validation failed")
	}

	var err error
	for _, ferr := range verr.(validator.ValidationErrors) {
		err = AddFieldError(err, ferr.Namespace(), "failed "+ferr.Tag()+" check")
	}
	if ve, ok := err.(*ValidationError); ok {
		ve.Op = op
	}
	return err
}
