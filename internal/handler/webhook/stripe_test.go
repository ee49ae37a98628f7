package webhook

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"

	"github.com/dukerupert/vanir/internal/domain"
	"github.com/dukerupert/vanir/internal/queue"
	"github.com/dukerupert/vanir/internal/service"
	"github.com/dukerupert/vanir/internal/store"
)

const testSecret = "whsec_test_secret"

func seedWebhookOrder(t *testing.T, s *store.MemoryStore, status domain.OrderStatus) {
	t.Helper()

	require.NoError(t, s.CreateOrder(context.Background(), &domain.Order{
		ID: "order-1", TenantID: "tenant-a", OrderNumber: "ORD-20260314-00001",
		CustomerEmail: "jordan@example.com",
		Items: []domain.OrderItem{
			{ProductID: "prod-1", ProductName: "Single Origin Ethiopia", Quantity: 1, UnitPrice: 20, Subtotal: 20},
		},
		Subtotal: 20, Total: 20, Currency: "USD",
		Status: status,
		BillingAddress: domain.Address{
			FullName: "Jordan Avery", AddressLine1: "123 Roast Ln", City: "Portland",
			StateProvince: "OR", PostalCode: "97201", Country: "US",
		},
		Active: true,
	}))
}

func signedRequest(t *testing.T, payload string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	now := time.Now()
	signature := stripewebhook.ComputeSignature(now, []byte(payload), testSecret)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature",
		fmt.Sprintf("t=%d,v1=%x", now.Unix(), signature))
	return req, httptest.NewRecorder()
}

func paymentIntentEvent(eventType string) string {
	return fmt.Sprintf(`{
		"id": "evt_1",
		"type": %q,
		"data": {
			"object": {
				"id": "pi_123",
				"object": "payment_intent",
				"amount": 2000,
				"currency": "usd",
				"metadata": {"tenant_id": "tenant-a", "order_id": "order-1"}
			}
		}
	}`, eventType)
}

func newStripeHandler(s *store.MemoryStore) *StripeHandler {
	orders := service.NewOrderService(s, &queue.MockPublisher{}, zerolog.Nop())
	return NewStripeHandler(orders, testSecret, zerolog.Nop())
}

func TestStripeHandler_PaymentSucceeded(t *testing.T) {
	s := store.NewMemoryStore()
	seedWebhookOrder(t, s, domain.StatusPaymentPending)
	h := newStripeHandler(s)

	e := echo.New()
	req, rec := signedRequest(t, paymentIntentEvent("payment_intent.succeeded"))
	require.NoError(t, h.Handle(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	order, err := s.GetOrder(context.Background(), "tenant-a", "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, order.Status)
	require.NotNil(t, order.PaymentDetails)
	assert.Equal(t, "stripe", order.PaymentDetails.Method)
	assert.Equal(t, "pi_123", order.PaymentDetails.TransactionID)
	assert.Equal(t, "system:stripe-webhook", order.LastUpdatedBy)
}

func TestStripeHandler_PaymentCanceled(t *testing.T) {
	s := store.NewMemoryStore()
	seedWebhookOrder(t, s, domain.StatusPaymentPending)
	h := newStripeHandler(s)

	e := echo.New()
	req, rec := signedRequest(t, paymentIntentEvent("payment_intent.canceled"))
	require.NoError(t, h.Handle(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	order, err := s.GetOrder(context.Background(), "tenant-a", "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, order.Status)
}

func TestStripeHandler_MissingMetadataIsAcknowledged(t *testing.T) {
	s := store.NewMemoryStore()
	seedWebhookOrder(t, s, domain.StatusPaymentPending)
	h := newStripeHandler(s)

	payload := `{
		"id": "evt_2",
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_456", "object": "payment_intent", "metadata": {}}}
	}`

	e := echo.New()
	req, rec := signedRequest(t, payload)
	require.NoError(t, h.Handle(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Nothing matched, nothing changed.
	order, err := s.GetOrder(context.Background(), "tenant-a", "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaymentPending, order.Status)
}

func TestStripeHandler_InvalidSignature(t *testing.T) {
	h := newStripeHandler(store.NewMemoryStore())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe",
		strings.NewReader(paymentIntentEvent("payment_intent.succeeded")))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	rec := httptest.NewRecorder()

	e := echo.New()
	require.NoError(t, h.Handle(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
