package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/vanir/internal/domain"
	"github.com/dukerupert/vanir/internal/handler/webhook"
	"github.com/dukerupert/vanir/internal/queue"
	"github.com/dukerupert/vanir/internal/service"
	"github.com/dukerupert/vanir/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.MemoryStore, *queue.MockPublisher) {
	t.Helper()

	s := store.NewMemoryStore()
	pub := &queue.MockPublisher{}
	orders := service.NewOrderService(s, pub, zerolog.Nop())

	e := NewRouter(
		NewOrderHandler(orders, zerolog.Nop()),
		webhook.NewStripeHandler(orders, "whsec_test", zerolog.Nop()),
		zerolog.Nop(),
	)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv, s, pub
}

func seedHandlerOrder(t *testing.T, s *store.MemoryStore, status domain.OrderStatus) {
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

func doRequest(t *testing.T, method, url, tenant, body string) *http.Response {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if tenant != "" {
		req.Header.Set("X-Tenant-ID", tenant)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestCreateOrder_Accepted(t *testing.T) {
	srv, _, pub := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/v1.0/orders", "tenant-a", `{
		"customerEmail": "jordan@example.com",
		"customerName": "Jordan Avery",
		"cartId": "cart-1",
		"billingAddress": {
			"fullName": "Jordan Avery", "addressLine1": "123 Roast Ln", "city": "Portland",
			"stateProvince": "OR", "postalCode": "97201", "country": "US"
		}
	}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var body struct {
		OrderID string `json:"orderId"`
		Status  string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.OrderID)
	assert.Equal(t, "accepted", body.Status)

	published := pub.Published()
	require.Len(t, published, 1)
	assert.Equal(t, queue.SubjectOrderRequest, published[0].Subject)
	// The tenant comes from the header, never the body.
	assert.Contains(t, string(published[0].Body), `"tenantId":"tenant-a"`)
}

func TestCreateOrder_ValidationErrors(t *testing.T) {
	srv, _, pub := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/v1.0/orders", "tenant-a", `{
		"customerEmail": "not-an-email",
		"cartId": "cart-1"
	}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body ErrorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, domain.EINVALID, body.Code)
	assert.NotEmpty(t, body.Fields)
	assert.Empty(t, pub.Published())
}

func TestCreateOrder_MissingTenant(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/v1.0/orders", "", `{}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetOrder(t *testing.T) {
	srv, s, _ := newTestServer(t)
	seedHandlerOrder(t, s, domain.StatusPaymentPending)

	resp := doRequest(t, http.MethodGet, srv.URL+"/v1.0/orders/order-1", "tenant-a", "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var order domain.Order
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&order))
	assert.Equal(t, "order-1", order.ID)
	assert.Equal(t, int64(1), order.Version)
}

func TestGetOrder_WrongTenantIsNotFound(t *testing.T) {
	srv, s, _ := newTestServer(t)
	seedHandlerOrder(t, s, domain.StatusPaymentPending)

	resp := doRequest(t, http.MethodGet, srv.URL+"/v1.0/orders/order-1", "tenant-b", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateOrder_OK(t *testing.T) {
	srv, s, _ := newTestServer(t)
	seedHandlerOrder(t, s, domain.StatusPaymentPending)

	resp := doRequest(t, http.MethodPatch, srv.URL+"/v1.0/orders/order-1", "tenant-a",
		`{"status": "paid", "version": 1}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var order domain.Order
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&order))
	assert.Equal(t, domain.StatusPaid, order.Status)
	assert.Equal(t, int64(2), order.Version)
}

func TestUpdateOrder_StaleVersionConflict(t *testing.T) {
	srv, s, _ := newTestServer(t)
	seedHandlerOrder(t, s, domain.StatusPaymentPending)

	resp := doRequest(t, http.MethodPatch, srv.URL+"/v1.0/orders/order-1", "tenant-a",
		`{"status": "paid", "version": 1}`)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, http.MethodPatch, srv.URL+"/v1.0/orders/order-1", "tenant-a",
		`{"status": "cancelled", "version": 1}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var body ErrorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, domain.ECONFLICT, body.Code)
}

func TestUpdateOrder_IllegalTransition(t *testing.T) {
	srv, s, _ := newTestServer(t)
	seedHandlerOrder(t, s, domain.StatusCompleted)

	resp := doRequest(t, http.MethodPatch, srv.URL+"/v1.0/orders/order-1", "tenant-a",
		`{"status": "paid"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateOrder_EmptyBody(t *testing.T) {
	srv, s, _ := newTestServer(t)
	seedHandlerOrder(t, s, domain.StatusPaymentPending)

	resp := doRequest(t, http.MethodPatch, srv.URL+"/v1.0/orders/order-1", "tenant-a", `{}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStripeWebhook_BadSignature(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/webhooks/stripe", "", `{"type":"payment_intent.succeeded"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
