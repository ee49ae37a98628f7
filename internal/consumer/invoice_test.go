package consumer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/vanir/internal/domain"
	"github.com/dukerupert/vanir/internal/invoice"
	"github.com/dukerupert/vanir/internal/queue"
	"github.com/dukerupert/vanir/internal/storage"
	"github.com/dukerupert/vanir/internal/store"
)

func seedCreatedOrder(t *testing.T, s *store.MemoryStore) *domain.Order {
	t.Helper()

	order := &domain.Order{
		ID:            "order-1",
		TenantID:      "tenant-a",
		OrderNumber:   "ORD-20260314-00001",
		CustomerEmail: "jordan@example.com",
		CustomerName:  "Jordan Avery",
		Items: []domain.OrderItem{
			{ProductID: "prod-1", ProductName: "Single Origin Ethiopia", Quantity: 2, UnitPrice: 18.50, Subtotal: 37.00},
		},
		Subtotal: 37.00, Tax: 2.96, Shipping: 5.00, Total: 44.96, Currency: "USD",
		Status: domain.StatusPaymentPending,
		BillingAddress: domain.Address{
			FullName: "Jordan Avery", AddressLine1: "123 Roast Ln", City: "Portland",
			StateProvince: "OR", PostalCode: "97201", Country: "US",
		},
		Active: true,
	}
	require.NoError(t, s.CreateOrder(context.Background(), order))
	return order
}

func createdEventMsg(t *testing.T) queue.Message {
	t.Helper()
	body, err := json.Marshal(domain.CreatedEvent{OrderID: "order-1", TenantID: "tenant-a"})
	require.NoError(t, err)
	return queue.Message{ID: "1", Body: body}
}

func newInvoiceConsumer(t *testing.T, s *store.MemoryStore, content storage.Storage) *InvoiceConsumer {
	t.Helper()
	renderer, err := invoice.NewHTMLRenderer()
	require.NoError(t, err)
	return NewInvoiceConsumer(s, content, renderer, zerolog.Nop())
}

func TestInvoiceConsumer_Handle(t *testing.T) {
	s := store.NewMemoryStore()
	seedCreatedOrder(t, s)
	content := storage.NewMemoryStorage()
	c := newInvoiceConsumer(t, s, content)

	require.NoError(t, c.Handle(context.Background(), createdEventMsg(t)))

	key := invoice.ArtifactKey("tenant-a", "order-1")
	exists, err := content.Exists(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, exists)

	order, err := s.GetOrder(context.Background(), "tenant-a", "order-1")
	require.NoError(t, err)
	assert.Equal(t, "memory://"+key, order.PDFURL)
	assert.Equal(t, int64(2), order.Version)
	assert.Equal(t, "system:invoice", order.LastUpdatedBy)
}

func TestInvoiceConsumer_Idempotent(t *testing.T) {
	s := store.NewMemoryStore()
	seedCreatedOrder(t, s)
	content := storage.NewMemoryStorage()
	c := newInvoiceConsumer(t, s, content)

	require.NoError(t, c.Handle(context.Background(), createdEventMsg(t)))
	require.NoError(t, c.Handle(context.Background(), createdEventMsg(t)))

	// The second delivery short-circuits without another writeback.
	order, err := s.GetOrder(context.Background(), "tenant-a", "order-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), order.Version)
}

func TestInvoiceConsumer_RegeneratesLostArtifact(t *testing.T) {
	s := store.NewMemoryStore()
	seedCreatedOrder(t, s)
	content := storage.NewMemoryStorage()
	c := newInvoiceConsumer(t, s, content)

	require.NoError(t, c.Handle(context.Background(), createdEventMsg(t)))

	// The order links an invoice the content store no longer has.
	key := invoice.ArtifactKey("tenant-a", "order-1")
	require.NoError(t, content.Delete(context.Background(), key))

	require.NoError(t, c.Handle(context.Background(), createdEventMsg(t)))
	exists, err := content.Exists(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestInvoiceConsumer_MissingOrderIsRetryable(t *testing.T) {
	c := newInvoiceConsumer(t, store.NewMemoryStore(), storage.NewMemoryStorage())

	err := c.Handle(context.Background(), createdEventMsg(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	// Not-found is not a permanent rejection: the event may have outrun
	// the creation consumer's write.
	assert.NotEqual(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestInvoiceConsumer_RetriesAfterVersionConflict(t *testing.T) {
	s := store.NewMemoryStore()
	seedCreatedOrder(t, s)
	content := storage.NewMemoryStorage()
	renderer, err := invoice.NewHTMLRenderer()
	require.NoError(t, err)

	// Another writer bumps the version after the consumer has loaded the
	// order, forcing the first writeback to lose.
	raced := false
	c := NewInvoiceConsumer(s, content, &racingRenderer{
		inner: renderer,
		onRender: func() {
			if raced {
				return
			}
			raced = true
			paid := domain.StatusPaid
			_, err := s.UpdateOrder(context.Background(), "tenant-a", "order-1",
				store.FieldChanges{Status: &paid}, 1, "user:ops")
			require.NoError(t, err)
		},
	}, zerolog.Nop())

	require.NoError(t, c.Handle(context.Background(), createdEventMsg(t)))

	order, err := s.GetOrder(context.Background(), "tenant-a", "order-1")
	require.NoError(t, err)
	assert.NotEmpty(t, order.PDFURL)
	assert.Equal(t, domain.StatusPaid, order.Status)
}

type racingRenderer struct {
	inner    invoice.Renderer
	onRender func()
}

func (r *racingRenderer) Render(order *domain.Order) ([]byte, error) {
	r.onRender()
	return r.inner.Render(order)
}

func (r *racingRenderer) ContentType() string {
	return r.inner.ContentType()
}
