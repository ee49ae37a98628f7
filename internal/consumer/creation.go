// Package consumer implements the worker side of the pipeline: the creation
// consumer that turns queued requests into persisted orders, and the three
// fan-out consumers that react to the created event. Every handler is
// idempotent because the queue delivers at least once.
package consumer

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/dukerupert/vanir/internal/cart"
	"github.com/dukerupert/vanir/internal/domain"
	"github.com/dukerupert/vanir/internal/queue"
	"github.com/dukerupert/vanir/internal/store"
	"github.com/dukerupert/vanir/internal/telemetry"
)

// CreationConsumer materializes orders from creation requests.
type CreationConsumer struct {
	store     store.Store
	carts     cart.Service
	publisher queue.Publisher
	logger    zerolog.Logger
	now       func() time.Time
}

// NewCreationConsumer creates the creation consumer.
func NewCreationConsumer(s store.Store, carts cart.Service, publisher queue.Publisher, logger zerolog.Logger) *CreationConsumer {
	return &CreationConsumer{
		store:     s,
		carts:     carts,
		publisher: publisher,
		logger:    logger.With().Str("consumer", "order-creation").Logger(),
		now:       time.Now,
	}
}

// Handle processes one creation request: resolve the cart, mint the order
// number, persist the order, publish the created event.
//
// A redelivered request hits the write-once insert, which reports the order
// as already existing; that is treated as success and the event is published
// again, leaning on the fan-out consumers' own idempotency.
func (c *CreationConsumer) Handle(ctx context.Context, msg queue.Message) error {
	const op = "consumer.create_order"

	var req domain.CreationRequest
	if err := msg.Decode(&req); err != nil {
		return err
	}
	req.CustomerEmail = domain.NormalizeEmail(req.CustomerEmail)
	if err := req.Validate(); err != nil {
		return err
	}

	logger := c.logger.With().
		Str("tenant_id", req.TenantID).
		Str("order_id", req.OrderID).
		Logger()

	resolved, err := c.carts.GetCart(ctx, req.TenantID, req.CartID)
	if err != nil {
		return err
	}

	// Minted before the insert; a duplicate delivery wastes the number,
	// leaving a gap in the sequence, which the numbering contract allows.
	orderNumber, err := c.store.NextOrderNumber(ctx, req.TenantID)
	if err != nil {
		return err
	}

	order := c.assemble(&req, resolved, orderNumber)
	if err := order.Validate(); err != nil {
		return err
	}

	err = c.store.CreateOrder(ctx, order)
	switch {
	case errors.Is(err, domain.ErrOrderExists):
		logger.Info().Msg("order already exists, treating as success")
	case err != nil:
		return err
	default:
		telemetry.RecordOrderCreated(order.TenantID, order.Total)
		logger.Info().Str("order_number", orderNumber).Msg("order persisted")
	}

	event := domain.CreatedEvent{OrderID: order.ID, TenantID: order.TenantID}
	if err := c.publisher.Publish(ctx, queue.SubjectOrderCreated, event); err != nil {
		// The insert is idempotent, so redelivering the whole request to
		// retry the publish is safe.
		return domain.WrapError(err, domain.ErrorCode(err), op, "failed to publish created event")
	}

	return nil
}

func (c *CreationConsumer) assemble(req *domain.CreationRequest, resolved *cart.Cart, orderNumber string) *domain.Order {
	now := c.now().UTC()

	return &domain.Order{
		ID:              req.OrderID,
		OrderNumber:     orderNumber,
		TenantID:        req.TenantID,
		CustomerEmail:   req.CustomerEmail,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		Items:           resolved.Items,
		Subtotal:        resolved.Subtotal,
		Tax:             resolved.Tax,
		Shipping:        resolved.Shipping,
		Discount:        resolved.Discount,
		Total:           resolved.Total,
		Currency:        resolved.Currency,
		Status:          domain.StatusPaymentPending,
		Campaign:        req.Campaign,
		BillingAddress:  *req.BillingAddress,
		PaymentMethod:   req.PaymentMethod,
		DateCreated:     now,
		DateLastUpdated: now,
		LastUpdatedBy:   "system:order-creation",
		Active:          true,
	}
}
