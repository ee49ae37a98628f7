package consumer

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dukerupert/vanir/internal/domain"
	"github.com/dukerupert/vanir/internal/email"
	"github.com/dukerupert/vanir/internal/queue"
	"github.com/dukerupert/vanir/internal/store"
)

// NotificationConsumer alerts the fulfillment team about created orders.
type NotificationConsumer struct {
	store  store.Store
	emails *email.Service
	logger zerolog.Logger
}

// NewNotificationConsumer creates the internal-notification consumer.
func NewNotificationConsumer(s store.Store, emails *email.Service, logger zerolog.Logger) *NotificationConsumer {
	return &NotificationConsumer{
		store:  s,
		emails: emails,
		logger: logger.With().Str("consumer", "notification").Logger(),
	}
}

// Handle sends the internal notification for one created event.
func (c *NotificationConsumer) Handle(ctx context.Context, msg queue.Message) error {
	var event domain.CreatedEvent
	if err := msg.Decode(&event); err != nil {
		return err
	}
	if err := event.Validate(); err != nil {
		return err
	}

	// The event can outrun the order record; not-found is retryable.
	order, err := c.store.GetOrder(ctx, event.TenantID, event.OrderID)
	if err != nil {
		return err
	}

	return c.emails.SendInternalNotification(ctx, email.InternalNotification{
		Order:      order,
		InvoiceURL: order.PDFURL,
	})
}
