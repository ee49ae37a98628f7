package consumer

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dukerupert/vanir/internal/domain"
	"github.com/dukerupert/vanir/internal/email"
	"github.com/dukerupert/vanir/internal/queue"
	"github.com/dukerupert/vanir/internal/store"
)

// ConfirmationConsumer sends the customer-facing order confirmation.
type ConfirmationConsumer struct {
	store  store.Store
	emails *email.Service
	logger zerolog.Logger
}

// NewConfirmationConsumer creates the customer-confirmation consumer.
func NewConfirmationConsumer(s store.Store, emails *email.Service, logger zerolog.Logger) *ConfirmationConsumer {
	return &ConfirmationConsumer{
		store:  s,
		emails: emails,
		logger: logger.With().Str("consumer", "confirmation").Logger(),
	}
}

// Handle sends the confirmation email for one created event.
func (c *ConfirmationConsumer) Handle(ctx context.Context, msg queue.Message) error {
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

	return c.emails.SendCustomerConfirmation(ctx, email.CustomerConfirmation{
		Order:      order,
		InvoiceURL: order.PDFURL,
	})
}
