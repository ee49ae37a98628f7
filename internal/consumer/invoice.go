package consumer

import (
	"bytes"
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/dukerupert/vanir/internal/domain"
	"github.com/dukerupert/vanir/internal/invoice"
	"github.com/dukerupert/vanir/internal/queue"
	"github.com/dukerupert/vanir/internal/storage"
	"github.com/dukerupert/vanir/internal/store"
	"github.com/dukerupert/vanir/internal/telemetry"
)

// writebackAttempts bounds the render/write cycle when concurrent updates
// keep moving the order's version.
const writebackAttempts = 3

// InvoiceConsumer renders the invoice artifact for a created order and links
// it on the order record.
type InvoiceConsumer struct {
	store    store.Store
	content  storage.Storage
	renderer invoice.Renderer
	logger   zerolog.Logger
}

// NewInvoiceConsumer creates the invoice consumer.
func NewInvoiceConsumer(s store.Store, content storage.Storage, renderer invoice.Renderer, logger zerolog.Logger) *InvoiceConsumer {
	return &InvoiceConsumer{
		store:    s,
		content:  content,
		renderer: renderer,
		logger:   logger.With().Str("consumer", "invoice").Logger(),
	}
}

// Handle processes one created event. Completion is judged by two marks: the
// artifact in the content store and the pdfUrl on the order. Only when both
// are present is the message a pure no-op; otherwise the handler converges
// toward that state and is safe to redeliver at any intermediate point.
func (c *InvoiceConsumer) Handle(ctx context.Context, msg queue.Message) error {
	const op = "consumer.invoice"

	var event domain.CreatedEvent
	if err := msg.Decode(&event); err != nil {
		return err
	}
	if err := event.Validate(); err != nil {
		return err
	}

	logger := c.logger.With().
		Str("tenant_id", event.TenantID).
		Str("order_id", event.OrderID).
		Logger()

	key := invoice.ArtifactKey(event.TenantID, event.OrderID)

	// The event can outrun the order record; not-found is retryable.
	order, err := c.store.GetOrder(ctx, event.TenantID, event.OrderID)
	if err != nil {
		return err
	}

	for attempt := 0; attempt < writebackAttempts; attempt++ {
		if order.PDFURL != "" {
			exists, err := c.content.Exists(ctx, key)
			if err != nil {
				return err
			}
			if exists {
				logger.Debug().Msg("invoice already generated")
				return nil
			}
			// Link without artifact: a previous run died between the
			// writeback and a lost upload, or the store was wiped.
			// Re-render below.
		}

		doc, err := c.renderer.Render(order)
		if err != nil {
			return err
		}

		url, err := c.content.Put(ctx, key, bytes.NewReader(doc), c.renderer.ContentType())
		if err != nil {
			return err
		}

		_, err = c.store.UpdateOrder(ctx, event.TenantID, event.OrderID,
			store.FieldChanges{PDFURL: &url}, order.Version, "system:invoice")
		if err == nil {
			telemetry.RecordInvoiceRendered(event.TenantID)
			logger.Info().Str("invoice_url", url).Msg("invoice generated")
			return nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}

		// Someone else touched the order mid-flight. Reload and re-render so
		// the stored artifact reflects the order as written.
		order, err = c.store.GetOrder(ctx, event.TenantID, event.OrderID)
		if err != nil {
			return err
		}
		logger.Debug().Int("attempt", attempt+1).Msg("invoice writeback lost a race, retrying")
	}

	return domain.Unavailable(nil, op, "invoice writeback kept losing races")
}
