// Package webhook translates payment-provider events into order updates.
package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"

	"github.com/dukerupert/vanir/internal/domain"
	"github.com/dukerupert/vanir/internal/service"
	"github.com/dukerupert/vanir/internal/telemetry"
)

// StripeHandler turns Stripe payment events into order status updates.
// Payment intents carry tenant_id and order_id in their metadata.
type StripeHandler struct {
	orders *service.OrderService
	secret string
	logger zerolog.Logger
}

// NewStripeHandler creates the Stripe webhook handler.
func NewStripeHandler(orders *service.OrderService, secret string, logger zerolog.Logger) *StripeHandler {
	return &StripeHandler{
		orders: orders,
		secret: secret,
		logger: logger.With().Str("component", "stripe_webhook").Logger(),
	}
}

// Handle processes POST /webhooks/stripe.
//
// Processing failures still return 200: Stripe's retry cadence is not a
// useful recovery path for a version conflict or a bad transition, and those
// are logged for investigation instead.
func (h *StripeHandler) Handle(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "failed to read body"})
	}

	// The account's webhook API version rarely matches the SDK's pinned one,
	// so the version check is relaxed. Caveat: fields that changed shape
	// between versions may deserialize zero-valued; the handlers only read
	// intent id, metadata, and last_payment_error, which are stable.
	event, err := stripewebhook.ConstructEventWithOptions(payload,
		c.Request().Header.Get("Stripe-Signature"), h.secret,
		stripewebhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		h.logger.Warn().Err(err).Msg("webhook signature verification failed")
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid signature"})
	}

	var procErr error
	switch string(event.Type) {
	case "payment_intent.succeeded":
		procErr = h.handlePaymentSucceeded(c, event)
	case "payment_intent.canceled":
		procErr = h.handlePaymentCanceled(c, event)
	case "payment_intent.payment_failed":
		h.handlePaymentFailed(event)
	default:
		h.logger.Debug().Str("event_type", string(event.Type)).Msg("ignoring event")
	}
	telemetry.RecordWebhook(string(event.Type), procErr)

	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}

func (h *StripeHandler) handlePaymentSucceeded(c echo.Context, event stripe.Event) error {
	intent, tenantID, orderID, ok := h.parseIntent(event)
	if !ok {
		return nil
	}

	paid := domain.StatusPaid
	now := time.Now().UTC()
	_, err := h.orders.UpdateOrder(c.Request().Context(), tenantID, orderID, service.UpdateRequest{
		Status: &paid,
		PaymentDetails: &domain.PaymentDetails{
			Method:        "stripe",
			TransactionID: intent.ID,
			PaidAt:        &now,
		},
		UpdatedBy: "system:stripe-webhook",
	})
	if err != nil {
		// A redelivered event for an already-paid order is a same-state
		// no-op and succeeds above; anything else is worth a look.
		h.logger.Error().Err(err).
			Str("tenant_id", tenantID).
			Str("order_id", orderID).
			Str("payment_intent", intent.ID).
			Msg("failed to mark order paid")
		return err
	}

	h.logger.Info().
		Str("tenant_id", tenantID).
		Str("order_id", orderID).
		Str("payment_intent", intent.ID).
		Msg("order marked paid")
	return nil
}

func (h *StripeHandler) handlePaymentCanceled(c echo.Context, event stripe.Event) error {
	intent, tenantID, orderID, ok := h.parseIntent(event)
	if !ok {
		return nil
	}

	cancelled := domain.StatusCancelled
	_, err := h.orders.UpdateOrder(c.Request().Context(), tenantID, orderID, service.UpdateRequest{
		Status:    &cancelled,
		UpdatedBy: "system:stripe-webhook",
	})
	if err != nil && !errors.Is(err, domain.ErrInvalidOrderState) {
		h.logger.Error().Err(err).
			Str("tenant_id", tenantID).
			Str("order_id", orderID).
			Str("payment_intent", intent.ID).
			Msg("failed to cancel order")
		return err
	}

	h.logger.Info().
		Str("tenant_id", tenantID).
		Str("order_id", orderID).
		Msg("order cancelled after payment cancellation")
	return nil
}

func (h *StripeHandler) handlePaymentFailed(event stripe.Event) {
	intent, tenantID, orderID, ok := h.parseIntent(event)
	if !ok {
		return
	}

	// The order stays payment_pending so the customer can retry.
	reason := "unknown"
	if intent.LastPaymentError != nil {
		reason = string(intent.LastPaymentError.Code)
	}
	h.logger.Warn().
		Str("tenant_id", tenantID).
		Str("order_id", orderID).
		Str("payment_intent", intent.ID).
		Str("reason", reason).
		Msg("payment failed")
}

func (h *StripeHandler) parseIntent(event stripe.Event) (*stripe.PaymentIntent, string, string, bool) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		h.logger.Error().Err(err).Str("event_id", event.ID).Msg("failed to parse payment intent")
		return nil, "", "", false
	}

	tenantID := intent.Metadata["tenant_id"]
	orderID := intent.Metadata["order_id"]
	if tenantID == "" || orderID == "" {
		h.logger.Warn().
			Str("payment_intent", intent.ID).
			Msg("payment intent missing tenant_id or order_id metadata")
		return nil, "", "", false
	}

	return &intent, tenantID, orderID, true
}
