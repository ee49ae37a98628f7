// Package service holds the order application logic shared by the HTTP edge
// and the webhook translator.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dukerupert/vanir/internal/domain"
	"github.com/dukerupert/vanir/internal/queue"
	"github.com/dukerupert/vanir/internal/store"
)

// UpdateRequest is a partial order update. Nil fields are untouched.
type UpdateRequest struct {
	Status         *domain.OrderStatus
	PaymentDetails *domain.PaymentDetails
	Active         *bool

	// ExpectedVersion, when positive, is the version the caller read.
	// Zero means "the version current at load time".
	ExpectedVersion int64

	// UpdatedBy identifies the actor for the audit stamp.
	UpdatedBy string
}

// Empty reports whether the request carries no changes.
func (r UpdateRequest) Empty() bool {
	return r.Status == nil && r.PaymentDetails == nil && r.Active == nil
}

// OrderService exposes the order operations: read, request creation, update.
// Creation is asynchronous: RequestCreation only validates and enqueues, and
// the creation consumer owns persistence.
type OrderService struct {
	store     store.Store
	publisher queue.Publisher
	logger    zerolog.Logger
}

// NewOrderService creates the order service.
func NewOrderService(s store.Store, publisher queue.Publisher, logger zerolog.Logger) *OrderService {
	return &OrderService{
		store:     s,
		publisher: publisher,
		logger:    logger.With().Str("component", "order_service").Logger(),
	}
}

// GetOrder returns one order.
func (s *OrderService) GetOrder(ctx context.Context, tenantID, orderID string) (*domain.Order, error) {
	return s.store.GetOrder(ctx, tenantID, orderID)
}

// RequestCreation validates a creation request and places it on the creation
// queue. The order id is minted here so the caller can poll for the result;
// the order itself does not exist until the consumer persists it.
func (s *OrderService) RequestCreation(ctx context.Context, req *domain.CreationRequest) (*domain.CreationRequest, error) {
	const op = "service.request_creation"

	if req.OrderID == "" {
		req.OrderID = uuid.NewString()
	}
	req.CustomerEmail = domain.NormalizeEmail(req.CustomerEmail)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, queue.SubjectOrderRequest, req); err != nil {
		return nil, domain.WrapError(err, domain.ErrorCode(err), op, "failed to enqueue creation request")
	}

	s.logger.Info().
		Str("tenant_id", req.TenantID).
		Str("order_id", req.OrderID).
		Msg("creation request enqueued")
	return req, nil
}

// UpdateOrder applies a partial update with optimistic concurrency.
//
// The order is loaded first so business rules run against current state, then
// the write is conditional on the version: if another writer lands between
// the load and the write, the store reports ErrVersionConflict and this
// method surfaces it untouched rather than retrying. Retrying silently would
// revalidate against state the caller never saw.
func (s *OrderService) UpdateOrder(ctx context.Context, tenantID, orderID string, req UpdateRequest) (*domain.Order, error) {
	const op = "service.update_order"

	if req.Empty() {
		return nil, domain.WrapSentinel(domain.ErrEmptyUpdate, op, nil)
	}

	order, err := s.store.GetOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	expected := req.ExpectedVersion
	if expected == 0 {
		expected = order.Version
	}

	// Terminal orders reject every update, including one restating the
	// current status, so the check cannot be left to the transition table's
	// same-state no-op.
	if order.Status.IsTerminal() {
		return nil, domain.WrapSentinel(domain.ErrInvalidOrderState, op,
			domain.Errorf(domain.EINVALID, "", "order is %s and cannot be modified", order.Status))
	}

	if req.Status != nil {
		if err := domain.ValidateTransition(order.Status, *req.Status); err != nil {
			return nil, err
		}
	}

	if req.PaymentDetails != nil {
		// Payment details attach to the status the order will have after
		// this update.
		effective := order.Status
		if req.Status != nil {
			effective = *req.Status
		}
		if !effective.AllowsPaymentDetails() {
			return nil, domain.Invalid(op,
				"payment details require payment_pending or paid status")
		}
		if err := domain.ValidateStruct(op, req.PaymentDetails); err != nil {
			return nil, err
		}
		if req.PaymentDetails.PaidAt == nil && effective == domain.StatusPaid {
			now := time.Now().UTC()
			req.PaymentDetails.PaidAt = &now
		}
	}

	updatedBy := req.UpdatedBy
	if updatedBy == "" {
		updatedBy = "system:order-update"
	}

	updated, err := s.store.UpdateOrder(ctx, tenantID, orderID, store.FieldChanges{
		Status:         req.Status,
		PaymentDetails: req.PaymentDetails,
		Active:         req.Active,
	}, expected, updatedBy)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("tenant_id", tenantID).
		Str("order_id", orderID).
		Int64("version", updated.Version).
		Msg("order updated")
	return updated, nil
}
