package domain

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusPaymentPending OrderStatus = "payment_pending"
	StatusPaid           OrderStatus = "paid"
	StatusProcessing     OrderStatus = "processing"
	StatusCompleted      OrderStatus = "completed"
	StatusCancelled      OrderStatus = "cancelled"
	StatusRefunded       OrderStatus = "refunded"
)

// validTransitions is the full transition table. Cancellation from any
// non-terminal state is handled separately in ValidateTransition.
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:        {StatusPaymentPending, StatusPaid, StatusCancelled},
	StatusPaymentPending: {StatusPaid, StatusCancelled},
	StatusPaid:           {StatusProcessing, StatusCancelled},
	StatusProcessing:     {StatusCompleted, StatusCancelled},
}

// IsValid reports whether s is a known order status.
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusPaymentPending, StatusPaid, StatusProcessing,
		StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// IsTerminal reports whether s permits no further transitions.
// Terminal orders reject every status or payment-detail change.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// AllowsPaymentDetails reports whether payment details may be attached while
// the order is (or is becoming) this status.
func (s OrderStatus) AllowsPaymentDetails() bool {
	return s == StatusPaymentPending || s == StatusPaid
}

// ValidateTransition checks that current -> requested is a legal status
// transition. A same-state "transition" is a no-op success. Cancellation is
// allowed from any non-terminal state. Terminal states reject everything.
func ValidateTransition(current, requested OrderStatus) error {
	if !requested.IsValid() {
		return Errorf(EINVALID, "order.transition", "unknown status: %s", requested)
	}

	if current == requested {
		return nil
	}

	if current.IsTerminal() {
		return WrapSentinel(ErrInvalidOrderState, "order.transition",
			Errorf(EINVALID, "", "order is %s and cannot change status", current))
	}

	if requested == StatusCancelled {
		return nil
	}

	for _, next := range validTransitions[current] {
		if next == requested {
			return nil
		}
	}

	return WrapSentinel(ErrInvalidOrderState, "order.transition",
		Errorf(EINVALID, "", "invalid status transition from %s to %s", current, requested))
}
