// Package store provides single-table keyed persistence for orders: point
// lookup, write-once insert, conditional update, and the atomic per-tenant
// order-number counter. All cross-worker coordination in the pipeline rests
// on the two atomicity guarantees this package exposes.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/vanir/internal/domain"
)

// FieldChanges is the partial update applied by a conditional write. Nil
// fields are left untouched. The store stamps dateLastUpdated and
// lastUpdatedBy alongside the changes in the same atomic operation.
type FieldChanges struct {
	Status         *domain.OrderStatus
	PaymentDetails *domain.PaymentDetails
	PDFURL         *string
	Active         *bool
}

// Empty reports whether the change set carries nothing to write.
func (c FieldChanges) Empty() bool {
	return c.Status == nil && c.PaymentDetails == nil && c.PDFURL == nil && c.Active == nil
}

// Store is the order persistence contract.
//
// UpdateOrder is the only legal mutation path after creation: it applies the
// change set only if the stored version still equals expectedVersion, and on
// success increments the version and stamps the audit fields atomically with
// the changes. NextOrderNumber is linearizable: no two calls for the same
// tenant and day ever return the same value.
type Store interface {
	// GetOrder returns the order for (tenantID, orderID) or ErrOrderNotFound.
	GetOrder(ctx context.Context, tenantID, orderID string) (*domain.Order, error)

	// CreateOrder inserts a new order. Returns ErrOrderExists if the key is
	// already present, which callers on the async path treat as idempotent
	// success.
	CreateOrder(ctx context.Context, order *domain.Order) error

	// UpdateOrder applies changes conditionally on expectedVersion. Returns
	// ErrOrderNotFound if the key is absent and ErrVersionConflict if the
	// stored version has moved on. Never silently retried here.
	UpdateOrder(ctx context.Context, tenantID, orderID string, changes FieldChanges, expectedVersion int64, updatedBy string) (*domain.Order, error)

	// NextOrderNumber atomically increments the per-tenant-per-day counter
	// and formats ORD-{YYYYMMDD}-{seq:05d}.
	NextOrderNumber(ctx context.Context, tenantID string) (string, error)
}

// FormatOrderNumber renders an order number from its parts.
func FormatOrderNumber(day time.Time, seq int64) string {
	return fmt.Sprintf("ORD-%s-%05d", day.UTC().Format("20060102"), seq)
}
