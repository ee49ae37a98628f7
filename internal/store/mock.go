package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dukerupert/vanir/internal/domain"
)

// MemoryStore is an in-memory Store used by tests and local development.
// It honors the same contract as PostgresStore: write-once inserts,
// version-checked updates, and a linearizable per-tenant-per-day counter.
type MemoryStore struct {
	mu       sync.Mutex
	orders   map[string]*domain.Order
	counters map[string]int64

	// Now is swappable so tests can pin the day boundary of order numbers.
	Now func() time.Time

	// Failures let tests inject collaborator-style errors per operation.
	GetErr    error
	CreateErr error
	UpdateErr error
	NumberErr error
}

// NewMemoryStore creates an empty in-memory order store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:   make(map[string]*domain.Order),
		counters: make(map[string]int64),
		Now:      time.Now,
	}
}

func orderKey(tenantID, orderID string) string {
	return tenantID + "/" + orderID
}

// clone deep-copies an order so callers never share memory with the store.
func clone(o *domain.Order) *domain.Order {
	raw, _ := json.Marshal(o)
	var out domain.Order
	_ = json.Unmarshal(raw, &out)
	return &out
}

// GetOrder returns the order for (tenantID, orderID) or ErrOrderNotFound.
func (s *MemoryStore) GetOrder(ctx context.Context, tenantID, orderID string) (*domain.Order, error) {
	if s.GetErr != nil {
		return nil, s.GetErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderKey(tenantID, orderID)]
	if !ok {
		return nil, domain.WrapSentinel(domain.ErrOrderNotFound, "memstore.get_order", nil)
	}
	return clone(o), nil
}

// CreateOrder inserts a new order, failing with ErrOrderExists on duplicates.
func (s *MemoryStore) CreateOrder(ctx context.Context, order *domain.Order) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := orderKey(order.TenantID, order.ID)
	if _, ok := s.orders[key]; ok {
		return domain.WrapSentinel(domain.ErrOrderExists, "memstore.create_order", nil)
	}

	order.Version = 1
	s.orders[key] = clone(order)
	return nil
}

// UpdateOrder applies changes if and only if the stored version matches.
func (s *MemoryStore) UpdateOrder(ctx context.Context, tenantID, orderID string, changes FieldChanges, expectedVersion int64, updatedBy string) (*domain.Order, error) {
	if s.UpdateErr != nil {
		return nil, s.UpdateErr
	}

	if changes.Empty() {
		return nil, domain.WrapSentinel(domain.ErrEmptyUpdate, "memstore.update_order", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderKey(tenantID, orderID)]
	if !ok {
		return nil, domain.WrapSentinel(domain.ErrOrderNotFound, "memstore.update_order", nil)
	}
	if o.Version != expectedVersion {
		return nil, domain.WrapSentinel(domain.ErrVersionConflict, "memstore.update_order", nil)
	}

	if changes.Status != nil {
		o.Status = *changes.Status
	}
	if changes.PaymentDetails != nil {
		o.PaymentDetails = changes.PaymentDetails
	}
	if changes.PDFURL != nil {
		o.PDFURL = *changes.PDFURL
	}
	if changes.Active != nil {
		o.Active = *changes.Active
	}
	o.Version++
	o.DateLastUpdated = s.Now().UTC()
	o.LastUpdatedBy = updatedBy

	return clone(o), nil
}

// NextOrderNumber increments the per-tenant-per-day counter under the lock.
func (s *MemoryStore) NextOrderNumber(ctx context.Context, tenantID string) (string, error) {
	if s.NumberErr != nil {
		return "", s.NumberErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	day := s.Now().UTC()
	key := tenantID + "/" + day.Format("20060102")
	s.counters[key]++
	return FormatOrderNumber(day, s.counters[key]), nil
}
