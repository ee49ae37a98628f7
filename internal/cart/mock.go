package cart

import "context"

// MockService is a test double for Service.
type MockService struct {
	GetCartFn func(ctx context.Context, tenantID, cartID string) (*Cart, error)
}

func (m *MockService) GetCart(ctx context.Context, tenantID, cartID string) (*Cart, error) {
	return m.GetCartFn(ctx, tenantID, cartID)
}
