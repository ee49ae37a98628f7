package email

import (
	"context"
	"sync"
)

// MockSender records sent emails for tests.
type MockSender struct {
	mu   sync.Mutex
	sent []*Email

	// SendFn overrides the default record-and-succeed behavior.
	SendFn func(ctx context.Context, email *Email) (string, error)
}

func (m *MockSender) Send(ctx context.Context, email *Email) (string, error) {
	if m.SendFn != nil {
		return m.SendFn(ctx, email)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, email)
	return "mock-message-id", nil
}

// Sent returns a copy of every captured email.
func (m *MockSender) Sent() []*Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Email, len(m.sent))
	copy(out, m.sent)
	return out
}
