package queue

import (
	"context"
	"encoding/json"
	"sync"
)

// MockPublisher records published messages for tests.
type MockPublisher struct {
	mu        sync.Mutex
	published []PublishedMessage

	// PublishFn overrides the default record-and-succeed behavior.
	PublishFn func(ctx context.Context, subject string, v any) error
}

// PublishedMessage is one captured publish call.
type PublishedMessage struct {
	Subject string
	Body    []byte
}

// Publish records the message, or delegates to PublishFn when set.
func (p *MockPublisher) Publish(ctx context.Context, subject string, v any) error {
	if p.PublishFn != nil {
		return p.PublishFn(ctx, subject, v)
	}

	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, PublishedMessage{Subject: subject, Body: body})
	return nil
}

// Published returns a copy of every captured message.
func (p *MockPublisher) Published() []PublishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PublishedMessage, len(p.published))
	copy(out, p.published)
	return out
}
