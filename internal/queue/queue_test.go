package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/vanir/internal/domain"
)

func TestMessageDecode(t *testing.T) {
	msg := Message{ID: "1", Body: []byte(`{"orderId":"order-1","tenantId":"tenant-a"}`)}

	var event domain.CreatedEvent
	require.NoError(t, msg.Decode(&event))
	assert.Equal(t, "order-1", event.OrderID)
	assert.Equal(t, "tenant-a", event.TenantID)
}

func TestMessageDecode_Malformed(t *testing.T) {
	msg := Message{ID: "1", Body: []byte(`{not json`)}

	var event domain.CreatedEvent
	err := msg.Decode(&event)
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestProcessBatch_AllSucceed(t *testing.T) {
	msgs := []Message{{ID: "1"}, {ID: "2"}, {ID: "3"}}

	result := ProcessBatch(context.Background(), zerolog.Nop(), msgs, func(ctx context.Context, msg Message) error {
		return nil
	})

	assert.Empty(t, result.Failed)
	assert.Empty(t, result.Rejected)
}

func TestProcessBatch_IsolatesFailures(t *testing.T) {
	msgs := []Message{{ID: "1"}, {ID: "2"}, {ID: "3"}}

	var handled []string
	result := ProcessBatch(context.Background(), zerolog.Nop(), msgs, func(ctx context.Context, msg Message) error {
		handled = append(handled, msg.ID)
		if msg.ID == "2" {
			return domain.Unavailable(errors.New("connection refused"), "test.handle", "store unreachable")
		}
		return nil
	})

	// The failing message does not stop its batchmates.
	assert.Equal(t, []string{"1", "2", "3"}, handled)
	assert.Equal(t, []string{"2"}, result.Failed)
	assert.Empty(t, result.Rejected)
}

func TestProcessBatch_PermanentFailureNotRetried(t *testing.T) {
	msgs := []Message{{ID: "1"}, {ID: "2"}}

	result := ProcessBatch(context.Background(), zerolog.Nop(), msgs, func(ctx context.Context, msg Message) error {
		if msg.ID == "1" {
			return domain.NewValidationError("test.handle", "billingAddress", "is required")
		}
		return nil
	})

	// Validation failures would fail identically on redelivery.
	assert.Empty(t, result.Failed)
	assert.Equal(t, []string{"1"}, result.Rejected)
}

func TestProcessBatch_AllFail(t *testing.T) {
	msgs := []Message{{ID: "1"}, {ID: "2"}}

	result := ProcessBatch(context.Background(), zerolog.Nop(), msgs, func(ctx context.Context, msg Message) error {
		return domain.Unavailable(errors.New("timeout"), "test.handle", "store unreachable")
	})

	assert.Equal(t, []string{"1", "2"}, result.Failed)
}
