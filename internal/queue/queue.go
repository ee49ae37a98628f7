// Package queue carries the pipeline's messages. It defines the transport
// contract and the batch-processing semantics shared by every consumer:
// messages in a batch fail independently, and only retryable failures are
// reported back for redelivery.
package queue

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/dukerupert/vanir/internal/domain"
)

// Subjects for the two message flows. Creation requests arrive on
// SubjectOrderRequest; the creation consumer publishes the derived event on
// SubjectOrderCreated, where the three fan-out consumers each hold their own
// durable subscription.
const (
	SubjectOrderRequest = "orders.request"
	SubjectOrderCreated = "orders.created"
)

// Message is one queue delivery, decoupled from the transport.
type Message struct {
	// ID identifies the delivery for failure reporting and logging.
	ID string

	// Body is the raw JSON payload.
	Body []byte
}

// Decode unmarshals the message body into v.
func (m Message) Decode(v any) error {
	if err := json.Unmarshal(m.Body, v); err != nil {
		return domain.WrapError(err, domain.EINVALID, "queue.decode", "message body is not valid JSON")
	}
	return nil
}

// Publisher sends a message to a subject. The payload is JSON-encoded.
type Publisher interface {
	Publish(ctx context.Context, subject string, v any) error
}

// Handler processes a single message. A nil return acknowledges the message.
// Errors with code EINVALID are permanent: the message is logged and dropped
// because redelivery would fail identically. Any other error marks the
// message failed so the transport redelivers it.
type Handler func(ctx context.Context, msg Message) error

// BatchResult reports the outcome of a batch. Failed lists messages the
// transport should redeliver; Rejected lists messages dropped permanently.
// Everything else is acknowledged.
type BatchResult struct {
	Failed   []string
	Rejected []string
}

// ProcessBatch runs handle over each message in the batch, isolating
// failures. One poison message never blocks its batchmates: every message is
// attempted, and only those with retryable failures appear in the result.
func ProcessBatch(ctx context.Context, logger zerolog.Logger, msgs []Message, handle Handler) BatchResult {
	var result BatchResult

	for _, msg := range msgs {
		err := handle(ctx, msg)
		if err == nil {
			continue
		}

		if domain.ErrorCode(err) == domain.EINVALID {
			logger.Error().
				Err(err).
				Str("message_id", msg.ID).
				Msg("message permanently rejected")
			result.Rejected = append(result.Rejected, msg.ID)
			continue
		}

		logger.Warn().
			Err(err).
			Str("message_id", msg.ID).
			Msg("message failed, will retry")
		result.Failed = append(result.Failed, msg.ID)
	}

	return result
}
