package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"github.com/dukerupert/vanir/internal/domain"
	"github.com/dukerupert/vanir/internal/telemetry"
)

// StreamName holds both order subjects. Limits retention (not work-queue)
// because orders.created fans out to three independent durable consumers.
const StreamName = "ORDERS"

// SetupStream creates or updates the orders stream. Safe to call from every
// process at startup.
func SetupStream(ctx context.Context, js jetstream.JetStream) (jetstream.Stream, error) {
	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{"orders.>"},
		Storage:  jetstream.FileStorage,
		MaxAge:   7 * 24 * time.Hour,
	})
	if err != nil {
		return nil, domain.Unavailable(err, "queue.setup_stream", "failed to create orders stream")
	}
	return stream, nil
}

// NATSPublisher publishes JSON-encoded messages through JetStream.
type NATSPublisher struct {
	js     jetstream.JetStream
	logger zerolog.Logger
}

// NewNATSPublisher creates a JetStream-backed publisher.
func NewNATSPublisher(js jetstream.JetStream, logger zerolog.Logger) *NATSPublisher {
	return &NATSPublisher{
		js:     js,
		logger: logger.With().Str("component", "publisher").Logger(),
	}
}

// Publish encodes v as JSON and publishes it to subject, waiting for the
// stream acknowledgment.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, v any) error {
	const op = "queue.publish"

	data, err := json.Marshal(v)
	if err != nil {
		return domain.Internal(err, op, "failed to encode message")
	}

	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return domain.Unavailable(err, op, "failed to publish message")
	}

	p.logger.Debug().Str("subject", subject).Msg("message published")
	return nil
}

// ConsumerConfig describes one durable consumer on the orders stream.
type ConsumerConfig struct {
	// Name is the durable name, also used as the metrics label.
	Name string

	// Subject filters which stream messages this consumer receives.
	Subject string

	// BatchSize caps how many messages one poll fetches.
	BatchSize int

	// AckWait is how long the server waits for an ack before redelivering.
	AckWait time.Duration

	// MaxDeliver bounds redelivery of a persistently failing message.
	MaxDeliver int
}

// Runner polls a durable consumer and feeds fetched batches through
// ProcessBatch. Retryable failures are negatively acknowledged so the server
// redelivers them after AckWait; permanent rejections are terminated.
type Runner struct {
	cfg      ConsumerConfig
	consumer jetstream.Consumer
	handle   Handler
	logger   zerolog.Logger
	metrics  *telemetry.ConsumerMetrics
}

// NewRunner binds a durable consumer on the stream and prepares it to run.
func NewRunner(ctx context.Context, stream jetstream.Stream, cfg ConsumerConfig, handle Handler, logger zerolog.Logger, metrics *telemetry.ConsumerMetrics) (*Runner, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.AckWait <= 0 {
		cfg.AckWait = 30 * time.Second
	}
	if cfg.MaxDeliver <= 0 {
		cfg.MaxDeliver = 5
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       cfg.Name,
		FilterSubject: cfg.Subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       cfg.AckWait,
		MaxDeliver:    cfg.MaxDeliver,
	})
	if err != nil {
		return nil, domain.Unavailable(err, "queue.new_runner", "failed to create durable consumer")
	}

	return &Runner{
		cfg:      cfg,
		consumer: consumer,
		handle:   handle,
		logger:   logger.With().Str("consumer", cfg.Name).Logger(),
		metrics:  metrics,
	}, nil
}

// Run polls until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info().Str("subject", r.cfg.Subject).Msg("consumer started")

	for {
		if err := ctx.Err(); err != nil {
			r.logger.Info().Msg("consumer stopped")
			return nil
		}

		if err := r.poll(ctx); err != nil {
			r.logger.Error().Err(err).Msg("poll failed")
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
			}
		}
	}
}

// poll fetches one batch and dispatches the acks.
func (r *Runner) poll(ctx context.Context) error {
	batch, err := r.consumer.Fetch(r.cfg.BatchSize, jetstream.FetchMaxWait(5*time.Second))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	}

	var (
		msgs    []Message
		deliver = make(map[string]jetstream.Msg)
		idx     int
	)
	for msg := range batch.Messages() {
		id := messageID(msg, idx)
		idx++
		msgs = append(msgs, Message{ID: id, Body: msg.Data()})
		deliver[id] = msg
	}
	if err := batch.Error(); err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	r.metrics.BatchSize.Observe(float64(len(msgs)))
	result := ProcessBatch(ctx, r.logger, msgs, r.handle)

	failed := make(map[string]bool, len(result.Failed))
	for _, id := range result.Failed {
		failed[id] = true
	}
	rejected := make(map[string]bool, len(result.Rejected))
	for _, id := range result.Rejected {
		rejected[id] = true
	}

	for id, msg := range deliver {
		switch {
		case failed[id]:
			r.metrics.Retried.WithLabelValues(r.cfg.Name).Inc()
			if err := msg.Nak(); err != nil {
				r.logger.Error().Err(err).Str("message_id", id).Msg("nak failed")
			}
		case rejected[id]:
			r.metrics.Rejected.WithLabelValues(r.cfg.Name).Inc()
			if err := msg.Term(); err != nil {
				r.logger.Error().Err(err).Str("message_id", id).Msg("term failed")
			}
		default:
			r.metrics.Processed.WithLabelValues(r.cfg.Name).Inc()
			if err := msg.Ack(); err != nil {
				r.logger.Error().Err(err).Str("message_id", id).Msg("ack failed")
			}
		}
	}

	return nil
}

// messageID derives a stable delivery id from the stream sequence. Without
// metadata the batch index keeps ids unique, so two fallback messages never
// collapse into one deliver-map entry.
func messageID(msg jetstream.Msg, idx int) string {
	meta, err := msg.Metadata()
	if err != nil {
		return fmt.Sprintf("%s-%d", msg.Subject(), idx)
	}
	return strconv.FormatUint(meta.Sequence.Stream, 10)
}
