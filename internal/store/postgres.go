package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/dukerupert/vanir/internal/domain"
)

// uniqueViolation is the Postgres error code for duplicate primary keys.
const uniqueViolation = "23505"

// DB is the subset of pgxpool.Pool the store uses. Narrowing the dependency
// keeps the store testable against a transaction as well as a pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store over a single orders table plus a counter
// table. The order document lives in a JSONB column; the version column is
// the compare-and-swap token and the counter table backs NextOrderNumber's
// atomic increment. No read-then-write anywhere: both coordination
// primitives are single statements.
type PostgresStore struct {
	db     DB
	logger zerolog.Logger

	// now is swappable so tests can pin the day boundary of order numbers.
	now func() time.Time
}

// NewPostgresStore creates a Postgres-backed order store.
func NewPostgresStore(db DB, logger zerolog.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: logger.With().Str("component", "store").Logger(),
		now:    time.Now,
	}
}

// GetOrder returns the order for (tenantID, orderID) or ErrOrderNotFound.
func (s *PostgresStore) GetOrder(ctx context.Context, tenantID, orderID string) (*domain.Order, error) {
	const op = "store.get_order"

	var (
		doc     []byte
		version int64
	)
	err := s.db.QueryRow(ctx,
		`SELECT doc, version FROM orders WHERE tenant_id = $1 AND order_id = $2`,
		tenantID, orderID,
	).Scan(&doc, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.WrapSentinel(domain.ErrOrderNotFound, op, nil)
	}
	if err != nil {
		return nil, domain.WrapError(err, domain.EUNAVAILABLE, op, "failed to read order")
	}

	var order domain.Order
	if err := json.Unmarshal(doc, &order); err != nil {
		return nil, domain.Internal(err, op, "stored order document is corrupt")
	}
	// The column is authoritative for the lock token.
	order.Version = version

	return &order, nil
}

// CreateOrder inserts a new order document. The primary key on
// (tenant_id, order_id) is the write-once guard: a duplicate delivery of the
// same creation message surfaces as ErrOrderExists.
func (s *PostgresStore) CreateOrder(ctx context.Context, order *domain.Order) error {
	const op = "store.create_order"

	order.Version = 1
	doc, err := json.Marshal(order)
	if err != nil {
		return domain.Internal(err, op, "failed to encode order")
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO orders (tenant_id, order_id, version, doc, date_created, date_last_updated)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		order.TenantID, order.ID, order.Version, doc, order.DateCreated, order.DateLastUpdated,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.WrapSentinel(domain.ErrOrderExists, op, nil)
		}
		return domain.WrapError(err, domain.EUNAVAILABLE, op, "failed to insert order")
	}

	s.logger.Info().
		Str("tenant_id", order.TenantID).
		Str("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Msg("order created")

	return nil
}

// UpdateOrder applies a partial update only if the stored version still
// equals expectedVersion. The JSONB merge, the version bump, and the audit
// stamps land in one UPDATE, so a concurrent writer either sees all of it
// or loses the race.
func (s *PostgresStore) UpdateOrder(ctx context.Context, tenantID, orderID string, changes FieldChanges, expectedVersion int64, updatedBy string) (*domain.Order, error) {
	const op = "store.update_order"

	if changes.Empty() {
		return nil, domain.WrapSentinel(domain.ErrEmptyUpdate, op, nil)
	}

	now := s.now().UTC()
	patch := map[string]any{
		"dateLastUpdated": now,
		"lastUpdatedBy":   updatedBy,
		"version":         expectedVersion + 1,
	}
	if changes.Status != nil {
		patch["status"] = *changes.Status
	}
	if changes.PaymentDetails != nil {
		patch["paymentDetails"] = changes.PaymentDetails
	}
	if changes.PDFURL != nil {
		patch["pdfUrl"] = *changes.PDFURL
	}
	if changes.Active != nil {
		patch["active"] = *changes.Active
	}

	patchJSON, err := json.Marshal(patch)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to encode update")
	}

	var (
		doc     []byte
		version int64
	)
	err = s.db.QueryRow(ctx,
		`UPDATE orders
		 SET doc = doc || $4::jsonb,
		     version = version + 1,
		     date_last_updated = $5
		 WHERE tenant_id = $1 AND order_id = $2 AND version = $3
		 RETURNING doc, version`,
		tenantID, orderID, expectedVersion, patchJSON, now,
	).Scan(&doc, &version)

	if errors.Is(err, pgx.ErrNoRows) {
		// Zero rows means either the key is absent or the version moved on.
		var exists bool
		checkErr := s.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM orders WHERE tenant_id = $1 AND order_id = $2)`,
			tenantID, orderID,
		).Scan(&exists)
		if checkErr != nil {
			return nil, domain.WrapError(checkErr, domain.EUNAVAILABLE, op, "failed to check order existence")
		}
		if !exists {
			return nil, domain.WrapSentinel(domain.ErrOrderNotFound, op, nil)
		}

		s.logger.Warn().
			Str("tenant_id", tenantID).
			Str("order_id", orderID).
			Int64("expected_version", expectedVersion).
			Msg("conditional update lost a race")
		return nil, domain.WrapSentinel(domain.ErrVersionConflict, op, nil)
	}
	if err != nil {
		return nil, domain.WrapError(err, domain.EUNAVAILABLE, op, "failed to update order")
	}

	var order domain.Order
	if err := json.Unmarshal(doc, &order); err != nil {
		return nil, domain.Internal(err, op, "stored order document is corrupt")
	}
	order.Version = version

	return &order, nil
}

// NextOrderNumber mints the next number in the per-tenant-per-day sequence.
// The upsert increments under the row lock, so concurrent callers serialize
// in the database and never observe the same value.
func (s *PostgresStore) NextOrderNumber(ctx context.Context, tenantID string) (string, error) {
	const op = "store.next_order_number"

	day := s.now().UTC().Truncate(24 * time.Hour)

	var seq int64
	err := s.db.QueryRow(ctx,
		`INSERT INTO order_counters (tenant_id, day, seq)
		 VALUES ($1, $2, 1)
		 ON CONFLICT (tenant_id, day) DO UPDATE SET seq = order_counters.seq + 1
		 RETURNING seq`,
		tenantID, day,
	).Scan(&seq)
	if err != nil {
		return "", domain.WrapError(err, domain.EUNAVAILABLE, op, "failed to increment order counter")
	}

	number := FormatOrderNumber(day, seq)
	s.logger.Debug().Str("tenant_id", tenantID).Str("order_number", number).Msg("order number minted")
	return number, nil
}
