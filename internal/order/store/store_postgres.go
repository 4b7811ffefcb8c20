package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/notorious-utopia/egrn/internal/order/models"
	id "github.com/notorious-utopia/egrn/pkg/domain"
	"github.com/notorious-utopia/egrn/pkg/platform/sentinel"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint hits.
const pgUniqueViolation = "23505"

// PostgresOrderStore persists orders in PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE orders (
//	    id               UUID PRIMARY KEY,
//	    username         TEXT NOT NULL,
//	    cadastral_number TEXT NOT NULL,
//	    external_id      TEXT NOT NULL UNIQUE,
//	    tracking_id      TEXT NOT NULL,
//	    status           TEXT NOT NULL,
//	    created_at       TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX orders_username_idx ON orders (username, created_at DESC);
type PostgresOrderStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed order store.
func NewPostgres(db *sql.DB) *PostgresOrderStore {
	return &PostgresOrderStore{db: db}
}

func (s *PostgresOrderStore) Create(ctx context.Context, order *models.Order) error {
	const query = `
		INSERT INTO orders (id, username, cadastral_number, external_id, tracking_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		order.ID.String(),
		order.Username,
		order.CadastralNumber,
		order.ExternalID,
		order.TrackingID,
		order.Status.Raw(),
		order.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (s *PostgresOrderStore) ListByUser(ctx context.Context, username string) ([]*models.Order, error) {
	const query = `
		SELECT id, username, cadastral_number, external_id, tracking_id, status, created_at
		FROM orders
		WHERE username = $1
		ORDER BY created_at DESC
	`
	return s.queryOrders(ctx, query, username)
}

func (s *PostgresOrderStore) ListOpenByUser(ctx context.Context, username string) ([]*models.Order, error) {
	// Open means "not terminal"; unknown statuses stay open, so the filter
	// excludes only the completed raw value.
	const query = `
		SELECT id, username, cadastral_number, external_id, tracking_id, status, created_at
		FROM orders
		WHERE username = $1 AND status <> $2
		ORDER BY created_at DESC
	`
	return s.queryOrders(ctx, query, username, models.StatusCompleted.Raw())
}

func (s *PostgresOrderStore) FindByExternalID(ctx context.Context, externalID string) (*models.Order, error) {
	const query = `
		SELECT id, username, cadastral_number, external_id, tracking_id, status, created_at
		FROM orders
		WHERE external_id = $1
	`
	row := s.db.QueryRowContext(ctx, query, externalID)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find order by external id: %w", err)
	}
	return order, nil
}

func (s *PostgresOrderStore) UpdateStatus(ctx context.Context, externalID string, status models.Status, trackingID string) error {
	// Single-statement row update keeps the write atomic per order.
	const query = `
		UPDATE orders
		SET status = $2,
		    tracking_id = CASE WHEN $3 = '' THEN tracking_id ELSE $3 END
		WHERE external_id = $1
	`
	res, err := s.db.ExecContext(ctx, query, externalID, status.Raw(), trackingID)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		o         models.Order
		orderID   string
		rawStatus string
	)
	if err := row.Scan(&orderID, &o.Username, &o.CadastralNumber, &o.ExternalID, &o.TrackingID, &rawStatus, &o.CreatedAt); err != nil {
		return nil, err
	}
	parsed, err := id.ParseOrderID(orderID)
	if err != nil {
		return nil, fmt.Errorf("stored order id invalid: %w", err)
	}
	o.ID = parsed
	o.Status = models.StatusFromRaw(rawStatus)
	return &o, nil
}

func (s *PostgresOrderStore) queryOrders(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return out, nil
}
