package audit

import (
	"context"
	"database/sql"
	"fmt"

	id "github.com/notorious-utopia/egrn/pkg/domain"
)

// PostgresStore persists audit events in the order_transitions table.
//
// Expected schema:
//
//	CREATE TABLE order_transitions (
//	    id          BIGSERIAL PRIMARY KEY,
//	    occurred_at TIMESTAMPTZ NOT NULL,
//	    order_id    TEXT NOT NULL,
//	    external_id TEXT NOT NULL,
//	    username    TEXT NOT NULL,
//	    action      TEXT NOT NULL,
//	    old_status  TEXT NOT NULL,
//	    new_status  TEXT NOT NULL,
//	    request_id  TEXT NOT NULL DEFAULT '',
//	    client_info TEXT NOT NULL DEFAULT ''
//	);
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed audit store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	const query = `
		INSERT INTO order_transitions
			(occurred_at, order_id, external_id, username, action, old_status, new_status, request_id, client_info)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.Timestamp,
		event.OrderID.String(),
		event.ExternalID,
		event.Username,
		string(event.Action),
		event.OldStatus,
		event.NewStatus,
		event.RequestID,
		event.ClientInfo,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByOrder(ctx context.Context, externalID string) ([]Event, error) {
	const query = `
		SELECT occurred_at, order_id, external_id, username, action, old_status, new_status, request_id, client_info
		FROM order_transitions
		WHERE external_id = $1
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, externalID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e       Event
			orderID string
			action  string
		)
		if err := rows.Scan(&e.Timestamp, &orderID, &e.ExternalID, &e.Username, &action, &e.OldStatus, &e.NewStatus, &e.RequestID, &e.ClientInfo); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		parsed, err := id.ParseOrderID(orderID)
		if err != nil {
			return nil, fmt.Errorf("stored audit order id invalid: %w", err)
		}
		e.OrderID = parsed
		e.Action = Action(action)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return out, nil
}
