package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "github.com/notorious-utopia/egrn/pkg/domain"
	"github.com/notorious-utopia/egrn/pkg/platform/sentinel"
)

// PostgresStore reads users from the shared users table. Writes to that table
// belong to the registration flow and never happen here.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed read-only user store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) List(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, username, email FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, username, email FROM users WHERE username = $1`, username)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return u, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u     User
		rawID string
	)
	if err := row.Scan(&rawID, &u.Username, &u.Email); err != nil {
		return nil, err
	}
	parsed, err := id.ParseUserID(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored user id invalid: %w", err)
	}
	u.ID = parsed
	return &u, nil
}
