// Package user exposes a read-only view over registered users. Registration,
// credential storage, and sessions are owned by the front-end collaborator;
// the core only enumerates users and resolves usernames for notification.
package user

import (
	"context"

	id "github.com/notorious-utopia/egrn/pkg/domain"
)

// User is the read-only projection the core needs: identity, username for
// order ownership, email for notification. The credential hash never enters
// this package.
type User struct {
	ID       id.UserID
	Username string
	Email    string
}

// Store lists users for the reconciliation pass and resolves usernames.
type Store interface {
	// List returns every registered user.
	List(ctx context.Context) ([]*User, error)

	// FindByUsername resolves a user, returning sentinel.ErrNotFound when
	// absent.
	FindByUsername(ctx context.Context, username string) (*User, error)
}
