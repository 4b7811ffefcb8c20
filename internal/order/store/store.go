// Package store persists orders. Implementations must keep one row per
// external registry identifier and make status updates atomic per order.
package store

import (
	"context"

	"github.com/notorious-utopia/egrn/internal/order/models"
)

// OrderStore is the single shared mutable resource of the reconciliation
// core. Writers are the submission flow (Create) and the reconciliation
// engine (UpdateStatus); conflicting writes to the same row must serialize.
type OrderStore interface {
	// Create inserts a new order. A duplicate ExternalID fails with
	// sentinel.ErrConflict and leaves the existing row untouched.
	Create(ctx context.Context, order *models.Order) error

	// ListByUser returns every order owned by username, newest first.
	ListByUser(ctx context.Context, username string) ([]*models.Order, error)

	// ListOpenByUser returns username's orders whose stored status is not
	// terminal. Unknown statuses count as open.
	ListOpenByUser(ctx context.Context, username string) ([]*models.Order, error)

	// FindByExternalID resolves an order by its registry identifier,
	// returning sentinel.ErrNotFound when absent.
	FindByExternalID(ctx context.Context, externalID string) (*models.Order, error)

	// UpdateStatus durably replaces the order's status and tracking id.
	// The write is atomic: either the new status is visible or the call
	// fails with no partial state.
	UpdateStatus(ctx context.Context, externalID string, status models.Status, trackingID string) error
}
