package models

import (
	"time"

	id "github.com/notorious-utopia/egrn/pkg/domain"
)

// Order is a user's request for a property-record extract. It is created by
// the submission flow and mutated only by the reconciliation engine (status
// and tracking fields); it is never deleted.
type Order struct {
	ID              id.OrderID
	Username        string
	CadastralNumber string
	// ExternalID is the opaque identifier the registry assigned at
	// submission. Exactly one order row exists per ExternalID.
	ExternalID string
	// TrackingID is the registry-side case number; TrackingPending until the
	// registry accepts the order.
	TrackingID string
	Status     Status
	// CreatedAt is stored in UTC and converted to the display zone only at
	// presentation and notification time.
	CreatedAt time.Time
}
