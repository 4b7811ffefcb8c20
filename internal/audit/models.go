// Package audit records what happened to every order: submissions, status
// transitions applied by the reconciliation engine, and notification
// outcomes. Events are append-only and transport-agnostic so stores and
// sinks can fan out.
package audit

import (
	"time"

	id "github.com/notorious-utopia/egrn/pkg/domain"
)

// Action names the recorded occurrence.
type Action string

const (
	ActionOrderSubmitted    Action = "order_submitted"
	ActionStatusUpdated     Action = "status_updated"
	ActionOrderCompleted    Action = "order_completed"
	ActionNotificationSent  Action = "notification_sent"
	ActionNotificationError Action = "notification_failed"
)

// Event is emitted from domain logic to capture one occurrence on one order.
type Event struct {
	Timestamp  time.Time
	OrderID    id.OrderID
	ExternalID string
	Username   string
	Action     Action
	// OldStatus and NewStatus carry raw registry strings; empty when the
	// action is not a transition.
	OldStatus string
	NewStatus string
	// RequestID correlates user-initiated events with HTTP requests; empty
	// for events produced by the background pass.
	RequestID string
	// ClientInfo is a human-readable client description (IP, browser)
	// captured at the submission boundary.
	ClientInfo string
}
